package ir

import (
	"fmt"
	"io"
	"strings"
)

// Dump writes a simple human-readable representation of the context.
func Dump(ctx *Context, w io.Writer) {
	if ctx == nil {
		fmt.Fprintln(w, "<nil context>")
		return
	}
	for _, comp := range ctx.Types {
		if comp.External {
			fmt.Fprintf(w, "extern component %s\n", comp.Name)
		} else {
			fmt.Fprintf(w, "component %s\n", comp.Name)
		}
		dumpFields(comp, w)
		dumpFunctions(comp, w)
		dumpBindings(comp, w)
		fmt.Fprintln(w)
	}
}

func dumpFields(comp *ComponentType, w io.Writer) {
	if len(comp.Fields) == 0 {
		return
	}
	fmt.Fprintln(w, "  fields:")
	for _, f := range comp.Fields {
		extra := ""
		if f.Kind == Const {
			extra = fmt.Sprintf(" = %d", f.Default)
		}
		if len(f.Params) > 0 {
			params := make([]string, 0, len(f.Params))
			for _, p := range f.Params {
				params = append(params, fmt.Sprintf("%s=%s", p.Name, WidthString(p.Value)))
			}
			extra += " #(" + strings.Join(params, ", ") + ")"
		}
		fmt.Fprintf(w, "    %-6s %-8s %s%s\n", f.Kind, f.Name, TypeString(f.Type), extra)
	}
}

func dumpFunctions(comp *ComponentType, w io.Writer) {
	for _, fn := range comp.Functions {
		params := make([]string, 0, len(fn.Params))
		for _, p := range fn.Params {
			params = append(params, p.Name+" "+TypeString(p.Type))
		}
		fmt.Fprintf(w, "  func %s(%s) %s", fn.Name, strings.Join(params, ", "), fn.Kind)
		if fn.Kind == Clocked {
			fmt.Fprintf(w, " clock=%s", ExprString(fn.Clock))
			if fn.Reset != nil {
				fmt.Fprintf(w, " reset=%s", ExprString(fn.Reset))
			}
		}
		fmt.Fprintln(w)
		dumpStmts(fn.Body, w, 2)
	}
}

func dumpBindings(comp *ComponentType, w io.Writer) {
	if len(comp.Bindings) == 0 {
		return
	}
	fmt.Fprintln(w, "  bind:")
	for _, b := range comp.Bindings {
		fmt.Fprintf(w, "    %s <- %s\n", b.Target, b.Source)
	}
}

func dumpStmts(stmts []Stmt, w io.Writer, depth int) {
	ind := strings.Repeat("  ", depth)
	for _, stmt := range stmts {
		switch s := stmt.(type) {
		case *AssignStmt:
			targets := make([]string, 0, len(s.Targets))
			for _, t := range s.Targets {
				targets = append(targets, ExprString(t))
			}
			fmt.Fprintf(w, "%s%s = %s\n", ind, strings.Join(targets, ", "), ExprString(s.Value))
		case *AugAssignStmt:
			fmt.Fprintf(w, "%s%s %s= %s\n", ind, ExprString(s.Target), binOpSymbol(s.Op), ExprString(s.Value))
		case *IfStmt:
			fmt.Fprintf(w, "%sif %s\n", ind, ExprString(s.Cond))
			dumpStmts(s.Then, w, depth+1)
			if len(s.Else) > 0 {
				fmt.Fprintf(w, "%selse\n", ind)
				dumpStmts(s.Else, w, depth+1)
			}
		case *MatchStmt:
			fmt.Fprintf(w, "%smatch %s\n", ind, ExprString(s.Subject))
			for _, c := range s.Cases {
				labels := make([]string, 0, len(c.Labels))
				for _, l := range c.Labels {
					labels = append(labels, ExprString(l))
				}
				if len(labels) == 0 {
					labels = append(labels, "_")
				}
				fmt.Fprintf(w, "%s  case %s\n", ind, strings.Join(labels, ", "))
				dumpStmts(c.Body, w, depth+2)
			}
		case *ForStmt:
			fmt.Fprintf(w, "%sfor %s in %s..%s step %d\n", ind, s.Var, ExprString(s.Start), ExprString(s.Stop), s.Step)
			dumpStmts(s.Body, w, depth+1)
		case *WhileStmt:
			fmt.Fprintf(w, "%swhile %s\n", ind, ExprString(s.Cond))
			dumpStmts(s.Body, w, depth+1)
		case *WaitEdgeStmt:
			fmt.Fprintf(w, "%sawait %s(%s)\n", ind, s.Edge, ExprString(s.Signal))
		case *WaitDelayStmt:
			fmt.Fprintf(w, "%sawait delay(%d%s)\n", ind, s.Amount, s.Unit)
		case *ReturnStmt:
			if s.Value == nil {
				fmt.Fprintf(w, "%sreturn\n", ind)
			} else {
				fmt.Fprintf(w, "%sreturn %s\n", ind, ExprString(s.Value))
			}
		default:
			fmt.Fprintf(w, "%s<unknown stmt %T>\n", ind, stmt)
		}
	}
}

// TypeString renders a data type in IR notation.
func TypeString(t DataType) string {
	switch tt := t.(type) {
	case nil:
		return "void"
	case *IntType:
		prefix := "u"
		if tt.Signed {
			prefix = "s"
		}
		return prefix + "<" + WidthString(tt.Width) + ">"
	case *BundleType:
		return "bundle " + tt.Name
	case *RefType:
		return tt.Name
	case *ProtocolType:
		return "protocol " + tt.Name
	default:
		return fmt.Sprintf("<unknown type %T>", t)
	}
}

// WidthString renders a width expression in IR notation.
func WidthString(e WidthExpr) string {
	switch we := e.(type) {
	case nil:
		return "?"
	case *WidthLit:
		return fmt.Sprint(we.Value)
	case *WidthRef:
		return we.Name
	case *WidthBin:
		return "(" + WidthString(we.Left) + binOpSymbol(we.Op) + WidthString(we.Right) + ")"
	default:
		return fmt.Sprintf("<unknown width %T>", e)
	}
}

// ExprString renders an expression in IR notation.
func ExprString(e Expr) string {
	switch x := e.(type) {
	case nil:
		return "<nil>"
	case *ConstExpr:
		if x.Width > 0 {
			return fmt.Sprintf("%d:u%d", x.Value, x.Width)
		}
		return fmt.Sprint(x.Value)
	case *FieldRef:
		return "self." + x.Name
	case *LocalRef:
		return x.Name
	case *AttrExpr:
		return ExprString(x.Value) + "." + x.Attr
	case *BinExpr:
		return "(" + ExprString(x.Left) + " " + binOpSymbol(x.Op) + " " + ExprString(x.Right) + ")"
	case *UnaryExpr:
		return unaryOpSymbol(x.Op) + ExprString(x.Value)
	case *BoolExpr:
		parts := make([]string, 0, len(x.Values))
		for _, v := range x.Values {
			parts = append(parts, ExprString(v))
		}
		sep := " and "
		if x.Op == LogicalOr {
			sep = " or "
		}
		return "(" + strings.Join(parts, sep) + ")"
	case *CompareExpr:
		return "(" + ExprString(x.Left) + " " + cmpOpSymbol(x.Op) + " " + ExprString(x.Right) + ")"
	default:
		return fmt.Sprintf("<unknown expr %T>", e)
	}
}

func binOpSymbol(op BinOp) string {
	switch op {
	case Add:
		return "+"
	case Sub:
		return "-"
	case Mul:
		return "*"
	case Div:
		return "/"
	case Mod:
		return "%"
	case Shl:
		return "<<"
	case Shr:
		return ">>"
	case And:
		return "&"
	case Or:
		return "|"
	case Xor:
		return "^"
	default:
		return "?"
	}
}

func unaryOpSymbol(op UnaryOp) string {
	switch op {
	case Not:
		return "not "
	case Invert:
		return "~"
	case Neg:
		return "-"
	default:
		return "?"
	}
}

func cmpOpSymbol(op CmpOp) string {
	switch op {
	case CompareEQ:
		return "=="
	case CompareNE:
		return "!="
	case CompareLT:
		return "<"
	case CompareLE:
		return "<="
	case CompareGT:
		return ">"
	case CompareGE:
		return ">="
	default:
		return "?"
	}
}
