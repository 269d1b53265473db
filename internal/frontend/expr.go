package frontend

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"strconv"
	"strings"

	"svgen/internal/ir"
)

var binOps = map[token.Token]ir.BinOp{
	token.ADD: ir.Add,
	token.SUB: ir.Sub,
	token.MUL: ir.Mul,
	token.QUO: ir.Div,
	token.REM: ir.Mod,
	token.SHL: ir.Shl,
	token.SHR: ir.Shr,
	token.AND: ir.And,
	token.OR:  ir.Or,
	token.XOR: ir.Xor,
}

var cmpOps = map[token.Token]ir.CmpOp{
	token.EQL: ir.CompareEQ,
	token.NEQ: ir.CompareNE,
	token.LSS: ir.CompareLT,
	token.LEQ: ir.CompareLE,
	token.GTR: ir.CompareGT,
	token.GEQ: ir.CompareGE,
}

var augOps = map[string]ir.BinOp{
	"+":  ir.Add,
	"-":  ir.Sub,
	"*":  ir.Mul,
	"/":  ir.Div,
	"%":  ir.Mod,
	"<<": ir.Shl,
	">>": ir.Shr,
	"&":  ir.And,
	"|":  ir.Or,
	"^":  ir.Xor,
}

// parseWidth parses a width expression: integers, constant names and the
// binary arithmetic operators.
func parseWidth(src string) (ir.WidthExpr, error) {
	node, err := parser.ParseExpr(src)
	if err != nil {
		return nil, fmt.Errorf("width %q: %w", src, err)
	}
	return widthFrom(node)
}

func widthFrom(node ast.Expr) (ir.WidthExpr, error) {
	switch n := node.(type) {
	case *ast.BasicLit:
		if n.Kind != token.INT {
			return nil, fmt.Errorf("width literal %s is not an integer", n.Value)
		}
		v, err := strconv.ParseInt(n.Value, 0, 64)
		if err != nil {
			return nil, fmt.Errorf("width literal %s: %w", n.Value, err)
		}
		return &ir.WidthLit{Value: v}, nil
	case *ast.Ident:
		return &ir.WidthRef{Name: n.Name}, nil
	case *ast.ParenExpr:
		return widthFrom(n.X)
	case *ast.BinaryExpr:
		op, ok := binOps[n.Op]
		if !ok {
			return nil, fmt.Errorf("operator %s is not allowed in widths", n.Op)
		}
		left, err := widthFrom(n.X)
		if err != nil {
			return nil, err
		}
		right, err := widthFrom(n.Y)
		if err != nil {
			return nil, err
		}
		return &ir.WidthBin{Op: op, Left: left, Right: right}, nil
	default:
		return nil, fmt.Errorf("unsupported width syntax %T", node)
	}
}

// exprParser turns expression strings into IR expressions. Names not
// qualified by self are locals and must be declared.
type exprParser struct {
	locals map[string]bool
}

func (p *exprParser) parse(src string) (ir.Expr, error) {
	node, err := parser.ParseExpr(src)
	if err != nil {
		return nil, fmt.Errorf("expression %q: %w", src, err)
	}
	e, err := p.expr(node)
	if err != nil {
		return nil, fmt.Errorf("expression %q: %w", src, err)
	}
	return e, nil
}

func (p *exprParser) expr(node ast.Expr) (ir.Expr, error) {
	switch n := node.(type) {
	case *ast.BasicLit:
		if n.Kind != token.INT {
			return nil, fmt.Errorf("literal %s is not an integer", n.Value)
		}
		v, err := strconv.ParseInt(n.Value, 0, 64)
		if err != nil {
			return nil, err
		}
		return &ir.ConstExpr{Value: v}, nil
	case *ast.Ident:
		switch n.Name {
		case "self":
			return nil, fmt.Errorf("self must be followed by a field name")
		case "true":
			return &ir.ConstExpr{Value: 1, Width: 1}, nil
		case "false":
			return &ir.ConstExpr{Value: 0, Width: 1}, nil
		}
		if !p.locals[n.Name] {
			return nil, fmt.Errorf("unknown local %s; component fields are written self.%s", n.Name, n.Name)
		}
		return &ir.LocalRef{Name: n.Name}, nil
	case *ast.SelectorExpr:
		if id, ok := n.X.(*ast.Ident); ok && id.Name == "self" {
			return &ir.FieldRef{Name: n.Sel.Name}, nil
		}
		inner, err := p.expr(n.X)
		if err != nil {
			return nil, err
		}
		return &ir.AttrExpr{Value: inner, Attr: n.Sel.Name}, nil
	case *ast.ParenExpr:
		return p.expr(n.X)
	case *ast.CallExpr:
		return p.sized(n)
	case *ast.UnaryExpr:
		val, err := p.expr(n.X)
		if err != nil {
			return nil, err
		}
		switch n.Op {
		case token.NOT:
			return &ir.UnaryExpr{Op: ir.Not, Value: val}, nil
		case token.XOR:
			return &ir.UnaryExpr{Op: ir.Invert, Value: val}, nil
		case token.SUB:
			if c, ok := val.(*ir.ConstExpr); ok {
				return &ir.ConstExpr{Value: -c.Value, Width: c.Width}, nil
			}
			return &ir.UnaryExpr{Op: ir.Neg, Value: val}, nil
		case token.ADD:
			return val, nil
		default:
			return nil, fmt.Errorf("unsupported unary operator %s", n.Op)
		}
	case *ast.BinaryExpr:
		left, err := p.expr(n.X)
		if err != nil {
			return nil, err
		}
		right, err := p.expr(n.Y)
		if err != nil {
			return nil, err
		}
		if op, ok := binOps[n.Op]; ok {
			return &ir.BinExpr{Op: op, Left: left, Right: right}, nil
		}
		if op, ok := cmpOps[n.Op]; ok {
			return &ir.CompareExpr{Op: op, Left: left, Right: right}, nil
		}
		switch n.Op {
		case token.LAND:
			return joinBool(ir.LogicalAnd, left, right), nil
		case token.LOR:
			return joinBool(ir.LogicalOr, left, right), nil
		}
		return nil, fmt.Errorf("unsupported operator %s", n.Op)
	default:
		return nil, fmt.Errorf("unsupported syntax %T", node)
	}
}

// sized parses u<N>(value) into a constant of width N.
func (p *exprParser) sized(call *ast.CallExpr) (ir.Expr, error) {
	fn, ok := call.Fun.(*ast.Ident)
	if !ok || len(call.Args) != 1 || len(fn.Name) < 2 || fn.Name[0] != 'u' {
		return nil, fmt.Errorf("calls are not expressions; use u<N>(value) for sized constants")
	}
	width, err := strconv.Atoi(fn.Name[1:])
	if err != nil || width <= 0 {
		return nil, fmt.Errorf("bad constant width in %s", fn.Name)
	}
	val, err := p.expr(call.Args[0])
	if err != nil {
		return nil, err
	}
	c, ok := val.(*ir.ConstExpr)
	if !ok {
		return nil, fmt.Errorf("%s takes an integer literal", fn.Name)
	}
	return &ir.ConstExpr{Value: c.Value, Width: width}, nil
}

// joinBool flattens chains of the same logical operator into one node.
func joinBool(op ir.BoolOp, left, right ir.Expr) ir.Expr {
	var values []ir.Expr
	if b, ok := left.(*ir.BoolExpr); ok && b.Op == op {
		values = append(values, b.Values...)
	} else {
		values = append(values, left)
	}
	if b, ok := right.(*ir.BoolExpr); ok && b.Op == op {
		values = append(values, b.Values...)
	} else {
		values = append(values, right)
	}
	return &ir.BoolExpr{Op: op, Values: values}
}

// parseRef splits a dotted binding endpoint.
func parseRef(src string) (ir.Ref, error) {
	src = strings.TrimPrefix(strings.TrimSpace(src), "self.")
	if src == "" {
		return ir.Ref{}, fmt.Errorf("empty reference")
	}
	parts := strings.Split(src, ".")
	for _, part := range parts {
		if part == "" {
			return ir.Ref{}, fmt.Errorf("malformed reference %q", src)
		}
	}
	return ir.Ref{Path: parts}, nil
}
