package sv

import (
	"fmt"
	"strings"

	"svgen/internal/ir"
)

// printer accumulates indented SystemVerilog text.
type printer struct {
	b      strings.Builder
	indent int
}

func (p *printer) line(format string, args ...any) {
	for i := 0; i < p.indent; i++ {
		p.b.WriteString("  ")
	}
	fmt.Fprintf(&p.b, format, args...)
	p.b.WriteByte('\n')
}

func (p *printer) blank() {
	p.b.WriteByte('\n')
}

func (p *printer) String() string {
	return p.b.String()
}

// procCtx is the lowering context of one process or task body.
type procCtx struct {
	fn   *ir.Function
	kind ir.ProcessKind
	task bool
	// result is the task output argument carrying the return value.
	result string
}

func (c *procCtx) assignOp() string {
	if c.kind == ir.Clocked {
		return "<="
	}
	return "="
}

func (c *procCtx) unsupported(stmt, reason string) error {
	name := ""
	if c.fn != nil {
		name = c.fn.Name
	}
	return &UnsupportedStatementError{Function: name, Stmt: stmt, Reason: reason}
}

func (l *lowerer) stmts(p *printer, list []ir.Stmt, c *procCtx, env *exprEnv) error {
	for _, stmt := range list {
		if err := l.stmt(p, stmt, c, env); err != nil {
			return err
		}
	}
	return nil
}

// stmt translates one statement. Assignments use the non-blocking form in
// clocked processes and the blocking form everywhere else.
func (l *lowerer) stmt(p *printer, stmt ir.Stmt, c *procCtx, env *exprEnv) error {
	switch s := stmt.(type) {
	case *ir.AssignStmt:
		if len(s.Targets) == 0 {
			return c.unsupported("assignment", "no targets")
		}
		val, err := l.expr(s.Value, env)
		if err != nil {
			return err
		}
		for _, t := range s.Targets {
			target, err := l.target(t, c, env)
			if err != nil {
				return err
			}
			p.line("%s %s %s;", target, c.assignOp(), val)
		}
		return nil
	case *ir.AugAssignStmt:
		op, ok := binOpText[s.Op]
		if !ok {
			return c.unsupported("augmented assignment", fmt.Sprintf("operator %d", s.Op))
		}
		target, err := l.target(s.Target, c, env)
		if err != nil {
			return err
		}
		val, err := l.operand(s.Value, env)
		if err != nil {
			return err
		}
		p.line("%s %s %s %s %s;", target, c.assignOp(), target, op, val)
		return nil
	case *ir.IfStmt:
		return l.ifChain(p, s, c, env)
	case *ir.MatchStmt:
		return l.match(p, s, c, env)
	case *ir.ForStmt:
		if s.Step <= 0 {
			return c.unsupported("loop", "step must be a positive constant")
		}
		start, err := l.expr(s.Start, env)
		if err != nil {
			return err
		}
		stop, err := l.expr(s.Stop, env)
		if err != nil {
			return err
		}
		v := l.names.sanitize(s.Var)
		p.line("for (int %s = %s; %s < %s; %s = %s + %d) begin", v, start, v, stop, v, v, s.Step)
		p.indent++
		if err := l.stmts(p, s.Body, c, env.with(s.Var, nil)); err != nil {
			return err
		}
		p.indent--
		p.line("end")
		return nil
	case *ir.WhileStmt:
		if c.kind == ir.Clocked {
			return c.unsupported("while loop", "unbounded loops are only allowed where timing controls are")
		}
		cond, err := l.expr(s.Cond, env)
		if err != nil {
			return err
		}
		p.line("while (%s) begin", cond)
		p.indent++
		if err := l.stmts(p, s.Body, c, env); err != nil {
			return err
		}
		p.indent--
		p.line("end")
		return nil
	case *ir.WaitEdgeStmt:
		if c.kind == ir.Clocked {
			return c.unsupported("edge wait", "timing control inside a clocked process")
		}
		sig, err := l.expr(s.Signal, env)
		if err != nil {
			return err
		}
		p.line("@(%s %s);", s.Edge, sig)
		return nil
	case *ir.WaitDelayStmt:
		if c.kind == ir.Clocked {
			return c.unsupported("delay", "timing control inside a clocked process")
		}
		if s.Amount < 0 {
			return c.unsupported("delay", "negative duration")
		}
		p.line("#%d%s;", s.Amount, s.Unit)
		return nil
	case *ir.ReturnStmt:
		if !c.task {
			return c.unsupported("return", "only export methods may return")
		}
		if s.Value != nil {
			if c.result == "" {
				return c.unsupported("return", "method declares no result")
			}
			val, err := l.expr(s.Value, env)
			if err != nil {
				return err
			}
			p.line("%s = %s;", c.result, val)
		}
		p.line("return;")
		return nil
	default:
		return c.unsupported(fmt.Sprintf("statement %T", stmt), "unsupported statement variant")
	}
}

func (l *lowerer) ifChain(p *printer, s *ir.IfStmt, c *procCtx, env *exprEnv) error {
	cond, err := l.expr(s.Cond, env)
	if err != nil {
		return err
	}
	p.line("if (%s) begin", cond)
	cur := s
	for {
		p.indent++
		if err := l.stmts(p, cur.Then, c, env); err != nil {
			return err
		}
		p.indent--
		if len(cur.Else) == 0 {
			p.line("end")
			return nil
		}
		if next, ok := cur.Else[0].(*ir.IfStmt); ok && len(cur.Else) == 1 {
			cond, err := l.expr(next.Cond, env)
			if err != nil {
				return err
			}
			p.line("end else if (%s) begin", cond)
			cur = next
			continue
		}
		p.line("end else begin")
		p.indent++
		if err := l.stmts(p, cur.Else, c, env); err != nil {
			return err
		}
		p.indent--
		p.line("end")
		return nil
	}
}

// match lowers a multi-way branch to a case statement. Arms keep declaration
// order; without a default arm an unmatched subject leaves every target
// unchanged.
func (l *lowerer) match(p *printer, s *ir.MatchStmt, c *procCtx, env *exprEnv) error {
	subject, err := l.expr(s.Subject, env)
	if err != nil {
		return err
	}
	p.line("case (%s)", subject)
	p.indent++
	seenDefault := false
	for _, arm := range s.Cases {
		label := "default"
		if len(arm.Labels) == 0 {
			if seenDefault {
				return c.unsupported("match", "more than one default arm")
			}
			seenDefault = true
		} else {
			labels := make([]string, 0, len(arm.Labels))
			for _, lbl := range arm.Labels {
				text, err := l.expr(lbl, env)
				if err != nil {
					return err
				}
				labels = append(labels, text)
			}
			label = strings.Join(labels, ", ")
		}
		p.line("%s: begin", label)
		p.indent++
		if err := l.stmts(p, arm.Body, c, env); err != nil {
			return err
		}
		p.indent--
		p.line("end")
	}
	p.indent--
	p.line("endcase")
	return nil
}

// target translates an assignment target and rejects anything that is not
// drivable from inside the component.
func (l *lowerer) target(e ir.Expr, c *procCtx, env *exprEnv) (string, error) {
	switch t := e.(type) {
	case *ir.LocalRef:
		return l.expr(t, env)
	case *ir.FieldRef:
		f := l.comp.Field(t.Name)
		if f == nil {
			return "", &UnresolvedReferenceError{Kind: "field", Name: t.Name}
		}
		switch f.Kind {
		case ir.Input:
			return "", c.unsupported("assignment", "drives input port "+t.Name)
		case ir.Const:
			return "", c.unsupported("assignment", "drives constant "+t.Name)
		}
		return l.expr(t, env)
	case *ir.AttrExpr:
		text, err := l.expr(t, env)
		if err != nil {
			return "", err
		}
		root, path := attrPath(t)
		f := l.comp.Field(root)
		if f == nil {
			return text, nil
		}
		switch f.Kind {
		case ir.Instance:
			return "", c.unsupported("assignment", "drives port of instance "+root)
		case ir.Export:
			return "", c.unsupported("assignment", "drives member of export "+root)
		case ir.Input, ir.Output:
			sigs, err := l.signals(f)
			if err != nil {
				return "", err
			}
			if leaf, ok := leafSignal(sigs, append([]string{root}, path...)); ok && leaf.dir == ir.DirIn {
				return "", c.unsupported("assignment", "drives input element "+leaf.name)
			}
		}
		return text, nil
	default:
		return "", c.unsupported("assignment", "target "+ir.ExprString(e)+" is not assignable")
	}
}

// attrPath splits an attribute chain into its root field and element path.
func attrPath(x *ir.AttrExpr) (string, []string) {
	var path []string
	var cur ir.Expr = x
	for {
		a, ok := cur.(*ir.AttrExpr)
		if !ok {
			break
		}
		path = append([]string{a.Attr}, path...)
		cur = a.Value
	}
	if root, ok := cur.(*ir.FieldRef); ok {
		return root.Name, path
	}
	return "", path
}
