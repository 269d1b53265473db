package sv

import (
	"svgen/internal/ir"
)

// classify decides once per function how it is lowered: clocked functions
// become an always block, free-running ones an initial block, and plain
// functions are only emitted as export tasks.
func classify(fn *ir.Function) (ir.ProcessKind, error) {
	switch fn.Kind {
	case ir.Clocked:
		if fn.Clock == nil {
			return 0, &UnsupportedStatementError{Function: fn.Name, Stmt: "clocked process", Reason: "no clock expression"}
		}
		if len(fn.Params) > 0 {
			return 0, &UnsupportedStatementError{Function: fn.Name, Stmt: "clocked process", Reason: "processes take no parameters"}
		}
		return ir.Clocked, nil
	case ir.FreeRunning:
		if len(fn.Params) > 0 {
			return 0, &UnsupportedStatementError{Function: fn.Name, Stmt: "free-running process", Reason: "processes take no parameters"}
		}
		if fn.Reset != nil || fn.Clock != nil {
			return 0, &UnsupportedStatementError{Function: fn.Name, Stmt: "free-running process", Reason: "clock or reset capture on a free-running process"}
		}
		return ir.FreeRunning, nil
	default:
		return ir.Plain, nil
	}
}

// process emits the block for a clocked or free-running function.
func (l *lowerer) process(p *printer, fn *ir.Function, kind ir.ProcessKind) error {
	env := newExprEnv()
	switch kind {
	case ir.Clocked:
		clk, err := l.expr(fn.Clock, env)
		if err != nil {
			return err
		}
		sens := "posedge " + clk
		if fn.Reset != nil {
			rst, err := l.expr(fn.Reset, env)
			if err != nil {
				return err
			}
			sens += " or posedge " + rst
		}
		l.provenance(p, fn.Source)
		p.line("always @(%s) begin", sens)
	case ir.FreeRunning:
		l.provenance(p, fn.Source)
		p.line("initial begin")
	default:
		return nil
	}
	p.indent++
	env, err := l.declareLocals(p, fn.Locals, env)
	if err != nil {
		return err
	}
	c := &procCtx{fn: fn, kind: kind}
	if err := l.stmts(p, fn.Body, c, env); err != nil {
		return err
	}
	p.indent--
	p.line("end")
	return nil
}

// declareLocals emits one declaration per local variable and returns the
// environment that makes them visible.
func (l *lowerer) declareLocals(p *printer, locals []*ir.Param, env *exprEnv) (*exprEnv, error) {
	for _, local := range locals {
		decl, err := l.localType(local)
		if err != nil {
			return nil, err
		}
		p.line("%s %s;", decl, l.names.sanitize(local.Name))
		env = env.with(local.Name, local.Type)
	}
	return env, nil
}

// localType renders the type of a parameter or local variable.
func (l *lowerer) localType(v *ir.Param) (string, error) {
	it, ok := v.Type.(*ir.IntType)
	if !ok {
		return "", &UnsupportedStatementError{Stmt: "variable " + v.Name, Reason: "only integer locals are supported, got " + ir.TypeString(v.Type)}
	}
	width, err := l.scope.resolve(v.Name, it.Width)
	if err != nil {
		return "", err
	}
	return logicType(width, it.Signed), nil
}

// provenance writes a source-location comment in debug mode.
func (l *lowerer) provenance(p *printer, loc *ir.Location) {
	if l.opts.Debug && loc != nil {
		p.line("// %s", loc)
	}
}
