package sv

import (
	"strings"

	"svgen/internal/ir"
)

// exportIface is the lowered interface of one export field.
type exportIface struct {
	field *ir.Field
	name  string
	// mirrors are the component signals visible inside the interface, ports
	// first and then internal signals, each in flattened order.
	mirrors []flatSignal
	// driven holds the raw names of the mirrored leaves a task assigns.
	driven map[string]bool
	text   string
}

// instanceText is the declaration of the interface inside the module.
func (x *exportIface) instanceText(params []*ir.Field) string {
	inst := Sanitize(x.field.Name)
	if len(params) == 0 {
		return x.name + " " + inst + "();"
	}
	overrides := make([]string, 0, len(params))
	for _, p := range params {
		n := Sanitize(p.Name)
		overrides = append(overrides, "."+n+"("+n+")")
	}
	return x.name + " #(" + strings.Join(overrides, ", ") + ") " + inst + "();"
}

// boundary lists the continuous assignments connecting the interface to the
// module: task-driven leaves flow out of the interface, everything else
// flows in. Input leaves are never task-driven, so no assign drives one.
func (x *exportIface) boundary() []assignment {
	inst := Sanitize(x.field.Name)
	out := make([]assignment, 0, len(x.mirrors))
	for _, m := range x.mirrors {
		if x.driven[m.raw()] && !isInput(m) {
			out = append(out, assignment{lhs: m.name, rhs: inst + "." + m.name})
		} else {
			out = append(out, assignment{lhs: inst + "." + m.name, rhs: m.name})
		}
	}
	return out
}

// exports lowers every export field that has at least one bound method.
func (l *lowerer) exports(plan *connectionPlan, params []*ir.Field) ([]*exportIface, error) {
	var out []*exportIface
	for _, f := range l.comp.Fields {
		if f.Kind != ir.Export {
			continue
		}
		methods := plan.methods[f.Name]
		if len(methods) == 0 {
			continue
		}
		x, err := l.exportIface(f, methods, plan, params)
		if err != nil {
			return nil, err
		}
		out = append(out, x)
	}
	return out, nil
}

func (l *lowerer) exportIface(f *ir.Field, methods []boundMethod, plan *connectionPlan, params []*ir.Field) (*exportIface, error) {
	x := &exportIface{
		field:  f,
		name:   Sanitize(l.comp.Name) + "_" + Sanitize(f.Name),
		driven: make(map[string]bool),
	}
	read := make(map[string]bool)
	for _, m := range methods {
		refs := &refSet{export: f.Name, touched: read, written: x.driven, members: read}
		refs.stmts(m.fn.Body)
	}
	// Processes may read interface members directly.
	for _, fn := range l.comp.Functions {
		if fn.Kind == ir.Plain {
			continue
		}
		refs := &refSet{export: f.Name, touched: make(map[string]bool), written: make(map[string]bool), members: read}
		refs.stmts(fn.Body)
	}
	// Members bound to module signals are mirrored as well.
	for _, e := range plan.entries {
		if e.assign == nil {
			continue
		}
		for _, r := range []ir.Ref{e.binding.Target, e.binding.Source} {
			if len(r.Path) >= 2 && r.Head() == f.Name {
				read[r.Path[1]] = true
			}
		}
	}

	var ports, state []flatSignal
	for _, cf := range l.comp.Fields {
		if !read[cf.Name] {
			continue
		}
		switch cf.Kind {
		case ir.Input, ir.Output, ir.Signal:
		case ir.Const:
			continue
		default:
			return nil, &UnsupportedStatementError{
				Function: f.Name,
				Stmt:     "reference to " + cf.Name,
				Reason:   cf.Kind.String() + " fields are not visible inside an export interface",
			}
		}
		sigs, err := l.signals(cf)
		if err != nil {
			return nil, err
		}
		if cf.IsPort() {
			ports = append(ports, sigs...)
		} else {
			state = append(state, sigs...)
		}
	}
	x.mirrors = append(ports, state...)

	scope := newNameTable()
	p := &printer{}
	l.provenance(p, f.Source)
	if len(params) == 0 {
		p.line("interface %s;", x.name)
	} else {
		p.line("interface %s #(", x.name)
		p.indent++
		for i, c := range params {
			p.line("parameter int %s = %d%s", Sanitize(c.Name), c.Default, listSep(i, len(params)))
		}
		p.indent--
		p.line(");")
	}
	p.indent++
	for _, m := range x.mirrors {
		if err := scope.declare(m.raw(), m.name); err != nil {
			return nil, err
		}
		p.line("%s %s;", logicType(m.width, m.signed), m.name)
	}
	for _, m := range methods {
		if err := scope.declare(m.sig.Name, Sanitize(m.sig.Name)); err != nil {
			return nil, err
		}
		p.blank()
		if err := l.task(p, m); err != nil {
			return nil, err
		}
	}
	p.indent--
	p.line("endinterface")
	x.text = p.String()
	return x, nil
}

// task emits one bound method as an automatic task. The return value, if
// any, is carried by the output argument __result.
func (l *lowerer) task(p *printer, m boundMethod) error {
	fn := m.fn
	env := newExprEnv()
	args := make([]string, 0, len(fn.Params)+1)
	for _, param := range fn.Params {
		decl, err := l.localType(param)
		if err != nil {
			return err
		}
		args = append(args, "input "+decl+" "+l.names.sanitize(param.Name))
		env = env.with(param.Name, param.Type)
	}
	c := &procCtx{fn: fn, kind: ir.FreeRunning, task: true}
	if fn.Result != nil {
		decl, err := l.localType(&ir.Param{Name: fn.Name + " result", Type: fn.Result})
		if err != nil {
			return err
		}
		c.result = "__result"
		args = append(args, "output "+decl+" "+c.result)
	}
	l.provenance(p, fn.Source)
	p.line("task automatic %s(%s);", Sanitize(m.sig.Name), strings.Join(args, ", "))
	p.indent++
	env, err := l.declareLocals(p, fn.Locals, env)
	if err != nil {
		return err
	}
	if err := l.stmts(p, fn.Body, c, env); err != nil {
		return err
	}
	p.indent--
	p.line("endtask")
	return nil
}

// refSet collects the component fields a statement list touches, the raw
// names of the leaves it assigns, and the members it selects through the
// export interface named export.
type refSet struct {
	export  string
	touched map[string]bool
	written map[string]bool
	members map[string]bool
}

func (r *refSet) stmts(list []ir.Stmt) {
	for _, s := range list {
		r.stmt(s)
	}
}

func (r *refSet) stmt(stmt ir.Stmt) {
	switch s := stmt.(type) {
	case *ir.AssignStmt:
		for _, t := range s.Targets {
			r.target(t)
		}
		r.expr(s.Value)
	case *ir.AugAssignStmt:
		r.target(s.Target)
		r.expr(s.Target)
		r.expr(s.Value)
	case *ir.IfStmt:
		r.expr(s.Cond)
		r.stmts(s.Then)
		r.stmts(s.Else)
	case *ir.MatchStmt:
		r.expr(s.Subject)
		for _, arm := range s.Cases {
			for _, lbl := range arm.Labels {
				r.expr(lbl)
			}
			r.stmts(arm.Body)
		}
	case *ir.ForStmt:
		r.expr(s.Start)
		r.expr(s.Stop)
		r.stmts(s.Body)
	case *ir.WhileStmt:
		r.expr(s.Cond)
		r.stmts(s.Body)
	case *ir.WaitEdgeStmt:
		r.expr(s.Signal)
	case *ir.ReturnStmt:
		r.expr(s.Value)
	}
}

func (r *refSet) target(e ir.Expr) {
	switch x := e.(type) {
	case *ir.FieldRef:
		r.touched[x.Name] = true
		r.written[x.Name] = true
	case *ir.AttrExpr:
		root, path := attrPath(x)
		if root == "" {
			return
		}
		r.touched[root] = true
		r.written[root+"."+strings.Join(path, ".")] = true
	}
}

func (r *refSet) expr(e ir.Expr) {
	switch x := e.(type) {
	case *ir.FieldRef:
		r.touched[x.Name] = true
	case *ir.AttrExpr:
		root, path := attrPath(x)
		switch root {
		case "":
			r.expr(x.Value)
		case r.export:
			r.members[path[0]] = true
		default:
			r.touched[root] = true
		}
	case *ir.BinExpr:
		r.expr(x.Left)
		r.expr(x.Right)
	case *ir.UnaryExpr:
		r.expr(x.Value)
	case *ir.BoolExpr:
		for _, v := range x.Values {
			r.expr(v)
		}
	case *ir.CompareExpr:
		r.expr(x.Left)
		r.expr(x.Right)
	}
}
