package frontend

import (
	"fmt"
	"strings"

	"svgen/internal/ir"
)

var fieldKinds = map[string]ir.FieldKind{
	"input":  ir.Input,
	"output": ir.Output,
	"signal": ir.Signal,
	"const":  ir.Const,
	"inst":   ir.Instance,
	"export": ir.Export,
}

var processKinds = map[string]ir.ProcessKind{
	"plain":        ir.Plain,
	"clocked":      ir.Clocked,
	"free-running": ir.FreeRunning,
}

var directions = map[string]ir.Direction{
	"in":    ir.DirIn,
	"out":   ir.DirOut,
	"inout": ir.DirInOut,
}

// pathError prefixes err with the document path it was found at.
type pathError struct {
	path string
	err  error
}

func (e *pathError) Error() string {
	return e.path + ": " + e.err.Error()
}

func (e *pathError) Unwrap() error {
	return e.err
}

// at prefixes err with path, joining nested paths into one dotted path.
func at(path string, err error) error {
	if err == nil {
		return nil
	}
	if inner, ok := err.(*pathError); ok {
		sep := "."
		if strings.HasPrefix(inner.path, "[") {
			sep = ""
		}
		return &pathError{path: path + sep + inner.path, err: inner.err}
	}
	return &pathError{path: path, err: err}
}

func build(doc *contextDoc) (*ir.Context, error) {
	design := &ir.Context{}
	for i := range doc.Types {
		comp, err := buildComponent(&doc.Types[i])
		if err != nil {
			return nil, at(fmt.Sprintf("types[%d]", i), err)
		}
		design.Types = append(design.Types, comp)
	}
	return design, nil
}

func buildComponent(d *componentDoc) (*ir.ComponentType, error) {
	comp := &ir.ComponentType{
		Name:     d.Name,
		External: d.External,
		Source:   location(d.Source),
	}
	for i := range d.Fields {
		f, err := buildField(&d.Fields[i])
		if err != nil {
			return nil, at(fmt.Sprintf("fields[%d]", i), err)
		}
		comp.Fields = append(comp.Fields, f)
	}
	for i := range d.Functions {
		fn, err := buildFunction(&d.Functions[i])
		if err != nil {
			return nil, at(fmt.Sprintf("functions[%d]", i), err)
		}
		comp.Functions = append(comp.Functions, fn)
	}
	for i, b := range d.Bindings {
		target, err := parseRef(b.Target)
		if err != nil {
			return nil, at(fmt.Sprintf("bindings[%d].target", i), err)
		}
		source, err := parseRef(b.Source)
		if err != nil {
			return nil, at(fmt.Sprintf("bindings[%d].source", i), err)
		}
		comp.Bindings = append(comp.Bindings, ir.Binding{Target: target, Source: source, Pos: location(b.Pos)})
	}
	return comp, nil
}

func buildField(d *fieldDoc) (*ir.Field, error) {
	kind, ok := fieldKinds[d.Kind]
	if !ok {
		return nil, at("kind", fmt.Errorf("unknown field kind %q", d.Kind))
	}
	f := &ir.Field{
		Name:    d.Name,
		Kind:    kind,
		Default: d.Default,
		Source:  location(d.Source),
	}
	switch {
	case d.Type != nil:
		t, err := buildType(d.Type)
		if err != nil {
			return nil, at("type", err)
		}
		f.Type = t
	case kind != ir.Const:
		return nil, at("type", fmt.Errorf("%s fields need a type", d.Kind))
	}
	for i, p := range d.Params {
		v, err := parseWidth(p.Value.Expr)
		if err != nil {
			return nil, at(fmt.Sprintf("params[%d]", i), err)
		}
		f.Params = append(f.Params, ir.ParamBinding{Name: p.Name, Value: v})
	}
	return f, nil
}

func buildType(d *typeDoc) (ir.DataType, error) {
	set := 0
	var out ir.DataType
	if d.Logic != nil {
		set++
		w, err := parseWidth(d.Logic.Width.Expr)
		if err != nil {
			return nil, at("logic.width", err)
		}
		out = &ir.IntType{Width: w, Signed: d.Logic.Signed}
	}
	if d.Bundle != nil {
		set++
		bt := &ir.BundleType{Name: d.Bundle.Name}
		for _, c := range d.Bundle.Consts {
			bt.Consts = append(bt.Consts, ir.ConstDecl{Name: c.Name, Default: c.Default})
		}
		for i := range d.Bundle.Fields {
			bf := &d.Bundle.Fields[i]
			t, err := buildType(&bf.Type)
			if err != nil {
				return nil, at(fmt.Sprintf("bundle.fields[%d].type", i), err)
			}
			bt.Fields = append(bt.Fields, &ir.BundleField{Name: bf.Name, Type: t, Dir: directions[bf.Dir]})
		}
		out = bt
	}
	if d.Ref != "" {
		set++
		out = &ir.RefType{Name: d.Ref}
	}
	if d.Protocol != nil {
		set++
		pt := &ir.ProtocolType{Name: d.Protocol.Name}
		for i, m := range d.Protocol.Methods {
			sig := &ir.MethodSig{Name: m.Name}
			params, err := buildVars(m.Params)
			if err != nil {
				return nil, at(fmt.Sprintf("protocol.methods[%d]", i), err)
			}
			sig.Params = params
			if m.Result != nil {
				if sig.Result, err = buildType(m.Result); err != nil {
					return nil, at(fmt.Sprintf("protocol.methods[%d].result", i), err)
				}
			}
			pt.Methods = append(pt.Methods, sig)
		}
		out = pt
	}
	if set != 1 {
		return nil, fmt.Errorf("a type sets exactly one of logic, bundle, ref or protocol, got %d", set)
	}
	return out, nil
}

func buildVars(docs []varDoc) ([]*ir.Param, error) {
	var out []*ir.Param
	for i := range docs {
		t, err := buildType(&docs[i].Type)
		if err != nil {
			return nil, at(fmt.Sprintf("%s.type", docs[i].Name), err)
		}
		out = append(out, &ir.Param{Name: docs[i].Name, Type: t})
	}
	return out, nil
}

func buildFunction(d *functionDoc) (*ir.Function, error) {
	kind, ok := processKinds[d.Kind]
	if !ok {
		return nil, at("kind", fmt.Errorf("unknown function kind %q", d.Kind))
	}
	fn := &ir.Function{Name: d.Name, Kind: kind, Source: location(d.Source)}
	var err error
	if fn.Params, err = buildVars(d.Params); err != nil {
		return nil, at("params", err)
	}
	if fn.Locals, err = buildVars(d.Locals); err != nil {
		return nil, at("locals", err)
	}
	if d.Result != nil {
		if fn.Result, err = buildType(d.Result); err != nil {
			return nil, at("result", err)
		}
	}
	p := &exprParser{locals: make(map[string]bool)}
	for _, v := range append(append([]*ir.Param{}, fn.Params...), fn.Locals...) {
		p.locals[v.Name] = true
	}
	if d.Clock != "" {
		if fn.Clock, err = p.parse(d.Clock); err != nil {
			return nil, at("clock", err)
		}
	}
	if d.Reset != "" {
		if fn.Reset, err = p.parse(d.Reset); err != nil {
			return nil, at("reset", err)
		}
	}
	if fn.Body, err = p.stmts(d.Body); err != nil {
		return nil, at("body", err)
	}
	return fn, nil
}

func (p *exprParser) stmts(docs []stmtDoc) ([]ir.Stmt, error) {
	var out []ir.Stmt
	for i := range docs {
		s, err := p.stmt(&docs[i])
		if err != nil {
			return nil, at(fmt.Sprintf("[%d]", i), err)
		}
		out = append(out, s)
	}
	return out, nil
}

func (p *exprParser) stmt(d *stmtDoc) (ir.Stmt, error) {
	set := 0
	for _, present := range []bool{d.Assign != nil, d.Aug != nil, d.If != nil, d.Match != nil, d.For != nil, d.While != nil, d.Wait != nil, d.Delay != nil, d.Return != nil} {
		if present {
			set++
		}
	}
	if set != 1 {
		return nil, fmt.Errorf("a statement sets exactly one variant, got %d", set)
	}

	switch {
	case d.Assign != nil:
		s := &ir.AssignStmt{}
		for i, t := range d.Assign.Targets {
			e, err := p.parse(t)
			if err != nil {
				return nil, at(fmt.Sprintf("assign.targets[%d]", i), err)
			}
			s.Targets = append(s.Targets, e)
		}
		v, err := p.parse(d.Assign.Value)
		if err != nil {
			return nil, at("assign.value", err)
		}
		s.Value = v
		return s, nil
	case d.Aug != nil:
		op, ok := augOps[d.Aug.Op]
		if !ok {
			return nil, at("aug.op", fmt.Errorf("unknown operator %q", d.Aug.Op))
		}
		t, err := p.parse(d.Aug.Target)
		if err != nil {
			return nil, at("aug.target", err)
		}
		v, err := p.parse(d.Aug.Value)
		if err != nil {
			return nil, at("aug.value", err)
		}
		return &ir.AugAssignStmt{Target: t, Op: op, Value: v}, nil
	case d.If != nil:
		cond, err := p.parse(d.If.Cond)
		if err != nil {
			return nil, at("if.cond", err)
		}
		then, err := p.stmts(d.If.Then)
		if err != nil {
			return nil, at("if.then", err)
		}
		els, err := p.stmts(d.If.Else)
		if err != nil {
			return nil, at("if.else", err)
		}
		return &ir.IfStmt{Cond: cond, Then: then, Else: els}, nil
	case d.Match != nil:
		subject, err := p.parse(d.Match.Subject)
		if err != nil {
			return nil, at("match.subject", err)
		}
		s := &ir.MatchStmt{Subject: subject}
		for i, c := range d.Match.Cases {
			var arm ir.MatchCase
			for j, lbl := range c.Labels {
				e, err := p.parse(lbl)
				if err != nil {
					return nil, at(fmt.Sprintf("match.cases[%d].labels[%d]", i, j), err)
				}
				arm.Labels = append(arm.Labels, e)
			}
			if arm.Body, err = p.stmts(c.Body); err != nil {
				return nil, at(fmt.Sprintf("match.cases[%d].body", i), err)
			}
			s.Cases = append(s.Cases, arm)
		}
		return s, nil
	case d.For != nil:
		start, err := p.parse(d.For.Start)
		if err != nil {
			return nil, at("for.start", err)
		}
		stop, err := p.parse(d.For.Stop)
		if err != nil {
			return nil, at("for.stop", err)
		}
		inner := &exprParser{locals: make(map[string]bool, len(p.locals)+1)}
		for k := range p.locals {
			inner.locals[k] = true
		}
		inner.locals[d.For.Var] = true
		body, err := inner.stmts(d.For.Body)
		if err != nil {
			return nil, at("for.body", err)
		}
		return &ir.ForStmt{Var: d.For.Var, Start: start, Stop: stop, Step: d.For.Step, Body: body}, nil
	case d.While != nil:
		cond, err := p.parse(d.While.Cond)
		if err != nil {
			return nil, at("while.cond", err)
		}
		body, err := p.stmts(d.While.Body)
		if err != nil {
			return nil, at("while.body", err)
		}
		return &ir.WhileStmt{Cond: cond, Body: body}, nil
	case d.Wait != nil:
		sig, err := p.parse(d.Wait.Signal)
		if err != nil {
			return nil, at("wait.signal", err)
		}
		edge := ir.Posedge
		if d.Wait.Edge == "negedge" {
			edge = ir.Negedge
		}
		return &ir.WaitEdgeStmt{Signal: sig, Edge: edge}, nil
	case d.Delay != nil:
		return &ir.WaitDelayStmt{Amount: d.Delay.Amount, Unit: d.Delay.Unit}, nil
	default:
		s := &ir.ReturnStmt{}
		if d.Return.Value != "" {
			v, err := p.parse(d.Return.Value)
			if err != nil {
				return nil, at("return.value", err)
			}
			s.Value = v
		}
		return s, nil
	}
}

func location(d *locationDoc) *ir.Location {
	if d == nil {
		return nil
	}
	return &ir.Location{File: d.File, Line: d.Line}
}
