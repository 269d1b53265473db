package sv

import (
	"strings"

	"svgen/internal/ir"
)

// lowerer holds the transient state of one component's lowering. Nothing in
// it outlives the call to lower.
type lowerer struct {
	design *ir.Context
	comp   *ir.ComponentType
	opts   Options
	names  *nameTable
	scope  *widthScope
	flat   map[*ir.Field][]flatSignal
	insts  map[string]*instanceInfo
	// plan is set once bindings are resolved, before any process is lowered.
	plan *connectionPlan
}

func newLowerer(design *ir.Context, comp *ir.ComponentType, opts Options) *lowerer {
	return &lowerer{
		design: design,
		comp:   comp,
		opts:   opts,
		names:  newNameTable(),
		scope:  componentScope(comp),
		flat:   make(map[*ir.Field][]flatSignal),
		insts:  make(map[string]*instanceInfo),
	}
}

// signals returns the flattened signals of one of the component's own
// fields.
func (l *lowerer) signals(f *ir.Field) ([]flatSignal, error) {
	if sigs, ok := l.flat[f]; ok {
		return sigs, nil
	}
	sigs, err := flattenField(f, l.scope)
	if err != nil {
		return nil, err
	}
	l.flat[f] = sigs
	return sigs, nil
}

type paramOverride struct {
	name  string
	value string
}

// instanceInfo describes one sub-instance: its component, parameter
// overrides and flattened port list as seen through those overrides.
type instanceInfo struct {
	field    *ir.Field
	comp     *ir.ComponentType
	name     string
	typeName string
	params   []paramOverride
	ports    []flatSignal
}

func (l *lowerer) instance(name string) (*instanceInfo, error) {
	if inst, ok := l.insts[name]; ok {
		return inst, nil
	}
	f := l.comp.Field(name)
	if f == nil || f.Kind != ir.Instance {
		return nil, &UnresolvedReferenceError{Kind: "instance", Name: name}
	}
	rt, ok := f.Type.(*ir.RefType)
	if !ok {
		return nil, &UnresolvedReferenceError{Kind: "component type", Name: ir.TypeString(f.Type)}
	}
	child, ok := l.design.Lookup(rt.Name)
	if !ok {
		return nil, &UnresolvedReferenceError{Kind: "component type", Name: rt.Name}
	}
	inst := &instanceInfo{
		field:    f,
		comp:     child,
		name:     l.names.sanitize(f.Name),
		typeName: Sanitize(child.Name),
	}
	overrides := make(map[string]ir.WidthExpr, len(f.Params))
	for _, p := range f.Params {
		c := child.Field(p.Name)
		if c == nil || c.Kind != ir.Const {
			return nil, &UnresolvedReferenceError{Kind: "parameter", Name: child.Name + "." + p.Name}
		}
		v, err := l.scope.resolve(f.Name+"."+p.Name, p.Value)
		if err != nil {
			return nil, err
		}
		overrides[p.Name] = v
		inst.params = append(inst.params, paramOverride{name: Sanitize(p.Name), value: renderWidth(v)})
	}
	scope := instanceScope(child, overrides)
	for _, cf := range child.Fields {
		if !cf.IsPort() {
			continue
		}
		sigs, err := flattenField(cf, scope)
		if err != nil {
			return nil, err
		}
		inst.ports = append(inst.ports, sigs...)
	}
	l.insts[name] = inst
	return inst, nil
}

// lower produces the module unit of the component followed by one unit per
// export interface.
func (l *lowerer) lower() ([]Unit, error) {
	comp := l.comp
	kinds := make([]ir.ProcessKind, len(comp.Functions))
	for i, fn := range comp.Functions {
		k, err := classify(fn)
		if err != nil {
			return nil, err
		}
		kinds[i] = k
	}

	var params, signals, insts []*ir.Field
	var ports []flatSignal
	for _, f := range comp.Fields {
		switch f.Kind {
		case ir.Const:
			params = append(params, f)
			if err := l.names.declare(f.Name, l.names.sanitize(f.Name)); err != nil {
				return nil, err
			}
		case ir.Input, ir.Output:
			sigs, err := l.signals(f)
			if err != nil {
				return nil, err
			}
			ports = append(ports, sigs...)
		case ir.Signal:
			signals = append(signals, f)
		case ir.Instance:
			insts = append(insts, f)
			if err := l.names.declare(f.Name, l.names.sanitize(f.Name)); err != nil {
				return nil, err
			}
		case ir.Export:
			if err := l.names.declare(f.Name, l.names.sanitize(f.Name)); err != nil {
				return nil, err
			}
		}
	}
	for _, s := range ports {
		if err := l.names.declare(s.raw(), s.name); err != nil {
			return nil, err
		}
	}

	p := &printer{}
	l.provenance(p, comp.Source)
	l.header(p, params, ports)
	p.blank()
	p.indent++

	section := false
	for _, f := range signals {
		sigs, err := l.signals(f)
		if err != nil {
			return nil, err
		}
		l.provenance(p, f.Source)
		for _, s := range sigs {
			if err := l.names.declare(s.raw(), s.name); err != nil {
				return nil, err
			}
			p.line("%s %s;", logicType(s.width, s.signed), s.name)
			section = true
		}
	}
	if section {
		p.blank()
	}

	for _, f := range insts {
		if _, err := l.instance(f.Name); err != nil {
			return nil, err
		}
	}
	plan, err := l.resolveBindings()
	if err != nil {
		return nil, err
	}
	l.plan = plan

	wires := plan.wires()
	for _, w := range wires {
		if err := l.names.declare(w.raw, w.name); err != nil {
			return nil, err
		}
		decl := "wire"
		if w.signed {
			decl += " signed"
		}
		if r := packedRange(w.width); r != "" {
			decl += " " + r
		}
		p.line("%s %s;", decl, w.name)
	}
	if len(wires) > 0 {
		p.blank()
	}

	for _, f := range insts {
		inst, _ := l.instance(f.Name)
		l.provenance(p, f.Source)
		l.instantiate(p, inst, plan)
		p.blank()
	}

	for i, fn := range comp.Functions {
		if kinds[i] == ir.Plain {
			continue
		}
		if err := l.process(p, fn, kinds[i]); err != nil {
			return nil, err
		}
		p.blank()
	}

	ifaces, err := l.exports(plan, params)
	if err != nil {
		return nil, err
	}
	for _, x := range ifaces {
		l.provenance(p, x.field.Source)
		p.line("%s", x.instanceText(params))
		for _, a := range x.boundary() {
			// A binding on either side replaces the boundary assign.
			if plan.controls(a.lhs) || plan.controls(a.rhs) {
				continue
			}
			p.line("assign %s = %s;", a.lhs, a.rhs)
		}
		p.blank()
	}

	assigns := plan.assigns()
	for _, a := range assigns {
		p.line("assign %s = %s;", a.lhs, a.rhs)
	}
	if len(assigns) > 0 {
		p.blank()
	}

	p.indent--
	p.line("endmodule")

	units := []Unit{{
		Name:      l.names.sanitize(comp.Name),
		Component: comp.Name,
		Kind:      ModuleUnit,
		Text:      p.String(),
	}}
	for _, x := range ifaces {
		units = append(units, Unit{
			Name:      x.name,
			Component: comp.Name,
			Kind:      InterfaceUnit,
			Text:      x.text,
		})
	}
	return units, nil
}

// header emits the module declaration with its parameter and port lists.
func (l *lowerer) header(p *printer, params []*ir.Field, ports []flatSignal) {
	name := l.names.sanitize(l.comp.Name)
	open := "module " + name + "("
	if len(params) > 0 {
		p.line("module %s #(", name)
		p.indent++
		for i, c := range params {
			p.line("parameter int %s = %d%s", l.names.sanitize(c.Name), c.Default, listSep(i, len(params)))
		}
		p.indent--
		open = ") ("
	}
	if len(ports) == 0 {
		p.line("%s);", open)
		return
	}
	p.line("%s", open)
	p.indent++
	var last *ir.Field
	for i, s := range ports {
		if s.field != last {
			l.provenance(p, s.field.Source)
			last = s.field
		}
		p.line("%s %s %s%s", s.dir, logicType(s.width, s.signed), s.name, listSep(i, len(ports)))
	}
	p.indent--
	p.line(");")
}

// instantiate emits a sub-instance with its parameter overrides and one
// named connection per flattened port. Unbound ports are left open.
func (l *lowerer) instantiate(p *printer, inst *instanceInfo, plan *connectionPlan) {
	head := inst.typeName
	if len(inst.params) > 0 {
		overrides := make([]string, 0, len(inst.params))
		for _, o := range inst.params {
			overrides = append(overrides, "."+o.name+"("+o.value+")")
		}
		head += " #(" + strings.Join(overrides, ", ") + ")"
	}
	if len(inst.ports) == 0 {
		p.line("%s %s ();", head, inst.name)
		return
	}
	p.line("%s %s (", head, inst.name)
	p.indent++
	for i, port := range inst.ports {
		value, _ := plan.portValue(inst.name, port.name)
		p.line(".%s(%s)%s", port.name, value, listSep(i, len(inst.ports)))
	}
	p.indent--
	p.line(");")
}

func listSep(i, n int) string {
	if i == n-1 {
		return ""
	}
	return ","
}
