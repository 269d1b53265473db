package sv

import (
	"fmt"

	"svgen/internal/ir"
)

type endpointKind int

const (
	endLocal endpointKind = iota
	endInstance
	endExport
	endMethod
	endFunction
)

// endpoint is one resolved side of a binding.
type endpoint struct {
	kind  endpointKind
	ref   ir.Ref
	field *ir.Field
	inst  *instanceInfo
	sigs  []flatSignal
	// method is set for endMethod, fn for endFunction.
	method *ir.MethodSig
	fn     *ir.Function
}

// text is the expression naming sig from inside the enclosing module.
func (e *endpoint) text(sig flatSignal) string {
	switch e.kind {
	case endInstance:
		return e.inst.name + "." + sig.name
	case endExport:
		return Sanitize(e.field.Name) + "." + sig.name
	default:
		return sig.name
	}
}

type connKind int

const (
	connDirect connKind = iota
	connWire
	connAssign
)

type wireDecl struct {
	raw    string
	name   string
	width  ir.WidthExpr
	signed bool
}

type assignment struct {
	lhs string
	rhs string
}

// planEntry is one elementary connection, keyed by the element it drives.
type planEntry struct {
	key     string
	binding ir.Binding
	kind    connKind
	// inst and port name the instance port of a direct connection, or the
	// driving port of a wire.
	inst *instanceInfo
	port flatSignal
	// local is the module-side signal of a direct connection. portDrives is
	// set when the instance port drives it.
	local      string
	portDrives bool
	// peerInst and peer name the driven port of a wire.
	peerInst *instanceInfo
	peer     flatSignal
	assign   *assignment
}

func (e *planEntry) portKey() string {
	return e.inst.name + "." + e.port.name
}

type boundMethod struct {
	sig *ir.MethodSig
	fn  *ir.Function
}

// connectionPlan is the per-element classification of every binding of one
// component. Entries are keyed by the element they drive; a later binding
// for the same key replaces the earlier entry in place when overrides are
// allowed. finish turns the entries into port connections, wires and
// assigns.
type connectionPlan struct {
	entries []*planEntry
	index   map[string]int
	methods map[string][]boundMethod
	// elements counts elementary connections per binding, in binding order.
	elements []int

	ports      map[string]string
	wireList   []wireDecl
	assignList []assignment
}

func newConnectionPlan() *connectionPlan {
	return &connectionPlan{
		index:   make(map[string]int),
		methods: make(map[string][]boundMethod),
		ports:   make(map[string]string),
	}
}

func (p *connectionPlan) add(e *planEntry, allowOverride bool) error {
	if i, ok := p.index[e.key]; ok {
		prev := p.entries[i]
		if !allowOverride {
			return &AmbiguousBindingError{
				Target: e.key,
				First:  bindingString(prev.binding),
				Second: bindingString(e.binding),
			}
		}
		p.entries[i] = e
		return nil
	}
	p.index[e.key] = len(p.entries)
	p.entries = append(p.entries, e)
	return nil
}

// finish derives port connections, wires and assigns from the final entries.
// An instance port driving more than one element is connected to a single
// wire named after it, and every module-side sink is assigned from that
// wire.
func (p *connectionPlan) finish() error {
	fanout := make(map[string]int)
	for _, e := range p.entries {
		if e.kind == connWire || e.kind == connDirect && e.portDrives {
			fanout[e.portKey()]++
		}
	}
	declared := make(map[string]bool)
	wire := func(e *planEntry) string {
		name := e.inst.name + "_" + e.port.name
		if !declared[name] {
			declared[name] = true
			p.wireList = append(p.wireList, wireDecl{
				raw:    e.inst.field.Name + "." + e.port.raw(),
				name:   name,
				width:  e.port.width,
				signed: e.port.signed,
			})
		}
		return name
	}
	for _, e := range p.entries {
		switch e.kind {
		case connDirect:
			if e.portDrives && fanout[e.portKey()] > 1 {
				w := wire(e)
				if err := p.connectPort(e, e.inst, e.port, w); err != nil {
					return err
				}
				p.assignList = append(p.assignList, assignment{lhs: e.local, rhs: w})
				continue
			}
			if err := p.connectPort(e, e.inst, e.port, e.local); err != nil {
				return err
			}
		case connWire:
			w := wire(e)
			if err := p.connectPort(e, e.inst, e.port, w); err != nil {
				return err
			}
			if err := p.connectPort(e, e.peerInst, e.peer, w); err != nil {
				return err
			}
		case connAssign:
			p.assignList = append(p.assignList, *e.assign)
		}
	}
	return nil
}

func (p *connectionPlan) connectPort(e *planEntry, inst *instanceInfo, port flatSignal, value string) error {
	k := inst.name + "." + port.name
	if prev, ok := p.ports[k]; ok && prev != value {
		return &IncompatibleBindingError{
			Binding: bindingString(e.binding),
			Reason:  fmt.Sprintf("port %s is connected to both %s and %s", k, prev, value),
		}
	}
	p.ports[k] = value
	return nil
}

// portValue returns the expression connected to port of inst.
func (p *connectionPlan) portValue(inst, port string) (string, bool) {
	v, ok := p.ports[inst+"."+port]
	return v, ok
}

// wires lists the wires in first-use order, each declared once.
func (p *connectionPlan) wires() []wireDecl {
	return p.wireList
}

func (p *connectionPlan) assigns() []assignment {
	return p.assignList
}

func (p *connectionPlan) controls(key string) bool {
	_, ok := p.index[key]
	return ok
}

func bindingString(b ir.Binding) string {
	s := b.Target.String() + " <- " + b.Source.String()
	if b.Pos != nil {
		s += " (" + b.Pos.String() + ")"
	}
	return s
}

// resolveBindings builds the connection plan for the component's bindings.
func (l *lowerer) resolveBindings() (*connectionPlan, error) {
	plan := newConnectionPlan()
	for _, b := range l.comp.Bindings {
		n, err := l.resolveBinding(plan, b)
		if err != nil {
			return nil, err
		}
		plan.elements = append(plan.elements, n)
	}
	if err := plan.finish(); err != nil {
		return nil, err
	}
	return plan, nil
}

func (l *lowerer) resolveBinding(plan *connectionPlan, b ir.Binding) (int, error) {
	t, err := l.endpoint(b.Target)
	if err != nil {
		return 0, err
	}
	s, err := l.endpoint(b.Source)
	if err != nil {
		return 0, err
	}

	if t.kind == endMethod || s.kind == endMethod || t.kind == endFunction || s.kind == endFunction {
		return l.bindMethod(plan, b, t, s)
	}

	if len(t.sigs) != len(s.sigs) {
		return 0, &IncompatibleBindingError{
			Binding: bindingString(b),
			Reason:  fmt.Sprintf("%d elements bound to %d elements", len(t.sigs), len(s.sigs)),
		}
	}
	for i := range t.sigs {
		ts, ss := t.sigs[i], s.sigs[i]
		if !compatibleWidths(ts.width, ss.width) {
			return 0, &IncompatibleBindingError{
				Binding: bindingString(b),
				Reason: fmt.Sprintf("%s is %s bits but %s is %s bits",
					ts.raw(), renderWidth(ts.width), ss.raw(), renderWidth(ss.width)),
			}
		}
		entry, err := l.connect(b, t, ts, s, ss)
		if err != nil {
			return 0, err
		}
		if err := plan.add(entry, l.opts.AllowBindingOverride); err != nil {
			return 0, err
		}
	}
	return len(t.sigs), nil
}

// isInput reports whether s is an input leaf of the component's own ports.
func isInput(s flatSignal) bool {
	return s.field.IsPort() && s.dir == ir.DirIn
}

// localDriven decides which side of an export member binding is driven.
// Port leaves keep their direction; internal signals follow the binding.
func localDriven(s flatSignal, localIsTarget bool) bool {
	if s.field.IsPort() {
		switch s.dir {
		case ir.DirIn:
			return false
		case ir.DirOut:
			return true
		}
	}
	return localIsTarget
}

// connect decides how one elementary pair is connected.
func (l *lowerer) connect(b ir.Binding, t *endpoint, ts flatSignal, s *endpoint, ss flatSignal) (*planEntry, error) {
	switch {
	case t.kind == endLocal && s.kind == endInstance:
		return l.direct(b, ts, s, ss)
	case t.kind == endInstance && s.kind == endLocal:
		return l.direct(b, ss, t, ts)
	case t.kind == endInstance && s.kind == endInstance:
		drvEnd, drv, sinkEnd, sink := s, ss, t, ts
		if ss.dir != ir.DirOut && ts.dir == ir.DirOut {
			drvEnd, drv, sinkEnd, sink = t, ts, s, ss
		}
		return &planEntry{
			key:      sinkEnd.text(sink),
			binding:  b,
			kind:     connWire,
			inst:     drvEnd.inst,
			port:     drv,
			peerInst: sinkEnd.inst,
			peer:     sink,
		}, nil
	case t.kind == endExport && s.kind == endLocal:
		a := &assignment{lhs: t.text(ts), rhs: ss.name}
		if localDriven(ss, false) {
			a = &assignment{lhs: ss.name, rhs: t.text(ts)}
		}
		return &planEntry{key: a.lhs, binding: b, kind: connAssign, assign: a}, nil
	case t.kind == endLocal && s.kind == endExport:
		a := &assignment{lhs: s.text(ss), rhs: ts.name}
		if localDriven(ts, true) {
			a = &assignment{lhs: ts.name, rhs: s.text(ss)}
		}
		return &planEntry{key: a.lhs, binding: b, kind: connAssign, assign: a}, nil
	case t.kind == endLocal && s.kind == endLocal:
		if isInput(ts) {
			return nil, &IncompatibleBindingError{Binding: bindingString(b), Reason: "target " + ts.raw() + " is an input"}
		}
		return &planEntry{
			key:     ts.name,
			binding: b,
			kind:    connAssign,
			assign:  &assignment{lhs: ts.name, rhs: ss.name},
		}, nil
	default:
		return nil, &IncompatibleBindingError{
			Binding: bindingString(b),
			Reason:  fmt.Sprintf("cannot connect %s to %s", t.ref, s.ref),
		}
	}
}

// direct connects a module signal to an instance port. An instance output
// drives the module signal; every other port is driven by it.
func (l *lowerer) direct(b ir.Binding, local flatSignal, inst *endpoint, port flatSignal) (*planEntry, error) {
	entry := &planEntry{
		key:     inst.text(port),
		binding: b,
		kind:    connDirect,
		inst:    inst.inst,
		port:    port,
		local:   local.name,
	}
	if port.dir == ir.DirOut {
		if isInput(local) {
			return nil, &IncompatibleBindingError{
				Binding: bindingString(b),
				Reason:  "input " + local.raw() + " is driven by " + inst.text(port),
			}
		}
		entry.key = local.name
		entry.portDrives = true
	}
	return entry, nil
}

// bindMethod records an export method implemented by a component function.
func (l *lowerer) bindMethod(plan *connectionPlan, b ir.Binding, t, s *endpoint) (int, error) {
	m, fn := t, s
	if m.kind != endMethod {
		m, fn = s, t
	}
	if m.kind != endMethod || fn.kind != endFunction {
		return 0, &IncompatibleBindingError{
			Binding: bindingString(b),
			Reason:  "export methods must be bound to a component function",
		}
	}
	if fn.fn.Kind != ir.Plain {
		return 0, &UnsupportedStatementError{
			Function: fn.fn.Name,
			Stmt:     fn.fn.Kind.String() + " function",
			Reason:   "export implementations must be plain methods",
		}
	}
	if len(fn.fn.Params) != len(m.method.Params) {
		return 0, &IncompatibleBindingError{
			Binding: bindingString(b),
			Reason:  fmt.Sprintf("%s takes %d arguments but %s declares %d", fn.fn.Name, len(fn.fn.Params), m.ref, len(m.method.Params)),
		}
	}
	if (fn.fn.Result == nil) != (m.method.Result == nil) {
		return 0, &IncompatibleBindingError{
			Binding: bindingString(b),
			Reason:  "result of " + fn.fn.Name + " does not match " + m.ref.String(),
		}
	}
	entry := &planEntry{key: "method " + m.ref.String(), binding: b}
	if err := plan.add(entry, l.opts.AllowBindingOverride); err != nil {
		return 0, err
	}
	export := m.field.Name
	methods := plan.methods[export]
	for i, bm := range methods {
		if bm.sig == m.method {
			methods[i].fn = fn.fn
			return 1, nil
		}
	}
	plan.methods[export] = append(methods, boundMethod{sig: m.method, fn: fn.fn})
	return 1, nil
}

// endpoint resolves one side of a binding.
func (l *lowerer) endpoint(ref ir.Ref) (*endpoint, error) {
	if len(ref.Path) == 0 {
		return nil, &UnresolvedReferenceError{Kind: "binding endpoint", Name: "<empty>"}
	}
	head := ref.Head()
	f := l.comp.Field(head)
	if f == nil {
		if fn := l.comp.Function(head); fn != nil && len(ref.Path) == 1 {
			return &endpoint{kind: endFunction, ref: ref, fn: fn}, nil
		}
		return nil, &UnresolvedReferenceError{Kind: "binding endpoint", Name: ref.String()}
	}
	switch f.Kind {
	case ir.Input, ir.Output, ir.Signal:
		sigs, err := l.signals(f)
		if err != nil {
			return nil, err
		}
		sel := selectSignals(sigs, ref.Path)
		if len(sel) == 0 {
			return nil, &UnresolvedReferenceError{Kind: "bundle element", Name: ref.String()}
		}
		return &endpoint{kind: endLocal, ref: ref, field: f, sigs: sel}, nil
	case ir.Instance:
		inst, err := l.instance(head)
		if err != nil {
			return nil, err
		}
		if len(ref.Path) < 2 {
			return nil, &UnresolvedReferenceError{Kind: "instance port", Name: ref.String()}
		}
		sel := selectSignals(inst.ports, ref.Path[1:])
		if len(sel) == 0 {
			return nil, &UnresolvedReferenceError{Kind: "instance port", Name: ref.String()}
		}
		return &endpoint{kind: endInstance, ref: ref, field: f, inst: inst, sigs: sel}, nil
	case ir.Export:
		if len(ref.Path) < 2 {
			return nil, &UnresolvedReferenceError{Kind: "export member", Name: ref.String()}
		}
		if pt, ok := f.Type.(*ir.ProtocolType); ok && len(ref.Path) == 2 {
			if m := pt.Method(ref.Path[1]); m != nil {
				return &endpoint{kind: endMethod, ref: ref, field: f, method: m}, nil
			}
		}
		mirrored := l.comp.Field(ref.Path[1])
		if mirrored == nil || !(mirrored.IsPort() || mirrored.Kind == ir.Signal) {
			return nil, &UnresolvedReferenceError{Kind: "export member", Name: ref.String()}
		}
		sigs, err := l.signals(mirrored)
		if err != nil {
			return nil, err
		}
		sel := selectSignals(sigs, ref.Path[1:])
		if len(sel) == 0 {
			return nil, &UnresolvedReferenceError{Kind: "export member", Name: ref.String()}
		}
		return &endpoint{kind: endExport, ref: ref, field: f, sigs: sel}, nil
	default:
		return nil, &IncompatibleBindingError{Binding: ref.String(), Reason: f.Kind.String() + " fields cannot be bound"}
	}
}
