package sv

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"svgen/internal/ir"
)

func counter() *ir.ComponentType {
	return &ir.ComponentType{
		Name: "Counter",
		Fields: []*ir.Field{
			{Name: "clock", Kind: ir.Input, Type: ir.Bits(1)},
			{Name: "reset", Kind: ir.Input, Type: ir.Bits(1)},
			{Name: "count", Kind: ir.Output, Type: ir.Bits(32)},
		},
		Functions: []*ir.Function{{
			Name:  "_count",
			Kind:  ir.Clocked,
			Clock: ir.F("clock"),
			Reset: ir.F("reset"),
			Body: []ir.Stmt{&ir.IfStmt{
				Cond: ir.F("reset"),
				Then: []ir.Stmt{&ir.AssignStmt{Targets: []ir.Expr{ir.F("count")}, Value: ir.C(0)}},
				Else: []ir.Stmt{&ir.AugAssignStmt{Target: ir.F("count"), Op: ir.Add, Value: ir.C(1)}},
			}},
		}},
	}
}

// passthrough has inputs a and b and an 8-bit output o, with the given
// bindings.
func passthrough(bindings ...ir.Binding) *ir.ComponentType {
	return &ir.ComponentType{
		Name: "Pass",
		Fields: []*ir.Field{
			{Name: "a", Kind: ir.Input, Type: ir.Bits(8)},
			{Name: "b", Kind: ir.Input, Type: ir.Bits(8)},
			{Name: "o", Kind: ir.Output, Type: ir.Bits(8)},
		},
		Bindings: bindings,
	}
}

func TestGenerateIsIdempotent(t *testing.T) {
	design := &ir.Context{Types: []*ir.ComponentType{counter()}}
	first := Generate(design, Options{})
	second := Generate(design, Options{})
	if diff := cmp.Diff(first.Units, second.Units); diff != "" {
		t.Fatalf("repeated generation differs (-first +second):\n%s", diff)
	}
	u, ok := first.Lookup("Counter")
	if !ok || u.Kind != ModuleUnit || u.FileName() != "Counter.sv" {
		t.Fatalf("unexpected unit %+v", u)
	}
}

func TestGenerateIsolatesFailures(t *testing.T) {
	broken := &ir.ComponentType{
		Name:   "Broken",
		Source: &ir.Location{File: "broken.py", Line: 7},
		Fields: []*ir.Field{{Name: "x", Kind: ir.Output, Type: &ir.IntType{Width: ir.W("MISSING")}}},
	}
	design := &ir.Context{Types: []*ir.ComponentType{broken, counter()}}
	out := Generate(design, Options{Parallelism: 2})
	if len(out.Units) != 1 || out.Units[0].Name != "Counter" {
		t.Fatalf("expected only Counter to lower, got %+v", out.Units)
	}
	if len(out.Failures) != 1 {
		t.Fatalf("expected one failure, got %d", len(out.Failures))
	}
	f := out.Failures[0]
	if f.Component != "Broken" || f.Source.String() != "broken.py:7" {
		t.Fatalf("failure attributed to %s at %s", f.Component, f.Source)
	}
	var werr *UnresolvedWidthError
	if !errors.As(f, &werr) {
		t.Fatalf("expected UnresolvedWidthError, got %v", f)
	}
}

func TestErrorTaxonomy(t *testing.T) {
	clocked := func(body ...ir.Stmt) *ir.ComponentType {
		return &ir.ComponentType{
			Name: "Proc",
			Fields: []*ir.Field{
				{Name: "clock", Kind: ir.Input, Type: ir.Bits(1)},
				{Name: "x", Kind: ir.Output, Type: ir.Bits(8)},
			},
			Functions: []*ir.Function{{Name: "tick", Kind: ir.Clocked, Clock: ir.F("clock"), Body: body}},
		}
	}
	cases := []struct {
		name  string
		comp  *ir.ComponentType
		match func(error) bool
	}{
		{
			name: "unresolved width",
			comp: &ir.ComponentType{Name: "W", Fields: []*ir.Field{{Name: "x", Kind: ir.Input, Type: &ir.IntType{Width: ir.W("N")}}}},
			match: func(err error) bool {
				var e *UnresolvedWidthError
				return errors.As(err, &e)
			},
		},
		{
			name: "unresolved reference",
			comp: passthrough(ir.Binding{Target: ir.R("nope"), Source: ir.R("a")}),
			match: func(err error) bool {
				var e *UnresolvedReferenceError
				return errors.As(err, &e) && e.Name == "nope"
			},
		},
		{
			name: "timing control in clocked process",
			comp: clocked(&ir.WaitDelayStmt{Amount: 5, Unit: "ns"}),
			match: func(err error) bool {
				var e *UnsupportedStatementError
				return errors.As(err, &e) && e.Function == "tick"
			},
		},
		{
			name: "return outside an export method",
			comp: clocked(&ir.ReturnStmt{}),
			match: func(err error) bool {
				var e *UnsupportedStatementError
				return errors.As(err, &e)
			},
		},
		{
			name: "unknown operator",
			comp: clocked(&ir.AssignStmt{
				Targets: []ir.Expr{ir.F("x")},
				Value:   &ir.BinExpr{Op: ir.BinOp(99), Left: ir.C(1), Right: ir.C(2)},
			}),
			match: func(err error) bool {
				var e *UnknownExpressionError
				return errors.As(err, &e)
			},
		},
		{
			name: "naming collision",
			comp: &ir.ComponentType{Name: "N", Fields: []*ir.Field{
				{Name: "a.b", Kind: ir.Input, Type: ir.Bits(1)},
				{Name: "a__b", Kind: ir.Input, Type: ir.Bits(1)},
			}},
			match: func(err error) bool {
				var e *NamingCollisionError
				return errors.As(err, &e) && e.Name == "a__b"
			},
		},
		{
			name: "ambiguous binding",
			comp: passthrough(
				ir.Binding{Target: ir.R("o"), Source: ir.R("a")},
				ir.Binding{Target: ir.R("o"), Source: ir.R("b"), Pos: &ir.Location{File: "top.py", Line: 12}},
			),
			match: func(err error) bool {
				var e *AmbiguousBindingError
				return errors.As(err, &e) && e.Target == "o" && strings.Contains(e.Second, "top.py:12")
			},
		},
		{
			name: "width mismatch",
			comp: &ir.ComponentType{
				Name: "M",
				Fields: []*ir.Field{
					{Name: "a", Kind: ir.Input, Type: ir.Bits(4)},
					{Name: "o", Kind: ir.Output, Type: ir.Bits(8)},
				},
				Bindings: []ir.Binding{{Target: ir.R("o"), Source: ir.R("a")}},
			},
			match: func(err error) bool {
				var e *IncompatibleBindingError
				return errors.As(err, &e)
			},
		},
		{
			name: "driving an input",
			comp: passthrough(ir.Binding{Target: ir.R("a"), Source: ir.R("b")}),
			match: func(err error) bool {
				var e *IncompatibleBindingError
				return errors.As(err, &e)
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out := Generate(&ir.Context{Types: []*ir.ComponentType{tc.comp}}, Options{})
			if len(out.Units) != 0 {
				t.Fatalf("expected no units, got %d", len(out.Units))
			}
			if len(out.Failures) != 1 {
				t.Fatalf("expected one failure, got %d", len(out.Failures))
			}
			if err := out.Failures[0]; !tc.match(err) {
				t.Fatalf("unexpected error type %T: %v", err.Err, err)
			}
		})
	}
}

func TestAllowBindingOverride(t *testing.T) {
	comp := passthrough(
		ir.Binding{Target: ir.R("o"), Source: ir.R("a")},
		ir.Binding{Target: ir.R("o"), Source: ir.R("b")},
	)
	out := Generate(&ir.Context{Types: []*ir.ComponentType{comp}}, Options{AllowBindingOverride: true})
	if len(out.Failures) != 0 {
		t.Fatalf("unexpected failures: %v", out.Failures[0])
	}
	text := out.Units[0].Text
	if !strings.Contains(text, "assign o = b;") || strings.Contains(text, "assign o = a;") {
		t.Fatalf("the later binding should win:\n%s", text)
	}
}

func TestBindingElementCounts(t *testing.T) {
	handshake := &ir.BundleType{
		Name: "Handshake",
		Fields: []*ir.BundleField{
			{Name: "valid", Type: ir.Bits(1)},
			{Name: "ready", Type: ir.Bits(1), Dir: ir.DirOut},
			{Name: "data", Type: ir.Bits(32)},
		},
	}
	comp := &ir.ComponentType{
		Name: "Copy",
		Fields: []*ir.Field{
			{Name: "io", Kind: ir.Input, Type: handshake},
			{Name: "shadow", Kind: ir.Signal, Type: handshake},
			{Name: "a", Kind: ir.Input, Type: ir.Bits(8)},
			{Name: "o", Kind: ir.Output, Type: ir.Bits(8)},
		},
		Bindings: []ir.Binding{
			{Target: ir.R("shadow"), Source: ir.R("io")},
			{Target: ir.R("o"), Source: ir.R("a")},
		},
	}
	l := newLowerer(&ir.Context{Types: []*ir.ComponentType{comp}}, comp, Options{})
	plan, err := l.resolveBindings()
	if err != nil {
		t.Fatalf("resolveBindings: %v", err)
	}
	if diff := cmp.Diff([]int{3, 1}, plan.elements); diff != "" {
		t.Fatalf("element counts mismatch (-want +got):\n%s", diff)
	}
	want := []assignment{
		{lhs: "shadow_valid", rhs: "io_valid"},
		{lhs: "shadow_ready", rhs: "io_ready"},
		{lhs: "shadow_data", rhs: "io_data"},
		{lhs: "o", rhs: "a"},
	}
	if diff := cmp.Diff(want, plan.assigns(), cmp.AllowUnexported(assignment{})); diff != "" {
		t.Fatalf("assignments mismatch (-want +got):\n%s", diff)
	}
}

var (
	producer = &ir.ComponentType{Name: "Producer", Fields: []*ir.Field{{Name: "dout", Kind: ir.Output, Type: ir.Bits(8)}}}
	consumer = &ir.ComponentType{Name: "Consumer", Fields: []*ir.Field{{Name: "din", Kind: ir.Input, Type: ir.Bits(8)}}}
)

func TestPeerWireIgnoresBindingOrientation(t *testing.T) {
	pair := func(b ir.Binding) *ir.ComponentType {
		return &ir.ComponentType{
			Name: "Pair",
			Fields: []*ir.Field{
				{Name: "sub1", Kind: ir.Instance, Type: &ir.RefType{Name: "Producer"}},
				{Name: "sub2", Kind: ir.Instance, Type: &ir.RefType{Name: "Consumer"}},
			},
			Bindings: []ir.Binding{b},
		}
	}
	var texts []string
	for _, b := range []ir.Binding{
		{Target: ir.R("sub2", "din"), Source: ir.R("sub1", "dout")},
		{Target: ir.R("sub1", "dout"), Source: ir.R("sub2", "din")},
	} {
		design := &ir.Context{Types: []*ir.ComponentType{producer, consumer, pair(b)}}
		out := Generate(design, Options{})
		if len(out.Failures) != 0 {
			t.Fatalf("unexpected failure: %v", out.Failures[0])
		}
		u, ok := out.Lookup("Pair")
		if !ok {
			t.Fatalf("Pair not generated")
		}
		if !strings.Contains(u.Text, "wire [7:0] sub1_dout;") {
			t.Fatalf("expected a wire named after the driver:\n%s", u.Text)
		}
		texts = append(texts, u.Text)
	}
	if texts[0] != texts[1] {
		t.Fatalf("binding orientation changed the output:\n%s\n---\n%s", texts[0], texts[1])
	}
}

func TestExternalComponentsAreNotEmitted(t *testing.T) {
	leaf := &ir.ComponentType{
		Name:     "Leaf",
		External: true,
		Fields:   []*ir.Field{{Name: "din", Kind: ir.Input, Type: ir.Bits(8)}},
	}
	top := &ir.ComponentType{
		Name: "Top",
		Fields: []*ir.Field{
			{Name: "a", Kind: ir.Input, Type: ir.Bits(8)},
			{Name: "leaf", Kind: ir.Instance, Type: &ir.RefType{Name: "Leaf"}},
		},
		Bindings: []ir.Binding{{Target: ir.R("leaf", "din"), Source: ir.R("a")}},
	}
	out := Generate(&ir.Context{Types: []*ir.ComponentType{leaf, top}}, Options{})
	if len(out.Failures) != 0 {
		t.Fatalf("unexpected failure: %v", out.Failures[0])
	}
	if len(out.Units) != 1 || out.Units[0].Name != "Top" {
		t.Fatalf("expected only Top, got %+v", out.Units)
	}
	if !strings.Contains(out.Units[0].Text, "Leaf leaf (\n    .din(a)\n  );") {
		t.Fatalf("external component should still be instantiated:\n%s", out.Units[0].Text)
	}
}

func TestUnitNameCollisionAcrossComponents(t *testing.T) {
	design := &ir.Context{Types: []*ir.ComponentType{
		{Name: "a.b"},
		{Name: "a__b"},
	}}
	out := Generate(design, Options{})
	if len(out.Units) != 1 || out.Units[0].Component != "a.b" {
		t.Fatalf("expected the first component to keep the name, got %+v", out.Units)
	}
	var collision *NamingCollisionError
	if len(out.Failures) != 1 || !errors.As(out.Failures[0], &collision) {
		t.Fatalf("expected a naming collision failure, got %v", out.Failures)
	}
}

func TestExportMemberBindingReplacesBoundaryAssign(t *testing.T) {
	comp := &ir.ComponentType{
		Name: "Xtor",
		Fields: []*ir.Field{
			{Name: "clock", Kind: ir.Input, Type: ir.Bits(1)},
			{Name: "data", Kind: ir.Output, Type: ir.Bits(8)},
			{Name: "port", Kind: ir.Export, Type: &ir.ProtocolType{
				Name:    "Poke",
				Methods: []*ir.MethodSig{{Name: "poke", Params: []*ir.Param{{Name: "v", Type: ir.Bits(8)}}}},
			}},
		},
		Functions: []*ir.Function{{
			Name:   "poke",
			Params: []*ir.Param{{Name: "v", Type: ir.Bits(8)}},
			Body: []ir.Stmt{
				&ir.WaitEdgeStmt{Signal: ir.F("clock")},
				&ir.AssignStmt{Targets: []ir.Expr{ir.F("data")}, Value: &ir.LocalRef{Name: "v"}},
			},
		}},
		Bindings: []ir.Binding{
			{Target: ir.R("port", "poke"), Source: ir.R("poke")},
			{Target: ir.R("data"), Source: ir.R("port", "data")},
		},
	}
	out := Generate(&ir.Context{Types: []*ir.ComponentType{comp}}, Options{})
	if len(out.Failures) != 0 {
		t.Fatalf("unexpected failure: %v", out.Failures[0])
	}
	mod, _ := out.Lookup("Xtor")
	if n := strings.Count(mod.Text, "assign data = port.data;"); n != 1 {
		t.Fatalf("expected exactly one driver of data, got %d:\n%s", n, mod.Text)
	}
	iface, ok := out.Lookup("Xtor_port")
	if !ok || iface.Kind != InterfaceUnit {
		t.Fatalf("interface unit missing: %+v", out.Units)
	}
	if !strings.Contains(iface.Text, "task automatic poke(input logic [7:0] v);") {
		t.Fatalf("unexpected task signature:\n%s", iface.Text)
	}
}

// lowerOne generates design and returns the text of the unit called name.
func lowerOne(t *testing.T, name string, opts Options, types ...*ir.ComponentType) string {
	t.Helper()
	out := Generate(&ir.Context{Types: types}, opts)
	if len(out.Failures) != 0 {
		t.Fatalf("unexpected failure: %v", out.Failures[0])
	}
	u, ok := out.Lookup(name)
	if !ok {
		t.Fatalf("%s not generated", name)
	}
	return u.Text
}

func TestPortFanOutSharesOneWire(t *testing.T) {
	top := &ir.ComponentType{
		Name: "Pair",
		Fields: []*ir.Field{
			{Name: "out", Kind: ir.Output, Type: ir.Bits(8)},
			{Name: "sub1", Kind: ir.Instance, Type: &ir.RefType{Name: "Producer"}},
			{Name: "sub2", Kind: ir.Instance, Type: &ir.RefType{Name: "Consumer"}},
		},
		Bindings: []ir.Binding{
			{Target: ir.R("out"), Source: ir.R("sub1", "dout")},
			{Target: ir.R("sub2", "din"), Source: ir.R("sub1", "dout")},
		},
	}
	got := lowerOne(t, "Pair", Options{}, producer, consumer, top)
	want := `module Pair(
  output logic [7:0] out
);

  wire [7:0] sub1_dout;

  Producer sub1 (
    .dout(sub1_dout)
  );

  Consumer sub2 (
    .din(sub1_dout)
  );

  assign out = sub1_dout;

endmodule
`
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("module mismatch (-want +got):\n%s", diff)
	}
}

func TestPortFanOutToModuleSignals(t *testing.T) {
	top := &ir.ComponentType{
		Name: "Split",
		Fields: []*ir.Field{
			{Name: "o1", Kind: ir.Output, Type: ir.Bits(8)},
			{Name: "o2", Kind: ir.Output, Type: ir.Bits(8)},
			{Name: "src", Kind: ir.Instance, Type: &ir.RefType{Name: "Producer"}},
		},
		Bindings: []ir.Binding{
			{Target: ir.R("o1"), Source: ir.R("src", "dout")},
			{Target: ir.R("o2"), Source: ir.R("src", "dout")},
		},
	}
	got := lowerOne(t, "Split", Options{}, producer, top)
	for _, line := range []string{
		"  wire [7:0] src_dout;\n",
		"    .dout(src_dout)\n",
		"  assign o1 = src_dout;\n",
		"  assign o2 = src_dout;\n",
	} {
		if !strings.Contains(got, line) {
			t.Fatalf("missing %q in:\n%s", line, got)
		}
	}
}

func TestInstancesDrivingOneSignal(t *testing.T) {
	top := &ir.ComponentType{
		Name: "Clash",
		Fields: []*ir.Field{
			{Name: "out", Kind: ir.Output, Type: ir.Bits(8)},
			{Name: "sub1", Kind: ir.Instance, Type: &ir.RefType{Name: "Producer"}},
			{Name: "sub2", Kind: ir.Instance, Type: &ir.RefType{Name: "Producer"}},
		},
		Bindings: []ir.Binding{
			{Target: ir.R("out"), Source: ir.R("sub1", "dout")},
			{Target: ir.R("out"), Source: ir.R("sub2", "dout")},
		},
	}
	design := &ir.Context{Types: []*ir.ComponentType{producer, top}}

	out := Generate(design, Options{})
	var ambiguous *AmbiguousBindingError
	if len(out.Failures) != 1 || !errors.As(out.Failures[0], &ambiguous) || ambiguous.Target != "out" {
		t.Fatalf("expected an ambiguous binding on out, got %v", out.Failures)
	}

	got := lowerOne(t, "Clash", Options{AllowBindingOverride: true}, producer, top)
	for _, line := range []string{
		"  Producer sub1 (\n    .dout()\n  );\n",
		"  Producer sub2 (\n    .dout(out)\n  );\n",
	} {
		if !strings.Contains(got, line) {
			t.Fatalf("missing %q in:\n%s", line, got)
		}
	}
}

func TestInstanceOutputCannotDriveInput(t *testing.T) {
	top := &ir.ComponentType{
		Name: "Back",
		Fields: []*ir.Field{
			{Name: "a", Kind: ir.Input, Type: ir.Bits(8)},
			{Name: "sub", Kind: ir.Instance, Type: &ir.RefType{Name: "Producer"}},
		},
		Bindings: []ir.Binding{{Target: ir.R("a"), Source: ir.R("sub", "dout")}},
	}
	out := Generate(&ir.Context{Types: []*ir.ComponentType{producer, top}}, Options{})
	var incompatible *IncompatibleBindingError
	if len(out.Failures) != 1 || !errors.As(out.Failures[0], &incompatible) {
		t.Fatalf("expected an incompatible binding, got %v", out.Failures)
	}
}

// mixedPort is a component with a handshake input port whose ready element
// flows out, and an export with a single method.
func mixedPort(name string, body []ir.Stmt, bindings ...ir.Binding) *ir.ComponentType {
	handshake := &ir.BundleType{
		Name: "Handshake",
		Fields: []*ir.BundleField{
			{Name: "valid", Type: ir.Bits(1)},
			{Name: "ready", Type: ir.Bits(1), Dir: ir.DirOut},
			{Name: "data", Type: ir.Bits(8)},
		},
	}
	return &ir.ComponentType{
		Name: name,
		Fields: []*ir.Field{
			{Name: "clock", Kind: ir.Input, Type: ir.Bits(1)},
			{Name: "io", Kind: ir.Input, Type: handshake},
			{Name: "xif", Kind: ir.Export, Type: &ir.ProtocolType{
				Name:    "Ack",
				Methods: []*ir.MethodSig{{Name: "ack"}},
			}},
		},
		Functions: []*ir.Function{{Name: "ack", Body: body}},
		Bindings:  append([]ir.Binding{{Target: ir.R("xif", "ack"), Source: ir.R("ack")}}, bindings...),
	}
}

func TestExportBoundaryFollowsLeafDirection(t *testing.T) {
	cases := []struct {
		name    string
		comp    *ir.ComponentType
		want    []string
		notWant []string
	}{
		{
			name: "task drives one element",
			comp: mixedPort("X", []ir.Stmt{
				&ir.WaitEdgeStmt{Signal: ir.F("clock")},
				&ir.AssignStmt{Targets: []ir.Expr{&ir.AttrExpr{Value: ir.F("io"), Attr: "ready"}}, Value: ir.C(1)},
			}),
			want: []string{
				"assign xif.io_valid = io_valid;",
				"assign io_ready = xif.io_ready;",
				"assign xif.io_data = io_data;",
			},
			notWant: []string{"assign io_valid =", "assign io_data ="},
		},
		{
			name: "member binding",
			comp: mixedPort("Y",
				[]ir.Stmt{&ir.WaitEdgeStmt{Signal: ir.F("clock")}},
				ir.Binding{Target: ir.R("xif", "io"), Source: ir.R("io")},
			),
			want: []string{
				"assign xif.io_valid = io_valid;",
				"assign io_ready = xif.io_ready;",
				"assign xif.io_data = io_data;",
			},
			notWant: []string{"assign xif.io_ready = io_ready;", "assign io_valid ="},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := lowerOne(t, tc.comp.Name, Options{}, tc.comp)
			for _, line := range tc.want {
				if n := strings.Count(got, line); n != 1 {
					t.Fatalf("expected %q once, got %d:\n%s", line, n, got)
				}
			}
			for _, line := range tc.notWant {
				if strings.Contains(got, line) {
					t.Fatalf("unexpected %q in:\n%s", line, got)
				}
			}
		})
	}
}

func TestNestedSignsAreParenthesised(t *testing.T) {
	comp := &ir.ComponentType{
		Name: "Sign",
		Fields: []*ir.Field{
			{Name: "a", Kind: ir.Input, Type: ir.Bits(8)},
			{Name: "o", Kind: ir.Output, Type: ir.Bits(8)},
		},
		Functions: []*ir.Function{{
			Name: "run",
			Kind: ir.FreeRunning,
			Body: []ir.Stmt{
				&ir.AssignStmt{Targets: []ir.Expr{ir.F("o")}, Value: &ir.UnaryExpr{Op: ir.Neg, Value: ir.C(-5)}},
				&ir.AssignStmt{Targets: []ir.Expr{ir.F("o")}, Value: &ir.UnaryExpr{Op: ir.Neg, Value: &ir.UnaryExpr{Op: ir.Neg, Value: ir.F("a")}}},
			},
		}},
	}
	got := lowerOne(t, "Sign", Options{}, comp)
	for _, line := range []string{"    o = -(-5);\n", "    o = -(-a);\n"} {
		if !strings.Contains(got, line) {
			t.Fatalf("missing %q in:\n%s", line, got)
		}
	}
}

// watcher reads xif.<member> from a free-running process. The export's
// method is bound only when bound is set.
func watcher(member string, bound bool) *ir.ComponentType {
	comp := &ir.ComponentType{
		Name: "Watch",
		Fields: []*ir.Field{
			{Name: "clock", Kind: ir.Input, Type: ir.Bits(1)},
			{Name: "count", Kind: ir.Signal, Type: ir.Bits(8)},
			{Name: "o", Kind: ir.Output, Type: ir.Bits(8)},
			{Name: "xif", Kind: ir.Export, Type: &ir.ProtocolType{
				Name:    "Tick",
				Methods: []*ir.MethodSig{{Name: "tick"}},
			}},
		},
		Functions: []*ir.Function{
			{Name: "tick", Body: []ir.Stmt{&ir.WaitEdgeStmt{Signal: ir.F("clock")}}},
			{Name: "watch", Kind: ir.FreeRunning, Body: []ir.Stmt{
				&ir.AssignStmt{Targets: []ir.Expr{ir.F("o")}, Value: &ir.AttrExpr{Value: ir.F("xif"), Attr: member}},
			}},
		},
	}
	if bound {
		comp.Bindings = []ir.Binding{{Target: ir.R("xif", "tick"), Source: ir.R("tick")}}
	}
	return comp
}

func TestExportMemberReferences(t *testing.T) {
	for _, tc := range []struct {
		name   string
		comp   *ir.ComponentType
		target string
	}{
		{name: "unknown member", comp: watcher("nothing", true), target: "self.xif.nothing"},
		{name: "no interface", comp: watcher("count", false), target: "xif"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			out := Generate(&ir.Context{Types: []*ir.ComponentType{tc.comp}}, Options{})
			var unresolved *UnresolvedReferenceError
			if len(out.Failures) != 1 || !errors.As(out.Failures[0], &unresolved) || unresolved.Name != tc.target {
				t.Fatalf("expected unresolved %s, got %v", tc.target, out.Failures)
			}
		})
	}

	out := Generate(&ir.Context{Types: []*ir.ComponentType{watcher("count", true)}}, Options{})
	if len(out.Failures) != 0 {
		t.Fatalf("unexpected failure: %v", out.Failures[0])
	}
	mod, _ := out.Lookup("Watch")
	iface, _ := out.Lookup("Watch_xif")
	if !strings.Contains(mod.Text, "    o = xif.count;\n") || !strings.Contains(mod.Text, "  assign xif.count = count;\n") {
		t.Fatalf("member read not lowered:\n%s", mod.Text)
	}
	if !strings.Contains(iface.Text, "  logic [7:0] count;\n") {
		t.Fatalf("member missing from interface:\n%s", iface.Text)
	}
}
