package frontend

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"svgen/internal/ir"
)

const counterCUE = `
types: [{
	name: "Counter"
	source: {file: "counter.py", line: 4}
	fields: [
		{name: "WIDTH", kind: "const", default: 32},
		{name: "clock", kind: "input", type: logic: width: 1},
		{name: "reset", kind: "input", type: logic: width: 1},
		{name: "count", kind: "output", type: logic: width: "WIDTH"},
	]
	functions: [{
		name:  "_count"
		kind:  "clocked"
		clock: "self.clock"
		reset: "self.reset"
		body: [{
			"if": {
				cond: "self.reset"
				then: [{assign: {targets: ["self.count"], value: "0"}}]
				else: [{aug: {target: "self.count", op: "+", value: "1"}}]
			}
		}]
	}]
}]
`

func TestLoadCUEDocument(t *testing.T) {
	l, err := NewLoader()
	if err != nil {
		t.Fatalf("NewLoader: %v", err)
	}
	got, err := l.LoadBytes("counter.cue", []byte(counterCUE))
	if err != nil {
		t.Fatalf("LoadBytes: %v", err)
	}
	want := &ir.Context{Types: []*ir.ComponentType{{
		Name:   "Counter",
		Source: &ir.Location{File: "counter.py", Line: 4},
		Fields: []*ir.Field{
			{Name: "WIDTH", Kind: ir.Const, Default: 32},
			{Name: "clock", Kind: ir.Input, Type: ir.Bits(1)},
			{Name: "reset", Kind: ir.Input, Type: ir.Bits(1)},
			{Name: "count", Kind: ir.Output, Type: &ir.IntType{Width: ir.W("WIDTH")}},
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
	}}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("IR mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadJSONFile(t *testing.T) {
	doc := `{
  "types": [
    {
      "name": "Xtor",
      "fields": [
        {"name": "clock", "kind": "input", "type": {"logic": {"width": 1}}},
        {"name": "bus", "kind": "output", "type": {"bundle": {
          "name": "Bus",
          "consts": [{"name": "BUS_WIDTH", "default": 32}],
          "fields": [
            {"name": "valid", "dir": "out", "type": {"logic": {"width": 1}}},
            {"name": "data", "type": {"logic": {"width": "BUS_WIDTH/8"}}}
          ]
        }}, "params": [{"name": "BUS_WIDTH", "value": 64}]},
        {"name": "xtor_if", "kind": "export", "type": {"protocol": {
          "name": "Send",
          "methods": [{"name": "send", "params": [{"name": "data", "type": {"logic": {"width": 8}}}], "result": {"logic": {"width": 8}}}]
        }}}
      ],
      "functions": [{
        "name": "send",
        "params": [{"name": "data", "type": {"logic": {"width": 8}}}],
        "result": {"logic": {"width": 8}},
        "body": [
          {"wait": {"signal": "self.clock"}},
          {"while": {"cond": "!self.bus.valid", "body": [{"wait": {"edge": "negedge", "signal": "self.clock"}}]}},
          {"delay": {"amount": 5, "unit": "ns"}},
          {"return": {"value": "data + u8(1)"}}
        ]
      }],
      "bindings": [{"target": "xtor_if.send", "source": "send"}]
    }
  ]
}`
	path := filepath.Join(t.TempDir(), "xtor.json")
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write doc: %v", err)
	}
	design, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	comp, ok := design.Lookup("Xtor")
	if !ok {
		t.Fatalf("Xtor not loaded")
	}

	bus := comp.Field("bus").Type.(*ir.BundleType)
	if bus.Fields[1].Dir != ir.DirIn {
		t.Fatalf("bundle direction should default to in, got %s", bus.Fields[1].Dir)
	}
	wantWidth := &ir.WidthBin{Op: ir.Div, Left: ir.W("BUS_WIDTH"), Right: ir.L(8)}
	if diff := cmp.Diff(ir.WidthExpr(wantWidth), bus.Fields[1].Type.(*ir.IntType).Width); diff != "" {
		t.Fatalf("width mismatch (-want +got):\n%s", diff)
	}

	fn := comp.Function("send")
	if fn.Kind != ir.Plain {
		t.Fatalf("function kind should default to plain, got %s", fn.Kind)
	}
	wantBody := []ir.Stmt{
		&ir.WaitEdgeStmt{Signal: ir.F("clock"), Edge: ir.Posedge},
		&ir.WhileStmt{
			Cond: &ir.UnaryExpr{Op: ir.Not, Value: &ir.AttrExpr{Value: ir.F("bus"), Attr: "valid"}},
			Body: []ir.Stmt{&ir.WaitEdgeStmt{Signal: ir.F("clock"), Edge: ir.Negedge}},
		},
		&ir.WaitDelayStmt{Amount: 5, Unit: "ns"},
		&ir.ReturnStmt{Value: &ir.BinExpr{Op: ir.Add, Left: &ir.LocalRef{Name: "data"}, Right: &ir.ConstExpr{Value: 1, Width: 8}}},
	}
	if diff := cmp.Diff(wantBody, fn.Body); diff != "" {
		t.Fatalf("body mismatch (-want +got):\n%s", diff)
	}
	wantBinding := []ir.Binding{{Target: ir.R("xtor_if", "send"), Source: ir.R("send")}}
	if diff := cmp.Diff(wantBinding, comp.Bindings); diff != "" {
		t.Fatalf("bindings mismatch (-want +got):\n%s", diff)
	}
}

func TestSchemaRejectsUnknownKind(t *testing.T) {
	l, err := NewLoader()
	if err != nil {
		t.Fatalf("NewLoader: %v", err)
	}
	doc := `types: [{name: "Bad", fields: [{name: "x", kind: "wire", type: logic: width: 1}]}]`
	if _, err := l.LoadBytes("bad.cue", []byte(doc)); err == nil || !strings.Contains(err.Error(), "schema validation failed") {
		t.Fatalf("expected schema validation failure, got %v", err)
	}
	if msgs := l.ValidationErrors("bad.cue", []byte(doc)); len(msgs) == 0 {
		t.Fatalf("expected validation messages")
	}
}

func TestSchemaRejectsUnknownFields(t *testing.T) {
	l, err := NewLoader()
	if err != nil {
		t.Fatalf("NewLoader: %v", err)
	}
	doc := `types: [{name: "Bad", colour: "red"}]`
	if _, err := l.LoadBytes("bad.cue", []byte(doc)); err == nil {
		t.Fatalf("expected closed definitions to reject unknown fields")
	}
}

func TestExpressionErrorsNameThePath(t *testing.T) {
	l, err := NewLoader()
	if err != nil {
		t.Fatalf("NewLoader: %v", err)
	}
	doc := `types: [{
	name: "Bad"
	fields: [{name: "count", kind: "output", type: logic: width: 8}]
	functions: [{
		name: "run"
		kind: "free-running"
		body: [{assign: {targets: ["self.count"], value: "count + 1"}}]
	}]
}]`
	_, err = l.LoadBytes("bad.cue", []byte(doc))
	if err == nil {
		t.Fatalf("expected an unknown-local error")
	}
	for _, want := range []string{"types[0].functions[0].body[0].assign.value", "unknown local count"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected %q in %v", want, err)
		}
	}
}

func TestParseWidth(t *testing.T) {
	cases := map[string]ir.WidthExpr{
		"32":           ir.L(32),
		"WIDTH":        ir.W("WIDTH"),
		"DATA_WIDTH+4": &ir.WidthBin{Op: ir.Add, Left: ir.W("DATA_WIDTH"), Right: ir.L(4)},
		"(A+B)*2":      &ir.WidthBin{Op: ir.Mul, Left: &ir.WidthBin{Op: ir.Add, Left: ir.W("A"), Right: ir.W("B")}, Right: ir.L(2)},
	}
	for src, want := range cases {
		got, err := parseWidth(src)
		if err != nil {
			t.Fatalf("parseWidth(%q): %v", src, err)
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("parseWidth(%q) mismatch (-want +got):\n%s", src, diff)
		}
	}
	if _, err := parseWidth("WIDTH == 3"); err == nil {
		t.Fatalf("comparisons must not be accepted as widths")
	}
}

func TestParseLogicalChains(t *testing.T) {
	p := &exprParser{locals: map[string]bool{}}
	got, err := p.parse("self.a && self.b && (self.c || self.d)")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := &ir.BoolExpr{Op: ir.LogicalAnd, Values: []ir.Expr{
		ir.F("a"),
		ir.F("b"),
		&ir.BoolExpr{Op: ir.LogicalOr, Values: []ir.Expr{ir.F("c"), ir.F("d")}},
	}}
	if diff := cmp.Diff(ir.Expr(want), got); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}

func TestParseRef(t *testing.T) {
	got, err := parseRef("self.core.clock")
	if err != nil {
		t.Fatalf("parseRef: %v", err)
	}
	if diff := cmp.Diff(ir.R("core", "clock"), got); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
	if _, err := parseRef("core..clock"); err == nil {
		t.Fatalf("expected malformed reference error")
	}
}
