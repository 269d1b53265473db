package passes

import (
	"fmt"

	"svgen/internal/diag"
	"svgen/internal/ir"
)

// WidthScope checks that every deferred width only names constants in scope:
// the declaring component's constants for fields, locals and overrides, and
// the bundle's own constants for bundle elements.
type WidthScope struct {
	reporter *diag.Reporter
}

// NewWidthScope constructs the pass. reporter is optional but recommended
// so the pass can surface precise diagnostics.
func NewWidthScope(reporter *diag.Reporter) *WidthScope {
	return &WidthScope{reporter: reporter}
}

// Name implements the Pass interface.
func (w *WidthScope) Name() string {
	return "width-scope"
}

// Run executes the pass over the entire design.
func (w *WidthScope) Run(design *ir.Context) error {
	if design == nil {
		return fmt.Errorf("width scope requires a non-nil design")
	}
	errs := 0
	for _, comp := range design.Types {
		if comp == nil || comp.External {
			continue
		}
		errs += w.visitComponent(comp)
	}
	if errs > 0 {
		return fmt.Errorf("width scope reported %d errors", errs)
	}
	return nil
}

func (w *WidthScope) visitComponent(comp *ir.ComponentType) int {
	consts := make(map[string]bool)
	for _, f := range comp.Fields {
		if f.Kind == ir.Const {
			consts[f.Name] = true
		}
	}
	errs := 0
	check := func(loc *ir.Location, what string, e ir.WidthExpr, scope map[string]bool, owner string) {
		for _, name := range widthNames(e) {
			if !scope[name] {
				errs++
				w.reporter.Error(loc, fmt.Sprintf("%s: width of %s references %q, which is not a constant of %s", comp.Name, what, name, owner))
			}
		}
	}
	var visitType func(loc *ir.Location, what string, t ir.DataType, scope map[string]bool, owner string)
	visitType = func(loc *ir.Location, what string, t ir.DataType, scope map[string]bool, owner string) {
		switch tt := t.(type) {
		case *ir.IntType:
			check(loc, what, tt.Width, scope, owner)
		case *ir.BundleType:
			inner := make(map[string]bool, len(tt.Consts))
			for _, c := range tt.Consts {
				inner[c.Name] = true
			}
			for _, bf := range tt.Fields {
				visitType(loc, what+"."+bf.Name, bf.Type, inner, tt.Name)
			}
		}
	}

	for _, f := range comp.Fields {
		switch f.Kind {
		case ir.Input, ir.Output, ir.Signal:
			visitType(f.Source, f.Name, f.Type, consts, comp.Name)
		}
		for _, p := range f.Params {
			check(f.Source, f.Name+"."+p.Name, p.Value, consts, comp.Name)
		}
	}
	for _, fn := range comp.Functions {
		for _, v := range append(append([]*ir.Param{}, fn.Params...), fn.Locals...) {
			visitType(fn.Source, fn.Name+"."+v.Name, v.Type, consts, comp.Name)
		}
		visitType(fn.Source, fn.Name+" result", fn.Result, consts, comp.Name)
	}
	return errs
}

// widthNames lists the constant names referenced by e, in order.
func widthNames(e ir.WidthExpr) []string {
	switch we := e.(type) {
	case *ir.WidthRef:
		return []string{we.Name}
	case *ir.WidthBin:
		return append(widthNames(we.Left), widthNames(we.Right)...)
	}
	return nil
}
