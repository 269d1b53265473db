package passes

import (
	"fmt"

	"svgen/internal/diag"
	"svgen/internal/ir"
)

// ReferenceCheck verifies that every name the design refers to exists:
// instance component types, parameter overrides and binding endpoints. It
// also reports duplicate component and field names.
type ReferenceCheck struct {
	reporter *diag.Reporter
}

func NewReferenceCheck(reporter *diag.Reporter) *ReferenceCheck {
	return &ReferenceCheck{reporter: reporter}
}

// Name implements the Pass interface.
func (r *ReferenceCheck) Name() string {
	return "reference-check"
}

// Run executes the pass over the entire design.
func (r *ReferenceCheck) Run(design *ir.Context) error {
	if design == nil {
		return fmt.Errorf("reference check requires a non-nil design")
	}
	errs := 0
	seen := make(map[string]bool)
	for _, comp := range design.Types {
		if comp == nil {
			continue
		}
		if seen[comp.Name] {
			r.report(&errs, comp.Source, fmt.Sprintf("component %s is defined more than once", comp.Name))
		}
		seen[comp.Name] = true
		r.visitComponent(design, comp, &errs)
	}
	if errs > 0 {
		return fmt.Errorf("reference check reported %d errors", errs)
	}
	return nil
}

func (r *ReferenceCheck) visitComponent(design *ir.Context, comp *ir.ComponentType, errs *int) {
	fields := make(map[string]bool)
	for _, f := range comp.Fields {
		if fields[f.Name] {
			r.report(errs, f.Source, fmt.Sprintf("%s: field %s is declared more than once", comp.Name, f.Name))
		}
		fields[f.Name] = true
		switch f.Kind {
		case ir.Instance:
			r.checkInstance(design, comp, f, errs)
		case ir.Export:
			if _, ok := f.Type.(*ir.ProtocolType); !ok {
				r.report(errs, f.Source, fmt.Sprintf("%s: export %s has type %s, want a protocol", comp.Name, f.Name, ir.TypeString(f.Type)))
			}
		}
	}
	if comp.External {
		return
	}
	bound := make(map[string]bool)
	for _, b := range comp.Bindings {
		for _, ref := range []ir.Ref{b.Target, b.Source} {
			if len(ref.Path) == 0 {
				r.report(errs, b.Pos, fmt.Sprintf("%s: binding with an empty endpoint", comp.Name))
				continue
			}
			head := ref.Head()
			if comp.Field(head) == nil && comp.Function(head) == nil {
				r.report(errs, b.Pos, fmt.Sprintf("%s: binding endpoint %s names no field or function", comp.Name, ref))
			}
			if f := comp.Field(head); f != nil && f.Kind == ir.Export {
				bound[head] = true
			}
		}
	}
	for _, f := range comp.Fields {
		if f.Kind == ir.Export && !bound[f.Name] {
			r.reporter.Warning(f.Source, fmt.Sprintf("%s: export %s has no bindings and generates no interface", comp.Name, f.Name))
		}
	}
}

func (r *ReferenceCheck) checkInstance(design *ir.Context, comp *ir.ComponentType, f *ir.Field, errs *int) {
	rt, ok := f.Type.(*ir.RefType)
	if !ok {
		r.report(errs, f.Source, fmt.Sprintf("%s: instance %s has type %s, want a component", comp.Name, f.Name, ir.TypeString(f.Type)))
		return
	}
	child, ok := design.Lookup(rt.Name)
	if !ok {
		r.report(errs, f.Source, fmt.Sprintf("%s: instance %s refers to unknown component %s", comp.Name, f.Name, rt.Name))
		return
	}
	for _, p := range f.Params {
		c := child.Field(p.Name)
		if c == nil || c.Kind != ir.Const {
			r.report(errs, f.Source, fmt.Sprintf("%s: instance %s overrides %s, which is not a constant of %s", comp.Name, f.Name, p.Name, child.Name))
		}
	}
}

func (r *ReferenceCheck) report(errs *int, loc *ir.Location, msg string) {
	*errs++
	r.reporter.Error(loc, msg)
}
