// Package sv lowers the hardware-component IR to SystemVerilog source text.
package sv

import (
	"fmt"

	"golang.org/x/sync/errgroup"

	"svgen/internal/ir"
)

// Options configures generation.
type Options struct {
	// Debug prefixes structural elements with source-location comments.
	Debug bool
	// AllowBindingOverride lets a later binding silently replace an earlier
	// one controlling the same element.
	AllowBindingOverride bool
	// Parallelism bounds how many components are lowered at once. Values
	// below one mean sequential lowering. It never changes the output.
	Parallelism int
}

// UnitKind distinguishes module and interface units.
type UnitKind int

const (
	ModuleUnit UnitKind = iota
	InterfaceUnit
)

func (k UnitKind) String() string {
	switch k {
	case ModuleUnit:
		return "module"
	case InterfaceUnit:
		return "interface"
	default:
		return fmt.Sprintf("unit(%d)", int(k))
	}
}

// Unit is one emitted design unit.
type Unit struct {
	Name      string
	Component string
	Kind      UnitKind
	Text      string
}

// FileName is the name of the file the unit is written to.
func (u Unit) FileName() string {
	return u.Name + ".sv"
}

// Output is the result of a generation run: the units of every component
// that lowered successfully, in context order, and one failure per component
// that did not.
type Output struct {
	Units    []Unit
	Failures []*ComponentError
}

type componentResult struct {
	units []Unit
	err   *ComponentError
}

// Generate lowers every non-external component of design. A failing
// component does not stop the others.
func Generate(design *ir.Context, opts Options) *Output {
	if design == nil {
		return &Output{}
	}
	results := make([]componentResult, len(design.Types))

	var g errgroup.Group
	limit := opts.Parallelism
	if limit < 1 {
		limit = 1
	}
	g.SetLimit(limit)
	for i, comp := range design.Types {
		if comp == nil || comp.External {
			continue
		}
		i, comp := i, comp
		g.Go(func() error {
			units, err := newLowerer(design, comp, opts).lower()
			if err != nil {
				results[i].err = &ComponentError{Component: comp.Name, Source: comp.Source, Err: err}
				return nil
			}
			results[i].units = units
			return nil
		})
	}
	_ = g.Wait()

	out := &Output{}
	owners := make(map[string]string)
	for i, r := range results {
		if r.err != nil {
			out.Failures = append(out.Failures, r.err)
			continue
		}
		if err := claimUnits(owners, r.units); err != nil {
			comp := design.Types[i]
			out.Failures = append(out.Failures, &ComponentError{Component: comp.Name, Source: comp.Source, Err: err})
			continue
		}
		out.Units = append(out.Units, r.units...)
	}
	return out
}

// claimUnits reserves the unit names of one component across the run.
func claimUnits(owners map[string]string, units []Unit) error {
	for _, u := range units {
		if prev, ok := owners[u.Name]; ok && prev != u.Component {
			return &NamingCollisionError{Name: u.Name, First: prev, Second: u.Component}
		}
	}
	for _, u := range units {
		owners[u.Name] = u.Component
	}
	return nil
}

// Lookup returns the unit called name.
func (o *Output) Lookup(name string) (Unit, bool) {
	for _, u := range o.Units {
		if u.Name == name {
			return u, true
		}
	}
	return Unit{}, false
}
