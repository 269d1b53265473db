// Package passes holds checks that run over the IR before lowering.
package passes

import (
	"errors"
	"fmt"

	"svgen/internal/ir"
)

// Pass is one analysis over a whole design.
type Pass interface {
	Name() string
	Run(design *ir.Context) error
}

// Manager runs passes in the order they were added. Every pass runs even
// when an earlier one fails, so a single run reports all diagnostics.
type Manager struct {
	passes []Pass
}

func NewManager() *Manager {
	return &Manager{}
}

func (m *Manager) Add(p Pass) {
	m.passes = append(m.passes, p)
}

// Names lists the registered passes in run order.
func (m *Manager) Names() []string {
	names := make([]string, 0, len(m.passes))
	for _, p := range m.passes {
		names = append(names, p.Name())
	}
	return names
}

func (m *Manager) Run(design *ir.Context) error {
	var errs []error
	for _, p := range m.passes {
		if err := p.Run(design); err != nil {
			errs = append(errs, fmt.Errorf("pass %s: %w", p.Name(), err))
		}
	}
	return errors.Join(errs...)
}
