// Package frontend loads IR documents written in CUE or JSON and builds the
// in-memory ir.Context handed to the generator.
package frontend

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"

	"svgen/internal/ir"
)

//go:embed schema.cue
var schemaSource []byte

// Loader validates documents against the embedded schema. A Loader may be
// reused for several documents but is not safe for concurrent use.
type Loader struct {
	ctx    *cue.Context
	schema cue.Value
}

// NewLoader compiles the embedded schema.
func NewLoader() (*Loader, error) {
	ctx := cuecontext.New()
	schema := ctx.CompileBytes(schemaSource, cue.Filename("schema.cue"))
	if schema.Err() != nil {
		return nil, fmt.Errorf("frontend: compiling schema: %w", schema.Err())
	}
	return &Loader{ctx: ctx, schema: schema}, nil
}

// Load reads a .cue or .json IR document from path.
func Load(path string) (*ir.Context, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("frontend: %w", err)
	}
	l, err := NewLoader()
	if err != nil {
		return nil, err
	}
	return l.LoadBytes(path, data)
}

// LoadBytes validates data, named name in diagnostics, and builds the IR.
// JSON input is accepted as is since every JSON document is valid CUE.
func (l *Loader) LoadBytes(name string, data []byte) (*ir.Context, error) {
	value := l.ctx.CompileBytes(data, cue.Filename(name))
	if value.Err() != nil {
		return nil, fmt.Errorf("frontend: %s: %s", name, joinErrors(value.Err()))
	}
	def := l.schema.LookupPath(cue.ParsePath("#Context"))
	if def.Err() != nil {
		return nil, fmt.Errorf("frontend: looking up #Context definition: %w", def.Err())
	}
	unified := def.Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("frontend: %s: schema validation failed: %s", name, joinErrors(err))
	}
	var doc contextDoc
	if err := unified.Decode(&doc); err != nil {
		return nil, fmt.Errorf("frontend: %s: decode: %s", name, joinErrors(err))
	}
	design, err := build(&doc)
	if err != nil {
		return nil, fmt.Errorf("frontend: %s: %w", name, err)
	}
	return design, nil
}

// ValidationErrors lists every schema violation in data, one per entry.
func (l *Loader) ValidationErrors(name string, data []byte) []string {
	value := l.ctx.CompileBytes(data, cue.Filename(name))
	if value.Err() != nil {
		return messages(value.Err())
	}
	unified := l.schema.LookupPath(cue.ParsePath("#Context")).Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return messages(err)
	}
	return nil
}

func messages(err error) []string {
	var out []string
	for _, e := range errors.Errors(err) {
		out = append(out, e.Error())
	}
	return out
}

func joinErrors(err error) string {
	return strings.Join(messages(err), "; ")
}
