package sv

import (
	"strings"
)

// Sanitize maps a raw IR identifier to a valid SystemVerilog identifier.
// Scope separators and locality brackets become "__", any other character
// outside [A-Za-z0-9_] becomes "_", and a leading digit gets a "_" prefix.
// It is pure: the result depends on raw alone.
func Sanitize(raw string) string {
	if raw == "" {
		return "_"
	}
	var b strings.Builder
	b.Grow(len(raw) + 4)
	for _, r := range raw {
		switch {
		case r == '.' || r == '<' || r == '>':
			b.WriteString("__")
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	name := b.String()
	if name[0] >= '0' && name[0] <= '9' {
		name = "_" + name
	}
	return name
}

// joinName builds the flattened name of a bundle element from its sanitized
// path segments.
func joinName(segments ...string) string {
	parts := make([]string, 0, len(segments))
	for _, s := range segments {
		parts = append(parts, Sanitize(s))
	}
	return strings.Join(parts, "_")
}

// nameTable caches sanitized identifiers and tracks which raw name owns each
// identifier declared in one module or interface scope. A table lives for a
// single component lowering.
type nameTable struct {
	cache map[string]string
	owner map[string]string
}

func newNameTable() *nameTable {
	return &nameTable{
		cache: make(map[string]string),
		owner: make(map[string]string),
	}
}

func (t *nameTable) sanitize(raw string) string {
	if name, ok := t.cache[raw]; ok {
		return name
	}
	name := Sanitize(raw)
	t.cache[raw] = name
	return name
}

// declare reserves name for raw in the current scope. Declaring the same raw
// name twice is allowed; a different raw name landing on the same identifier
// is a collision.
func (t *nameTable) declare(raw, name string) error {
	if prev, ok := t.owner[name]; ok {
		if prev == raw {
			return nil
		}
		return &NamingCollisionError{Name: name, First: prev, Second: raw}
	}
	t.owner[name] = raw
	return nil
}
