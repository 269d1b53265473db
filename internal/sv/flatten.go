package sv

import (
	"strings"

	"svgen/internal/ir"
)

// flatSignal is one elementary signal produced by flattening a field.
type flatSignal struct {
	field  *ir.Field
	path   []string
	name   string
	width  ir.WidthExpr
	signed bool
	dir    ir.Direction
}

// raw is the dotted source path of the signal, used to attribute naming
// collisions.
func (s flatSignal) raw() string {
	if len(s.path) == 0 {
		return s.field.Name
	}
	return s.field.Name + "." + strings.Join(s.path, ".")
}

// flattenField expands f into elementary signals, depth-first in declaration
// order. Leaf directions are preserved at every nesting depth; elementary
// port fields take their direction from the field kind. Widths are resolved
// in scope, which also resolves f's own parameter overrides.
func flattenField(f *ir.Field, scope *widthScope) ([]flatSignal, error) {
	dir := ir.DirInOut
	switch f.Kind {
	case ir.Input:
		dir = ir.DirIn
	case ir.Output:
		dir = ir.DirOut
	}
	params, err := resolveParams(f, scope)
	if err != nil {
		return nil, err
	}
	return flattenType(f, nil, f.Type, dir, scope, params)
}

func resolveParams(f *ir.Field, scope *widthScope) (map[string]ir.WidthExpr, error) {
	if len(f.Params) == 0 {
		return nil, nil
	}
	params := make(map[string]ir.WidthExpr, len(f.Params))
	for _, p := range f.Params {
		v, err := scope.resolve(f.Name+"."+p.Name, p.Value)
		if err != nil {
			return nil, err
		}
		params[p.Name] = v
	}
	return params, nil
}

func flattenType(f *ir.Field, path []string, t ir.DataType, dir ir.Direction, scope *widthScope, params map[string]ir.WidthExpr) ([]flatSignal, error) {
	switch tt := t.(type) {
	case *ir.IntType:
		label := f.Name
		if len(path) > 0 {
			label += "." + strings.Join(path, ".")
		}
		width, err := scope.resolve(label, tt.Width)
		if err != nil {
			return nil, err
		}
		return []flatSignal{{
			field:  f,
			path:   path,
			name:   joinName(append([]string{f.Name}, path...)...),
			width:  width,
			signed: tt.Signed,
			dir:    dir,
		}}, nil
	case *ir.BundleType:
		inner := bundleScope(tt, params)
		var out []flatSignal
		for _, bf := range tt.Fields {
			sub := make([]string, len(path), len(path)+1)
			copy(sub, path)
			sub = append(sub, bf.Name)
			// Nested bundles carry no overrides of their own.
			sigs, err := flattenType(f, sub, bf.Type, bf.Dir, inner, nil)
			if err != nil {
				return nil, err
			}
			out = append(out, sigs...)
		}
		return out, nil
	default:
		return nil, &UnsupportedStatementError{
			Stmt:   "field type " + ir.TypeString(t),
			Reason: "field " + f.Name + " cannot be flattened into signals",
		}
	}
}

// key is the field name followed by the element path.
func (s flatSignal) key() []string {
	return append([]string{s.field.Name}, s.path...)
}

// selectSignals keeps the signals at or below key.
func selectSignals(sigs []flatSignal, key []string) []flatSignal {
	var out []flatSignal
	for _, s := range sigs {
		k := s.key()
		if len(k) < len(key) {
			continue
		}
		if equalPath(k[:len(key)], key) {
			out = append(out, s)
		}
	}
	return out
}
