package sv

import (
	"fmt"
	"strconv"

	"svgen/internal/ir"
)

// widthScope resolves width expressions against the constants of one
// component or bundle. Names in subst are replaced (instance and bundle
// overrides, or defaults when the scope is foreign); names only in defined
// stay symbolic and are emitted as parameter arithmetic.
type widthScope struct {
	owner   string
	defined map[string]bool
	subst   map[string]ir.WidthExpr
}

// componentScope returns the scope of comp's own constants, kept symbolic.
func componentScope(comp *ir.ComponentType) *widthScope {
	scope := &widthScope{owner: comp.Name, defined: make(map[string]bool)}
	for _, f := range comp.Fields {
		if f.Kind == ir.Const {
			scope.defined[f.Name] = true
		}
	}
	return scope
}

// instanceScope returns the scope of an instantiated component: every
// constant is replaced by its override from params, or by its default.
// Override values are already resolved in the enclosing scope.
func instanceScope(comp *ir.ComponentType, params map[string]ir.WidthExpr) *widthScope {
	scope := &widthScope{
		owner:   comp.Name,
		defined: make(map[string]bool),
		subst:   make(map[string]ir.WidthExpr),
	}
	for _, f := range comp.Fields {
		if f.Kind != ir.Const {
			continue
		}
		scope.defined[f.Name] = true
		if v, ok := params[f.Name]; ok {
			scope.subst[f.Name] = v
		} else {
			scope.subst[f.Name] = &ir.WidthLit{Value: f.Default}
		}
	}
	return scope
}

// bundleScope returns the scope of a bundle's constants, with the same
// override rule as instanceScope.
func bundleScope(bt *ir.BundleType, params map[string]ir.WidthExpr) *widthScope {
	scope := &widthScope{
		owner:   bt.Name,
		defined: make(map[string]bool),
		subst:   make(map[string]ir.WidthExpr),
	}
	for _, c := range bt.Consts {
		scope.defined[c.Name] = true
		if v, ok := params[c.Name]; ok {
			scope.subst[c.Name] = v
		} else {
			scope.subst[c.Name] = &ir.WidthLit{Value: c.Default}
		}
	}
	return scope
}

// resolve validates e against the scope and applies substitutions. Fully
// literal sub-expressions are folded; anything referencing a symbolic
// constant is kept as arithmetic.
func (s *widthScope) resolve(field string, e ir.WidthExpr) (ir.WidthExpr, error) {
	switch we := e.(type) {
	case nil:
		return &ir.WidthLit{Value: 1}, nil
	case *ir.WidthLit:
		return we, nil
	case *ir.WidthRef:
		if v, ok := s.subst[we.Name]; ok {
			return v, nil
		}
		if s.defined[we.Name] {
			return we, nil
		}
		return nil, &UnresolvedWidthError{Scope: s.owner, Field: field, Name: we.Name}
	case *ir.WidthBin:
		left, err := s.resolve(field, we.Left)
		if err != nil {
			return nil, err
		}
		right, err := s.resolve(field, we.Right)
		if err != nil {
			return nil, err
		}
		out := &ir.WidthBin{Op: we.Op, Left: left, Right: right}
		if v, ok := evalWidth(out); ok {
			return &ir.WidthLit{Value: v}, nil
		}
		return out, nil
	default:
		return nil, &UnknownExpressionError{Expr: fmt.Sprintf("%T", e), Reason: "unsupported width expression"}
	}
}

// evalWidth folds e when it contains no symbolic names.
func evalWidth(e ir.WidthExpr) (int64, bool) {
	switch we := e.(type) {
	case *ir.WidthLit:
		return we.Value, true
	case *ir.WidthBin:
		l, ok := evalWidth(we.Left)
		if !ok {
			return 0, false
		}
		r, ok := evalWidth(we.Right)
		if !ok {
			return 0, false
		}
		switch we.Op {
		case ir.Add:
			return l + r, true
		case ir.Sub:
			return l - r, true
		case ir.Mul:
			return l * r, true
		case ir.Div:
			if r == 0 {
				return 0, false
			}
			return l / r, true
		case ir.Mod:
			if r == 0 {
				return 0, false
			}
			return l % r, true
		case ir.Shl:
			return l << uint(r), true
		case ir.Shr:
			return l >> uint(r), true
		case ir.And:
			return l & r, true
		case ir.Or:
			return l | r, true
		case ir.Xor:
			return l ^ r, true
		}
	}
	return 0, false
}

// renderWidth emits e as compact parameter arithmetic, e.g. DATA_WIDTH/8.
func renderWidth(e ir.WidthExpr) string {
	switch we := e.(type) {
	case *ir.WidthLit:
		return strconv.FormatInt(we.Value, 10)
	case *ir.WidthRef:
		return Sanitize(we.Name)
	case *ir.WidthBin:
		prec := binPrec[we.Op]
		return wrapWidth(we.Left, prec, false) + binOpText[we.Op] + wrapWidth(we.Right, prec, true)
	default:
		return "?"
	}
}

func wrapWidth(e ir.WidthExpr, parent int, right bool) string {
	text := renderWidth(e)
	if b, ok := e.(*ir.WidthBin); ok {
		prec := binPrec[b.Op]
		if prec < parent || (right && prec == parent) {
			return "(" + text + ")"
		}
	}
	return text
}

// packedRange returns the packed dimension for a width: "" for one bit,
// "[31:0]" for literal widths and "[WIDTH-1:0]" for deferred ones.
func packedRange(w ir.WidthExpr) string {
	if v, ok := evalWidth(w); ok {
		if v <= 1 {
			return ""
		}
		return fmt.Sprintf("[%d:0]", v-1)
	}
	return "[" + wrapWidth(w, binPrec[ir.Sub], false) + "-1:0]"
}

// logicType renders the data type portion of a declaration.
func logicType(w ir.WidthExpr, signed bool) string {
	text := "logic"
	if signed {
		text += " signed"
	}
	if r := packedRange(w); r != "" {
		text += " " + r
	}
	return text
}

// compatibleWidths reports whether two resolved widths can be connected.
// Symbolic widths that differ textually are accepted: they may agree after
// elaboration.
func compatibleWidths(a, b ir.WidthExpr) bool {
	av, aok := evalWidth(a)
	bv, bok := evalWidth(b)
	if aok && bok {
		return av == bv
	}
	return true
}
