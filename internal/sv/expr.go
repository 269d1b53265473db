package sv

import (
	"fmt"
	"strconv"

	"svgen/internal/ir"
)

var binOpText = map[ir.BinOp]string{
	ir.Add: "+",
	ir.Sub: "-",
	ir.Mul: "*",
	ir.Div: "/",
	ir.Mod: "%",
	ir.Shl: "<<",
	ir.Shr: ">>",
	ir.And: "&",
	ir.Or:  "|",
	ir.Xor: "^",
}

// binPrec follows SystemVerilog operator precedence; higher binds tighter.
var binPrec = map[ir.BinOp]int{
	ir.Mul: 6,
	ir.Div: 6,
	ir.Mod: 6,
	ir.Add: 5,
	ir.Sub: 5,
	ir.Shl: 4,
	ir.Shr: 4,
	ir.And: 3,
	ir.Xor: 2,
	ir.Or:  1,
}

var unaryOpText = map[ir.UnaryOp]string{
	ir.Not:    "!",
	ir.Invert: "~",
	ir.Neg:    "-",
}

var cmpOpText = map[ir.CmpOp]string{
	ir.CompareEQ: "==",
	ir.CompareNE: "!=",
	ir.CompareLT: "<",
	ir.CompareLE: "<=",
	ir.CompareGT: ">",
	ir.CompareGE: ">=",
}

var boolOpText = map[ir.BoolOp]string{
	ir.LogicalAnd: " && ",
	ir.LogicalOr:  " || ",
}

// exprEnv carries the names visible to an expression beyond component
// fields: function parameters, locals and loop variables.
type exprEnv struct {
	locals map[string]ir.DataType
}

func newExprEnv() *exprEnv {
	return &exprEnv{locals: make(map[string]ir.DataType)}
}

func (e *exprEnv) with(name string, t ir.DataType) *exprEnv {
	next := &exprEnv{locals: make(map[string]ir.DataType, len(e.locals)+1)}
	for k, v := range e.locals {
		next.locals[k] = v
	}
	next.locals[name] = t
	return next
}

// expr translates an IR expression into SystemVerilog text.
func (l *lowerer) expr(e ir.Expr, env *exprEnv) (string, error) {
	switch x := e.(type) {
	case *ir.ConstExpr:
		return constText(x), nil
	case *ir.FieldRef:
		return l.fieldRef(x.Name)
	case *ir.LocalRef:
		if _, ok := env.locals[x.Name]; !ok {
			return "", &UnresolvedReferenceError{Kind: "local", Name: x.Name}
		}
		return l.names.sanitize(x.Name), nil
	case *ir.AttrExpr:
		return l.attrRef(x)
	case *ir.BinExpr:
		op, ok := binOpText[x.Op]
		if !ok {
			return "", &UnknownExpressionError{Expr: ir.ExprString(x), Reason: fmt.Sprintf("binary operator %d", x.Op)}
		}
		left, err := l.operand(x.Left, env)
		if err != nil {
			return "", err
		}
		right, err := l.operand(x.Right, env)
		if err != nil {
			return "", err
		}
		return left + " " + op + " " + right, nil
	case *ir.UnaryExpr:
		op, ok := unaryOpText[x.Op]
		if !ok {
			return "", &UnknownExpressionError{Expr: ir.ExprString(x), Reason: fmt.Sprintf("unary operator %d", x.Op)}
		}
		val, err := l.operand(x.Value, env)
		if err != nil {
			return "", err
		}
		// A sign next to another sign would lex as a decrement.
		switch v := x.Value.(type) {
		case *ir.UnaryExpr:
			val = "(" + val + ")"
		case *ir.ConstExpr:
			if v.Value < 0 {
				val = "(" + val + ")"
			}
		}
		return op + val, nil
	case *ir.BoolExpr:
		op, ok := boolOpText[x.Op]
		if !ok || len(x.Values) == 0 {
			return "", &UnknownExpressionError{Expr: ir.ExprString(x), Reason: "malformed boolean expression"}
		}
		text := ""
		for i, v := range x.Values {
			val, err := l.operand(v, env)
			if err != nil {
				return "", err
			}
			if i > 0 {
				text += op
			}
			text += val
		}
		return text, nil
	case *ir.CompareExpr:
		op, ok := cmpOpText[x.Op]
		if !ok {
			return "", &UnknownExpressionError{Expr: ir.ExprString(x), Reason: fmt.Sprintf("comparison operator %d", x.Op)}
		}
		left, err := l.operand(x.Left, env)
		if err != nil {
			return "", err
		}
		right, err := l.operand(x.Right, env)
		if err != nil {
			return "", err
		}
		return left + " " + op + " " + right, nil
	default:
		return "", &UnknownExpressionError{Expr: fmt.Sprintf("%T", e), Reason: "unsupported expression variant"}
	}
}

// operand translates a sub-expression, parenthesising compound operands.
func (l *lowerer) operand(e ir.Expr, env *exprEnv) (string, error) {
	text, err := l.expr(e, env)
	if err != nil {
		return "", err
	}
	switch e.(type) {
	case *ir.BinExpr, *ir.BoolExpr, *ir.CompareExpr:
		return "(" + text + ")", nil
	}
	return text, nil
}

func constText(c *ir.ConstExpr) string {
	v := c.Value
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	if c.Width > 0 {
		return fmt.Sprintf("%s%d'd%d", sign, c.Width, v)
	}
	return sign + strconv.FormatInt(v, 10)
}

func (l *lowerer) fieldRef(name string) (string, error) {
	f := l.comp.Field(name)
	if f == nil {
		return "", &UnresolvedReferenceError{Kind: "field", Name: name}
	}
	switch f.Kind {
	case ir.Instance, ir.Export:
		return "", &UnknownExpressionError{Expr: name, Reason: f.Kind.String() + " field cannot be used as a value"}
	}
	if _, ok := f.Type.(*ir.BundleType); ok {
		return "", &UnknownExpressionError{Expr: name, Reason: "bundle used as a value; select an element"}
	}
	return l.names.sanitize(name), nil
}

// attrRef resolves a chain of attribute selections rooted at a field.
func (l *lowerer) attrRef(x *ir.AttrExpr) (string, error) {
	rootName, path := attrPath(x)
	if rootName == "" {
		return "", &UnknownExpressionError{Expr: ir.ExprString(x), Reason: "attribute access must be rooted at a component field"}
	}
	f := l.comp.Field(rootName)
	if f == nil {
		return "", &UnresolvedReferenceError{Kind: "field", Name: rootName}
	}
	full := ir.ExprString(x)
	switch f.Kind {
	case ir.Input, ir.Output, ir.Signal:
		sigs, err := l.signals(f)
		if err != nil {
			return "", err
		}
		leaf, ok := leafSignal(sigs, append([]string{f.Name}, path...))
		if !ok {
			return "", &UnresolvedReferenceError{Kind: "bundle element", Name: full}
		}
		return leaf.name, nil
	case ir.Instance:
		inst, err := l.instance(f.Name)
		if err != nil {
			return "", err
		}
		leaf, ok := leafSignal(inst.ports, path)
		if !ok {
			return "", &UnresolvedReferenceError{Kind: "instance port", Name: full}
		}
		return inst.name + "." + leaf.name, nil
	case ir.Export:
		if l.plan == nil || len(l.plan.methods[f.Name]) == 0 {
			return "", &UnresolvedReferenceError{Kind: "export interface", Name: f.Name}
		}
		member := l.comp.Field(path[0])
		if member == nil || !(member.IsPort() || member.Kind == ir.Signal) {
			return "", &UnresolvedReferenceError{Kind: "export member", Name: full}
		}
		sigs, err := l.signals(member)
		if err != nil {
			return "", err
		}
		leaf, ok := leafSignal(sigs, path)
		if !ok {
			return "", &UnresolvedReferenceError{Kind: "export member", Name: full}
		}
		return l.names.sanitize(f.Name) + "." + leaf.name, nil
	default:
		return "", &UnknownExpressionError{Expr: full, Reason: f.Kind.String() + " field has no attributes"}
	}
}

// leafSignal finds the single elementary signal addressed by key, the field
// name followed by the element path.
func leafSignal(sigs []flatSignal, key []string) (flatSignal, bool) {
	for _, s := range sigs {
		if equalPath(s.key(), key) {
			return s, true
		}
	}
	return flatSignal{}, false
}

func equalPath(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
