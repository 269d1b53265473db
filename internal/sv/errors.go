package sv

import (
	"fmt"

	"svgen/internal/ir"
)

// ComponentError attributes a lowering failure to one component.
type ComponentError struct {
	Component string
	Source    *ir.Location
	Err       error
}

func (e *ComponentError) Error() string {
	return fmt.Sprintf("component %s: %v", e.Component, e.Err)
}

func (e *ComponentError) Unwrap() error {
	return e.Err
}

// UnresolvedWidthError reports a deferred width naming a constant that is not
// in scope of the declaring component or bundle.
type UnresolvedWidthError struct {
	Scope string
	Field string
	Name  string
}

func (e *UnresolvedWidthError) Error() string {
	return fmt.Sprintf("width of %s references %q, which is not a constant of %s", e.Field, e.Name, e.Scope)
}

// UnresolvedReferenceError reports a binding, instance or expression naming
// something absent from the context or the component.
type UnresolvedReferenceError struct {
	Kind string
	Name string
}

func (e *UnresolvedReferenceError) Error() string {
	return fmt.Sprintf("unresolved %s %q", e.Kind, e.Name)
}

// UnsupportedStatementError reports a statement shape or placement outside
// the supported grammar.
type UnsupportedStatementError struct {
	Function string
	Stmt     string
	Reason   string
}

func (e *UnsupportedStatementError) Error() string {
	if e.Function == "" {
		return fmt.Sprintf("unsupported %s: %s", e.Stmt, e.Reason)
	}
	return fmt.Sprintf("unsupported %s in %s: %s", e.Stmt, e.Function, e.Reason)
}

// UnknownExpressionError reports an expression variant the translator does
// not handle.
type UnknownExpressionError struct {
	Expr   string
	Reason string
}

func (e *UnknownExpressionError) Error() string {
	return fmt.Sprintf("cannot translate expression %s: %s", e.Expr, e.Reason)
}

// NamingCollisionError reports two distinct raw names that sanitize to the
// same identifier within one scope.
type NamingCollisionError struct {
	Name   string
	First  string
	Second string
}

func (e *NamingCollisionError) Error() string {
	return fmt.Sprintf("identifier %s is produced by both %q and %q", e.Name, e.First, e.Second)
}

// AmbiguousBindingError reports a target controlled by more than one binding.
type AmbiguousBindingError struct {
	Target string
	First  string
	Second string
}

func (e *AmbiguousBindingError) Error() string {
	return fmt.Sprintf("%s is bound by both %s and %s", e.Target, e.First, e.Second)
}

// IncompatibleBindingError reports binding sides whose flattened shapes do
// not pair up.
type IncompatibleBindingError struct {
	Binding string
	Reason  string
}

func (e *IncompatibleBindingError) Error() string {
	return fmt.Sprintf("binding %s: %s", e.Binding, e.Reason)
}
