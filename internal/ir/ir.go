package ir

import (
	"fmt"
	"strings"
)

// Context is the top-level hardware description: an ordered set of component
// types keyed by unique name.
type Context struct {
	Types []*ComponentType
}

// Lookup returns the component type registered under name.
func (c *Context) Lookup(name string) (*ComponentType, bool) {
	if c == nil {
		return nil, false
	}
	for _, t := range c.Types {
		if t != nil && t.Name == name {
			return t, true
		}
	}
	return nil, false
}

// ComponentType models a hardware component with ports, signals, constants,
// sub-instances, processes and bindings.
type ComponentType struct {
	Name      string
	Fields    []*Field
	Functions []*Function
	Bindings  []Binding
	Source    *Location
	// External components are instantiated by name only and never defined.
	External bool
}

// Field looks up a field by name.
func (c *ComponentType) Field(name string) *Field {
	for _, f := range c.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// Function looks up a function by name.
func (c *ComponentType) Function(name string) *Function {
	for _, fn := range c.Functions {
		if fn.Name == name {
			return fn
		}
	}
	return nil
}

// Location records where an IR element originated in the modelling source.
type Location struct {
	File string
	Line int
}

func (l *Location) String() string {
	if l == nil {
		return "<unknown>"
	}
	if l.Line <= 0 {
		return l.File
	}
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

// Field is a named member of a component.
type Field struct {
	Name string
	Type DataType
	Kind FieldKind
	// Default holds the elaboration-time default of a Const field.
	Default int64
	// Params overrides constants of an instance's component or of a bundle.
	Params []ParamBinding
	Source *Location
}

// IsPort reports whether the field is part of the component's port list.
func (f *Field) IsPort() bool {
	return f.Kind == Input || f.Kind == Output
}

// FieldKind classifies a field. Exactly one kind applies per field.
type FieldKind int

const (
	Input FieldKind = iota
	Output
	Signal
	Const
	Instance
	Export
)

func (k FieldKind) String() string {
	switch k {
	case Input:
		return "input"
	case Output:
		return "output"
	case Signal:
		return "signal"
	case Const:
		return "const"
	case Instance:
		return "inst"
	case Export:
		return "export"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Direction is the signal direction of a port or bundle element.
type Direction int

const (
	DirIn Direction = iota
	DirOut
	DirInOut
)

func (d Direction) String() string {
	switch d {
	case DirIn:
		return "input"
	case DirOut:
		return "output"
	default:
		return "inout"
	}
}

// ParamBinding overrides the constant Name with Value, an expression closed
// over the enclosing component's constants.
type ParamBinding struct {
	Name  string
	Value WidthExpr
}

// DataType is implemented by every IR data type.
type DataType interface {
	isDataType()
}

// IntType is a sized integer. Width may be a literal or a deferred
// expression over constants.
type IntType struct {
	Width  WidthExpr
	Signed bool
}

// BundleType is an aggregate whose leaf elements carry their own direction.
type BundleType struct {
	Name   string
	Consts []ConstDecl
	Fields []*BundleField
}

// BundleField is one element of a bundle.
type BundleField struct {
	Name string
	Type DataType
	Dir  Direction
}

// ConstDecl declares a bundle-level constant with its default value.
type ConstDecl struct {
	Name    string
	Default int64
}

// RefType refers to another component type in the context.
type RefType struct {
	Name string
}

// ProtocolType describes the methods offered by an export field.
type ProtocolType struct {
	Name    string
	Methods []*MethodSig
}

// Method looks up a method signature by name.
func (p *ProtocolType) Method(name string) *MethodSig {
	for _, m := range p.Methods {
		if m.Name == name {
			return m
		}
	}
	return nil
}

// MethodSig is a callable entry point of a protocol.
type MethodSig struct {
	Name   string
	Params []*Param
	Result DataType
}

func (*IntType) isDataType()      {}
func (*BundleType) isDataType()   {}
func (*RefType) isDataType()      {}
func (*ProtocolType) isDataType() {}

// Bits is a convenience constructor for a literal-width integer type.
func Bits(width int64) *IntType {
	return &IntType{Width: &WidthLit{Value: width}}
}

// Param is a named, typed function parameter or local variable.
type Param struct {
	Name string
	Type DataType
}

// Function is a behavioral method of a component.
type Function struct {
	Name   string
	Params []*Param
	Locals []*Param
	Result DataType
	Body   []Stmt
	Kind   ProcessKind
	// Clock and Reset are only meaningful for Clocked functions; Reset is
	// optional.
	Clock  Expr
	Reset  Expr
	Source *Location
}

// ProcessKind classifies how a function is lowered.
type ProcessKind int

const (
	Plain ProcessKind = iota
	Clocked
	FreeRunning
)

func (k ProcessKind) String() string {
	switch k {
	case Plain:
		return "plain"
	case Clocked:
		return "clocked"
	case FreeRunning:
		return "free-running"
	default:
		return fmt.Sprintf("process(%d)", int(k))
	}
}

// Binding connects Target to Source.
type Binding struct {
	Target Ref
	Source Ref
	Pos    *Location
}

// Ref names a field, a path into a field (instance port, bundle element,
// export member), or a function of the enclosing component.
type Ref struct {
	Path []string
}

// Head returns the first path segment.
func (r Ref) Head() string {
	if len(r.Path) == 0 {
		return ""
	}
	return r.Path[0]
}

func (r Ref) String() string {
	return strings.Join(r.Path, ".")
}

// R builds a Ref from its path segments.
func R(path ...string) Ref {
	return Ref{Path: path}
}
