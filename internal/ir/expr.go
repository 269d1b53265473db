package ir

// WidthExpr is a bit-width or parameter expression evaluated at elaboration
// time. It is closed over the constants of the declaring component or bundle.
type WidthExpr interface {
	isWidthExpr()
}

// WidthLit is a literal width.
type WidthLit struct {
	Value int64
}

// WidthRef names a constant in scope.
type WidthRef struct {
	Name string
}

// WidthBin combines two width expressions.
type WidthBin struct {
	Op    BinOp
	Left  WidthExpr
	Right WidthExpr
}

func (*WidthLit) isWidthExpr() {}
func (*WidthRef) isWidthExpr() {}
func (*WidthBin) isWidthExpr() {}

// Expr is implemented by every IR expression node.
type Expr interface {
	isExpr()
}

// ConstExpr is an integer literal. A Width of zero leaves it unsized.
type ConstExpr struct {
	Value int64
	Width int
}

// FieldRef references a field of the enclosing component.
type FieldRef struct {
	Name string
}

// LocalRef references a function parameter or local variable.
type LocalRef struct {
	Name string
}

// AttrExpr selects Attr from Value: a bundle element, an instance port or an
// export member.
type AttrExpr struct {
	Value Expr
	Attr  string
}

// BinExpr models a binary arithmetic, shift or bitwise operation.
type BinExpr struct {
	Op    BinOp
	Left  Expr
	Right Expr
}

// UnaryExpr models a unary operation.
type UnaryExpr struct {
	Op    UnaryOp
	Value Expr
}

// BoolExpr joins two or more operands with a logical operator.
type BoolExpr struct {
	Op     BoolOp
	Values []Expr
}

// CompareExpr compares Left against Right.
type CompareExpr struct {
	Op    CmpOp
	Left  Expr
	Right Expr
}

func (*ConstExpr) isExpr()   {}
func (*FieldRef) isExpr()    {}
func (*LocalRef) isExpr()    {}
func (*AttrExpr) isExpr()    {}
func (*BinExpr) isExpr()     {}
func (*UnaryExpr) isExpr()   {}
func (*BoolExpr) isExpr()    {}
func (*CompareExpr) isExpr() {}

// BinOp enumerates supported binary ops.
type BinOp int

const (
	Add BinOp = iota
	Sub
	Mul
	Div
	Mod
	Shl
	Shr
	And
	Or
	Xor
)

// UnaryOp enumerates supported unary ops.
type UnaryOp int

const (
	Not UnaryOp = iota
	Invert
	Neg
)

// BoolOp enumerates logical connectives.
type BoolOp int

const (
	LogicalAnd BoolOp = iota
	LogicalOr
)

// CmpOp enumerates comparison predicates.
type CmpOp int

const (
	CompareEQ CmpOp = iota
	CompareNE
	CompareLT
	CompareLE
	CompareGT
	CompareGE
)

// Field and Const reference helpers keep hand-built IR readable.

// F references a component field.
func F(name string) *FieldRef { return &FieldRef{Name: name} }

// C builds an unsized constant.
func C(v int64) *ConstExpr { return &ConstExpr{Value: v} }

// W references a constant inside a width expression.
func W(name string) *WidthRef { return &WidthRef{Name: name} }

// L builds a literal width.
func L(v int64) *WidthLit { return &WidthLit{Value: v} }
