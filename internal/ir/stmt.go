package ir

// Stmt is implemented by every IR statement node.
type Stmt interface {
	isStmt()
}

// AssignStmt assigns Value to every target.
type AssignStmt struct {
	Targets []Expr
	Value   Expr
}

// AugAssignStmt is `target op= value`.
type AugAssignStmt struct {
	Target Expr
	Op     BinOp
	Value  Expr
}

// IfStmt is a two-way conditional. Else may be empty.
type IfStmt struct {
	Cond Expr
	Then []Stmt
	Else []Stmt
}

// MatchStmt is a multi-way branch on Subject. Arms are tested in order and
// never fall through.
type MatchStmt struct {
	Subject Expr
	Cases   []MatchCase
}

// MatchCase is one arm of a MatchStmt. A case without labels is the default
// arm.
type MatchCase struct {
	Labels []Expr
	Body   []Stmt
}

// ForStmt is a bounded counted loop: Var runs from Start while below Stop,
// incremented by Step.
type ForStmt struct {
	Var   string
	Start Expr
	Stop  Expr
	Step  int64
	Body  []Stmt
}

// WhileStmt loops while Cond holds. Only valid where timing controls are.
type WhileStmt struct {
	Cond Expr
	Body []Stmt
}

// WaitEdgeStmt suspends until the named signal sees Edge.
type WaitEdgeStmt struct {
	Signal Expr
	Edge   Edge
}

// WaitDelayStmt suspends for a literal duration. Unit may be empty, in
// which case the simulator time unit applies.
type WaitDelayStmt struct {
	Amount int64
	Unit   string
}

// ReturnStmt ends an export method, optionally producing a value.
type ReturnStmt struct {
	Value Expr
}

func (*AssignStmt) isStmt()    {}
func (*AugAssignStmt) isStmt() {}
func (*IfStmt) isStmt()        {}
func (*MatchStmt) isStmt()     {}
func (*ForStmt) isStmt()       {}
func (*WhileStmt) isStmt()     {}
func (*WaitEdgeStmt) isStmt()  {}
func (*WaitDelayStmt) isStmt() {}
func (*ReturnStmt) isStmt()    {}

// Edge selects the signal transition a WaitEdgeStmt waits for.
type Edge int

const (
	Posedge Edge = iota
	Negedge
)

func (e Edge) String() string {
	if e == Negedge {
		return "negedge"
	}
	return "posedge"
}
