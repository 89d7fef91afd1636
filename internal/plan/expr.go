package plan

import "fmt"

// ExprOp is the operator of a predicate expression node
type ExprOp string

const (
	OpColumn ExprOp = "COLUMN"
	OpConst  ExprOp = "CONST"
	OpEq     ExprOp = "EQ"
	OpNe     ExprOp = "NE"
	OpLt     ExprOp = "LT"
	OpLe     ExprOp = "LE"
	OpGt     ExprOp = "GT"
	OpGe     ExprOp = "GE"
	OpAnd    ExprOp = "AND"
	OpOr     ExprOp = "OR"
)

// Expr is a predicate expression used by Filter nodes and join conditions.
// This is an estimation-side model, not a SQL AST: just enough structure for
// selectivity heuristics and equi-join classification.
//
// Column indexes address the operator's input schema. For a join condition
// the input is the concatenation of the left child's columns followed by the
// right child's.
type Expr struct {
	Op     ExprOp
	Column int // for OpColumn
	Value  any // for OpConst
	Left   *Expr
	Right  *Expr
}

// ColumnRef builds a column reference expression
func ColumnRef(index int) *Expr {
	return &Expr{Op: OpColumn, Column: index}
}

// ConstValue builds a constant expression
func ConstValue(v any) *Expr {
	return &Expr{Op: OpConst, Value: v}
}

// Compare builds a comparison expression (EQ, NE, LT, LE, GT, GE)
func Compare(op ExprOp, left, right *Expr) *Expr {
	return &Expr{Op: op, Left: left, Right: right}
}

// Eq builds an equality comparison
func Eq(left, right *Expr) *Expr { return Compare(OpEq, left, right) }

// And combines two predicates conjunctively
func And(left, right *Expr) *Expr {
	return &Expr{Op: OpAnd, Left: left, Right: right}
}

// Or combines two predicates disjunctively
func Or(left, right *Expr) *Expr {
	return &Expr{Op: OpOr, Left: left, Right: right}
}

// IsComparison reports whether op compares two operands
func (op ExprOp) IsComparison() bool {
	switch op {
	case OpEq, OpNe, OpLt, OpLe, OpGt, OpGe:
		return true
	}
	return false
}

// IsAlwaysTrue reports whether the expression is a constant true predicate.
// A nil expression counts as always true (no restriction).
func (e *Expr) IsAlwaysTrue() bool {
	if e == nil {
		return true
	}
	if e.Op != OpConst {
		return false
	}
	b, ok := e.Value.(bool)
	return ok && b
}

func (e *Expr) String() string {
	if e == nil {
		return "<nil>"
	}
	switch e.Op {
	case OpColumn:
		return fmt.Sprintf("$%d", e.Column)
	case OpConst:
		return fmt.Sprintf("%v", e.Value)
	default:
		return fmt.Sprintf("(%s %s %s)", e.Left, e.Op, e.Right)
	}
}
