package plan

import (
	"github.com/leengari/mini-optimizer/internal/stats"
)

// Kind is the operator kind of a plan node (for dispatch and debugging/logging)
type Kind string

const (
	KindScan      Kind = "SCAN"
	KindProject   Kind = "PROJECT"
	KindFilter    Kind = "FILTER"
	KindJoin      Kind = "JOIN"
	KindExchange  Kind = "EXCHANGE"
	KindUnion     Kind = "UNION"
	KindAggregate Kind = "AGGREGATE"
	KindSink      Kind = "SINK"
)

// ColumnType identifies the value type of an output column
type ColumnType string

const (
	TypeInt    ColumnType = "INT"
	TypeFloat  ColumnType = "FLOAT"
	TypeString ColumnType = "STRING"
	TypeBool   ColumnType = "BOOL"
)

// Column is one typed column of an operator's output schema
type Column struct {
	Name string
	Type ColumnType
}

// Handle is the stable identity of a node within its Graph.
// Handles key the metadata cache and the cycle-detection set.
type Handle int

// InvalidHandle is never a valid node identity
const InvalidHandle Handle = -1

// TableRef identifies a scan target with its statistics already resolved.
// The estimator never reaches back into a catalog; whatever the planner
// resolved at construction time is all it sees.
type TableRef struct {
	Name         string
	BaseRowCount float64
	HasRowCount  bool
	PruneRatio   float64 // fraction of partitions retained, in [0, 1]
}

// ResolveTableRef builds a TableRef for a table by consulting the provider.
// The pruning ratio is clamped into [0, 1] before attachment.
func ResolveTableRef(p stats.Provider, table string) TableRef {
	ref := TableRef{Name: table, PruneRatio: 1.0}
	if p == nil {
		return ref
	}

	if count, ok := p.BaseRowCount(table); ok {
		ref.BaseRowCount = count
		ref.HasRowCount = true
	}

	ratio := p.PruneRatio(table)
	if ratio < 0 {
		ratio = 0
	} else if ratio > 1 {
		ratio = 1
	}
	ref.PruneRatio = ratio

	return ref
}

// ConditionKind classifies a join condition
type ConditionKind string

const (
	// ConditionCartesian is a trivially true join predicate
	ConditionCartesian ConditionKind = "CARTESIAN"
	// ConditionEquality is a single-key equi-join
	ConditionEquality ConditionKind = "EQUALITY"
	// ConditionOther is a non-equality or unanalyzable predicate
	ConditionOther ConditionKind = "OTHER"
	// ConditionUnclassified carries a raw predicate expression that the
	// estimator classifies on demand
	ConditionUnclassified ConditionKind = "UNCLASSIFIED"
)

// JoinCondition is the join parameter of a KindJoin node.
// Equality key indexes address the left and right child schemas respectively.
type JoinCondition struct {
	Kind      ConditionKind
	LeftKey   int
	RightKey  int
	Predicate *Expr // set for ConditionOther and ConditionUnclassified
}

// CartesianCondition builds the condition for a cross join
func CartesianCondition() JoinCondition {
	return JoinCondition{Kind: ConditionCartesian, LeftKey: -1, RightKey: -1}
}

// EqualityCondition builds a single-key equi-join condition.
// leftKey indexes the left child's schema, rightKey the right child's.
// Keys are bounds-checked at estimation time against the nearest resolvable
// child schema (descending through schema-less pass-through operators); a
// side with no resolvable schema cannot be upper-bounds-checked and is
// accepted as declared.
func EqualityCondition(leftKey, rightKey int) JoinCondition {
	return JoinCondition{Kind: ConditionEquality, LeftKey: leftKey, RightKey: rightKey}
}

// OtherCondition builds a condition for a predicate the planner already
// knows is not an equi-join
func OtherCondition(pred *Expr) JoinCondition {
	return JoinCondition{Kind: ConditionOther, LeftKey: -1, RightKey: -1, Predicate: pred}
}

// PredicateCondition wraps a raw predicate expression for later
// classification by the estimator
func PredicateCondition(pred *Expr) JoinCondition {
	return JoinCondition{Kind: ConditionUnclassified, LeftKey: -1, RightKey: -1, Predicate: pred}
}
