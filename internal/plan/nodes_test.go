package plan

import (
	"testing"

	"github.com/leengari/mini-optimizer/internal/stats"
)

// TestResolveTableRef verifies statistics resolution onto a TableRef
func TestResolveTableRef(t *testing.T) {
	provider := stats.NewMemoryProvider()
	provider.SetStatistics("users", stats.TableStatistics{
		RowCount:    500,
		HasRowCount: true,
		PruneRatio:  0.75,
	})

	ref := ResolveTableRef(provider, "users")
	if !ref.HasRowCount || ref.BaseRowCount != 500 {
		t.Errorf("expected base row count 500, got %+v", ref)
	}
	if ref.PruneRatio != 0.75 {
		t.Errorf("expected prune ratio 0.75, got %g", ref.PruneRatio)
	}

	// Unknown table: no row count, nothing pruned
	missing := ResolveTableRef(provider, "ghosts")
	if missing.HasRowCount {
		t.Error("unknown table should have no row count")
	}
	if missing.PruneRatio != 1.0 {
		t.Errorf("unknown table prune ratio = %g, want 1.0", missing.PruneRatio)
	}

	// Nil provider behaves like an empty catalog
	bare := ResolveTableRef(nil, "users")
	if bare.HasRowCount || bare.PruneRatio != 1.0 {
		t.Errorf("nil provider should yield no stats, got %+v", bare)
	}
}

// TestConditionConstructors verifies the tagged join condition variants
func TestConditionConstructors(t *testing.T) {
	tests := []struct {
		cond     JoinCondition
		expected ConditionKind
	}{
		{CartesianCondition(), ConditionCartesian},
		{EqualityCondition(0, 1), ConditionEquality},
		{OtherCondition(ColumnRef(0)), ConditionOther},
		{PredicateCondition(ConstValue(true)), ConditionUnclassified},
	}

	for _, tt := range tests {
		if tt.cond.Kind != tt.expected {
			t.Errorf("expected kind %s, got %s", tt.expected, tt.cond.Kind)
		}
	}

	eq := EqualityCondition(2, 3)
	if eq.LeftKey != 2 || eq.RightKey != 3 {
		t.Errorf("equality keys = (%d, %d), want (2, 3)", eq.LeftKey, eq.RightKey)
	}
}

// TestExprHelpers verifies the predicate expression model
func TestExprHelpers(t *testing.T) {
	if !ConstValue(true).IsAlwaysTrue() {
		t.Error("constant true should be always true")
	}
	if ConstValue(false).IsAlwaysTrue() {
		t.Error("constant false should not be always true")
	}
	if (*Expr)(nil).IsAlwaysTrue() != true {
		t.Error("nil predicate should count as always true")
	}
	if Eq(ColumnRef(0), ConstValue(42)).IsAlwaysTrue() {
		t.Error("comparison should not be always true")
	}

	if !OpEq.IsComparison() || OpAnd.IsComparison() {
		t.Error("comparison classification is wrong")
	}

	e := And(Eq(ColumnRef(0), ConstValue(1)), Or(ColumnRef(1), ConstValue(false)))
	if e.String() == "" {
		t.Error("expression should render")
	}
}
