package planner

import (
	"context"
	"sync"
	"testing"

	"github.com/leengari/mini-optimizer/internal/plan"
)

// chainFixture builds Sink <- Exchange <- Project <- Scan and returns the
// graph, root and scan handles
func chainFixture(t *testing.T, base, ratio float64) (*plan.Graph, plan.Handle, plan.Handle) {
	t.Helper()

	g := plan.NewGraph()
	scan := newScan(t, g, "users", base, ratio)
	project := mustHandle(t)(g.NewProject(scan, scanSchema()))
	exchange := mustHandle(t)(g.NewExchange(project))
	root := mustHandle(t)(g.NewSink(exchange))
	return g, root, scan
}

// TestIdempotence verifies the second estimation of an unmutated node is a
// pure cache hit
func TestIdempotence(t *testing.T) {
	g, root, _ := chainFixture(t, 500, 0.75)
	s := NewSession(g)

	first := s.EstimateRowCount(root)
	computed := s.ComputeCount()
	if computed != 4 {
		t.Errorf("expected 4 estimator invocations for 4 nodes, got %d", computed)
	}

	second := s.EstimateRowCount(root)
	if s.ComputeCount() != computed {
		t.Errorf("second estimation recomputed: %d -> %d invocations", computed, s.ComputeCount())
	}
	if first != second {
		t.Errorf("estimates differ across calls: %s vs %s", first, second)
	}
	if first.Rows() != 375 {
		t.Errorf("expected 375 rows, got %g", first.Rows())
	}
}

// TestSharedSubPlanComputedOnce verifies memoization across a DAG with a
// shared child
func TestSharedSubPlanComputedOnce(t *testing.T) {
	g := plan.NewGraph()

	scan := newScan(t, g, "users", 100, 1.0)
	p1 := mustHandle(t)(g.NewProject(scan, scanSchema()))
	p2 := mustHandle(t)(g.NewProject(scan, scanSchema()))
	join := mustHandle(t)(g.NewJoin(p1, p2, plan.CartesianCondition(), nil))

	s := NewSession(g)
	verifyRowCount(t, s, join, 100*100)

	// join, both projects, and the shared scan exactly once
	if s.ComputeCount() != 4 {
		t.Errorf("expected 4 estimator invocations, got %d", s.ComputeCount())
	}
}

// TestInvalidationOnMutation verifies that a structural mutation discards
// cached estimates and the next request sees the new shape
func TestInvalidationOnMutation(t *testing.T) {
	g := plan.NewGraph()

	small := newScan(t, g, "small", 10, 1.0)
	big := newScan(t, g, "big", 1000, 1.0)
	project := mustHandle(t)(g.NewProject(small, nil))
	root := mustHandle(t)(g.NewSink(project))

	s := NewSession(g)
	verifyRowCount(t, s, root, 10)

	if err := g.ReplaceChild(project, 0, big); err != nil {
		t.Fatalf("ReplaceChild failed: %v", err)
	}

	verifyRowCount(t, s, root, 1000)
}

// TestExplicitInvalidation verifies InvalidateCache forces recomputation
func TestExplicitInvalidation(t *testing.T) {
	g, root, _ := chainFixture(t, 500, 1.0)
	s := NewSession(g)

	s.EstimateRowCount(root)
	before := s.ComputeCount()

	s.InvalidateCache()
	s.EstimateRowCount(root)

	if s.ComputeCount() != before*2 {
		t.Errorf("expected full recomputation after invalidation, got %d invocations after %d", s.ComputeCount(), before)
	}
}

// TestCycleSafety verifies a cyclic graph yields unknown instead of hanging
// or crashing
func TestCycleSafety(t *testing.T) {
	g := plan.NewGraph()

	scan := newScan(t, g, "users", 100, 1.0)
	p1 := mustHandle(t)(g.NewProject(scan, nil))
	p2 := mustHandle(t)(g.NewProject(p1, nil))

	// p1 -> p2 -> p1: a bug upstream in plan construction
	if err := g.ReplaceChild(p1, 0, p2); err != nil {
		t.Fatalf("ReplaceChild failed: %v", err)
	}

	s := NewSession(g)
	if est := s.EstimateRowCount(p2); est.Known() {
		t.Errorf("cyclic estimation should be unknown, got %g", est.Rows())
	}

	cycles := s.CycleErrors()
	if len(cycles) == 0 {
		t.Fatal("expected a recorded cycle error")
	}
	if cycles[0].Handle != p2 {
		t.Errorf("cycle recorded for handle %d, want %d", cycles[0].Handle, p2)
	}
	if cycles[0].Error() == "" {
		t.Error("cycle error should describe itself")
	}
}

// TestConcurrentEstimation verifies that parallel estimations over shared
// sub-trees agree and do not corrupt the cache
func TestConcurrentEstimation(t *testing.T) {
	g, root, scan := chainFixture(t, 500, 0.75)
	s := NewSession(g)

	const workers = 16
	results := make([]Estimate, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = s.EstimateRowCount(root)
		}()
	}
	wg.Wait()

	for i, est := range results {
		if !est.Known() || est.Rows() != 375 {
			t.Errorf("worker %d got %s, want 375", i, est)
		}
	}

	// cached leaf agrees too
	verifyRowCount(t, s, scan, 375)
}

// TestEstimateAll verifies concurrent estimation of independent roots
func TestEstimateAll(t *testing.T) {
	g := plan.NewGraph()

	a := newScan(t, g, "a", 100, 1.0)
	b := newScan(t, g, "b", 200, 0.5)
	c := newScanWithoutStats(t, g, "c")

	results, err := NewSession(g).EstimateAll(context.Background(), []plan.Handle{a, b, c})
	if err != nil {
		t.Fatalf("EstimateAll failed: %v", err)
	}

	if results[0].Rows() != 100 || results[1].Rows() != 100 {
		t.Errorf("unexpected results: %v", results)
	}
	if results[2].Known() {
		t.Error("scan without statistics should be unknown")
	}
}

// TestEstimateAllCancelled verifies a cancelled context aborts the batch
func TestEstimateAllCancelled(t *testing.T) {
	g, root, _ := chainFixture(t, 500, 1.0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewSession(g).EstimateAll(ctx, []plan.Handle{root}); err == nil {
		t.Error("expected an error from a cancelled context")
	}
}
