package planner

import (
	mapset "github.com/deckarep/golang-set/v2"

	"github.com/leengari/mini-optimizer/internal/plan"
)

// evaluation is the state of one top-level EstimateRowCount call: the graph
// version it runs against and the set of nodes currently being computed on
// this call stack (the cycle guard). Each call gets its own evaluation, so
// concurrent estimations of a shared sub-plan never trip each other's guard.
type evaluation struct {
	session    *Session
	version    uint64
	inProgress mapset.Set[plan.Handle]
}

func newEvaluation(s *Session) *evaluation {
	return &evaluation{
		session:    s,
		version:    s.graph.Version(),
		inProgress: mapset.NewThreadUnsafeSet[plan.Handle](),
	}
}

// rowCount is the memoizing dispatcher: cache hit, or mark in progress,
// run the operator rule, store, unmark.
func (ev *evaluation) rowCount(h plan.Handle) Estimate {
	s := ev.session
	key := cacheKey{handle: h, kind: metadataRowCount}

	if est, ok := s.cache.get(ev.version, key); ok {
		return est
	}

	if !ev.inProgress.Add(h) {
		// h is already being computed below us on this call stack
		s.recordCycle(h)
		return UnknownEstimate()
	}
	defer ev.inProgress.Remove(h)

	info, ok := s.graph.Node(h)
	if !ok {
		s.logger.Warn("row count requested for unknown plan node",
			"session", s.id, "handle", int(h))
		return UnknownEstimate()
	}

	est := ev.estimate(h, info)
	s.computeCount.Add(1)
	s.cache.store(ev.version, key, est)
	return est
}

// estimate dispatches to the rule for the operator kind. The kind set is
// closed; an unrecognized kind yields unknown rather than a crash.
func (ev *evaluation) estimate(h plan.Handle, info plan.NodeInfo) Estimate {
	switch info.Kind {
	case plan.KindScan:
		return ev.scanRowCount(info)
	case plan.KindProject, plan.KindExchange, plan.KindSink:
		// cardinality-preserving pass-through
		return ev.rowCount(info.Children[0])
	case plan.KindFilter:
		return ev.filterRowCount(info)
	case plan.KindUnion:
		return ev.unionRowCount(info)
	case plan.KindAggregate:
		return ev.aggregateRowCount(info)
	case plan.KindJoin:
		return ev.joinRowCount(info)
	default:
		ev.session.logger.Warn("no row count rule for operator kind",
			"session", ev.session.id, "handle", int(h), "kind", string(info.Kind))
		return UnknownEstimate()
	}
}

// scanRowCount applies the base-table formula: base row count scaled by the
// partition-pruning ratio resolved at plan construction. Missing statistics
// propagate as unknown.
func (ev *evaluation) scanRowCount(info plan.NodeInfo) Estimate {
	table := info.Table
	if !table.HasRowCount {
		return UnknownEstimate()
	}
	return NewEstimate(table.BaseRowCount * table.PruneRatio)
}

// filterRowCount scales the child by the predicate's selectivity.
// An unanalyzable predicate keeps the child count unchanged.
func (ev *evaluation) filterRowCount(info plan.NodeInfo) Estimate {
	child := ev.rowCount(info.Children[0])
	if !child.Known() {
		return UnknownEstimate()
	}
	return NewEstimate(child.Rows() * ev.selectivity(info.Predicate))
}

// selectivity is the baseline predicate heuristic: fixed guesses per
// comparison operator, product for AND, capped sum for OR, and 1.0 (no
// reduction) for anything it cannot analyze. Distinct-count based
// refinement plugs in here.
func (ev *evaluation) selectivity(e *plan.Expr) float64 {
	if e == nil || e.IsAlwaysTrue() {
		return 1.0
	}

	cfg := ev.session.config
	switch e.Op {
	case plan.OpEq:
		return cfg.EqualitySelectivity
	case plan.OpNe:
		return 1.0 - cfg.EqualitySelectivity
	case plan.OpLt, plan.OpLe, plan.OpGt, plan.OpGe:
		return cfg.RangeSelectivity
	case plan.OpAnd:
		return ev.selectivity(e.Left) * ev.selectivity(e.Right)
	case plan.OpOr:
		sel := ev.selectivity(e.Left) + ev.selectivity(e.Right)
		if sel > 1.0 {
			sel = 1.0
		}
		return sel
	default:
		return 1.0
	}
}

// unionRowCount sums the children. Any unknown input makes the sum unknown.
func (ev *evaluation) unionRowCount(info plan.NodeInfo) Estimate {
	total := 0.0
	for _, child := range info.Children {
		est := ev.rowCount(child)
		if !est.Known() {
			return UnknownEstimate()
		}
		total += est.Rows()
	}
	return NewEstimate(total)
}

// aggregateRowCount reduces the child by the grouping heuristic:
//   - grouping columns unknown (nil): no reduction, pass the child through
//   - scalar aggregate (empty group list): exactly one output row
//   - grouped: child scaled by the configured group factor, never exceeding
//     the child count
func (ev *evaluation) aggregateRowCount(info plan.NodeInfo) Estimate {
	child := ev.rowCount(info.Children[0])
	if !child.Known() {
		return UnknownEstimate()
	}

	if info.GroupBy == nil {
		return child
	}
	if len(info.GroupBy) == 0 {
		return NewEstimate(1)
	}

	groups := child.Rows() * ev.session.config.AggregateGroupFactor
	if groups > child.Rows() {
		groups = child.Rows()
	}
	return NewEstimate(groups)
}

// joinRowCount applies the join cardinality policy:
//
//	cartesian         -> L * R
//	single-key equality -> max(L, R)   (ties resolve to L)
//	anything else     -> L * R scaled by the fallback selectivity
//
// The equality heuristic assumes the smaller side's keys are a subset of
// the larger side's; without distinct-count statistics this avoids
// underestimating join fan-out. Unknown inputs make the join unknown.
func (ev *evaluation) joinRowCount(info plan.NodeInfo) Estimate {
	left := ev.rowCount(info.Children[0])
	right := ev.rowCount(info.Children[1])
	if !left.Known() || !right.Known() {
		return UnknownEstimate()
	}

	l, r := left.Rows(), right.Rows()
	switch ev.classifyJoin(info) {
	case plan.ConditionCartesian:
		return NewEstimate(l * r)
	case plan.ConditionEquality:
		if r > l {
			return NewEstimate(r)
		}
		return NewEstimate(l)
	default:
		return NewEstimate(l * r * ev.session.config.JoinFallbackSelectivity)
	}
}
