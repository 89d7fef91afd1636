package planner

import (
	mapset "github.com/deckarep/golang-set/v2"
	stack "github.com/golang-collections/collections/stack"
	pair "github.com/notEpsilon/go-pair"

	"github.com/leengari/mini-optimizer/internal/plan"
)

// classifyJoin resolves a join's condition to cartesian, equality or other.
// Declared conditions are validated (a malformed equality degrades to the
// other-condition fallback); raw predicates are classified by walking the
// expression tree, and the key pairs extracted there are bounds-checked the
// same way declared keys are.
func (ev *evaluation) classifyJoin(info plan.NodeInfo) plan.ConditionKind {
	cond := info.Condition

	switch cond.Kind {
	case plan.ConditionCartesian:
		return plan.ConditionCartesian

	case plan.ConditionEquality:
		if ev.equalityKeysValid(info, cond.LeftKey, cond.RightKey) {
			return plan.ConditionEquality
		}
		ev.session.logger.Debug("malformed equality join condition; using fallback formula",
			"session", ev.session.id,
			"left_key", cond.LeftKey, "right_key", cond.RightKey)
		return plan.ConditionOther

	case plan.ConditionOther:
		return plan.ConditionOther

	case plan.ConditionUnclassified:
		return ev.classifyPredicate(cond.Predicate, info)

	default:
		// a condition kind this estimator does not recognize
		ev.session.logger.Debug("unrecognized join condition kind; using fallback formula",
			"session", ev.session.id, "kind", string(cond.Kind))
		return plan.ConditionOther
	}
}

// equalityKeysValid bounds-checks one equality key pair against the child
// schemas, resolving schemas through schema-less pass-through children.
// A side whose schema cannot be resolved at all skips the upper-bound check.
func (ev *evaluation) equalityKeysValid(info plan.NodeInfo, leftKey, rightKey int) bool {
	if leftKey < 0 || rightKey < 0 {
		return false
	}

	leftWidth, lok := ev.schemaWidth(info.Children[0])
	rightWidth, rok := ev.schemaWidth(info.Children[1])
	if !lok || !rok {
		ev.session.logger.Debug("cannot bounds-check equality join keys; child schema unresolved",
			"session", ev.session.id,
			"left_key", leftKey, "right_key", rightKey)
	}
	if lok && leftKey >= leftWidth {
		return false
	}
	if rok && rightKey >= rightWidth {
		return false
	}
	return true
}

// schemaWidth resolves the output schema width of a node, descending through
// unary operators that carry no schema of their own (Exchange, Sink, bare
// Project). The visited set guards against cyclic graphs.
func (ev *evaluation) schemaWidth(h plan.Handle) (int, bool) {
	seen := mapset.NewThreadUnsafeSet[plan.Handle]()
	for seen.Add(h) {
		info, ok := ev.session.graph.Node(h)
		if !ok {
			return 0, false
		}
		if len(info.Schema) > 0 {
			return len(info.Schema), true
		}
		if len(info.Children) != 1 {
			return 0, false
		}
		h = info.Children[0]
	}
	return 0, false
}

// classifyPredicate walks a raw join predicate with an explicit stack,
// collecting column equality pairs that span the two inputs. Column indexes
// address the concatenated schema (left columns first), so a pair qualifies
// when one side falls below the left width and the other at or above it.
// Extracted pairs are then validated like declared equality keys; a pair
// that fails the bounds check is discarded.
func (ev *evaluation) classifyPredicate(pred *plan.Expr, info plan.NodeInfo) plan.ConditionKind {
	if pred.IsAlwaysTrue() {
		return plan.ConditionCartesian
	}

	leftWidth, _ := ev.schemaWidth(info.Children[0])

	var equalities []pair.Pair[int, int]
	nonEquality := false

	pending := stack.New()
	pending.Push(pred)
	for pending.Len() > 0 {
		e, ok := pending.Pop().(*plan.Expr)
		if !ok || e == nil {
			nonEquality = true
			continue
		}

		switch e.Op {
		case plan.OpAnd:
			pending.Push(e.Left)
			pending.Push(e.Right)

		case plan.OpEq:
			l, r, ok := columnPair(e)
			if !ok {
				nonEquality = true
				continue
			}
			switch {
			case l < leftWidth && r >= leftWidth:
				equalities = append(equalities, pair.Pair[int, int]{First: l, Second: r - leftWidth})
			case r < leftWidth && l >= leftWidth:
				equalities = append(equalities, pair.Pair[int, int]{First: r, Second: l - leftWidth})
			default:
				// both columns on the same side; restricts but does not pair
				nonEquality = true
			}

		case plan.OpConst:
			if !e.IsAlwaysTrue() {
				nonEquality = true
			}

		default:
			nonEquality = true
		}
	}

	// keep only pairs whose key indexes land inside the child schemas
	valid := equalities[:0]
	for _, eq := range equalities {
		if ev.equalityKeysValid(info, eq.First, eq.Second) {
			valid = append(valid, eq)
		}
	}

	switch {
	case len(valid) > 0:
		// at least one cross-input equality pair; residual conjuncts only
		// reduce further, so the equality formula stays an upper bound
		ev.session.logger.Debug("join predicate classified as equality",
			"session", ev.session.id,
			"left_key", valid[0].First, "right_key", valid[0].Second,
			"pairs", len(valid))
		return plan.ConditionEquality
	case len(equalities) == 0 && !nonEquality:
		// only trivially-true conjuncts survived
		return plan.ConditionCartesian
	default:
		return plan.ConditionOther
	}
}

// columnPair extracts the two column indexes of a column=column comparison
func columnPair(e *plan.Expr) (int, int, bool) {
	if e.Left == nil || e.Right == nil {
		return 0, 0, false
	}
	if e.Left.Op != plan.OpColumn || e.Right.Op != plan.OpColumn {
		return 0, 0, false
	}
	return e.Left.Column, e.Right.Column, true
}
