package planner

import (
	"fmt"

	"github.com/leengari/mini-optimizer/internal/plan"
)

// CycleError records that a node's row-count estimation recursively depended
// on itself. A well-formed plan graph is acyclic, so a cycle indicates a bug
// in plan construction upstream; the estimator recovers by reporting the
// node's row count as unknown.
type CycleError struct {
	Handle plan.Handle
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("cyclic metadata request for plan node %d", e.Handle)
}
