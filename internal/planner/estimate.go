package planner

import (
	"fmt"
	"math"
)

// Estimate is a row-count estimate: a non-negative finite number of rows,
// or unknown. The zero value is unknown.
type Estimate struct {
	rows  float64
	known bool
}

// UnknownEstimate is the absent row count
func UnknownEstimate() Estimate {
	return Estimate{}
}

// NewEstimate publishes a row count. Negative values are clamped to zero;
// NaN and infinities degrade to unknown, so no estimator can publish a
// non-finite result.
func NewEstimate(rows float64) Estimate {
	if math.IsNaN(rows) || math.IsInf(rows, 0) {
		return Estimate{}
	}
	if rows < 0 {
		rows = 0
	}
	return Estimate{rows: rows, known: true}
}

// Known reports whether the estimate carries a value
func (e Estimate) Known() bool {
	return e.known
}

// Rows returns the estimated row count; zero when unknown
func (e Estimate) Rows() float64 {
	return e.rows
}

func (e Estimate) String() string {
	if !e.known {
		return "unknown"
	}
	return fmt.Sprintf("%g", e.rows)
}
