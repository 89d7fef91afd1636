package planner

// Config holds the selectivity heuristics used when no richer statistics
// (distinct counts, histograms) are available. The defaults are the usual
// textbook guesses; callers tune them per deployment.
type Config struct {
	// EqualitySelectivity is the fraction of rows assumed to survive an
	// equality comparison against a constant
	EqualitySelectivity float64

	// RangeSelectivity is the fraction assumed to survive an inequality or
	// range comparison
	RangeSelectivity float64

	// JoinFallbackSelectivity scales the cartesian product for join
	// predicates that are neither trivially true nor single-key equalities
	JoinFallbackSelectivity float64

	// AggregateGroupFactor is the assumed ratio of groups to input rows for
	// a grouped aggregation; the result is always bounded by the input row
	// count. 1.0 means no reduction.
	AggregateGroupFactor float64
}

// DefaultConfig returns the baseline heuristics
func DefaultConfig() Config {
	return Config{
		EqualitySelectivity:     0.15,
		RangeSelectivity:        0.5,
		JoinFallbackSelectivity: 0.25,
		AggregateGroupFactor:    1.0,
	}
}
