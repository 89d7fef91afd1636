package planner

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/leengari/mini-optimizer/internal/logging"
	"github.com/leengari/mini-optimizer/internal/plan"
)

// Session is the per-planning-session estimation context: one plan graph,
// one metadata cache, one set of heuristics. The plan-search algorithm asks
// it for row counts through EstimateRowCount; results are memoized until the
// graph mutates.
//
// A Session is safe for concurrent use by multiple planning goroutines.
// Sessions never share caches, so concurrent planning sessions (one per
// query in a multi-tenant server) cannot corrupt each other.
type Session struct {
	id     string
	graph  *plan.Graph
	logger *slog.Logger
	config Config
	cache  *metadataCache

	// computeCount counts estimator invocations (cache misses); tests use it
	// to observe memoization
	computeCount atomic.Int64

	cycleMu sync.Mutex
	cycles  []*CycleError
}

// Option configures a Session
type Option func(*Session)

// WithLogger injects the session logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithConfig overrides the default estimation heuristics
func WithConfig(cfg Config) Option {
	return func(s *Session) {
		s.config = cfg
	}
}

// NewSession creates an estimation session over a plan graph
func NewSession(graph *plan.Graph, opts ...Option) *Session {
	s := &Session{
		id:     uuid.New().String(),
		graph:  graph,
		logger: logging.Discard(),
		config: DefaultConfig(),
		cache:  newMetadataCache(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ID returns the unique session identifier
func (s *Session) ID() string {
	return s.id
}

// Graph returns the plan graph this session estimates over
func (s *Session) Graph() *plan.Graph {
	return s.graph
}

// EstimateRowCount returns the estimated output row count of the node
// behind h. Results are memoized; the second request for an unmutated node
// is a cache hit and performs no recomputation.
func (s *Session) EstimateRowCount(h plan.Handle) Estimate {
	ev := newEvaluation(s)
	return ev.rowCount(h)
}

// EstimateAll estimates several independent roots concurrently, one
// goroutine per root, sharing the session cache. It returns early if ctx is
// cancelled; estimation of a single node is never cancelled mid-flight.
func (s *Session) EstimateAll(ctx context.Context, roots []plan.Handle) ([]Estimate, error) {
	results := make([]Estimate, len(roots))

	group, ctx := errgroup.WithContext(ctx)
	for i, root := range roots {
		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = s.EstimateRowCount(root)
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// InvalidateCache discards every memoized estimate. Structural graph
// mutations through Graph.ReplaceChild invalidate automatically; this is
// for callers that mutate statistics out of band.
func (s *Session) InvalidateCache() {
	s.cache.invalidate()
	s.logger.Debug("metadata cache invalidated",
		"session", s.id,
		"plan_fingerprint", s.graph.Fingerprint())
}

// ComputeCount returns how many estimator invocations (cache misses) the
// session has performed
func (s *Session) ComputeCount() int64 {
	return s.computeCount.Load()
}

// CycleErrors returns the cyclic metadata requests observed so far.
// A non-empty result means plan construction produced a cyclic graph.
func (s *Session) CycleErrors() []*CycleError {
	s.cycleMu.Lock()
	defer s.cycleMu.Unlock()
	return append([]*CycleError(nil), s.cycles...)
}

// recordCycle notes a cyclic metadata request and logs it
func (s *Session) recordCycle(h plan.Handle) {
	s.cycleMu.Lock()
	s.cycles = append(s.cycles, &CycleError{Handle: h})
	s.cycleMu.Unlock()

	s.logger.Warn("cyclic metadata request; treating row count as unknown",
		"session", s.id,
		"handle", int(h),
		"plan_fingerprint", s.graph.Fingerprint())
}
