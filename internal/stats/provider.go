package stats

import (
	"github.com/google/btree"
	deadlock "github.com/sasha-s/go-deadlock"
)

// TableStatistics holds the already-resolved statistics for one base table.
// PruneRatio is the fraction of partitions retained after partition pruning,
// always in [0, 1].
type TableStatistics struct {
	RowCount    float64
	HasRowCount bool
	PruneRatio  float64
}

// Provider supplies base table statistics to the plan builder.
// Implementations must be safe for concurrent reads.
type Provider interface {
	// BaseRowCount returns the base row count for a table.
	// The second return value is false when no statistics exist.
	BaseRowCount(table string) (float64, bool)

	// PruneRatio returns the partition-pruning ratio for a table, in [0, 1].
	// Tables without pruning information report 1.0 (nothing pruned).
	PruneRatio(table string) float64
}

// tableEntry is a btree item keyed by table name
type tableEntry struct {
	name  string
	stats TableStatistics
}

// MemoryProvider is an in-memory Provider backed by an ordered btree,
// used by tests and by planners that resolve statistics up front.
type MemoryProvider struct {
	mu   deadlock.RWMutex
	tree *btree.BTreeG[tableEntry]
}

func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{
		tree: btree.NewG(8, func(a, b tableEntry) bool {
			return a.name < b.name
		}),
	}
}

// SetStatistics registers or replaces statistics for a table.
// Prune ratios outside [0, 1] are clamped before being stored.
func (p *MemoryProvider) SetStatistics(table string, ts TableStatistics) {
	ts.PruneRatio = clampRatio(ts.PruneRatio)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.tree.ReplaceOrInsert(tableEntry{name: table, stats: ts})
}

func (p *MemoryProvider) BaseRowCount(table string) (float64, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	entry, ok := p.tree.Get(tableEntry{name: table})
	if !ok || !entry.stats.HasRowCount {
		return 0, false
	}
	return entry.stats.RowCount, true
}

func (p *MemoryProvider) PruneRatio(table string) float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()

	entry, ok := p.tree.Get(tableEntry{name: table})
	if !ok {
		return 1.0
	}
	return entry.stats.PruneRatio
}

// Tables returns the registered table names in sorted order
func (p *MemoryProvider) Tables() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	names := make([]string, 0, p.tree.Len())
	p.tree.Ascend(func(entry tableEntry) bool {
		names = append(names, entry.name)
		return true
	})
	return names
}

// clampRatio forces a pruning ratio into [0, 1]
func clampRatio(r float64) float64 {
	if r < 0 {
		return 0
	}
	if r > 1 {
		return 1
	}
	return r
}
