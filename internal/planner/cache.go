package planner

import (
	deadlock "github.com/sasha-s/go-deadlock"

	"github.com/leengari/mini-optimizer/internal/plan"
)

// metadataKind distinguishes the kinds of metadata the cache can hold.
// Row count is the only kind today; the key shape keeps the extension point
// open for further metadata (distinct counts, data size).
type metadataKind int

const (
	metadataRowCount metadataKind = iota
)

type cacheKey struct {
	handle plan.Handle
	kind   metadataKind
}

// metadataCache memoizes metadata per (node handle, metadata kind) for one
// planning session.
//
// Entries are stamped with the graph version observed at computation time.
// When a lookup or store sees a newer graph version, the whole cache is
// discarded: structural mutation reuses node handles, so conservative
// wholesale invalidation is the only safe policy without dependency
// tracking.
//
// Concurrent first-computation of the same node is resolved last-writer-wins.
// Estimators are pure functions of the graph and its statistics, so two
// racing computations produce the same value and the overwrite is harmless.
type metadataCache struct {
	mu      deadlock.RWMutex
	version uint64
	entries map[cacheKey]Estimate
}

func newMetadataCache() *metadataCache {
	return &metadataCache{entries: make(map[cacheKey]Estimate)}
}

// get returns the cached estimate for key if one was stored under the given
// graph version
func (c *metadataCache) get(version uint64, key cacheKey) (Estimate, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.version != version {
		return Estimate{}, false
	}
	est, ok := c.entries[key]
	return est, ok
}

// store records an estimate computed against the given graph version.
// Entries from an older version are discarded first; a computation that
// itself observed an older version than the cache is dropped as stale.
func (c *metadataCache) store(version uint64, key cacheKey, est Estimate) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case version > c.version:
		c.entries = make(map[cacheKey]Estimate)
		c.version = version
	case version < c.version:
		return
	}
	c.entries[key] = est
}

// invalidate discards every entry
func (c *metadataCache) invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[cacheKey]Estimate)
}

// size returns the number of cached entries
func (c *metadataCache) size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
