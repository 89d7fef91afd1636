package plan

import (
	"encoding/binary"
	"fmt"

	deadlock "github.com/sasha-s/go-deadlock"
	"github.com/spaolacci/murmur3"
)

// node is the arena entry for one operator
type node struct {
	kind      Kind
	children  []Handle
	schema    []Column
	table     TableRef      // KindScan
	predicate *Expr         // KindFilter
	condition JoinCondition // KindJoin
	groupBy   []int         // KindAggregate; nil means grouping unknown
}

// Graph owns the plan nodes of one planning session in an arena.
// Nodes are referenced by stable handles, so multiple parents can share a
// child without ownership conflicts. Every structural mutation bumps the
// version counter, which sessions use to invalidate their metadata caches
// wholesale.
type Graph struct {
	mu      deadlock.RWMutex
	nodes   []node
	version uint64
}

func NewGraph() *Graph {
	return &Graph{}
}

// NodeInfo is a read-only snapshot of one node
type NodeInfo struct {
	Kind      Kind
	Children  []Handle
	Schema    []Column
	Table     TableRef
	Predicate *Expr
	Condition JoinCondition
	GroupBy   []int
}

// Node returns a snapshot of the node behind h.
// The second return value is false for handles the graph never issued.
func (g *Graph) Node(h Handle) (NodeInfo, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if h < 0 || int(h) >= len(g.nodes) {
		return NodeInfo{}, false
	}

	n := g.nodes[h]
	info := NodeInfo{
		Kind:      n.kind,
		Children:  append([]Handle(nil), n.children...),
		Schema:    append([]Column(nil), n.schema...),
		Table:     n.table,
		Predicate: n.predicate,
		Condition: n.condition,
	}
	if n.groupBy != nil {
		info.GroupBy = append([]int{}, n.groupBy...)
	}
	return info, true
}

// Len returns the number of nodes in the arena
func (g *Graph) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes)
}

// Version returns the current structural version of the graph
func (g *Graph) Version() uint64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.version
}

// NewScan adds a leaf scan over a table with resolved statistics
func (g *Graph) NewScan(table TableRef, schema []Column) Handle {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.add(node{kind: KindScan, table: table, schema: schema})
}

// NewProject adds a projection over child
func (g *Graph) NewProject(child Handle, schema []Column) (Handle, error) {
	return g.addUnary(KindProject, child, node{schema: schema})
}

// NewFilter adds a filter over child. A nil predicate means the predicate
// could not be analyzed; the estimator treats it as non-reducing.
func (g *Graph) NewFilter(child Handle, predicate *Expr, schema []Column) (Handle, error) {
	return g.addUnary(KindFilter, child, node{predicate: predicate, schema: schema})
}

// NewExchange adds a data-redistribution operator over child
func (g *Graph) NewExchange(child Handle) (Handle, error) {
	return g.addUnary(KindExchange, child, node{})
}

// NewSink adds the terminal plan-root operator over child
func (g *Graph) NewSink(child Handle) (Handle, error) {
	return g.addUnary(KindSink, child, node{})
}

// NewAggregate adds a group-by aggregation over child.
// groupBy indexes the child schema; nil means the grouping columns are
// unknown, an empty slice means a scalar (ungrouped) aggregate.
func (g *Graph) NewAggregate(child Handle, groupBy []int, schema []Column) (Handle, error) {
	return g.addUnary(KindAggregate, child, node{groupBy: groupBy, schema: schema})
}

// NewJoin adds a two-child join with the given condition
func (g *Graph) NewJoin(left, right Handle, condition JoinCondition, schema []Column) (Handle, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.checkChild(KindJoin, left); err != nil {
		return InvalidHandle, err
	}
	if err := g.checkChild(KindJoin, right); err != nil {
		return InvalidHandle, err
	}

	return g.add(node{
		kind:      KindJoin,
		children:  []Handle{left, right},
		condition: condition,
		schema:    schema,
	}), nil
}

// NewUnion adds a set union over one or more children
func (g *Graph) NewUnion(children []Handle, schema []Column) (Handle, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if len(children) == 0 {
		return InvalidHandle, &ArityError{Kind: KindUnion, Got: 0, Want: "at least 1 child"}
	}
	for _, c := range children {
		if err := g.checkChild(KindUnion, c); err != nil {
			return InvalidHandle, err
		}
	}

	return g.add(node{
		kind:     KindUnion,
		children: append([]Handle(nil), children...),
		schema:   schema,
	}), nil
}

// ReplaceChild swaps the index-th child of parent for newChild, as the
// plan-search algorithm does when it substitutes a sub-plan. The graph
// version is bumped so every session cache keyed to this graph discards
// its entries on next use.
func (g *Graph) ReplaceChild(parent Handle, index int, newChild Handle) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if parent < 0 || int(parent) >= len(g.nodes) {
		return &InvalidHandleError{Handle: parent}
	}
	if newChild < 0 || int(newChild) >= len(g.nodes) {
		return &InvalidHandleError{Handle: newChild}
	}
	n := &g.nodes[parent]
	if index < 0 || index >= len(n.children) {
		return fmt.Errorf("node %d (%s) has no child slot %d", parent, n.kind, index)
	}

	n.children[index] = newChild
	g.version++
	return nil
}

// Fingerprint returns a murmur3 digest of the graph structure, used to tag
// log lines and invalidation diagnostics
func (g *Graph) Fingerprint() uint64 {
	g.mu.RLock()
	defer g.mu.RUnlock()

	hasher := murmur3.New64()
	var buf [8]byte
	for i, n := range g.nodes {
		fmt.Fprintf(hasher, "%d:%s:%s", i, n.kind, n.table.Name)
		for _, c := range n.children {
			binary.LittleEndian.PutUint64(buf[:], uint64(c))
			hasher.Write(buf[:])
		}
		hasher.Write([]byte{'\n'})
	}
	return hasher.Sum64()
}

// addUnary validates the single child and appends the node.
// extra carries the kind-specific parameters.
func (g *Graph) addUnary(kind Kind, child Handle, extra node) (Handle, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.checkChild(kind, child); err != nil {
		return InvalidHandle, err
	}

	extra.kind = kind
	extra.children = []Handle{child}
	return g.add(extra), nil
}

// add appends a node to the arena; callers hold the write lock
func (g *Graph) add(n node) Handle {
	g.nodes = append(g.nodes, n)
	return Handle(len(g.nodes) - 1)
}

// checkChild verifies a child handle was issued by this graph;
// callers hold the lock
func (g *Graph) checkChild(kind Kind, child Handle) error {
	if child < 0 || int(child) >= len(g.nodes) {
		return &InvalidHandleError{Handle: child, Context: string(kind)}
	}
	return nil
}
