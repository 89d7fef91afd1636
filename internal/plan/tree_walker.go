package plan

import (
	"fmt"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
)

// Walk visits every node reachable from root exactly once in depth-first
// order, calling visitor for each. Shared children (multiple parents) are
// visited a single time.
func (g *Graph) Walk(root Handle, visitor func(Handle, NodeInfo) error) error {
	visited := mapset.NewThreadUnsafeSet[Handle]()
	return g.walk(root, visited, visitor)
}

func (g *Graph) walk(h Handle, visited mapset.Set[Handle], visitor func(Handle, NodeInfo) error) error {
	if !visited.Add(h) {
		return nil // already visited through another parent
	}

	info, ok := g.Node(h)
	if !ok {
		return &InvalidHandleError{Handle: h, Context: "walk"}
	}

	if err := visitor(h, info); err != nil {
		return err
	}

	for _, child := range info.Children {
		if err := g.walk(child, visited, visitor); err != nil {
			return err
		}
	}

	return nil
}

// Print renders the plan reachable from root with indentation.
// A node already printed through another parent is marked shared and not
// expanded again.
func (g *Graph) Print(root Handle) string {
	var sb strings.Builder
	printed := mapset.NewThreadUnsafeSet[Handle]()
	g.printNode(root, 0, printed, &sb)
	return sb.String()
}

func (g *Graph) printNode(h Handle, depth int, printed mapset.Set[Handle], sb *strings.Builder) {
	info, ok := g.Node(h)
	if !ok {
		return
	}

	sb.WriteString(strings.Repeat("  ", depth))
	if !printed.Add(h) {
		fmt.Fprintf(sb, "%s [%d] (shared)\n", info.Kind, h)
		return
	}

	switch info.Kind {
	case KindScan:
		fmt.Fprintf(sb, "%s [%d] table=%s\n", info.Kind, h, info.Table.Name)
	case KindJoin:
		fmt.Fprintf(sb, "%s [%d] condition=%s\n", info.Kind, h, info.Condition.Kind)
	default:
		fmt.Fprintf(sb, "%s [%d]\n", info.Kind, h)
	}

	for _, child := range info.Children {
		g.printNode(child, depth+1, printed, sb)
	}
}

// CountNodes counts the distinct nodes reachable from root
func (g *Graph) CountNodes(root Handle) int {
	count := 0
	_ = g.Walk(root, func(Handle, NodeInfo) error {
		count++
		return nil
	})
	return count
}
