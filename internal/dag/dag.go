package dag

import (
	"fmt"
	"slices"
	"sort"
)

// New creates and returns an initialized, empty Graph.
func New() *Graph {
	return &Graph{
		nodes: make(map[string]*node),
	}
}

// AddNode adds a new node with the given ID to the graph. If a node with
// the same ID already exists, the function does nothing.
func (g *Graph) AddNode(id string) {
	if _, ok := g.nodes[id]; ok {
		return
	}
	g.nodes[id] = &node{
		id:         id,
		deps:       make(map[string]*node),
		dependents: make(map[string]*node),
	}
	g.order = append(g.order, id)
}

// Has reports whether a node exists.
func (g *Graph) Has(id string) bool {
	_, ok := g.nodes[id]
	return ok
}

// Nodes returns node IDs in insertion order.
func (g *Graph) Nodes() []string {
	return slices.Clone(g.order)
}

// AddEdge records that fromID depends on toID. An error is returned if
// either node does not exist or if the edge would create a self-reference.
func (g *Graph) AddEdge(fromID, toID string) error {
	if fromID == toID {
		return fmt.Errorf("self-referential edge not allowed: %s -> %s", fromID, fromID)
	}
	fromNode, ok := g.nodes[fromID]
	if !ok {
		return fmt.Errorf("source node not found: %s", fromID)
	}
	toNode, ok := g.nodes[toID]
	if !ok {
		return fmt.Errorf("destination node not found: %s", toID)
	}
	fromNode.deps[toID] = toNode
	toNode.dependents[fromID] = fromNode
	return nil
}

// Dependencies returns the sorted IDs of the nodes the given node depends on.
func (g *Graph) Dependencies(id string) ([]string, error) {
	n, ok := g.nodes[id]
	if !ok {
		return nil, fmt.Errorf("node not found: %s", id)
	}
	return sortedKeys(n.deps), nil
}

// Dependents returns the sorted IDs of the nodes that depend on the given
// node.
func (g *Graph) Dependents(id string) ([]string, error) {
	n, ok := g.nodes[id]
	if !ok {
		return nil, fmt.Errorf("node not found: %s", id)
	}
	return sortedKeys(n.dependents), nil
}

// Edges returns every edge, grouped by source in insertion order.
func (g *Graph) Edges() []Edge {
	var out []Edge
	for _, id := range g.order {
		for _, to := range sortedKeys(g.nodes[id].deps) {
			out = append(out, Edge{From: id, To: to})
		}
	}
	return out
}

// FindCycle returns the node IDs of one dependency cycle, starting and
// ending at the same node, or nil if the graph is acyclic.
func (g *Graph) FindCycle() []string {
	// Depth-first search with three sets of nodes:
	// permanent: fully visited and not part of a cycle.
	// onStack: in the recursion stack of the current traversal.
	permanent := make(map[string]bool)
	onStack := make(map[string]bool)
	var stack []string

	var visit func(n *node) []string
	visit = func(n *node) []string {
		if permanent[n.id] {
			return nil
		}
		if onStack[n.id] {
			start := slices.Index(stack, n.id)
			return append(slices.Clone(stack[start:]), n.id)
		}
		onStack[n.id] = true
		stack = append(stack, n.id)
		for _, id := range sortedKeys(n.deps) {
			if cycle := visit(n.deps[id]); cycle != nil {
				return cycle
			}
		}
		stack = stack[:len(stack)-1]
		delete(onStack, n.id)
		permanent[n.id] = true
		return nil
	}

	for _, id := range g.order {
		if cycle := visit(g.nodes[id]); cycle != nil {
			return cycle
		}
	}
	return nil
}

// DetectCycles returns a non-nil error naming the nodes of the first cycle
// found.
func (g *Graph) DetectCycles() error {
	if cycle := g.FindCycle(); cycle != nil {
		return fmt.Errorf("cycle detected involving node '%s': %v", cycle[0], cycle)
	}
	return nil
}

func sortedKeys(m map[string]*node) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
