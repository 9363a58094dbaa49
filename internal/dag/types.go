package dag

// Graph is a collection of nodes and their dependencies. It is not safe for
// concurrent use; a graph belongs to one parse session.
type Graph struct {
	// nodes stores all nodes in the graph, keyed by their unique ID.
	nodes map[string]*node
	// order holds node IDs in insertion order.
	order []string
}

// node is un-exported to enforce interaction with the graph via the public
// API (using string IDs), not by direct struct manipulation.
type node struct {
	id string
	// deps holds the nodes this node depends on.
	deps map[string]*node
	// dependents holds the nodes that depend on this node.
	dependents map[string]*node
}

// Edge is one dependency: From depends on To.
type Edge struct {
	From string
	To   string
}
