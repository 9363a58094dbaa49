// Package dag records directed dependencies between named nodes. The
// compiler uses it for subsystem dependencies: an edge a -> b means a class
// in subsystem a refers to an attribute of a class in subsystem b.
//
// Iteration is deterministic. Nodes keep their insertion order and edges are
// reported sorted by target name.
package dag
