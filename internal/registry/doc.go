// Package registry holds the constructor schema: the application types, the
// metamodel constructor calls and their typed parameters.
//
// The schema is read from a sectioned resource file (see the resource
// package). A default schema describing the miUML metamodel API is embedded
// in the binary; a different file may be loaded in its place. Every defect in
// the schema is a schema error and is reported before any input is read.
package registry
