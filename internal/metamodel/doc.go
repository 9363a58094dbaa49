// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package metamodel performs the semantic analysis a single line cannot: it
// groups attributes into the identifiers of their class, buffers references
// to classes that may not be declared yet, and tracks which subsystems depend
// on which.
//
// State is kept per domain. When a domain is finished the analyzer validates
// what it buffered and emits the commands that depend on the whole domain
// being known: one formalize_rel per relationship, then the identifier
// assignments of every class.
package metamodel
