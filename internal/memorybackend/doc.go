// Package memorybackend provides an ephemeral, thread-safe, in-memory
// implementation of backend.Backend.
//
// # Purpose
//
// The store records executed commands instead of persisting a metamodel
// population. It backs dry runs, tests and any run where only the shape of
// the population script matters.
//
// # Transactions
//
//   - **Buffered:** A transaction collects its commands privately
//   - **Atomic:** Commit appends the whole buffer to the store at once
//   - **Discardable:** Rollback drops the buffer; the store is unchanged
//
// A FailOn hook makes the store reject a named call, which lets tests drive
// the rollback path without a real database.
package memorybackend
