// Package backend defines the boundary to the persistence technology that
// executes a population script. A backend runs completed commands inside a
// transaction; the effects become visible only when the transaction commits.
package backend

import (
	"context"
	"fmt"

	"github.com/specialistvlad/mitext/internal/command"
)

// Backend opens transactions.
type Backend interface {
	Begin(ctx context.Context) (Tx, error)
}

// Tx is one atomic unit of work.
type Tx interface {
	// Exec runs one completed command.
	Exec(ctx context.Context, c *command.Command) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Kind names a backend implementation.
type Kind string

const (
	Memory   Kind = "memory"
	Postgres Kind = "postgres"
	NATS     Kind = "nats"
)

// Kinds lists the known backend kinds.
var Kinds = []Kind{Memory, Postgres, NATS}

// Valid reports whether k names a known backend.
func (k Kind) Valid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// ProcedureName is the name of the stored procedure a call is rendered to.
func ProcedureName(call string) string {
	return "UI_" + call
}

// CommandError reports a failure a backend attributes to one command of a
// transaction, identified by its position in execution order. Backends that
// defer work to commit use it so the failure can still name its line.
type CommandError struct {
	Index int
	Call  string
	Err   error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command %d (%s): %v", e.Index, e.Call, e.Err)
}

func (e *CommandError) Unwrap() error { return e.Err }
