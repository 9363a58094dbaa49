package memorybackend

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/specialistvlad/mitext/internal/backend"
	"github.com/specialistvlad/mitext/internal/command"
	"github.com/zclconf/go-cty/cty"
)

// ErrTxDone is returned when a finished transaction is used again.
var ErrTxDone = errors.New("transaction already finished")

// Record is one executed command.
type Record struct {
	Call      string
	Signature string
	Params    []string
	Values    []cty.Value
}

// Value returns the recorded value of a parameter.
func (r Record) Value(name string) (cty.Value, bool) {
	i := slices.Index(r.Params, name)
	if i < 0 {
		return cty.NilVal, false
	}
	return r.Values[i], true
}

// Store is an in-memory backend.
type Store struct {
	mu        sync.Mutex
	committed []Record
	commits   int
	rollbacks int

	// FailOn, when set, is consulted for every executed command; a non-nil
	// result fails the command.
	FailOn func(c *command.Command) error
}

// New creates a new, empty in-memory store.
func New() *Store {
	return &Store{}
}

// FailCall returns a FailOn hook rejecting every command of the named call.
func FailCall(call string) func(c *command.Command) error {
	return func(c *command.Command) error {
		if c.Call == call {
			return fmt.Errorf("%s rejected", call)
		}
		return nil
	}
}

// Begin opens a transaction.
func (s *Store) Begin(ctx context.Context) (backend.Tx, error) {
	return &tx{store: s}, nil
}

// Records returns a copy of every committed record in execution order.
func (s *Store) Records() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.committed)
}

// Calls returns the call names of the committed records.
func (s *Store) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.committed))
	for i, r := range s.committed {
		out[i] = r.Call
	}
	return out
}

// Stats reports how many transactions committed and rolled back.
func (s *Store) Stats() (commits, rollbacks int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commits, s.rollbacks
}

type tx struct {
	store *Store
	buf   []Record
	done  bool
}

func (t *tx) Exec(ctx context.Context, c *command.Command) error {
	if t.done {
		return ErrTxDone
	}
	if !c.Completed() {
		return fmt.Errorf("%s is incomplete, missing %v", c.Call, c.Missing())
	}
	if hook := t.store.FailOn; hook != nil {
		if err := hook(c); err != nil {
			return err
		}
	}
	t.buf = append(t.buf, Record{
		Call:      c.Call,
		Signature: c.Signature(),
		Params:    slices.Clone(c.Params),
		Values:    slices.Clone(c.Values),
	})
	return nil
}

func (t *tx) Commit(ctx context.Context) error {
	if t.done {
		return ErrTxDone
	}
	t.done = true
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	t.store.committed = append(t.store.committed, t.buf...)
	t.store.commits++
	return nil
}

func (t *tx) Rollback(ctx context.Context) error {
	if t.done {
		return ErrTxDone
	}
	t.done = true
	t.buf = nil
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	t.store.rollbacks++
	return nil
}
