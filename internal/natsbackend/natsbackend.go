// Package natsbackend hands population scripts to a remote executor over
// NATS request-reply. A transaction buffers its commands and commit sends
// them as one request; the executor applies them atomically and replies
// with the outcome.
package natsbackend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/specialistvlad/mitext/internal/backend"
	"github.com/specialistvlad/mitext/internal/command"
	"github.com/specialistvlad/mitext/internal/ctxlog"
	"github.com/specialistvlad/mitext/internal/registry"
)

// Defaults for the request subject and reply timeout.
const (
	DefaultSubject = "miuml.populate"
	DefaultTimeout = 10 * time.Second
)

// ErrTxDone is returned when a finished transaction is used again.
var ErrTxDone = errors.New("transaction already finished")

// Requester sends one request and waits for its reply.
type Requester interface {
	RequestWithContext(ctx context.Context, subj string, data []byte) (*nats.Msg, error)
}

// Command is one command of a request.
type Command struct {
	Call   string   `json:"call"`
	Params []string `json:"params"`
	Values []any    `json:"values"`
}

// Request is the payload sent on commit.
type Request struct {
	RunID    string    `json:"run_id"`
	Commands []Command `json:"commands"`
}

// Reply is the executor's answer. Index is the position of the failing
// command when OK is false, or -1 when the failure is not tied to one.
type Reply struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
	Index int    `json:"index"`
}

// Options configures a Backend.
type Options struct {
	Subject string
	Timeout time.Duration
	// RunID identifies the run to the executor.
	RunID string
}

// Backend sends scripts to the executor listening on a subject.
type Backend struct {
	req  Requester
	opts Options
	conn *nats.Conn
}

var _ backend.Backend = (*Backend)(nil)

// Connect dials the NATS server at url.
func Connect(url string, opts Options) (*Backend, error) {
	nc, err := nats.Connect(url, nats.Name("mitext"), nats.MaxReconnects(5), nats.ReconnectWait(time.Second))
	if err != nil {
		return nil, fmt.Errorf("connecting to nats at %s: %w", url, err)
	}
	b := New(nc, opts)
	b.conn = nc
	return b, nil
}

// New returns a backend sending requests through req.
func New(req Requester, opts Options) *Backend {
	if opts.Subject == "" {
		opts.Subject = DefaultSubject
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	return &Backend{req: req, opts: opts}
}

// Close drains and closes the connection opened by Connect.
func (b *Backend) Close() error {
	if b.conn == nil {
		return nil
	}
	return b.conn.Drain()
}

// Begin opens a buffering transaction.
func (b *Backend) Begin(ctx context.Context) (backend.Tx, error) {
	return &tx{b: b}, nil
}

type tx struct {
	b    *Backend
	cmds []*command.Command
	done bool
}

func (t *tx) Exec(ctx context.Context, c *command.Command) error {
	if t.done {
		return ErrTxDone
	}
	if !c.Completed() {
		return fmt.Errorf("%s is incomplete, missing %v", c.Call, c.Missing())
	}
	t.cmds = append(t.cmds, c)
	return nil
}

func (t *tx) Rollback(ctx context.Context) error {
	if t.done {
		return ErrTxDone
	}
	t.done = true
	t.cmds = nil
	return nil
}

func (t *tx) Commit(ctx context.Context) error {
	if t.done {
		return ErrTxDone
	}
	t.done = true

	payload, err := Encode(t.b.opts.RunID, t.cmds)
	if err != nil {
		return err
	}

	reqCtx, cancel := context.WithTimeout(ctx, t.b.opts.Timeout)
	defer cancel()
	ctxlog.FromContext(ctx).Debug("Sending population script.", "subject", t.b.opts.Subject, "commands", len(t.cmds))
	msg, err := t.b.req.RequestWithContext(reqCtx, t.b.opts.Subject, payload)
	if err != nil {
		return fmt.Errorf("requesting %s: %w", t.b.opts.Subject, err)
	}

	var reply Reply
	if err := json.Unmarshal(msg.Data, &reply); err != nil {
		return fmt.Errorf("decoding executor reply: %w", err)
	}
	if reply.OK {
		return nil
	}
	if reply.Index >= 0 && reply.Index < len(t.cmds) {
		return &backend.CommandError{Index: reply.Index, Call: t.cmds[reply.Index].Call, Err: errors.New(reply.Error)}
	}
	return fmt.Errorf("executor failed: %s", reply.Error)
}

// Encode renders commands as a request payload.
func Encode(runID string, cmds []*command.Command) ([]byte, error) {
	req := Request{RunID: runID, Commands: make([]Command, 0, len(cmds))}
	for _, c := range cmds {
		wc := Command{Call: c.Call, Params: c.Params, Values: make([]any, len(c.Values))}
		for i, v := range c.Values {
			native, err := registry.Native(v)
			if err != nil {
				return nil, fmt.Errorf("%s parameter %s: %w", c.Call, c.Params[i], err)
			}
			wc.Values[i] = native
		}
		req.Commands = append(req.Commands, wc)
	}
	return json.Marshal(req)
}
