// Package script holds the population script: the ordered sequence of
// commands compiled from a text script, and its atomic execution against a
// backend.
package script

import (
	"context"
	"errors"
	"strings"

	"github.com/specialistvlad/mitext/internal/backend"
	"github.com/specialistvlad/mitext/internal/command"
	"github.com/specialistvlad/mitext/internal/ctxlog"
	"github.com/specialistvlad/mitext/internal/diag"
	"github.com/specialistvlad/mitext/internal/registry"
	"github.com/specialistvlad/mitext/internal/scope"
)

// Script is an append-only sequence of commands. Only the most recent
// command may be open.
type Script struct {
	reg  *registry.Registry
	cmds []*command.Command
}

// New creates an empty script that resolves calls through reg.
func New(reg *registry.Registry) *Script {
	return &Script{reg: reg}
}

// LastOpen returns the tail command if it has not completed yet.
func (s *Script) LastOpen() (*command.Command, bool) {
	if len(s.cmds) == 0 {
		return nil, false
	}
	last := s.cmds[len(s.cmds)-1]
	if last.Completed() {
		return nil, false
	}
	return last, true
}

// Add hands fields to the script. An open tail receives them when call is
// empty or names the tail's call; otherwise a new command for call begins.
func (s *Script) Add(call string, sc *scope.Scope, fields []command.Field, origin command.Origin) (*command.Command, error) {
	if open, ok := s.LastOpen(); ok {
		if call != "" && call != open.Call {
			return nil, diag.Newf(diag.Semantic, "%s is still missing %s", open.Call, strings.Join(open.Missing(), ", "))
		}
		if err := open.Contribute(fields); err != nil {
			return nil, err
		}
		return open, nil
	}
	if call == "" {
		return nil, diag.Newf(diag.Semantic, "no open command to attach this line to")
	}
	spec, ok := s.reg.Call(call)
	if !ok {
		return nil, diag.Newf(diag.Semantic, "unknown call %q", call)
	}
	c, err := command.Begin(spec, sc, fields)
	if err != nil {
		return nil, err
	}
	c.Origin = origin
	s.cmds = append(s.cmds, c)
	return c, nil
}

// Close checks that no command is left open at the end of input.
func (s *Script) Close() error {
	if open, ok := s.LastOpen(); ok {
		return diag.Newf(diag.Semantic, "%s is missing %s", open.Call, strings.Join(open.Missing(), ", ")).
			At(open.Origin.File, open.Origin.Line, open.Origin.Text)
	}
	return nil
}

// Commands returns every command, completed or not.
func (s *Script) Commands() []*command.Command {
	return s.cmds
}

// Completed returns the completed commands in order.
func (s *Script) Completed() []*command.Command {
	out := make([]*command.Command, 0, len(s.cmds))
	for _, c := range s.cmds {
		if c.Completed() {
			out = append(out, c)
		}
	}
	return out
}

// Len is the number of commands, completed or not.
func (s *Script) Len() int {
	return len(s.cmds)
}

// Execute replays the completed commands against b as one atomic unit. The
// first failing command rolls back the unit. A non-nil buildErr, the error
// that stopped compilation, also rolls back once the replay is done, so the
// store is left as it was before the run; buildErr is then returned.
func (s *Script) Execute(ctx context.Context, b backend.Backend, buildErr error) error {
	logger := ctxlog.FromContext(ctx)

	tx, err := b.Begin(ctx)
	if err != nil {
		return &diag.Error{Kind: diag.Execution, Msg: "cannot begin transaction", Err: err}
	}

	completed := s.Completed()
	for i, c := range completed {
		if err := tx.Exec(ctx, c); err != nil {
			logger.Error("Command failed, rolling back.", "index", i, "call", c.Call, "error", err)
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				logger.Error("Rollback failed.", "error", rbErr)
			}
			return &diag.Error{
				Kind: diag.Execution,
				File: c.Origin.File,
				Line: c.Origin.Line,
				Text: c.Origin.Text,
				Msg:  c.Call + " failed",
				Err:  err,
			}
		}
		logger.Debug("Command executed.", "index", i, "call", c.Call)
	}

	if buildErr != nil {
		logger.Warn("Compilation failed, rolling back executed commands.", "executed", len(completed))
		if err := tx.Rollback(ctx); err != nil {
			logger.Error("Rollback failed.", "error", err)
		}
		return buildErr
	}

	if err := tx.Commit(ctx); err != nil {
		var ce *backend.CommandError
		if errors.As(err, &ce) && ce.Index >= 0 && ce.Index < len(completed) {
			c := completed[ce.Index]
			return &diag.Error{
				Kind: diag.Execution,
				File: c.Origin.File,
				Line: c.Origin.Line,
				Text: c.Origin.Text,
				Msg:  c.Call + " failed",
				Err:  ce.Err,
			}
		}
		return &diag.Error{Kind: diag.Execution, Msg: "commit failed", Err: err}
	}
	logger.Info("Population script committed.", "commands", len(completed))
	return nil
}
