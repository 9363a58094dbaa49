// Package session compiles text scripts in two phases. Phase 1 checks the
// section sequence and matches every statement against the grammar without
// side effects. Phase 2 extracts typed values, tracks the context scope,
// runs the metamodel analyzer and assembles the population script.
//
// All state of a compilation belongs to the call that performs it; a
// Session only holds the immutable grammar and constructor schema.
package session

import (
	"context"

	"github.com/specialistvlad/mitext/internal/command"
	"github.com/specialistvlad/mitext/internal/ctxlog"
	"github.com/specialistvlad/mitext/internal/diag"
	"github.com/specialistvlad/mitext/internal/grammar"
	"github.com/specialistvlad/mitext/internal/metamodel"
	"github.com/specialistvlad/mitext/internal/registry"
	"github.com/specialistvlad/mitext/internal/scope"
	"github.com/specialistvlad/mitext/internal/script"
	"github.com/specialistvlad/mitext/internal/source"
)

// Session compiles scripts against one grammar and schema.
type Session struct {
	g   *grammar.Grammar
	reg *registry.Registry
}

// New checks that g fits reg and returns a Session using both.
func New(g *grammar.Grammar, reg *registry.Registry) (*Session, error) {
	if err := g.Validate(reg); err != nil {
		return nil, err
	}
	if err := reg.ValidateScopes(scope.Names); err != nil {
		return nil, err
	}
	return &Session{g: g, reg: reg}, nil
}

// Grammar returns the grammar the session compiles with.
func (s *Session) Grammar() *grammar.Grammar {
	return s.g
}

// Registry returns the constructor schema.
func (s *Session) Registry() *registry.Registry {
	return s.reg
}

// Check runs Phase 1 over each file in turn.
func (s *Session) Check(files ...*source.File) error {
	for _, f := range files {
		if err := Check(f, s.g); err != nil {
			return err
		}
	}
	return nil
}

// Check is Phase 1 for one file: the section sequence must be legal and
// every statement must match an expression of its section. It stops at the
// first error and has no side effects.
func Check(f *source.File, g *grammar.Grammar) error {
	w := newWalker(g)
	for _, l := range f.Lines() {
		text := l.Trimmed()
		_, isHeader, err := w.header(text)
		if err == nil && !isHeader {
			if err = w.statement(); err == nil {
				_, err = g.MatchLine(w.section(), text)
			}
		}
		if err != nil {
			return diag.Locate(err, diag.Syntax, f.Name, l.No, text)
		}
	}
	return nil
}

// Compile runs Phase 1 over every file and, when it passes, Phase 2.
func (s *Session) Compile(ctx context.Context, files ...*source.File) (*script.Script, error) {
	if err := s.Check(files...); err != nil {
		return script.New(s.reg), err
	}
	return s.Build(ctx, files...)
}

// Build is Phase 2. The files are compiled in order into one script. On the
// first error the script built so far is returned with it.
func (s *Session) Build(ctx context.Context, files ...*source.File) (*script.Script, error) {
	out := script.New(s.reg)
	for _, f := range files {
		b := &build{
			s:      s,
			file:   f,
			walker: newWalker(s.g),
			scope:  scope.New(),
			an:     metamodel.New(),
			out:    out,
			ctx:    ctxlog.With(ctx, "file", f.Name),
		}
		if err := b.run(); err != nil {
			return out, err
		}
	}
	return out, nil
}

type build struct {
	s      *Session
	file   *source.File
	walker *walker
	scope  *scope.Scope
	an     *metamodel.Analyzer
	out    *script.Script
	ctx    context.Context
}

func (b *build) run() error {
	for _, l := range b.file.Lines() {
		if err := b.line(l); err != nil {
			return diag.Locate(err, diag.Semantic, b.file.Name, l.No, l.Trimmed())
		}
	}
	return b.finalize()
}

func (b *build) line(l source.Line) error {
	log := ctxlog.FromContext(b.ctx)
	text := l.Trimmed()

	name, isHeader, err := b.walker.header(text)
	if err != nil {
		return err
	}
	if isHeader {
		// A domain closes at the bridges or at the next domain.
		if name == grammar.Bridges || name == grammar.Domain {
			if err := b.finalize(); err != nil {
				return err
			}
		}
		log.Debug("Entering section.", "section", name, "line", l.No)
		return nil
	}

	if err := b.walker.statement(); err != nil {
		return err
	}
	m, err := b.s.g.MatchLine(b.walker.section(), text)
	if err != nil {
		return err
	}
	if err := m.Apply(); err != nil {
		return &diag.Error{Kind: diag.Syntax, Msg: "bad statement", Err: err}
	}
	x, err := b.s.extract(m)
	if err != nil {
		return err
	}
	if err := applyScope(b.scope, x); err != nil {
		return err
	}

	origin := command.Origin{File: b.file.Name, Line: l.No, Text: text}
	st := &metamodel.Statement{Kind: m.Expr.Kind, Fields: x.fields, Scope: b.scope, Origin: origin}
	if err := b.an.Handle(st); err != nil {
		return err
	}
	return b.assemble(m.Expr, x, origin)
}

// assemble hands the parameter fields of a statement to the script.
// Expressions without a target only stage data for the analyzer.
func (b *build) assemble(e *grammar.Expression, x *extraction, origin command.Origin) error {
	if e.Target() == "" {
		return nil
	}
	call := e.Call
	if e.Extends != "" {
		open, ok := b.out.LastOpen()
		if !ok || open.Call != e.Extends {
			return diag.Newf(diag.Semantic, "%s must continue an open %s", e.Name, e.Extends)
		}
	}
	c, err := b.out.Add(call, b.scope, x.params, origin)
	if err != nil {
		return err
	}
	b.completed(c)
	return nil
}

// finalize closes the current domain, adding the commands the analyzer
// derives from it. No command may be left open across a domain boundary.
func (b *build) finalize() error {
	if err := b.out.Close(); err != nil {
		return err
	}
	if !b.an.Active() {
		return nil
	}
	domain := b.an.Domain()
	emissions, err := b.an.Finalize()
	if err != nil {
		return err
	}
	for _, e := range emissions {
		c, err := b.out.Add(e.Call, nil, e.Fields, e.Origin)
		if err != nil {
			return diag.Locate(err, diag.Semantic, e.Origin.File, e.Origin.Line, e.Origin.Text)
		}
		b.completed(c)
	}
	log := ctxlog.FromContext(b.ctx)
	deps := b.an.Dependencies()
	if cycle := deps.FindCycle(); cycle != nil {
		log.Info("Subsystems depend on each other.", "domain", domain, "cycle", cycle)
	}
	log.Debug("Domain finalized.", "domain", domain, "commands", len(emissions), "subsystem_deps", len(deps.Edges()))
	return nil
}

func (b *build) completed(c *command.Command) {
	if c.Completed() {
		ctxlog.FromContext(b.ctx).Debug("Command completed.", "call", c.Call, "line", c.Origin.Line)
	}
}
