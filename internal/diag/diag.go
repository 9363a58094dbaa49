// Package diag defines the error taxonomy shared by every stage of the
// compiler. Each error carries its kind and the location (file, 1-based line,
// offending text) of the input that produced it, so the entry point can report
// failures uniformly, either as plain text or as HCL diagnostics with a source
// snippet.
package diag

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"
)

// Kind classifies an Error.
type Kind int

const (
	// Schema marks a malformed constructor schema resource.
	Schema Kind = iota + 1
	// Syntax marks a section or expression that the grammar rejects.
	Syntax
	// Semantic marks a value or reference that cannot be interpreted.
	Semantic
	// Execution marks a command the backend rejected or failed.
	Execution
)

// String returns the lower-case name of the kind.
func (k Kind) String() string {
	switch k {
	case Schema:
		return "schema"
	case Syntax:
		return "syntax"
	case Semantic:
		return "semantic"
	case Execution:
		return "execution"
	default:
		return "unknown"
	}
}

var summaries = map[Kind]string{
	Schema:    "Schema error",
	Syntax:    "Syntax error",
	Semantic:  "Semantic error",
	Execution: "Execution error",
}

// Error is a located compiler failure.
type Error struct {
	Kind Kind
	File string
	Line int
	// Text is the offending source text, without comments.
	Text string
	Msg  string
	Err  error
}

// Error renders the failure as `file:line: kind error: msg: "text"`.
func (e *Error) Error() string {
	var sb strings.Builder
	if e.File != "" {
		sb.WriteString(e.File)
		if e.Line > 0 {
			fmt.Fprintf(&sb, ":%d", e.Line)
		}
		sb.WriteString(": ")
	}
	sb.WriteString(e.Kind.String())
	sb.WriteString(" error: ")
	sb.WriteString(e.Msg)
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	if e.Text != "" {
		fmt.Fprintf(&sb, ": %q", e.Text)
	}
	return sb.String()
}

// Unwrap exposes the underlying cause, if any.
func (e *Error) Unwrap() error { return e.Err }

// Diagnostic converts the error into an HCL diagnostic. The subject range
// spans the whole offending line when the line's byte offset is known.
func (e *Error) Diagnostic(offset int) *hcl.Diagnostic {
	detail := e.Msg
	if e.Err != nil {
		detail = fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	d := &hcl.Diagnostic{
		Severity: hcl.DiagError,
		Summary:  summaries[e.Kind],
		Detail:   detail,
	}
	if e.File != "" && e.Line > 0 {
		start := hcl.Pos{Line: e.Line, Column: 1, Byte: offset}
		end := hcl.Pos{Line: e.Line, Column: len(e.Text) + 1, Byte: offset + len(e.Text)}
		d.Subject = &hcl.Range{Filename: e.File, Start: start, End: end}
	}
	return d
}

// Newf builds an unlocated error of the given kind.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// At returns a copy of e located at the given position. Location already
// present on e is kept.
func (e *Error) At(file string, line int, text string) *Error {
	c := *e
	if c.File == "" {
		c.File = file
	}
	if c.Line == 0 {
		c.Line = line
		c.Text = text
	}
	return &c
}

// Locate attaches a position to err. A *Error keeps its own kind; any other
// error is wrapped with the fallback kind.
func Locate(err error, kind Kind, file string, line int, text string) *Error {
	if err == nil {
		return nil
	}
	var de *Error
	if errors.As(err, &de) {
		return de.At(file, line, text)
	}
	return &Error{Kind: kind, File: file, Line: line, Text: text, Msg: "failed", Err: err}
}

// KindOf reports the kind of the first *Error in err's chain, or 0 if none.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return 0
}
