package app

import (
	"context"
	"fmt"
	"time"

	"github.com/specialistvlad/mitext/internal/ctxlog"
	"github.com/specialistvlad/mitext/internal/diag"
	"github.com/specialistvlad/mitext/internal/script"
)

// Output formats accepted by Compile.
const (
	FormatText = "text"
	FormatYAML = "yaml"
)

// Check runs the syntax phase over the inputs and prints a summary.
func (a *App) Check(ctx context.Context, args []string) error {
	ctx = a.context(ctx)
	files, err := a.readInputs(args)
	if err != nil {
		return err
	}
	if err := a.session.Check(files...); err != nil {
		a.metrics.ObserveError(err)
		return err
	}
	ctxlog.FromContext(ctx).Info("Check passed.", "files", len(files), "lines", countLines(files))
	_, err = fmt.Fprintf(a.outW, "%d file(s) checked, no errors.\n", len(files))
	return err
}

// Compile builds the population script of the inputs and prints it in the
// given format without executing it.
func (a *App) Compile(ctx context.Context, args []string, format string) error {
	ctx = a.context(ctx)
	write, err := a.writer(format)
	if err != nil {
		return err
	}
	files, err := a.readInputs(args)
	if err != nil {
		return err
	}

	s, err := a.session.Compile(ctx, files...)
	a.metrics.ObserveScript(countLines(files), s)
	if err != nil {
		a.metrics.ObserveError(err)
		return err
	}
	ctxlog.FromContext(ctx).Info("Compilation finished.", "commands", len(s.Completed()))
	return write(s)
}

func (a *App) writer(format string) (func(*script.Script) error, error) {
	switch format {
	case "", FormatText:
		return func(s *script.Script) error { return s.WriteText(a.outW) }, nil
	case FormatYAML:
		return func(s *script.Script) error { return s.WriteYAML(a.outW) }, nil
	default:
		return nil, fmt.Errorf("invalid format %q: must be '%s' or '%s'", format, FormatText, FormatYAML)
	}
}

// Run compiles the inputs and executes the script against the backend as
// one atomic unit. A syntax error stops the run before the backend is
// touched. A semantic error still replays the partial script, then rolls
// it back.
func (a *App) Run(ctx context.Context, args []string) error {
	ctx = a.context(ctx)
	logger := ctxlog.FromContext(ctx)
	logger.Debug("App.Run method started.")

	files, err := a.readInputs(args)
	if err != nil {
		return err
	}

	s, buildErr := a.session.Compile(ctx, files...)
	a.metrics.ObserveScript(countLines(files), s)
	switch diag.KindOf(buildErr) {
	case diag.Syntax, diag.Schema:
		a.metrics.ObserveError(buildErr)
		return buildErr
	}

	b, err := a.openBackend(ctx)
	if err != nil {
		a.metrics.ObserveError(err)
		return err
	}

	logger.Info("Executing population script.", "backend", a.settings.Backend, "commands", len(s.Completed()))
	start := time.Now()
	err = s.Execute(ctx, b, buildErr)
	a.metrics.ObserveExecute(time.Since(start))
	if err != nil {
		a.metrics.ObserveError(err)
		return err
	}

	logger.Debug("App.Run method finished.")
	return nil
}

// Schema prints the constructor calls of the loaded schema, one per line.
func (a *App) Schema() error {
	for _, c := range a.session.Registry().Calls() {
		if _, err := fmt.Fprintln(a.outW, c.String()); err != nil {
			return err
		}
	}
	return nil
}
