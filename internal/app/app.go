package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/specialistvlad/mitext/internal/backend"
	"github.com/specialistvlad/mitext/internal/config"
	"github.com/specialistvlad/mitext/internal/ctxlog"
	"github.com/specialistvlad/mitext/internal/grammar"
	"github.com/specialistvlad/mitext/internal/metrics"
	"github.com/specialistvlad/mitext/internal/registry"
	"github.com/specialistvlad/mitext/internal/session"
	"github.com/specialistvlad/mitext/internal/source"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	errW     io.Writer
	logger   *slog.Logger
	runID    string
	settings *config.Settings
	session  *session.Session
	metrics  *metrics.Metrics

	backend backend.Backend
	closers []func() error

	mu      sync.Mutex
	sources map[string]*source.File
}

// Option customizes an App.
type Option func(*App)

// WithBackend makes the app execute against b instead of opening the
// configured backend.
func WithBackend(b backend.Backend) Option {
	return func(a *App) { a.backend = b }
}

// NewApp is the constructor for the main application. Results are written
// to outW; logs and diagnostics go to errW. The settings must be valid.
func NewApp(outW, errW io.Writer, settings *config.Settings, opts ...Option) (*App, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	runID := uuid.New().String()
	logger := newLogger(settings.LogLevel, settings.LogFormat, errW).With("run_id", runID)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	var (
		reg *registry.Registry
		err error
	)
	if settings.SchemaPath == "" {
		reg, err = registry.Default(ctx)
	} else {
		reg, err = registry.LoadFile(ctx, settings.SchemaPath)
	}
	if err != nil {
		return nil, err
	}
	logger.Debug("Constructor schema loaded.", "calls", len(reg.Calls()), "types", len(reg.Types()))

	sess, err := session.New(grammar.Default(), reg)
	if err != nil {
		return nil, fmt.Errorf("grammar does not fit the constructor schema: %w", err)
	}

	a := &App{
		outW:     outW,
		errW:     errW,
		logger:   logger,
		runID:    runID,
		settings: settings,
		session:  sess,
		metrics:  metrics.New(),
		sources:  make(map[string]*source.File),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// RunID returns the identifier attached to every log record of the app.
func (a *App) RunID() string {
	return a.runID
}

// Registry returns the constructor schema in use.
func (a *App) Registry() *registry.Registry {
	return a.session.Registry()
}

// Metrics returns the collectors of the app.
func (a *App) Metrics() *metrics.Metrics {
	return a.metrics
}

// context attaches the app's logger to ctx.
func (a *App) context(ctx context.Context) context.Context {
	return ctxlog.WithLogger(ctx, a.logger)
}

// Close releases the opened backend and writes the metrics textfile, if one
// is configured.
func (a *App) Close() error {
	var firstErr error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	a.closers = nil

	if a.settings.MetricsFile != "" {
		if err := a.metrics.WriteTextfile(a.settings.MetricsFile); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to write metrics to %s: %w", a.settings.MetricsFile, err)
		}
		a.logger.Debug("Metrics written.", "path", a.settings.MetricsFile)
	}
	return firstErr
}
