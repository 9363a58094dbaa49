package app

import (
	"context"

	"github.com/specialistvlad/mitext/internal/backend"
	"github.com/specialistvlad/mitext/internal/ctxlog"
	"github.com/specialistvlad/mitext/internal/diag"
	"github.com/specialistvlad/mitext/internal/memorybackend"
	"github.com/specialistvlad/mitext/internal/natsbackend"
	"github.com/specialistvlad/mitext/internal/pgbackend"
)

// openBackend returns the backend scripts execute against, opening the
// configured one on first use.
func (a *App) openBackend(ctx context.Context) (backend.Backend, error) {
	if a.backend != nil {
		return a.backend, nil
	}
	logger := ctxlog.FromContext(ctx)

	switch a.settings.Backend {
	case backend.Postgres:
		pg, err := pgbackend.Open(ctx, a.settings.Postgres.DSN)
		if err != nil {
			return nil, &diag.Error{Kind: diag.Execution, Msg: "cannot open postgres backend", Err: err}
		}
		a.closers = append(a.closers, func() error { pg.Close(); return nil })
		a.backend = pg
	case backend.NATS:
		nb, err := natsbackend.Connect(a.settings.NATS.URL, natsbackend.Options{
			Subject: a.settings.NATS.Subject,
			Timeout: a.settings.NATS.Timeout,
			RunID:   a.runID,
		})
		if err != nil {
			return nil, &diag.Error{Kind: diag.Execution, Msg: "cannot open nats backend", Err: err}
		}
		a.closers = append(a.closers, nb.Close)
		a.backend = nb
	default:
		a.backend = memorybackend.New()
	}
	logger.Debug("Backend opened.", "backend", a.settings.Backend)
	return a.backend, nil
}
