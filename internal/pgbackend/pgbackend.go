// Package pgbackend executes population scripts against PostgreSQL. Every
// command becomes a call of the matching UI_ stored procedure with named
// arguments, and a whole script runs in one database transaction.
package pgbackend

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx"
	"github.com/specialistvlad/mitext/internal/backend"
	"github.com/specialistvlad/mitext/internal/command"
	"github.com/specialistvlad/mitext/internal/ctxlog"
	"github.com/specialistvlad/mitext/internal/registry"
)

// ParamPrefix is prepended to parameter names to form procedure argument
// names.
const ParamPrefix = "p_"

// Conn is the part of a pgx transaction the backend uses.
type Conn interface {
	ExecEx(ctx context.Context, sql string, options *pgx.QueryExOptions, arguments ...interface{}) (pgx.CommandTag, error)
	CommitEx(ctx context.Context) error
	RollbackEx(ctx context.Context) error
}

// BeginFunc opens a database transaction.
type BeginFunc func(ctx context.Context) (Conn, error)

// Backend runs commands as stored procedure calls.
type Backend struct {
	begin BeginFunc
	pool  *pgx.ConnPool
}

var _ backend.Backend = (*Backend)(nil)

// Open connects a pool to dsn, which may be a URL or a key=value string,
// and checks the first connection.
func Open(ctx context.Context, dsn string) (*Backend, error) {
	conf, err := pgx.ParseConnectionString(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing postgres dsn: %w", err)
	}
	conf.Logger = logger{ctxlog.FromContext(ctx)}
	conf.LogLevel = pgx.LogLevelWarn

	pool, err := pgx.NewConnPool(pgx.ConnPoolConfig{ConnConfig: conf})
	if err != nil {
		return nil, fmt.Errorf("creating pgx connection pool: %w", err)
	}
	if _, err := pool.ExecEx(ctx, "SELECT 1", nil); err != nil {
		pool.Close()
		return nil, fmt.Errorf("opening first pgx connection: %w", err)
	}
	b := New(func(ctx context.Context) (Conn, error) {
		tx, err := pool.BeginEx(ctx, nil)
		if err != nil {
			return nil, err
		}
		return tx, nil
	})
	b.pool = pool
	return b, nil
}

// New returns a backend opening its transactions with begin.
func New(begin BeginFunc) *Backend {
	return &Backend{begin: begin}
}

// Close releases the connection pool, if any.
func (b *Backend) Close() {
	if b.pool != nil {
		b.pool.Close()
	}
}

// Begin opens a database transaction.
func (b *Backend) Begin(ctx context.Context) (backend.Tx, error) {
	conn, err := b.begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	return &tx{conn: conn}, nil
}

// Statement renders a completed command as a procedure call with one
// placeholder per parameter, and returns the arguments in placeholder order.
func Statement(c *command.Command) (string, []interface{}, error) {
	if !c.Completed() {
		return "", nil, fmt.Errorf("%s is incomplete, missing %s", c.Call, strings.Join(c.Missing(), ", "))
	}
	parts := make([]string, len(c.Params))
	args := make([]interface{}, len(c.Params))
	for i, name := range c.Params {
		parts[i] = fmt.Sprintf("%s%s => $%d", ParamPrefix, name, i+1)
		native, err := registry.Native(c.Values[i])
		if err != nil {
			return "", nil, fmt.Errorf("%s parameter %s: %w", c.Call, name, err)
		}
		args[i] = native
	}
	sql := fmt.Sprintf("SELECT %s(%s)", backend.ProcedureName(c.Call), strings.Join(parts, ", "))
	return sql, args, nil
}

type tx struct {
	conn Conn
}

func (t *tx) Exec(ctx context.Context, c *command.Command) error {
	sql, args, err := Statement(c)
	if err != nil {
		return err
	}
	ctxlog.FromContext(ctx).Debug("Executing statement.", "sql", sql)
	_, err = t.conn.ExecEx(ctx, sql, nil, args...)
	return err
}

func (t *tx) Commit(ctx context.Context) error {
	return t.conn.CommitEx(ctx)
}

func (t *tx) Rollback(ctx context.Context) error {
	return t.conn.RollbackEx(ctx)
}

// logger forwards pgx log records to slog.
type logger struct {
	l *slog.Logger
}

func (a logger) Log(level pgx.LogLevel, msg string, data map[string]interface{}) {
	args := make([]any, 0, 2*len(data))
	for k, v := range data {
		args = append(args, k, v)
	}
	switch level {
	case pgx.LogLevelError:
		a.l.Error(msg, args...)
	case pgx.LogLevelWarn:
		a.l.Warn(msg, args...)
	case pgx.LogLevelInfo:
		a.l.Info(msg, args...)
	default:
		a.l.Debug(msg, args...)
	}
}
