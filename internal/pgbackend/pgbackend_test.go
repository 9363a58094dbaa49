package pgbackend

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx"
	"github.com/specialistvlad/mitext/internal/command"
	"github.com/specialistvlad/mitext/internal/ctxlog"
	"github.com/specialistvlad/mitext/internal/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

type exec struct {
	sql  string
	args []interface{}
}

type fakeConn struct {
	execs      []exec
	failSQL    error
	committed  bool
	rolledBack bool
}

func (f *fakeConn) ExecEx(ctx context.Context, sql string, options *pgx.QueryExOptions, arguments ...interface{}) (pgx.CommandTag, error) {
	if f.failSQL != nil {
		return "", f.failSQL
	}
	f.execs = append(f.execs, exec{sql: sql, args: arguments})
	return "SELECT 1", nil
}

func (f *fakeConn) CommitEx(ctx context.Context) error {
	f.committed = true
	return nil
}

func (f *fakeConn) RollbackEx(ctx context.Context) error {
	f.rolledBack = true
	return nil
}

func newCommand(t *testing.T, call string, fields ...command.Field) *command.Command {
	t.Helper()
	reg, err := registry.Default(ctxlog.Discard(context.Background()))
	require.NoError(t, err)
	spec, ok := reg.Call(call)
	require.True(t, ok)
	c, err := command.Begin(spec, nil, fields)
	require.NoError(t, err)
	return c
}

func str(name, v string) command.Field { return command.Field{Name: name, Value: cty.StringVal(v)} }

func TestStatement(t *testing.T) {
	testCases := []struct {
		name         string
		cmd          func(t *testing.T) *command.Command
		expectedSQL  string
		expectedArgs []interface{}
	}{
		{
			name: "scalar parameters",
			cmd: func(t *testing.T) *command.Command {
				return newCommand(t, "new_subsystem",
					str("name", "Runway"), str("alias", "RW"),
					command.Field{Name: "floor", Value: cty.NumberIntVal(1)},
					command.Field{Name: "ceiling", Value: cty.NumberIntVal(50)},
					str("domain", "ATC"))
			},
			expectedSQL:  "SELECT UI_new_subsystem(p_name => $1, p_alias => $2, p_floor => $3, p_ceiling => $4, p_domain => $5)",
			expectedArgs: []interface{}{"Runway", "RW", int64(1), int64(50), "ATC"},
		},
		{
			name: "list parameters",
			cmd: func(t *testing.T) *command.Command {
				return newCommand(t, "formalize_rel",
					command.Field{Name: "rnum", Value: cty.NumberIntVal(3)},
					command.Field{Name: "ref_classes", Value: cty.ListVal([]cty.Value{cty.StringVal("Pilot")})},
					command.Field{Name: "ref_attrs", Value: cty.ListVal([]cty.Value{cty.StringVal("Aircraft")})},
					command.Field{Name: "to_classes", Value: cty.ListVal([]cty.Value{cty.StringVal("Aircraft")})},
					command.Field{Name: "to_attrs", Value: cty.ListVal([]cty.Value{cty.StringVal("Tail Number")})},
					command.Field{Name: "constrained", Value: cty.True},
					str("domain", "ATC"))
			},
			expectedSQL: "SELECT UI_formalize_rel(p_rnum => $1, p_ref_classes => $2, p_ref_attrs => $3, " +
				"p_to_classes => $4, p_to_attrs => $5, p_constrained => $6, p_domain => $7)",
			expectedArgs: []interface{}{
				int64(3), []string{"Pilot"}, []string{"Aircraft"}, []string{"Aircraft"}, []string{"Tail Number"}, true, "ATC",
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			sql, args, err := Statement(tc.cmd(t))
			require.NoError(t, err)
			assert.Equal(t, tc.expectedSQL, sql)
			assert.Equal(t, tc.expectedArgs, args)
		})
	}
}

func TestStatement_Incomplete(t *testing.T) {
	c := newCommand(t, "new_bridge", str("client", "ATC"))
	_, _, err := Statement(c)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing service")
}

func TestBackend_Tx(t *testing.T) {
	ctx := ctxlog.Discard(context.Background())
	conn := &fakeConn{}
	b := New(func(ctx context.Context) (Conn, error) { return conn, nil })

	tx, err := b.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.Exec(ctx, newCommand(t, "new_bridge", str("client", "ATC"), str("service", "UI"))))
	require.NoError(t, tx.Commit(ctx))

	require.Len(t, conn.execs, 1)
	assert.Equal(t, "SELECT UI_new_bridge(p_client => $1, p_service => $2)", conn.execs[0].sql)
	assert.Equal(t, []interface{}{"ATC", "UI"}, conn.execs[0].args)
	assert.True(t, conn.committed)
	assert.False(t, conn.rolledBack)
	b.Close()
}

func TestBackend_Errors(t *testing.T) {
	ctx := ctxlog.Discard(context.Background())

	t.Run("begin fails", func(t *testing.T) {
		b := New(func(ctx context.Context) (Conn, error) { return nil, errors.New("connection refused") })
		_, err := b.Begin(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "beginning transaction: connection refused")
	})

	t.Run("procedure fails", func(t *testing.T) {
		conn := &fakeConn{failSQL: errors.New("function ui_new_bridge does not exist")}
		b := New(func(ctx context.Context) (Conn, error) { return conn, nil })
		tx, err := b.Begin(ctx)
		require.NoError(t, err)

		err = tx.Exec(ctx, newCommand(t, "new_bridge", str("client", "ATC"), str("service", "UI")))
		require.Error(t, err)
		require.NoError(t, tx.Rollback(ctx))
		assert.True(t, conn.rolledBack)
	})
}
