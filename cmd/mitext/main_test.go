package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/specialistvlad/mitext/internal/cli"
	"github.com/stretchr/testify/require"
)

const validScript = `
domain
Air Traffic Control / ATC

subsystem
Runway / RW 1-50
`

func writeScript(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "model.mi")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600), "failed to set up test file")
	return path
}

func exitCode(t *testing.T, err error) int {
	t.Helper()
	var exitErr *cli.ExitError
	require.True(t, errors.As(err, &exitErr), "expected an ExitError, got %v", err)
	return exitErr.Code
}

func TestRun_Help(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}
	err := run(context.Background(), out, &bytes.Buffer{}, []string{"-h"})

	require.NoError(t, err, "run() should return a nil error when help is requested")
	require.Contains(t, out.String(), "Usage:", "Expected help text to be printed to the output buffer")
}

func TestRun_ParseError(t *testing.T) {
	t.Parallel()

	err := run(context.Background(), &bytes.Buffer{}, &bytes.Buffer{}, []string{"--this-is-not-a-valid-flag"})

	require.Error(t, err, "run() should return an error when argument parsing fails")
	require.Equal(t, cli.ExitUsage, exitCode(t, err))
	require.Contains(t, err.Error(), "unknown flag: --this-is-not-a-valid-flag")
}

func TestRun_NoInput(t *testing.T) {
	t.Parallel()

	err := run(context.Background(), &bytes.Buffer{}, &bytes.Buffer{}, nil)

	require.Equal(t, cli.ExitUsage, exitCode(t, err))
	require.Contains(t, err.Error(), "at least one input file is required")
}

func TestRun_UnreadableInput(t *testing.T) {
	t.Parallel()

	errW := &bytes.Buffer{}
	missing := filepath.Join(t.TempDir(), "missing.mi")
	err := run(context.Background(), &bytes.Buffer{}, errW, []string{"run", missing})

	require.Equal(t, cli.ExitFailure, exitCode(t, err))
	require.Contains(t, errW.String(), "input error")
}

func TestRun_Success(t *testing.T) {
	t.Parallel()

	path := writeScript(t, validScript)
	err := run(context.Background(), &bytes.Buffer{}, &bytes.Buffer{}, []string{"--log-level", "error", path})

	require.NoError(t, err)
}

func TestRun_SyntaxErrorNamesLine(t *testing.T) {
	t.Parallel()

	path := writeScript(t, "model\nclasses\n")
	errW := &bytes.Buffer{}
	err := run(context.Background(), &bytes.Buffer{}, errW, []string{"--log-level", "error", "check", path})

	require.Equal(t, cli.ExitFailure, exitCode(t, err))
	require.Contains(t, errW.String(), "Syntax error")
	require.Contains(t, errW.String(), "model.mi line 2")
}
