// Package testutil provides shared helpers for tests that drive the whole
// application against the in-memory backend.
package testutil

import (
	"bytes"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/specialistvlad/mitext/internal/app"
	"github.com/specialistvlad/mitext/internal/config"
	"github.com/specialistvlad/mitext/internal/memorybackend"
	"github.com/stretchr/testify/require"
)

// SafeBuffer is a thread-safe buffer for capturing output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// WriteFiles writes files, keyed by slash-separated relative path, below a
// fresh temporary directory and returns that directory.
func WriteFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	return dir
}

// Harness is an app wired to an in-memory store, with its output captured.
type Harness struct {
	App   *app.App
	Store *memorybackend.Store
	Out   *SafeBuffer
	Log   *SafeBuffer
	Dir   string
}

// NewHarness writes files to a temporary directory and builds an app over
// them with debug logging. A nil settings selects the defaults.
func NewHarness(t *testing.T, files map[string]string, settings *config.Settings) *Harness {
	t.Helper()
	if settings == nil {
		settings = config.Default()
	}
	settings = settings.Clone()
	settings.LogLevel = "debug"

	h := &Harness{
		Store: memorybackend.New(),
		Out:   &SafeBuffer{},
		Log:   &SafeBuffer{},
		Dir:   WriteFiles(t, files),
	}
	a, err := app.NewApp(h.Out, h.Log, settings, app.WithBackend(h.Store))
	require.NoError(t, err)
	h.App = a

	t.Cleanup(func() {
		if os.Getenv("MITEXT_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), h.Log.String())
		}
	})
	return h
}

// Path returns the absolute path of a file written by the harness.
func (h *Harness) Path(name string) string {
	return filepath.Join(h.Dir, filepath.FromSlash(name))
}
