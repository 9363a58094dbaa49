package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/specialistvlad/mitext/internal/backend"
)

// Accepted log levels and formats.
var (
	LogLevels  = []string{"debug", "info", "warn", "error"}
	LogFormats = []string{"text", "json"}
)

// Defaults for the NATS executor.
const (
	DefaultNATSSubject = "miuml.populate"
	DefaultNATSTimeout = 10 * time.Second
)

// Postgres configures the PostgreSQL backend.
type Postgres struct {
	DSN string
}

// NATS configures the remote executor backend.
type NATS struct {
	URL     string
	Subject string
	Timeout time.Duration
}

// Settings holds everything a run needs besides its input files.
type Settings struct {
	// SchemaPath names a constructor schema file. Empty selects the
	// embedded default.
	SchemaPath string

	LogLevel  string
	LogFormat string

	Backend  backend.Kind
	Postgres Postgres
	NATS     NATS

	// MetricsFile, when set, receives the run's metrics in the node_exporter
	// textfile format.
	MetricsFile string
}

// Default returns the settings used when nothing is configured.
func Default() *Settings {
	return &Settings{
		LogLevel:  "info",
		LogFormat: "text",
		Backend:   backend.Memory,
		NATS:      NATS{Subject: DefaultNATSSubject, Timeout: DefaultNATSTimeout},
	}
}

// Clone returns a copy of s.
func (s *Settings) Clone() *Settings {
	c := *s
	return &c
}

// Overrides are values given on the command line. Empty fields leave the
// setting alone.
type Overrides struct {
	SchemaPath  string
	LogLevel    string
	LogFormat   string
	Backend     string
	DSN         string
	NATSURL     string
	MetricsFile string
}

// Apply returns a copy of s with the non-empty overrides applied.
func (s *Settings) Apply(o Overrides) *Settings {
	c := s.Clone()
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&c.SchemaPath, o.SchemaPath)
	set(&c.LogLevel, strings.ToLower(o.LogLevel))
	set(&c.LogFormat, strings.ToLower(o.LogFormat))
	set(&c.Postgres.DSN, o.DSN)
	set(&c.NATS.URL, o.NATSURL)
	set(&c.MetricsFile, o.MetricsFile)
	if o.Backend != "" {
		c.Backend = backend.Kind(strings.ToLower(o.Backend))
	}
	return c
}

// Validate reports every invalid setting at once.
func (s *Settings) Validate() error {
	var errs []error
	if !slices.Contains(LogLevels, s.LogLevel) {
		errs = append(errs, fmt.Errorf("invalid log-level %q: must be one of %s", s.LogLevel, strings.Join(LogLevels, ", ")))
	}
	if !slices.Contains(LogFormats, s.LogFormat) {
		errs = append(errs, fmt.Errorf("invalid log-format %q: must be 'text' or 'json'", s.LogFormat))
	}
	switch {
	case !s.Backend.Valid():
		errs = append(errs, fmt.Errorf("invalid backend %q", s.Backend))
	case s.Backend == backend.Postgres && s.Postgres.DSN == "":
		errs = append(errs, errors.New("the postgres backend needs a dsn"))
	case s.Backend == backend.NATS && s.NATS.URL == "":
		errs = append(errs, errors.New("the nats backend needs a url"))
	}
	if s.NATS.Timeout < 0 {
		errs = append(errs, fmt.Errorf("invalid nats timeout %s", s.NATS.Timeout))
	}
	return errors.Join(errs...)
}
