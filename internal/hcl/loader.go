package hcl

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/mitext/internal/backend"
	"github.com/specialistvlad/mitext/internal/config"
	"github.com/specialistvlad/mitext/internal/ctxlog"
)

// DefaultFile is the configuration file looked for when none is named.
const DefaultFile = "mitext.hcl"

type fileSchema struct {
	Schema string `hcl:"schema,optional"`
	// Use selects one of the backend blocks. It may be left out when there
	// is exactly one.
	Use      string          `hcl:"use,optional"`
	Log      *logBlock       `hcl:"log,block"`
	Backends []*backendBlock `hcl:"backend,block"`
	Metrics  *metricsBlock   `hcl:"metrics,block"`
}

type logBlock struct {
	Level  string `hcl:"level,optional"`
	Format string `hcl:"format,optional"`
}

type backendBlock struct {
	Kind    string `hcl:"kind,label"`
	DSN     string `hcl:"dsn,optional"`
	URL     string `hcl:"url,optional"`
	Subject string `hcl:"subject,optional"`
	Timeout string `hcl:"timeout,optional"`
}

type metricsBlock struct {
	Textfile string `hcl:"textfile"`
}

// Loader reads mitext.hcl files.
type Loader struct {
	parser *hclparse.Parser
}

var _ config.Loader = (*Loader)(nil)

// NewLoader creates a loader with a fresh parser.
func NewLoader() *Loader {
	return &Loader{parser: hclparse.NewParser()}
}

// Files exposes the parsed sources so diagnostics can quote them.
func (l *Loader) Files() map[string]*hcl.File {
	return l.parser.Files()
}

// Load decodes the file at path on top of base. A relative schema path is
// resolved against the directory of the file.
func (l *Loader) Load(ctx context.Context, path string, base *config.Settings) (*config.Settings, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading configuration file.", "path", path)

	f, diags := l.parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, diags)
	}

	var parsed fileSchema
	if diags := gohcl.DecodeBody(f.Body, nil, &parsed); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode config file %s: %w", path, diags)
	}

	s := base.Clone()
	if parsed.Schema != "" {
		s.SchemaPath = parsed.Schema
		if !filepath.IsAbs(s.SchemaPath) {
			s.SchemaPath = filepath.Join(filepath.Dir(path), s.SchemaPath)
		}
	}
	if parsed.Log != nil {
		if parsed.Log.Level != "" {
			s.LogLevel = parsed.Log.Level
		}
		if parsed.Log.Format != "" {
			s.LogFormat = parsed.Log.Format
		}
	}
	if parsed.Metrics != nil {
		s.MetricsFile = parsed.Metrics.Textfile
	}

	if diags := applyBackends(s, parsed); diags.HasErrors() {
		return nil, fmt.Errorf("invalid config file %s: %w", path, diags)
	}
	logger.Debug("Configuration file loaded.", "backend", s.Backend, "schema", s.SchemaPath)
	return s, nil
}

func applyBackends(s *config.Settings, parsed fileSchema) hcl.Diagnostics {
	var diags hcl.Diagnostics
	seen := make(map[string]bool)
	for _, b := range parsed.Backends {
		if seen[b.Kind] {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  fmt.Sprintf("Duplicate backend %q", b.Kind),
				Detail:   "Only one block per backend kind is allowed.",
			})
			continue
		}
		seen[b.Kind] = true

		switch backend.Kind(b.Kind) {
		case backend.Postgres:
			s.Postgres.DSN = b.DSN
		case backend.NATS:
			s.NATS.URL = b.URL
			if b.Subject != "" {
				s.NATS.Subject = b.Subject
			}
			if b.Timeout != "" {
				d, err := time.ParseDuration(b.Timeout)
				if err != nil {
					diags = append(diags, &hcl.Diagnostic{
						Severity: hcl.DiagError,
						Summary:  "Invalid timeout",
						Detail:   fmt.Sprintf("Cannot parse %q as a duration: %v.", b.Timeout, err),
					})
				}
				s.NATS.Timeout = d
			}
		case backend.Memory:
		default:
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Unknown backend",
				Detail:   fmt.Sprintf("Backend %q is not one of %v.", b.Kind, backend.Kinds),
			})
		}
	}

	switch {
	case parsed.Use != "":
		s.Backend = backend.Kind(parsed.Use)
	case len(parsed.Backends) == 1:
		s.Backend = backend.Kind(parsed.Backends[0].Kind)
	case len(parsed.Backends) > 1:
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Ambiguous backend",
			Detail:   `Several backends are configured; select one with the "use" attribute.`,
		})
	}
	return diags
}
