package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/specialistvlad/mitext/internal/app"
	"github.com/specialistvlad/mitext/internal/config"
	"github.com/specialistvlad/mitext/internal/ctxlog"
	"github.com/specialistvlad/mitext/internal/hcl"
	"github.com/spf13/cobra"
)

// Exit codes.
const (
	ExitFailure = 1
	ExitUsage   = 2
)

// ExitError is a custom error type that includes a specific exit code. An
// empty Message means the failure has already been reported.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

func usageError(err error) error {
	return &ExitError{Code: ExitUsage, Message: err.Error()}
}

// flags holds the values of the global command-line flags.
type flags struct {
	configPath string
	overrides  config.Overrides
}

// Run executes the command line in args. Results go to outW; logs and
// diagnostics go to errW. Failures are returned as *ExitError.
func Run(ctx context.Context, args []string, outW, errW io.Writer, loader config.Loader, opts ...app.Option) error {
	root := NewRootCommand(outW, errW, loader, opts...)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if err == nil {
		return nil
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr
	}
	// Cobra reports unknown commands and argument errors as plain errors.
	return usageError(err)
}

// NewRootCommand builds the mitext command tree.
func NewRootCommand(outW, errW io.Writer, loader config.Loader, opts ...app.Option) *cobra.Command {
	f := &flags{}

	root := &cobra.Command{
		Use:   "mitext [FILE...]",
		Short: "Compile miUML text scripts and populate a metamodel database",
		Long: `mitext compiles miUML text scripts (domains, subsystems, classes,
attributes, identifiers and relationships) into a population script of
metamodel constructor calls and executes it as one atomic unit.

Inputs may be files, directories (every *.mi file below them) or doublestar
patterns such as 'models/**/*.mi'. Running mitext with inputs and no
command is the same as 'mitext run'.`,
		Args:          filesRequired,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return f.withApp(cmd, outW, errW, loader, opts, func(ctx context.Context, a *app.App) error {
				return a.Run(ctx, args)
			})
		},
	}
	root.SetOut(outW)
	root.SetErr(errW)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError(err)
	})

	pf := root.PersistentFlags()
	pf.StringVarP(&f.configPath, "config", "c", "", "Path to a configuration file (default ./"+hcl.DefaultFile+" when present).")
	pf.StringVar(&f.overrides.SchemaPath, "schema", "", "Path to a constructor schema file (default: embedded miUML schema).")
	pf.StringVar(&f.overrides.Backend, "backend", "", "Backend to execute against. Options: 'memory', 'postgres', 'nats'.")
	pf.StringVar(&f.overrides.DSN, "dsn", "", "PostgreSQL connection string for the postgres backend.")
	pf.StringVar(&f.overrides.NATSURL, "nats-url", "", "NATS server URL for the nats backend.")
	pf.StringVar(&f.overrides.LogLevel, "log-level", "", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	pf.StringVar(&f.overrides.LogFormat, "log-format", "", "Log output format. Options: 'text' or 'json'.")
	pf.StringVar(&f.overrides.MetricsFile, "metrics-file", "", "Write run metrics to this node_exporter textfile.")

	root.AddCommand(
		&cobra.Command{
			Use:   "run FILE...",
			Short: "Compile the inputs and execute the population script",
			Args:  filesRequired,
			RunE: func(cmd *cobra.Command, args []string) error {
				return f.withApp(cmd, outW, errW, loader, opts, func(ctx context.Context, a *app.App) error {
					return a.Run(ctx, args)
				})
			},
		},
		newCheckCommand(f, outW, errW, loader, opts),
		newCompileCommand(f, outW, errW, loader, opts),
		&cobra.Command{
			Use:   "schema",
			Short: "Print the constructor calls of the loaded schema",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return f.withApp(cmd, outW, errW, loader, opts, func(_ context.Context, a *app.App) error {
					return a.Schema()
				})
			},
		},
	)
	return root
}

func newCheckCommand(f *flags, outW, errW io.Writer, loader config.Loader, opts []app.Option) *cobra.Command {
	var watch bool
	cmd := &cobra.Command{
		Use:   "check FILE...",
		Short: "Check the section and statement syntax of the inputs",
		Args:  filesRequired,
		RunE: func(cmd *cobra.Command, args []string) error {
			return f.withApp(cmd, outW, errW, loader, opts, func(ctx context.Context, a *app.App) error {
				if watch {
					return a.Watch(ctx, args)
				}
				return a.Check(ctx, args)
			})
		},
	}
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Check again whenever an input changes.")
	return cmd
}

func newCompileCommand(f *flags, outW, errW io.Writer, loader config.Loader, opts []app.Option) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "compile FILE...",
		Short: "Print the population script of the inputs without executing it",
		Args:  filesRequired,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if format != app.FormatText && format != app.FormatYAML {
				return usageError(fmt.Errorf("invalid format %q: must be '%s' or '%s'", format, app.FormatText, app.FormatYAML))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return f.withApp(cmd, outW, errW, loader, opts, func(ctx context.Context, a *app.App) error {
				return a.Compile(ctx, args, format)
			})
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", app.FormatText, "Output format. Options: 'text' or 'yaml'.")
	return cmd
}

func filesRequired(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return &ExitError{Code: ExitUsage, Message: fmt.Sprintf("%s: at least one input file is required\n\n%s", cmd.CommandPath(), cmd.UsageString())}
	}
	return nil
}

// settings resolves the configuration file, if any, and applies the flags
// on top of it.
func (f *flags) settings(ctx context.Context, loader config.Loader) (*config.Settings, error) {
	s := config.Default()
	path := f.configPath
	if path == "" {
		if _, err := os.Stat(hcl.DefaultFile); err == nil {
			path = hcl.DefaultFile
		}
	}
	if path != "" {
		loaded, err := loader.Load(ctx, path, s)
		if err != nil {
			return nil, &ExitError{Code: ExitFailure, Message: err.Error()}
		}
		s = loaded
	}
	s = s.Apply(f.overrides)
	if err := s.Validate(); err != nil {
		return nil, usageError(err)
	}
	return s, nil
}

// withApp builds the app for one command, runs fn and reports its failure.
func (f *flags) withApp(cmd *cobra.Command, outW, errW io.Writer, loader config.Loader, opts []app.Option, fn func(context.Context, *app.App) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = ctxlog.WithLogger(ctx, slog.Default())
	slog.Debug("CLI command started.", "command", cmd.CommandPath())

	settings, err := f.settings(ctx, loader)
	if err != nil {
		return err
	}

	a, err := app.NewApp(outW, errW, settings, opts...)
	if err != nil {
		return &ExitError{Code: ExitFailure, Message: fmt.Sprintf("Error: %v", err)}
	}

	runErr := fn(ctx, a)
	if closeErr := a.Close(); closeErr != nil {
		slog.Warn("Failed to close the application cleanly.", "error", closeErr)
	}
	if runErr == nil {
		return nil
	}
	a.Report(errW, runErr)
	return &ExitError{Code: ExitFailure}
}
