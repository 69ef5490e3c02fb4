package cli

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/specialistvlad/voxelflow/internal/app"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

func usageError(err error) error {
	return &ExitError{Code: 2, Message: err.Error()}
}

// globalOptions are the persistent flags shared by every subcommand.
type globalOptions struct {
	fs afero.Fs

	format          string
	logFormat       string
	logLevel        string
	workers         int
	maxDepth        int
	healthcheckPort int
	metrics         bool
	cook            bool
}

// NewRootCommand builds the voxelflow command tree. Graph files are read
// from fs, results are written to out and logs and diagnostics to errOut.
func NewRootCommand(fs afero.Fs, out, errOut io.Writer) *cobra.Command {
	opts := &globalOptions{fs: fs}
	cmd := &cobra.Command{
		Use:   "voxelflow",
		Short: "Compile and evaluate procedural node graphs",
		Long: heading("Usage: voxelflow [global options] <command> [args]") + "\n\n" +
			"voxelflow compiles authored node graphs into executable form and\n" +
			"evaluates their outputs on demand.\n",
		SilenceUsage:  true,
		SilenceErrors: true,
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
	}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.CompletionOptions.DisableDefaultCmd = true
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error { return usageError(err) })

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.format, "format", "auto", "Graph file format. One of: "+strings.Join(app.Formats, ", "))
	flags.StringVar(&opts.logFormat, "log-format", "auto", "Log output format. One of: "+strings.Join(app.LogFormats, ", "))
	flags.StringVar(&opts.logLevel, "log-level", "info", "Log level. One of: "+strings.Join(app.LogLevels, ", "))
	flags.IntVar(&opts.workers, "workers", 0, "Evaluation worker goroutines. 0 uses one per CPU.")
	flags.IntVar(&opts.maxDepth, "max-depth", 0, "Maximum graph call depth. 0 uses the default.")
	flags.IntVar(&opts.healthcheckPort, "healthcheck-port", 0, "Port for the HTTP health check server. 0 is disabled.")
	flags.BoolVar(&opts.metrics, "metrics", false, "Serve Prometheus metrics on the health check port.")
	flags.BoolVar(&opts.cook, "cook", false, "Report graph errors as warnings.")

	cmd.AddCommand(
		newCompileCommand(opts),
		newEvalCommand(opts),
		newDumpCommand(opts),
		newPassesCommand(),
	)
	return cmd
}

// Execute runs the command tree with args. Every returned error is an
// *ExitError: 2 for usage errors, 1 for everything else.
func Execute(ctx context.Context, fs afero.Fs, out, errOut io.Writer, args []string) error {
	cmd := NewRootCommand(fs, out, errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return nil
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr
	}
	if msg := err.Error(); strings.HasPrefix(msg, "unknown command") || strings.HasPrefix(msg, "required flag") {
		return usageError(err)
	}
	return &ExitError{Code: 1, Message: err.Error()}
}

// exactArgs wraps cobra.ExactArgs so that a wrong argument count is a usage
// error.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return usageError(err)
		}
		return nil
	}
}

// open creates an App over the graphs at path and loads them. The caller
// closes the App.
func (o *globalOptions) open(cmd *cobra.Command, path string) (*app.App, error) {
	cfg, err := app.NewConfig(app.Config{
		GraphPath:         path,
		Format:            o.format,
		LogFormat:         o.logFormat,
		LogLevel:          o.logLevel,
		Workers:           o.workers,
		MaxRecursionDepth: o.maxDepth,
		HealthcheckPort:   o.healthcheckPort,
		MetricsEnabled:    o.metrics,
		Cook:              o.cook,
	})
	if err != nil {
		return nil, usageError(err)
	}
	a, err := app.NewApp(cmd.ErrOrStderr(), cfg, o.fs)
	if err != nil {
		return nil, err
	}
	if _, err := a.StartHealthCheckServer(); err != nil {
		_ = a.Close()
		return nil, err
	}
	if err := a.Load(cmd.Context()); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func heading(s string) string {
	return color.New(color.FgCyan, color.Bold).Sprint(s)
}
