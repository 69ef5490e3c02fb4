package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/specialistvlad/voxelflow/internal/compiler"
	"github.com/specialistvlad/voxelflow/internal/ctxlog"
	"github.com/specialistvlad/voxelflow/internal/diag"
	"github.com/specialistvlad/voxelflow/internal/engine"
	"github.com/specialistvlad/voxelflow/internal/metrics"
	"github.com/specialistvlad/voxelflow/internal/model"
	"github.com/specialistvlad/voxelflow/internal/registry"
	"github.com/spf13/afero"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	ctx        context.Context
	logger     *slog.Logger
	config     *Config
	fs         afero.Fs
	registry   *registry.Registry
	promReg    *prometheus.Registry
	metrics    *metrics.Metrics
	diags      *diag.Collector
	sink       diag.Sink
	library    *model.Library
	httpServer *http.Server
}

// NewApp is the constructor for the main application. Logs go to logW and
// graphs are read from fs. Without modules the built-in node libraries are
// registered.
func NewApp(logW io.Writer, cfg *Config, fs afero.Fs, modules ...registry.Module) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, logW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	if len(modules) == 0 {
		modules = CoreModules()
	}
	reg := registry.New(modules...)
	if err := reg.Validate(ctx); err != nil {
		return nil, err
	}
	logger.Debug("All node libraries registered.", "count", len(modules), "node_types", len(reg.Types()))

	promReg := prometheus.NewRegistry()
	collector := &diag.Collector{}
	sink := diag.Tee(collector, diag.LogSink{})
	if cfg.Cook {
		sink = diag.Cook(sink)
	}
	return &App{
		ctx:      ctx,
		logger:   logger,
		config:   cfg,
		fs:       fs,
		registry: reg,
		promReg:  promReg,
		metrics:  metrics.New(promReg),
		diags:    collector,
		sink:     sink,
	}, nil
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry { return a.registry }

// Library returns the loaded assets, or nil before Load.
func (a *App) Library() *model.Library { return a.library }

// Diagnostics returns every diagnostic reported so far.
func (a *App) Diagnostics() diag.Diagnostics { return a.diags.Diagnostics() }

// Context returns the context carrying the application logger.
func (a *App) Context() context.Context { return a.ctx }

// newEngine creates an engine over the loaded library. The caller closes it.
func (a *App) newEngine(opts compiler.Options) (*engine.Engine, error) {
	if a.library == nil {
		return nil, fmt.Errorf("no graphs loaded")
	}
	return engine.New(a.registry, a.library, engine.Options{
		Workers:           a.config.Workers,
		MaxRecursionDepth: a.config.MaxRecursionDepth,
		Compiler:          opts,
		Sink:              a.sink,
		Metrics:           a.metrics,
	}), nil
}

// Close stops the healthcheck server.
func (a *App) Close() error {
	return a.closeHealthCheckServer()
}
