package app

import (
	"context"
	"fmt"

	"github.com/specialistvlad/voxelflow/internal/config"
	"github.com/specialistvlad/voxelflow/internal/ctxlog"
	"github.com/specialistvlad/voxelflow/internal/hcl_adapter"
	"github.com/specialistvlad/voxelflow/internal/yaml_adapter"
	"github.com/spf13/afero"
)

// loaderFor returns the loader of an authoring format.
func loaderFor(format string) (config.Loader, error) {
	switch format {
	case "hcl":
		return hcl_adapter.NewLoader(), nil
	case "yaml":
		return yaml_adapter.NewLoader(), nil
	case "auto", "":
		return config.MultiLoader{hcl_adapter.NewLoader(), yaml_adapter.NewLoader()}, nil
	default:
		return nil, fmt.Errorf("unknown graph format %q", format)
	}
}

// Load reads every graph under the configured path.
func (a *App) Load(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading graphs...", "graph_path", a.config.GraphPath, "format", a.config.Format)

	loader, err := loaderFor(a.config.Format)
	if err != nil {
		return err
	}
	if exists, err := afero.Exists(a.fs, a.config.GraphPath); err != nil || !exists {
		return fmt.Errorf("graph path %q does not exist", a.config.GraphPath)
	}
	lib, err := loader.Load(ctx, a.fs, a.config.GraphPath)
	if err != nil {
		return fmt.Errorf("failed to load graphs: %w", err)
	}
	if len(lib.Names()) == 0 {
		logger.Warn("No assets found.", "graph_path", a.config.GraphPath, "extensions", loader.Extensions())
	}
	a.library = lib
	logger.Info("Graphs loaded successfully.", "assets", len(lib.Names()))
	return nil
}
