package hcl_adapter

import (
	"context"
	"fmt"
	"slices"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/samber/lo"
	"github.com/specialistvlad/voxelflow/internal/config"
	"github.com/specialistvlad/voxelflow/internal/ctxlog"
	"github.com/specialistvlad/voxelflow/internal/fsutil"
	"github.com/specialistvlad/voxelflow/internal/model"
	"github.com/spf13/afero"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct{}

var _ config.Loader = (*Loader)(nil)

// NewLoader creates a new HCL graph loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Extensions implements config.Loader.
func (l *Loader) Extensions() []string { return []string{".hcl"} }

// Load orchestrates the entire HCL loading process. Any file may define any
// number of assets; an asset defined twice is an error.
func (l *Loader) Load(ctx context.Context, fs afero.Fs, paths ...string) (*model.Library, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	hclFiles, err := fsutil.FindFilesByExtension(fs, paths, l.Extensions()...)
	if err != nil {
		return nil, err
	}
	logger.Debug("Discovered HCL files.", "count", len(hclFiles))

	lib := model.NewLibrary()
	parser := hclparse.NewParser()

	for _, file := range hclFiles {
		src, err := afero.ReadFile(fs, file)
		if err != nil {
			return nil, fmt.Errorf("failed to read HCL file %s: %w", file, err)
		}
		if err := l.loadSource(ctx, parser, lib, src, file); err != nil {
			return nil, err
		}
	}

	logger.Debug("HCL loading complete.", "assets", len(lib.Names()))
	return lib, nil
}

// LoadSource parses a single in-memory HCL document.
func (l *Loader) LoadSource(ctx context.Context, src []byte, filename string) (*model.Library, error) {
	lib := model.NewLibrary()
	if err := l.loadSource(ctx, hclparse.NewParser(), lib, src, filename); err != nil {
		return nil, err
	}
	return lib, nil
}

func (l *Loader) loadSource(ctx context.Context, parser *hclparse.Parser, lib *model.Library, src []byte, file string) error {
	hclFile, diags := parser.ParseHCL(src, file)
	if diags.HasErrors() {
		return fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
	}

	var root fileRoot
	diags = gohcl.DecodeBody(hclFile.Body, nil, &root)
	if diags.HasErrors() {
		return fmt.Errorf("failed to decode HCL file %s: %w", file, diags)
	}
	if attrs, _ := root.Remain.JustAttributes(); len(attrs) > 0 {
		names := lo.Keys(attrs)
		slices.Sort(names)
		return fmt.Errorf("%s: unexpected top-level attributes %v", file, names)
	}

	for _, ab := range root.Assets {
		if _, dup := lib.Asset(ab.Name); dup {
			return fmt.Errorf("%s: asset %q is defined more than once", file, ab.Name)
		}
		asset, err := l.translateAsset(ctx, ab, file)
		if err != nil {
			return fmt.Errorf("%s: %w", file, err)
		}
		lib.Add(asset)
	}
	return nil
}
