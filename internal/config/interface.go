package config

import (
	"context"

	"github.com/specialistvlad/voxelflow/internal/model"
	"github.com/spf13/afero"
)

// Loader is the interface for a format-specific graph loader.
type Loader interface {
	// Load reads every matching file under the given paths and returns the
	// assets they define. Paths that do not exist are skipped.
	Load(ctx context.Context, fs afero.Fs, paths ...string) (*model.Library, error)
	// Extensions lists the file extensions the loader handles, with the
	// leading dot.
	Extensions() []string
}

// MultiLoader dispatches to every loader and merges the results. Defining
// the same asset in two formats is an error.
type MultiLoader []Loader

// Load implements Loader.
func (m MultiLoader) Load(ctx context.Context, fs afero.Fs, paths ...string) (*model.Library, error) {
	lib := model.NewLibrary()
	for _, l := range m {
		part, err := l.Load(ctx, fs, paths...)
		if err != nil {
			return nil, err
		}
		if err := lib.Merge(part); err != nil {
			return nil, err
		}
	}
	return lib, nil
}

// Extensions implements Loader.
func (m MultiLoader) Extensions() []string {
	var out []string
	for _, l := range m {
		out = append(out, l.Extensions()...)
	}
	return out
}
