package testutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/specialistvlad/voxelflow/internal/app"
	"github.com/specialistvlad/voxelflow/internal/registry"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

// GraphDir is where WriteFiles puts graph files.
const GraphDir = "/graphs"

// HarnessResult holds the outcome of loading graphs into an App.
type HarnessResult struct {
	LogOutput *SafeBuffer
	Err       error
	App       *app.App
}

// WriteFiles writes files, keyed by path relative to GraphDir, into a new
// in-memory filesystem.
func WriteFiles(t *testing.T, files map[string]string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	for name, content := range files {
		path := filepath.Join(GraphDir, name)
		require.NoError(t, fs.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o644))
	}
	return fs
}

// LoadApp creates an App over files and loads them. configure may adjust
// the configuration before validation. Without modules the built-in node
// libraries are used.
func LoadApp(t *testing.T, files map[string]string, configure func(*app.Config), modules ...registry.Module) *HarnessResult {
	t.Helper()
	cfg := app.Config{
		GraphPath: GraphDir,
		LogLevel:  "debug",
		LogFormat: "text",
		Workers:   4,
	}
	if configure != nil {
		configure(&cfg)
	}
	validated, err := app.NewConfig(cfg)
	require.NoError(t, err)

	logs := &SafeBuffer{}
	t.Cleanup(func() {
		if os.Getenv("VOXELFLOW_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logs.String())
		}
	})

	a, err := app.NewApp(logs, validated, WriteFiles(t, files), modules...)
	if err != nil {
		return &HarnessResult{LogOutput: logs, Err: err}
	}
	t.Cleanup(func() { _ = a.Close() })
	return &HarnessResult{
		LogOutput: logs,
		Err:       a.Load(context.Background()),
		App:       a,
	}
}
