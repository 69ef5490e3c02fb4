package fsutil

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindFilesByExtension(t *testing.T) {
	fs := afero.NewMemMapFs()
	for _, p := range []string{"/g/b.hcl", "/g/a.hcl", "/g/sub/c.yaml", "/g/readme.md", "/single.hcl"} {
		require.NoError(t, afero.WriteFile(fs, p, []byte("x"), 0o644))
	}

	testCases := []struct {
		name  string
		paths []string
		exts  []string
		want  []string
	}{
		{"directory", []string{"/g"}, []string{".hcl"}, []string{"/g/a.hcl", "/g/b.hcl"}},
		{"many extensions", []string{"/g"}, []string{".hcl", ".yaml"}, []string{"/g/a.hcl", "/g/b.hcl", "/g/sub/c.yaml"}},
		{"file and duplicates", []string{"/single.hcl", "/single.hcl", "/g/a.hcl", "/g"}, []string{".hcl"}, []string{"/g/a.hcl", "/g/b.hcl", "/single.hcl"}},
		{"missing path", []string{"/nope"}, []string{".hcl"}, nil},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := FindFilesByExtension(fs, tc.paths, tc.exts...)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	assert.Panics(t, func() { _, _ = FindFilesByExtension(fs, []string{"/g"}) })
}
