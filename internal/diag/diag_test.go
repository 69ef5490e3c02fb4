package diag

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/specialistvlad/voxelflow/internal/ctxlog"
	"github.com/specialistvlad/voxelflow/internal/nodeid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiagnostics_Err(t *testing.T) {
	node := nodeid.New("terrain", "main", "add1")

	var ds Diagnostics
	assert.NoError(t, ds.Err())

	ds = ds.Append(Warningf(node, "B", "pin is not connected"))
	assert.False(t, ds.HasErrors())
	assert.NoError(t, ds.Err())

	ds = ds.Append(Errorf(node, "A", "type mismatch: %s", "vector"))
	require.True(t, ds.HasErrors())
	err := ds.Err()
	require.Error(t, err)
	assert.Equal(t, "error: terrain.main.add1:A: type mismatch: vector", err.Error())

	ds = ds.Append(Errorf(nodeid.New("terrain", "main", "b"), "", "cycle"))
	assert.Contains(t, ds.Err().Error(), "2 errors:")
	assert.Len(t, ds.Errors(), 2)
}

func TestCook_DowngradesErrors(t *testing.T) {
	c := &Collector{}
	sink := Cook(c)

	sink.Report(context.Background(), Errorf(nil, "", "boom"))
	sink.Report(context.Background(), Infof(nil, "", "fine"))

	got := c.Diagnostics()
	require.Len(t, got, 2)
	assert.Equal(t, Warning, got[0].Severity)
	assert.Equal(t, Info, got[1].Severity)
	assert.False(t, got.HasErrors())
}

func TestLogSink(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	ctx := ctxlog.WithLogger(context.Background(), logger)

	Tee(LogSink{}, Discard).Report(ctx, Errorf(nodeid.New("g", "main", "call"), "", "max recursion depth reached"))
	assert.Contains(t, buf.String(), "level=ERROR")
	assert.Contains(t, buf.String(), "location=g.main.call")
}
