package integration_tests

import (
	"context"
	"testing"
	"time"

	"github.com/specialistvlad/voxelflow/internal/app"
	"github.com/specialistvlad/voxelflow/internal/pintype"
	"github.com/specialistvlad/voxelflow/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test for: linked inputs of a node are computed in parallel, and the node
// waits for all of them.
func TestDagConcurrency_FanInSynchronization(t *testing.T) {
	// --- Arrange ---
	graph := `
asset "fan" {
  terminal "main" {
    output "sum" { type = float }

    node "Probe" "a" { In = 1 }
    node "Probe" "b" { In = 2 }
    node "Probe" "c" { In = 3 }
    node "Add" "sum" {
      variadic = { Values = 3 }
      Values_0 = node.a.Out
      Values_1 = node.b.Out
      Values_2 = node.c.Out
    }
    node "Output" "sum" {
      properties = { output = "sum" }
      Value      = node.sum.Result
    }
  }
}
`
	probe := &testutil.ProbeModule{Delay: 100 * time.Millisecond}
	res := testutil.LoadApp(t, map[string]string{"fan.hcl": graph}, nil, append(app.CoreModules(), probe)...)
	require.NoError(t, res.Err)

	// --- Act ---
	out, err := res.App.Eval(context.Background(), app.EvalRequest{Asset: "fan"})

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, 6.0, pintype.AsFloat(out["sum"]))

	records := probe.All()
	require.Len(t, records, 3)
	var latestStart, earliestEnd time.Time
	for ref, rs := range records {
		require.Len(t, rs, 1, ref)
		if rs[0].Start.After(latestStart) {
			latestStart = rs[0].Start
		}
		if earliestEnd.IsZero() || rs[0].End.Before(earliestEnd) {
			earliestEnd = rs[0].End
		}
	}
	assert.True(t, latestStart.Before(earliestEnd), "probes should overlap: last start %v, first end %v", latestStart, earliestEnd)
}
