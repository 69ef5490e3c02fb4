package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/specialistvlad/voxelflow/internal/app"
	"github.com/specialistvlad/voxelflow/internal/diag"
	"github.com/zclconf/go-cty/cty"
)

var severityColors = map[diag.Severity]*color.Color{
	diag.Info:    color.New(color.FgCyan),
	diag.Warning: color.New(color.FgYellow, color.Bold),
	diag.Error:   color.New(color.FgRed, color.Bold),
}

func success(s string) string {
	return color.New(color.FgGreen).Sprint(s)
}

// printDiagnostics writes one line per diagnostic, the severity colored.
func printDiagnostics(w io.Writer, ds diag.Diagnostics) {
	for _, d := range ds {
		var sb strings.Builder
		if loc := d.Location(); loc != "" {
			sb.WriteString(loc)
			sb.WriteString(": ")
		}
		sb.WriteString(d.Summary)
		if d.Detail != "" {
			fmt.Fprintf(&sb, " (%s)", d.Detail)
		}
		fmt.Fprintf(w, "%s: %s\n", severityColors[d.Severity].Sprint(d.Severity), sb.String())
	}
}

// printResult writes `name = value` lines in name order.
func printResult(w io.Writer, res app.EvalResult) error {
	for _, name := range sortedKeys(res) {
		if _, err := fmt.Fprintf(w, "%s = %s\n", name, formatValue(res[name])); err != nil {
			return err
		}
	}
	return nil
}

// formatValue renders a value as an HCL expression.
func formatValue(v cty.Value) string {
	if v == cty.NilVal {
		return "null"
	}
	return string(hclwrite.TokensForValue(v).Bytes())
}
