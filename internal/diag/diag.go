package diag

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/specialistvlad/voxelflow/internal/nodeid"
)

// Severity orders diagnostics from informational to fatal.
type Severity uint8

const (
	Info Severity = iota
	Warning
	Error
)

func (s Severity) String() string {
	switch s {
	case Info:
		return "info"
	case Warning:
		return "warning"
	case Error:
		return "error"
	default:
		return fmt.Sprintf("Severity(%d)", uint8(s))
	}
}

// Diagnostic is one message produced while compiling or evaluating a graph.
type Diagnostic struct {
	Severity Severity
	Summary  string
	Detail   string
	Node     *nodeid.Address
	Pin      string
}

// Location renders the node/pin reference, e.g. `terrain.main.add1:A`.
func (d Diagnostic) Location() string {
	loc := d.Node.String()
	if d.Pin != "" {
		loc += ":" + d.Pin
	}
	return loc
}

func (d Diagnostic) String() string {
	var sb strings.Builder
	sb.WriteString(d.Severity.String())
	sb.WriteString(": ")
	if loc := d.Location(); loc != "" {
		sb.WriteString(loc)
		sb.WriteString(": ")
	}
	sb.WriteString(d.Summary)
	if d.Detail != "" {
		sb.WriteString(" (")
		sb.WriteString(d.Detail)
		sb.WriteString(")")
	}
	return sb.String()
}

// Errorf builds an error-severity diagnostic anchored on a node.
func Errorf(node *nodeid.Address, pin, format string, args ...any) Diagnostic {
	return Diagnostic{Severity: Error, Summary: fmt.Sprintf(format, args...), Node: node, Pin: pin}
}

// Warningf builds a warning-severity diagnostic anchored on a node.
func Warningf(node *nodeid.Address, pin, format string, args ...any) Diagnostic {
	return Diagnostic{Severity: Warning, Summary: fmt.Sprintf(format, args...), Node: node, Pin: pin}
}

// Infof builds an info-severity diagnostic anchored on a node.
func Infof(node *nodeid.Address, pin, format string, args ...any) Diagnostic {
	return Diagnostic{Severity: Info, Summary: fmt.Sprintf(format, args...), Node: node, Pin: pin}
}

// Diagnostics is an ordered list of diagnostics.
type Diagnostics []Diagnostic

// Append adds diagnostics and returns the extended list.
func (ds Diagnostics) Append(more ...Diagnostic) Diagnostics {
	return append(ds, more...)
}

// HasErrors reports whether any diagnostic has error severity.
func (ds Diagnostics) HasErrors() bool {
	for _, d := range ds {
		if d.Severity == Error {
			return true
		}
	}
	return false
}

// Errors returns only the error-severity diagnostics.
func (ds Diagnostics) Errors() Diagnostics {
	var out Diagnostics
	for _, d := range ds {
		if d.Severity == Error {
			out = append(out, d)
		}
	}
	return out
}

// Err folds all error diagnostics into a single error, or nil.
func (ds Diagnostics) Err() error {
	var result *multierror.Error
	for _, d := range ds.Errors() {
		result = multierror.Append(result, diagError{d})
	}
	if result == nil {
		return nil
	}
	result.ErrorFormat = formatErrors
	return result
}

func formatErrors(errs []error) string {
	if len(errs) == 1 {
		return errs[0].Error()
	}
	lines := make([]string, len(errs))
	for i, err := range errs {
		lines[i] = "- " + err.Error()
	}
	return fmt.Sprintf("%d errors:\n%s", len(errs), strings.Join(lines, "\n"))
}

type diagError struct{ d Diagnostic }

func (e diagError) Error() string { return e.d.String() }

// AsDiagnostic recovers the diagnostic behind an error produced by Err.
func AsDiagnostic(err error) (Diagnostic, bool) {
	if de, ok := err.(diagError); ok {
		return de.d, true
	}
	return Diagnostic{}, false
}
