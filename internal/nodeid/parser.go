package nodeid

import (
	"fmt"
	"strings"
)

// SyntaxError describes a malformed address or parameter path.
type SyntaxError struct {
	Input  string
	Offset int
	Reason string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%q at offset %d: %s", e.Input, e.Offset, e.Reason)
}

// Parse reads the string form of an address. Names consist of ASCII
// letters, digits, underscores and inner hyphens.
func Parse(s string) (*Address, error) {
	names, err := scan(s)
	if err != nil {
		return nil, err
	}
	return &Address{names: names}, nil
}

// MustParse is like Parse but panics on malformed input.
func MustParse(s string) *Address {
	addr, err := Parse(s)
	if err != nil {
		panic(fmt.Sprintf("nodeid: %v", err))
	}
	return addr
}

func scan(s string) ([]string, error) {
	if s == "" {
		return nil, &SyntaxError{Input: s, Reason: "empty address"}
	}
	var names []string
	start := 0
	for i := 0; i <= len(s); i++ {
		if i < len(s) && s[i] != '.' {
			if !nameByte(s[i], i == start) {
				return nil, &SyntaxError{Input: s, Offset: i, Reason: fmt.Sprintf("unexpected %q", s[i])}
			}
			continue
		}
		if i == start {
			return nil, &SyntaxError{Input: s, Offset: i, Reason: "empty name"}
		}
		if s[i-1] == '-' {
			return nil, &SyntaxError{Input: s, Offset: i - 1, Reason: "name ends with a hyphen"}
		}
		names = append(names, s[start:i])
		start = i + 1
	}
	return names, nil
}

func nameByte(c byte, first bool) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '_':
		return true
	case c == '-':
		return !first
	default:
		return false
	}
}

// Frame is one call site on a parameter path: node Node of terminal
// Terminal of asset Asset.
type Frame struct {
	Asset    string
	Terminal string
	Node     string
}

func (f Frame) String() string { return f.Asset + "." + f.Terminal + "." + f.Node }

// ParameterPath locates an instance in the parameter store. A root instance
// is named by its asset alone. A called graph is named by the call sites
// leading to it, outermost first; function calls add no frame.
type ParameterPath struct {
	Root   string
	Frames []Frame
}

// ParseParameterPath reads `asset` or `asset.terminal.node[.asset.terminal.node...]`.
func ParseParameterPath(s string) (ParameterPath, error) {
	names, err := scan(s)
	if err != nil {
		return ParameterPath{}, err
	}
	if len(names) == 1 {
		return ParameterPath{Root: names[0]}, nil
	}
	if len(names)%3 != 0 {
		offset := len(s)
		if k := len(names) - len(names)%3; k > 0 {
			offset = len(strings.Join(names[:k], ".")) + 1
		}
		return ParameterPath{}, &SyntaxError{Input: s, Offset: offset, Reason: "call frames have the form asset.terminal.node"}
	}
	p := ParameterPath{Root: names[0]}
	for i := 0; i < len(names); i += 3 {
		p.Frames = append(p.Frames, Frame{Asset: names[i], Terminal: names[i+1], Node: names[i+2]})
	}
	return p, nil
}

// IsRoot reports whether the path names a root instance.
func (p ParameterPath) IsRoot() bool { return len(p.Frames) == 0 }

func (p ParameterPath) String() string {
	if p.IsRoot() {
		return p.Root
	}
	parts := make([]string, len(p.Frames))
	for i, f := range p.Frames {
		parts[i] = f.String()
	}
	return strings.Join(parts, ".")
}

// Address returns the address of the innermost calling node, nil for a
// root path.
func (p ParameterPath) Address() *Address {
	if p.IsRoot() {
		return nil
	}
	out := &Address{names: make([]string, 0, 3*len(p.Frames))}
	for _, f := range p.Frames {
		out.names = append(out.names, f.Asset, f.Terminal, f.Node)
	}
	return out
}
