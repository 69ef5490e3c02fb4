package model

import (
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// MainTerminal is the conventional name of an asset's entry terminal.
const MainTerminal = "main"

// Terminal is one compilable sub-graph of an asset.
type Terminal struct {
	Guid uuid.UUID
	Name string
	// Function terminals are called from within their asset and declare
	// their own inputs.
	Function bool
	Inputs   []*Declaration
	Outputs  []*Declaration
	Nodes    []*Node
}

// Node looks an authored node up by name.
func (t *Terminal) Node(name string) (*Node, bool) {
	return lo.Find(t.Nodes, func(n *Node) bool { return n.Name == name })
}

// Output looks an output declaration up by name.
func (t *Terminal) Output(name string) (*Declaration, bool) {
	return FindDeclByName(t.Outputs, name)
}

// Asset is a graph asset.
type Asset struct {
	Name string
	// Base names the asset this one inherits parameter defaults from.
	Base       string
	Parameters []*Declaration
	Inputs     []*Declaration
	Terminals  []*Terminal
	Main       string
	// Source is the file the asset was loaded from, for diagnostics.
	Source string

	mu       sync.RWMutex
	revision atomic.Uint64
}

// Revision is bumped by every mutation of the asset.
func (a *Asset) Revision() uint64 { return a.revision.Load() }

// Touch bumps the revision after an out-of-band mutation.
func (a *Asset) Touch() uint64 { return a.revision.Add(1) }

// Terminal looks a terminal up by name.
func (a *Asset) Terminal(name string) (*Terminal, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return lo.Find(a.Terminals, func(t *Terminal) bool { return t.Name == name })
}

// TerminalByGuid looks a terminal up by guid.
func (a *Asset) TerminalByGuid(guid uuid.UUID) (*Terminal, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return lo.Find(a.Terminals, func(t *Terminal) bool { return t.Guid == guid })
}

// MainTerminal returns the entry terminal.
func (a *Asset) MainTerminal() (*Terminal, bool) {
	name := a.Main
	if name == "" {
		name = MainTerminal
	}
	return a.Terminal(name)
}

// Parameter returns a copy of the parameter declaration with guid.
func (a *Asset) Parameter(guid uuid.UUID) (*Declaration, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	d, ok := FindDecl(a.Parameters, guid)
	if !ok {
		return nil, false
	}
	c := *d
	return &c, true
}

// SetNode adds or replaces an authored node of a terminal.
func (a *Asset) SetNode(terminal string, n *Node) error {
	t, ok := a.Terminal(terminal)
	if !ok {
		return fmt.Errorf("asset %q has no terminal %q", a.Name, terminal)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if i := slices.IndexFunc(t.Nodes, func(m *Node) bool { return m.Name == n.Name }); i >= 0 {
		t.Nodes[i] = n
	} else {
		t.Nodes = append(t.Nodes, n)
	}
	a.revision.Add(1)
	return nil
}

// RemoveNode deletes an authored node. Links pointing at it are left in
// place and surface as serializer diagnostics.
func (a *Asset) RemoveNode(terminal, name string) error {
	t, ok := a.Terminal(terminal)
	if !ok {
		return fmt.Errorf("asset %q has no terminal %q", a.Name, terminal)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	before := len(t.Nodes)
	t.Nodes = slices.DeleteFunc(t.Nodes, func(m *Node) bool { return m.Name == name })
	if len(t.Nodes) == before {
		return fmt.Errorf("terminal %q has no node %q", terminal, name)
	}
	a.revision.Add(1)
	return nil
}

// SetPin assigns an input pin of an authored node.
func (a *Asset) SetPin(terminal, node, pin string, assign *PinAssign) error {
	t, ok := a.Terminal(terminal)
	if !ok {
		return fmt.Errorf("asset %q has no terminal %q", a.Name, terminal)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	n, ok := t.Node(node)
	if !ok {
		return fmt.Errorf("terminal %q has no node %q", terminal, node)
	}
	if assign == nil {
		delete(n.Pins, pin)
	} else {
		n.Pins[pin] = assign
	}
	a.revision.Add(1)
	return nil
}

// SetParameterDefault changes the declared default of a parameter.
func (a *Asset) SetParameterDefault(name string, assign *PinAssign) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	d, ok := FindDeclByName(a.Parameters, name)
	if !ok {
		return fmt.Errorf("asset %q has no parameter %q", a.Name, name)
	}
	if assign == nil || assign.Link != nil {
		return fmt.Errorf("parameter %q: default must be a literal", name)
	}
	v, err := d.Type.Convert(assign.Value)
	if err != nil {
		return fmt.Errorf("parameter %q: %w", name, err)
	}
	d.Default = v
	a.revision.Add(1)
	return nil
}

// Library is the set of assets known to the process.
type Library struct {
	mu     sync.RWMutex
	assets map[string]*Asset
}

// NewLibrary returns an empty library.
func NewLibrary() *Library {
	return &Library{assets: make(map[string]*Asset)}
}

// Add registers an asset, replacing one with the same name.
func (l *Library) Add(a *Asset) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if old, ok := l.assets[a.Name]; ok {
		a.revision.Store(old.Revision() + 1)
	}
	l.assets[a.Name] = a
}

// Asset looks an asset up by name.
func (l *Library) Asset(name string) (*Asset, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	a, ok := l.assets[name]
	return a, ok
}

// Names returns the asset names in lexical order.
func (l *Library) Names() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	names := lo.Keys(l.assets)
	slices.Sort(names)
	return names
}

// Merge adds every asset of other, failing on duplicate names.
func (l *Library) Merge(other *Library) error {
	for _, name := range other.Names() {
		if _, dup := l.Asset(name); dup {
			return fmt.Errorf("asset %q is defined more than once", name)
		}
		a, _ := other.Asset(name)
		l.Add(a)
	}
	return nil
}

// BaseChain returns the asset followed by its bases, nearest first. Cycles
// in the base relation are cut at the first repeated asset.
func (l *Library) BaseChain(name string) []*Asset {
	var chain []*Asset
	seen := make(map[string]bool)
	for name != "" && !seen[name] {
		seen[name] = true
		a, ok := l.Asset(name)
		if !ok {
			break
		}
		chain = append(chain, a)
		name = a.Base
	}
	return chain
}

// Derived returns the names of assets whose base chain contains name.
func (l *Library) Derived(name string) []string {
	var out []string
	for _, other := range l.Names() {
		if other == name {
			continue
		}
		for _, a := range l.BaseChain(other)[1:] {
			if a.Name == name {
				out = append(out, other)
				break
			}
		}
	}
	return out
}

// Snapshot returns a deep copy of the asset taken under the read lock,
// together with the revision it reflects.
func (a *Asset) Snapshot() (*Asset, uint64) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	c := &Asset{
		Name:       a.Name,
		Base:       a.Base,
		Parameters: cloneDecls(a.Parameters),
		Inputs:     cloneDecls(a.Inputs),
		Main:       a.Main,
		Source:     a.Source,
	}
	for _, t := range a.Terminals {
		ct := &Terminal{
			Guid:     t.Guid,
			Name:     t.Name,
			Function: t.Function,
			Inputs:   cloneDecls(t.Inputs),
			Outputs:  cloneDecls(t.Outputs),
		}
		for _, n := range t.Nodes {
			ct.Nodes = append(ct.Nodes, n.Clone())
		}
		c.Terminals = append(c.Terminals, ct)
	}
	rev := a.revision.Load()
	c.revision.Store(rev)
	return c, rev
}

func cloneDecls(decls []*Declaration) []*Declaration {
	out := make([]*Declaration, len(decls))
	for i, d := range decls {
		cp := *d
		out[i] = &cp
	}
	return out
}
