package yaml_adapter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/specialistvlad/voxelflow/internal/config"
	"github.com/specialistvlad/voxelflow/internal/ctxlog"
	"github.com/specialistvlad/voxelflow/internal/ctyconv"
	"github.com/specialistvlad/voxelflow/internal/fsutil"
	"github.com/specialistvlad/voxelflow/internal/model"
	"github.com/specialistvlad/voxelflow/internal/pintype"
	"github.com/spf13/afero"
	"github.com/zclconf/go-cty/cty"
	"gopkg.in/yaml.v3"
)

// Loader is the YAML implementation of config.Loader.
type Loader struct{}

var _ config.Loader = (*Loader)(nil)

// NewLoader creates a new YAML graph loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Extensions implements config.Loader.
func (l *Loader) Extensions() []string { return []string{".yaml", ".yml"} }

// Load implements config.Loader.
func (l *Loader) Load(ctx context.Context, fs afero.Fs, paths ...string) (*model.Library, error) {
	logger := ctxlog.FromContext(ctx)
	files, err := fsutil.FindFilesByExtension(fs, paths, l.Extensions()...)
	if err != nil {
		return nil, err
	}
	logger.Debug("Discovered YAML files.", "count", len(files))

	lib := model.NewLibrary()
	for _, file := range files {
		src, err := afero.ReadFile(fs, file)
		if err != nil {
			return nil, fmt.Errorf("failed to read YAML file %s: %w", file, err)
		}
		if err := l.loadSource(ctx, lib, src, file); err != nil {
			return nil, err
		}
	}
	logger.Debug("YAML loading complete.", "assets", len(lib.Names()))
	return lib, nil
}

// LoadSource parses a single in-memory YAML document.
func (l *Loader) LoadSource(ctx context.Context, src []byte, filename string) (*model.Library, error) {
	lib := model.NewLibrary()
	if err := l.loadSource(ctx, lib, src, filename); err != nil {
		return nil, err
	}
	return lib, nil
}

func (l *Loader) loadSource(ctx context.Context, lib *model.Library, src []byte, file string) error {
	dec := yaml.NewDecoder(bytes.NewReader(src))
	dec.KnownFields(true)
	for {
		var root fileRoot
		if err := dec.Decode(&root); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("failed to decode YAML file %s: %w", file, err)
		}
		for _, doc := range root.Assets {
			if _, dup := lib.Asset(doc.Name); dup {
				return fmt.Errorf("%s: asset %q is defined more than once", file, doc.Name)
			}
			a, err := translateAsset(ctx, doc, file)
			if err != nil {
				return fmt.Errorf("%s: %w", file, err)
			}
			lib.Add(a)
		}
	}
}

func translateAsset(ctx context.Context, doc assetDoc, source string) (*model.Asset, error) {
	if doc.Name == "" {
		return nil, errors.New("asset without a name")
	}
	_, logger := ctxlog.With(ctx, "asset", doc.Name)
	a := &model.Asset{Name: doc.Name, Base: doc.Base, Main: doc.Main, Source: source}
	if a.Main == "" {
		a.Main = model.MainTerminal
	}

	var err error
	if a.Parameters, err = translateDecls(doc.Parameters, model.DeclParameter); err != nil {
		return nil, fmt.Errorf("asset %q: %w", doc.Name, err)
	}
	if a.Inputs, err = translateDecls(doc.Inputs, model.DeclInput, doc.Name); err != nil {
		return nil, fmt.Errorf("asset %q: %w", doc.Name, err)
	}

	seen := make(map[string]bool)
	for _, td := range doc.Terminals {
		if seen[td.Name] {
			return nil, fmt.Errorf("asset %q: terminal %q is defined more than once", doc.Name, td.Name)
		}
		seen[td.Name] = true
		t, err := translateTerminal(doc.Name, td)
		if err != nil {
			return nil, fmt.Errorf("asset %q: terminal %q: %w", doc.Name, td.Name, err)
		}
		a.Terminals = append(a.Terminals, t)
	}
	if _, ok := a.MainTerminal(); !ok {
		return nil, fmt.Errorf("asset %q: main terminal %q is not defined", doc.Name, a.Main)
	}
	logger.Debug("Translated asset.", "terminals", len(a.Terminals))
	return a, nil
}

func translateTerminal(asset string, td terminalDoc) (*model.Terminal, error) {
	t := &model.Terminal{Name: td.Name, Function: td.Function}
	guid, err := guidOr(td.Guid, asset, "terminal", td.Name)
	if err != nil {
		return nil, err
	}
	t.Guid = guid
	if len(td.Inputs) > 0 && !td.Function {
		return nil, errors.New("only functions declare inputs, declare graph inputs on the asset")
	}
	if t.Inputs, err = translateDecls(td.Inputs, model.DeclInput, asset, td.Name); err != nil {
		return nil, err
	}
	if t.Outputs, err = translateDecls(td.Outputs, model.DeclOutput, asset, td.Name); err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	for _, nd := range td.Nodes {
		if seen[nd.Name] {
			return nil, fmt.Errorf("node %q is defined more than once", nd.Name)
		}
		seen[nd.Name] = true
		n, err := translateNode(nd)
		if err != nil {
			return nil, fmt.Errorf("node %q: %w", nd.Name, err)
		}
		t.Nodes = append(t.Nodes, n)
	}
	return t, nil
}

func translateDecls(docs []declDoc, kind model.DeclKind, scope ...string) ([]*model.Declaration, error) {
	var out []*model.Declaration
	seen := make(map[string]bool)
	for _, dd := range docs {
		if seen[dd.Name] {
			return nil, fmt.Errorf("%s %q is declared more than once", kind, dd.Name)
		}
		seen[dd.Name] = true

		t := pintype.Float
		if dd.Type != "" {
			var err error
			if t, err = pintype.Parse(dd.Type); err != nil {
				return nil, fmt.Errorf("%s %q: %w", kind, dd.Name, err)
			}
		}
		guid, err := guidOr(dd.Guid, append(scope, string(kind), dd.Name)...)
		if err != nil {
			return nil, fmt.Errorf("%s %q: %w", kind, dd.Name, err)
		}
		d := &model.Declaration{Guid: guid, Name: dd.Name, Kind: kind, Type: t, Default: cty.NilVal, Tooltip: dd.Description}
		if dd.Default != nil {
			if kind == model.DeclOutput {
				return nil, fmt.Errorf("output %q: outputs cannot declare a default", dd.Name)
			}
			raw, err := ctyconv.FromNative(dd.Default)
			if err != nil {
				return nil, fmt.Errorf("invalid default value for %s %q: %w", kind, dd.Name, err)
			}
			if d.Default, err = t.Convert(raw); err != nil {
				return nil, fmt.Errorf("invalid default value for %s %q: %w", kind, dd.Name, err)
			}
		}
		out = append(out, d)
	}
	return out, nil
}

func translateNode(nd nodeDoc) (*model.Node, error) {
	if nd.Type == "" {
		return nil, errors.New("missing type")
	}
	n := model.NewNode(nd.Name, nd.Type)
	for k, v := range nd.Properties {
		cv, err := ctyconv.FromNative(v)
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", k, err)
		}
		n.Properties[k] = cv
	}
	for k, v := range nd.Variadic {
		n.Variadic[k] = v
	}
	for k, src := range nd.Promote {
		t, err := pintype.Parse(src)
		if err != nil {
			return nil, fmt.Errorf("promote %q: %w", k, err)
		}
		n.Promotions[k] = t
	}
	for k, v := range nd.Pins {
		assign, err := translatePinAssign(v, true)
		if err != nil {
			return nil, fmt.Errorf("pin %q: %w", k, err)
		}
		n.Pins[k] = assign
	}
	return n, nil
}

// translatePinAssign recognizes `{link: ...}` and `{members: ...}` mappings.
// Members cannot be split further.
func translatePinAssign(v any, allowMembers bool) (*model.PinAssign, error) {
	if m, ok := v.(map[string]any); ok && len(m) == 1 {
		if raw, ok := m["link"]; ok {
			s, ok := raw.(string)
			if !ok {
				return nil, fmt.Errorf("link must be a string, got %T", raw)
			}
			link, err := parseLink(s)
			if err != nil {
				return nil, err
			}
			return &model.PinAssign{Link: link}, nil
		}
		if raw, ok := m["members"]; ok && allowMembers {
			members, ok := raw.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("members must be a mapping, got %T", raw)
			}
			out := &model.PinAssign{Members: make(map[string]*model.PinAssign, len(members))}
			for name, mv := range members {
				a, err := translatePinAssign(mv, false)
				if err != nil {
					return nil, fmt.Errorf("member %q: %w", name, err)
				}
				out.Members[name] = a
			}
			return out, nil
		}
	}
	cv, err := ctyconv.FromNative(v)
	if err != nil {
		return nil, err
	}
	return model.Literal(cv), nil
}

func parseLink(s string) (*model.LinkRef, error) {
	parts := strings.Split(s, ".")
	if len(parts) < 3 || len(parts) > 4 || parts[0] != "node" {
		return nil, fmt.Errorf("link %q: expected node.<name>.<pin> or node.<name>.<pin>.<member>", s)
	}
	link := &model.LinkRef{Node: parts[1], Pin: parts[2]}
	if len(parts) == 4 {
		link.Member = parts[3]
	}
	return link, nil
}

func guidOr(explicit string, parts ...string) (uuid.UUID, error) {
	if explicit == "" {
		return model.GuidFor(parts...), nil
	}
	guid, err := uuid.Parse(explicit)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid guid: %w", err)
	}
	return guid, nil
}
