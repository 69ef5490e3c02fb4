package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/specialistvlad/voxelflow/internal/ctxlog"
	"github.com/specialistvlad/voxelflow/internal/instance"
	"github.com/specialistvlad/voxelflow/internal/model"
	"github.com/specialistvlad/voxelflow/internal/nodeid"
	"github.com/specialistvlad/voxelflow/internal/query"
	"github.com/zclconf/go-cty/cty"
)

type paramKey struct {
	path string
	guid uuid.UUID
}

// parameterStore holds values set on instance parameter paths. Every
// (path, guid) pair has its own dependency so that setting one parameter
// only drops the values computed from it.
type parameterStore struct {
	mu     sync.Mutex
	values map[paramKey]cty.Value
	deps   map[paramKey]*query.Dependency
}

func newParameterStore() *parameterStore {
	return &parameterStore{
		values: make(map[paramKey]cty.Value),
		deps:   make(map[paramKey]*query.Dependency),
	}
}

func (s *parameterStore) dep(k paramKey) *query.Dependency {
	d, ok := s.deps[k]
	if !ok {
		d = query.NewDependency(fmt.Sprintf("parameter %s/%s", k.path, k.guid))
		s.deps[k] = d
	}
	return d
}

func (s *parameterStore) get(path string, guid uuid.UUID) (cty.Value, bool, *query.Dependency) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := paramKey{path, guid}
	v, ok := s.values[k]
	return v, ok, s.dep(k)
}

func (s *parameterStore) set(path string, guid uuid.UUID, v cty.Value) {
	s.mu.Lock()
	k := paramKey{path, guid}
	if v == cty.NilVal {
		delete(s.values, k)
	} else {
		s.values[k] = v
	}
	d := s.dep(k)
	s.mu.Unlock()
	d.Invalidate()
}

// SetParameter stores a parameter value for the instance at path. The root
// instance of an asset has the asset name as its path; called graphs use
// the address of the calling node. A nil value clears the stored value.
func (e *Engine) SetParameter(ctx context.Context, path, name string, v cty.Value) error {
	pp, err := nodeid.ParseParameterPath(path)
	if err != nil {
		return fmt.Errorf("invalid parameter path: %w", err)
	}
	asset, err := e.assetAt(pp)
	if err != nil {
		return err
	}
	d, ok := e.parameterByName(asset, name)
	if !ok {
		return fmt.Errorf("asset %q has no parameter %q", asset, name)
	}
	if v != cty.NilVal {
		if v, err = d.Type.Convert(v); err != nil {
			return fmt.Errorf("parameter %q: %w", name, err)
		}
	}
	return e.serial.Do(ctx, func(ctx context.Context) error {
		e.params.set(pp.String(), d.Guid, v)
		ctxlog.FromContext(ctx).Debug("Parameter set.", "path", pp.String(), "parameter", name)
		return nil
	})
}

// assetAt finds the asset of the instance at path. Called graphs are looked
// up under the roots of the outermost frame's asset.
func (e *Engine) assetAt(path nodeid.ParameterPath) (string, error) {
	if path.IsRoot() {
		if _, ok := e.lib.Asset(path.Root); ok {
			return path.Root, nil
		}
		return "", fmt.Errorf("no instance at parameter path %q", path)
	}
	want := path.String()
	for _, r := range e.rootsOf(path.Root) {
		if in := findPath(r, want); in != nil {
			return in.Asset(), nil
		}
	}
	return "", fmt.Errorf("no instance at parameter path %q", path)
}

func (e *Engine) rootsOf(asset string) []*instance.Instance {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []*instance.Instance
	for key, r := range e.roots {
		if key.asset == asset {
			out = append(out, r)
		}
	}
	return out
}

func findPath(in *instance.Instance, path string) *instance.Instance {
	if in.ParameterPath() == path {
		return in
	}
	for _, c := range in.Children() {
		if found := findPath(c, path); found != nil {
			return found
		}
	}
	return nil
}

func (e *Engine) parameterByName(asset, name string) (*model.Declaration, bool) {
	for _, a := range e.lib.BaseChain(asset) {
		snap, _ := a.Snapshot()
		if d, ok := model.FindDeclByName(snap.Parameters, name); ok {
			return d, true
		}
	}
	return nil, false
}
