package app

import (
	"github.com/specialistvlad/voxelflow/internal/corenodes"
	"github.com/specialistvlad/voxelflow/internal/registry"
	"github.com/specialistvlad/voxelflow/modules/expr"
	"github.com/specialistvlad/voxelflow/modules/math"
	"github.com/specialistvlad/voxelflow/modules/spatial"
)

// CoreModules is the definitive list of all node libraries compiled into
// the voxelflow binary.
func CoreModules() []registry.Module {
	return []registry.Module{
		&corenodes.Module{},
		&math.Module{},
		&expr.Module{},
		&spatial.Module{},
	}
}
