package query

import (
	"sync"

	"github.com/specialistvlad/voxelflow/internal/nodeid"
)

// RuntimeID is a small process-wide id for a (node, pin) pair.
type RuntimeID uint64

var runtimeIDs = struct {
	sync.Mutex
	ids map[string]RuntimeID
}{ids: make(map[string]RuntimeID)}

// Intern returns the id of a pin of the node at ref, allocating it on first
// use. Equal addresses always map to the same id.
func Intern(ref *nodeid.Address, pin string) RuntimeID {
	key := ref.String() + ":" + pin
	runtimeIDs.Lock()
	defer runtimeIDs.Unlock()
	if id, ok := runtimeIDs.ids[key]; ok {
		return id
	}
	id := RuntimeID(len(runtimeIDs.ids) + 1)
	runtimeIDs.ids[key] = id
	return id
}
