package vm

import "orrery/object"

// GlobalPool is the VM's fixed-size slot vector for global bindings
// (§4.D). Slots are addressed by the 16-bit operand baked into
// LoadGlobal/StoreGlobal instructions, so the pool's size is bounded at
// construction and never grows.
type GlobalPool struct {
	slots []object.Object
}

// NewGlobalPool constructs an empty pool with the given slot capacity.
func NewGlobalPool(size int) *GlobalPool {
	return &GlobalPool{slots: make([]object.Object, size)}
}

// Get reads a global slot by index. An out-of-range index is a
// programming error in the bytecode stream, not a recoverable runtime
// condition, so callers are expected to have validated the index against
// Size beforehand; Get itself returns the no-value sentinel for an
// unset-but-in-range slot.
func (g *GlobalPool) Get(i int) object.Object {
	if i < 0 || i >= len(g.slots) {
		return object.NOVAL
	}
	if g.slots[i] == nil {
		return object.NOVAL
	}
	return g.slots[i]
}

// Set writes a global slot by index, failing with a global-pool-overflow
// error if the index falls outside the pool's fixed capacity.
func (g *GlobalPool) Set(obj object.Object, i int) error {
	if i < 0 || i >= len(g.slots) {
		return NewVMError(GlobalPoolOverflowError, "global index exceeds pool capacity", i)
	}
	g.slots[i] = obj
	return nil
}

// Size reports the pool's fixed capacity.
func (g *GlobalPool) Size() int { return len(g.slots) }

// Snapshot returns a shallow copy of the pool's slots for handing to a
// spawned thread (§5): the spawned worker sees the globals as they stood
// at spawn time and mutates its own copy, never the parent's.
func (g *GlobalPool) Snapshot() []object.Object {
	out := make([]object.Object, len(g.slots))
	copy(out, g.slots)
	return out
}

// NewGlobalPoolFromSnapshot constructs a pool pre-seeded with a
// snapshot taken from another pool, used to hand a spawned thread its
// own independent copy of the parent's globals.
func NewGlobalPoolFromSnapshot(snapshot []object.Object) *GlobalPool {
	slots := make([]object.Object, len(snapshot))
	copy(slots, snapshot)
	return &GlobalPool{slots: slots}
}
