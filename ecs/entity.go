package ecs

import "fmt"

// Handle identifies an element of a SlotStorage. The lower 32 bits hold the
// slot index and the upper 32 bits the generation the slot had when the
// element was inserted.
type Handle uint64

// NewHandle creates a Handle from a slot index and generation
func NewHandle(index uint32, generation uint32) Handle {
	return Handle(uint64(generation)<<32 | uint64(index))
}

// Index extracts the slot index from the handle
func (h Handle) Index() uint32 {
	return uint32(h & 0xFFFFFFFF)
}

// Generation extracts the generation from the handle
func (h Handle) Generation() uint32 {
	return uint32(h >> 32)
}

// IsZero reports whether h is the zero handle. Generation 0 is never issued,
// so the zero handle never refers to a live element.
func (h Handle) IsZero() bool {
	return h == 0
}

func (h Handle) String() string {
	return fmt.Sprintf("%d@%d", h.Index(), h.Generation())
}

// EntityId is a handle into the storage's entity slots. Component pools are
// keyed by the entity index, so a lookup is a single indirection once the
// generation has been checked.
type EntityId Handle

// NoEntity is the zero EntityId. It never resolves.
const NoEntity EntityId = 0

// Index extracts the entity index from the entity ID
func (e EntityId) Index() uint32 {
	return Handle(e).Index()
}

// Generation extracts the entity generation from the entity ID
func (e EntityId) Generation() uint32 {
	return Handle(e).Generation()
}

// IsZero reports whether e is NoEntity.
func (e EntityId) IsZero() bool {
	return e == NoEntity
}

func (e EntityId) String() string {
	return "entity(" + Handle(e).String() + ")"
}
