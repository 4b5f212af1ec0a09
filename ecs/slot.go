package ecs

import (
	"iter"

	"github.com/rotisserie/eris"
)

type slotMeta struct {
	generation uint32
	live       bool
}

// SlotStorage is a generational arena. Insert, Remove and Get are O(1)
// amortized; removed slot indices are recycled through a freelist and their
// generation is bumped so that handles to the old element are detected as
// stale instead of aliasing the new one.
//
// Pointers returned by Get and All are valid until the next Insert or Remove.
type SlotStorage[T any] struct {
	slots  []slotMeta
	free   []uint32
	values sparseSet[T]
}

// NewSlotStorage creates an empty SlotStorage with room for capacity slots.
func NewSlotStorage[T any](capacity int) *SlotStorage[T] {
	return &SlotStorage[T]{
		slots: make([]slotMeta, 0, capacity),
		values: sparseSet[T]{
			sparse: make([]int32, 0, capacity),
			keys:   make([]uint32, 0, capacity),
		},
	}
}

// Insert stores v and returns its handle.
func (s *SlotStorage[T]) Insert(v T) Handle {
	var index uint32
	if n := len(s.free); n > 0 {
		index = s.free[n-1]
		s.free = s.free[:n-1]
	} else {
		index = uint32(len(s.slots))
		s.slots = append(s.slots, slotMeta{generation: 1})
	}

	slot := &s.slots[index]
	slot.live = true
	s.values.insert(index, v)

	return NewHandle(index, slot.generation)
}

// Remove deletes the element referenced by h. It returns false if h is stale.
func (s *SlotStorage[T]) Remove(h Handle) bool {
	if !s.Contains(h) {
		return false
	}

	index := h.Index()
	slot := &s.slots[index]
	slot.live = false
	slot.generation++
	if slot.generation == 0 {
		slot.generation = 1
	}

	s.values.remove(index)
	s.free = append(s.free, index)
	return true
}

// Get returns a pointer to the element referenced by h, or ErrStaleHandle if
// the slot was removed (and possibly reused) since h was issued.
func (s *SlotStorage[T]) Get(h Handle) (*T, error) {
	if !s.Contains(h) {
		return nil, eris.Wrapf(ErrStaleHandle, "slot %s", h)
	}
	return s.values.get(h.Index()), nil
}

// Contains reports whether h refers to a live element.
func (s *SlotStorage[T]) Contains(h Handle) bool {
	if h.IsZero() {
		return false
	}
	index := h.Index()
	if int(index) >= len(s.slots) {
		return false
	}
	slot := s.slots[index]
	return slot.live && slot.generation == h.Generation()
}

// HandleAt returns the current handle for a live slot index.
func (s *SlotStorage[T]) HandleAt(index uint32) (Handle, bool) {
	if int(index) >= len(s.slots) || !s.slots[index].live {
		return 0, false
	}
	return NewHandle(index, s.slots[index].generation), true
}

// Len returns the number of live elements.
func (s *SlotStorage[T]) Len() int {
	return s.values.len()
}

// All iterates live elements in dense order.
func (s *SlotStorage[T]) All() iter.Seq2[Handle, *T] {
	return func(yield func(Handle, *T) bool) {
		for pos := 0; pos < s.values.len(); pos++ {
			index := s.values.keyAt(pos)
			if !yield(NewHandle(index, s.slots[index].generation), s.values.at(pos)) {
				return
			}
		}
	}
}
