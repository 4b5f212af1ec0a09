package ecs

const (
	pageSize  = 64
	noDense   = -1
	pageShift = 6
	pageMask  = pageSize - 1
)

// sparseSet stores values of type T keyed by a uint32 key. Values live in a
// dense sequence of fixed-size pages so that iteration only touches live
// values, and page growth never moves an existing value. Removal swaps the
// last dense value into the hole.
type sparseSet[T any] struct {
	sparse []int32
	keys   []uint32
	pages  []*[pageSize]T
}

func (s *sparseSet[T]) len() int {
	return len(s.keys)
}

func (s *sparseSet[T]) has(key uint32) bool {
	return int(key) < len(s.sparse) && s.sparse[key] != noDense
}

// at returns a pointer to the value at the given dense position.
func (s *sparseSet[T]) at(pos int) *T {
	return &s.pages[pos>>pageShift][pos&pageMask]
}

// keyAt returns the key stored at the given dense position.
func (s *sparseSet[T]) keyAt(pos int) uint32 {
	return s.keys[pos]
}

// get returns a pointer to the value for key, or nil.
func (s *sparseSet[T]) get(key uint32) *T {
	if int(key) >= len(s.sparse) {
		return nil
	}
	pos := s.sparse[key]
	if pos == noDense {
		return nil
	}
	return s.at(int(pos))
}

// insert stores v under key, overwriting an existing value.
func (s *sparseSet[T]) insert(key uint32, v T) *T {
	if int(key) >= len(s.sparse) {
		grow := int(key) + 1 - len(s.sparse)
		for i := 0; i < grow; i++ {
			s.sparse = append(s.sparse, noDense)
		}
	}

	if pos := s.sparse[key]; pos != noDense {
		ptr := s.at(int(pos))
		*ptr = v
		return ptr
	}

	pos := len(s.keys)
	if pos>>pageShift >= len(s.pages) {
		s.pages = append(s.pages, new([pageSize]T))
	}
	s.keys = append(s.keys, key)
	s.sparse[key] = int32(pos)

	ptr := s.at(pos)
	*ptr = v
	return ptr
}

// remove deletes the value for key and reports whether it was present.
func (s *sparseSet[T]) remove(key uint32) bool {
	if !s.has(key) {
		return false
	}

	pos := int(s.sparse[key])
	last := len(s.keys) - 1
	if pos != last {
		lastKey := s.keys[last]
		*s.at(pos) = *s.at(last)
		s.keys[pos] = lastKey
		s.sparse[lastKey] = int32(pos)
	}

	var zero T
	*s.at(last) = zero
	s.keys = s.keys[:last]
	s.sparse[key] = noDense
	return true
}

// clear drops every value but keeps the allocated pages.
func (s *sparseSet[T]) clear() {
	var zero T
	for pos := range s.keys {
		*s.at(pos) = zero
	}
	for _, key := range s.keys {
		s.sparse[key] = noDense
	}
	s.keys = s.keys[:0]
}
