package ecs

import (
	"iter"
	"math/bits"
)

// MaxComponents is the number of component types a registry can hold.
const MaxComponents = 256

// Mask is a set of component ids. Each entity carries one describing the
// component types it currently holds.
type Mask [4]uint64

// Set adds id to the mask.
func (m *Mask) Set(id ComponentId) {
	m[id>>6] |= 1 << (id & 63)
}

// Clear removes id from the mask.
func (m *Mask) Clear(id ComponentId) {
	m[id>>6] &^= 1 << (id & 63)
}

// Has reports whether id is in the mask.
func (m Mask) Has(id ComponentId) bool {
	return m[id>>6]&(1<<(id&63)) != 0
}

// Contains reports whether every id in sub is also in m.
func (m Mask) Contains(sub Mask) bool {
	return m[0]&sub[0] == sub[0] &&
		m[1]&sub[1] == sub[1] &&
		m[2]&sub[2] == sub[2] &&
		m[3]&sub[3] == sub[3]
}

// Intersects reports whether m and other share at least one id.
func (m Mask) Intersects(other Mask) bool {
	return m[0]&other[0] != 0 ||
		m[1]&other[1] != 0 ||
		m[2]&other[2] != 0 ||
		m[3]&other[3] != 0
}

// Or returns the union of m and other.
func (m Mask) Or(other Mask) Mask {
	return Mask{m[0] | other[0], m[1] | other[1], m[2] | other[2], m[3] | other[3]}
}

// And returns the ids present in both m and other.
func (m Mask) And(other Mask) Mask {
	return Mask{m[0] & other[0], m[1] & other[1], m[2] & other[2], m[3] & other[3]}
}

// AndNot returns the ids of m that are not in other.
func (m Mask) AndNot(other Mask) Mask {
	return Mask{m[0] &^ other[0], m[1] &^ other[1], m[2] &^ other[2], m[3] &^ other[3]}
}

// Xor returns the ids present in exactly one of m and other.
func (m Mask) Xor(other Mask) Mask {
	return Mask{m[0] ^ other[0], m[1] ^ other[1], m[2] ^ other[2], m[3] ^ other[3]}
}

// IsEmpty reports whether no id is set.
func (m Mask) IsEmpty() bool {
	return m[0]|m[1]|m[2]|m[3] == 0
}

// Count returns the number of ids in the mask.
func (m Mask) Count() int {
	return bits.OnesCount64(m[0]) + bits.OnesCount64(m[1]) + bits.OnesCount64(m[2]) + bits.OnesCount64(m[3])
}

// Ids iterates the ids in ascending order.
func (m Mask) Ids() iter.Seq[ComponentId] {
	return func(yield func(ComponentId) bool) {
		for word, w := range m {
			for w != 0 {
				bit := bits.TrailingZeros64(w)
				if !yield(ComponentId(word<<6 | bit)) {
					return
				}
				w &= w - 1
			}
		}
	}
}
