package ecs

import "unsafe"

// iComponentPool is the type-erased face of a componentPool. Storage keeps one
// per registered ComponentId and never needs the element type to move,
// remove or inspect components.
type iComponentPool interface {
	has(index uint32) bool
	ptr(index uint32) unsafe.Pointer
	value(index uint32) any
	remove(index uint32) bool
	len() int
	keyAt(pos int) uint32
}

// componentPool holds every live T, keyed by the owning entity's index.
type componentPool[T any] struct {
	set sparseSet[T]
}

func (p *componentPool[T]) has(index uint32) bool {
	return p.set.has(index)
}

func (p *componentPool[T]) ptr(index uint32) unsafe.Pointer {
	return unsafe.Pointer(p.set.get(index))
}

// value returns the component as a *T boxed in an interface, for tooling.
func (p *componentPool[T]) value(index uint32) any {
	if v := p.set.get(index); v != nil {
		return v
	}
	return nil
}

func (p *componentPool[T]) remove(index uint32) bool {
	return p.set.remove(index)
}

func (p *componentPool[T]) len() int {
	return p.set.len()
}

func (p *componentPool[T]) keyAt(pos int) uint32 {
	return p.set.keyAt(pos)
}
