package cql

import (
	"iter"
	"strings"

	"github.com/plus3/ecsrt/ecs"
)

// Filter is a compiled predicate over an entity's component mask.
type Filter interface {
	Match(mask ecs.Mask) bool
	String() string
}

type allFilter struct{}

func (allFilter) Match(ecs.Mask) bool { return true }
func (allFilter) String() string      { return "ALL()" }

type exactFilter struct {
	mask  ecs.Mask
	names []string
}

func (f exactFilter) Match(mask ecs.Mask) bool { return mask == f.mask }
func (f exactFilter) String() string           { return "EXACT(" + strings.Join(f.names, ", ") + ")" }

type containsFilter struct {
	mask  ecs.Mask
	names []string
}

func (f containsFilter) Match(mask ecs.Mask) bool { return mask.Contains(f.mask) }
func (f containsFilter) String() string           { return "CONTAINS(" + strings.Join(f.names, ", ") + ")" }

type notFilter struct {
	inner Filter
}

func (f notFilter) Match(mask ecs.Mask) bool { return !f.inner.Match(mask) }
func (f notFilter) String() string           { return "!(" + f.inner.String() + ")" }

type andFilter struct {
	left, right Filter
}

func (f andFilter) Match(mask ecs.Mask) bool { return f.left.Match(mask) && f.right.Match(mask) }
func (f andFilter) String() string           { return "(" + f.left.String() + " & " + f.right.String() + ")" }

type orFilter struct {
	left, right Filter
}

func (f orFilter) Match(mask ecs.Mask) bool { return f.left.Match(mask) || f.right.Match(mask) }
func (f orFilter) String() string           { return "(" + f.left.String() + " | " + f.right.String() + ")" }

// Search yields every live entity of storage whose mask matches filter.
func Search(storage *ecs.Storage, filter Filter) iter.Seq[ecs.EntityId] {
	return func(yield func(ecs.EntityId) bool) {
		for e := range storage.Entities() {
			mask, ok := storage.Mask(e)
			if !ok || !filter.Match(mask) {
				continue
			}
			if !yield(e) {
				return
			}
		}
	}
}
