package ecs

// EntityLink is a named reference from one entity to another, stored as a
// component field. It is resolved against the storage on every read and
// never owns its target: once the target is destroyed the link resolves to
// NoEntity.
type EntityLink struct {
	Name   string   `json:"name,omitempty" yaml:"name,omitempty"`
	Target EntityId `json:"-" yaml:"-"`
}

// LinkTo returns a link to e.
func LinkTo(e EntityId) EntityLink {
	return EntityLink{Target: e}
}

// Resolve returns the linked entity if it is still alive.
func (l EntityLink) Resolve(s *Storage) (EntityId, bool) {
	if l.Target.IsZero() || !s.Alive(l.Target) {
		return NoEntity, false
	}
	return l.Target, true
}

// IsSet reports whether the link has been pointed at an entity.
func (l EntityLink) IsSet() bool {
	return !l.Target.IsZero()
}
