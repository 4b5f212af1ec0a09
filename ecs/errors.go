package ecs

import "github.com/rotisserie/eris"

var (
	// ErrStaleHandle is returned when a handle's generation no longer matches its slot.
	ErrStaleHandle = eris.New("stale handle")
	// ErrDuplicateComponent is raised when adding a component type an entity already holds.
	ErrDuplicateComponent = eris.New("duplicate component")
	// ErrMissingComponent is raised when removing a component type an entity does not hold.
	ErrMissingComponent = eris.New("missing component")
	// ErrUnregisteredComponent is raised when a component type is used with a storage whose
	// registry does not know it.
	ErrUnregisteredComponent = eris.New("unregistered component")
	// ErrUnresolvedLink is returned when a parent or entity link points at a dead entity.
	ErrUnresolvedLink = eris.New("unresolvable entity link")
	// ErrUndeclaredAccess is raised when a row accessor reads or writes a component its
	// view did not declare.
	ErrUndeclaredAccess = eris.New("undeclared component access")
	// ErrStructuralChange is raised when entities or components are created or destroyed
	// directly while systems run in parallel.
	ErrStructuralChange = eris.New("structural change during parallel dispatch")
	// ErrHierarchyCycle is returned when SetParent would make an entity its own ancestor.
	ErrHierarchyCycle = eris.New("hierarchy cycle")
)
