package ecs

// System represents a behavior that operates on entities with specific components.
// A system struct holds exactly one Query field, initialised when the system
// is registered, plus any Singleton fields and custom state that persists
// between frames.
type System interface {
	Priority() TickOrder
	Process(frame *UpdateFrame)
}
