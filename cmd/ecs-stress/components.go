package main

import (
	"math/rand"

	"github.com/plus3/ecsrt/ecs"
	"github.com/plus3/ecsrt/ecs/transform"
)

type Velocity struct {
	DX, DY float64
}

type Acceleration struct {
	AX, AY float64
}

type Health struct {
	Current, Max float64
}

type Damage struct {
	PerSecond float64
}

type Lifetime struct {
	Remaining float64
}

type Sleeping struct{}

var (
	velocityType     = ecs.RegisterComponent[Velocity](ecs.DefaultRegistry)
	accelerationType = ecs.RegisterComponent[Acceleration](ecs.DefaultRegistry)
	healthType       = ecs.RegisterComponent[Health](ecs.DefaultRegistry)
	damageType       = ecs.RegisterComponent[Damage](ecs.DefaultRegistry)
	lifetimeType     = ecs.RegisterComponent[Lifetime](ecs.DefaultRegistry)
	sleepingType     = ecs.RegisterComponent[Sleeping](ecs.DefaultRegistry)
)

// optionalComponents is the pool SpawnRandomEntity draws from. Every entity
// gets a Transform on top of these.
var optionalComponents = []func(*ecs.Storage, ecs.EntityId, *rand.Rand){
	func(s *ecs.Storage, e ecs.EntityId, r *rand.Rand) {
		velocityType.Add(s, e, Velocity{DX: r.Float64()*2 - 1, DY: r.Float64()*2 - 1})
	},
	func(s *ecs.Storage, e ecs.EntityId, r *rand.Rand) {
		accelerationType.Add(s, e, Acceleration{AY: -9.8 * r.Float64()})
	},
	func(s *ecs.Storage, e ecs.EntityId, r *rand.Rand) {
		healthType.Add(s, e, Health{Current: 100, Max: 100})
	},
	func(s *ecs.Storage, e ecs.EntityId, r *rand.Rand) {
		damageType.Add(s, e, Damage{PerSecond: r.Float64() * 5})
	},
	func(s *ecs.Storage, e ecs.EntityId, r *rand.Rand) {
		lifetimeType.Add(s, e, Lifetime{Remaining: 1 + r.Float64()*10})
	},
	func(s *ecs.Storage, e ecs.EntityId, r *rand.Rand) {
		sleepingType.Add(s, e, Sleeping{})
	},
}

// SpawnRandomEntity creates an entity with a Transform and n distinct
// components picked at random.
func SpawnRandomEntity(storage *ecs.Storage, r *rand.Rand, n int) ecs.EntityId {
	e := storage.CreateEntity()
	transform.Type.Add(storage, e, transform.At(r.Float64()*1000, r.Float64()*1000))
	for _, i := range r.Perm(len(optionalComponents))[:min(n, len(optionalComponents))] {
		optionalComponents[i](storage, e, r)
	}
	return e
}

// SpawnHierarchy creates a chain of depth entities, each parented to the
// previous one, and returns the root.
func SpawnHierarchy(storage *ecs.Storage, r *rand.Rand, depth int) ecs.EntityId {
	root := SpawnRandomEntity(storage, r, 1)
	parent := root
	for i := 1; i < depth; i++ {
		child := SpawnRandomEntity(storage, r, 1)
		_ = storage.SetParent(child, parent)
		parent = child
	}
	return root
}
