// Package transform provides a 2D transform component and the system that
// propagates world matrices down the entity hierarchy.
package transform

import (
	"github.com/plus3/ecsrt/ecs"
)

// Transform is an entity's placement relative to its parent. World is
// written by PropagationSystem each tick and holds the placement relative to
// the world origin.
//
// A zero scale is treated as 1, so the zero Transform is the identity.
type Transform struct {
	X, Y           float64
	Rotation       float64
	ScaleX, ScaleY float64

	World Matrix
}

// At returns a Transform positioned at (x, y) with unit scale.
func At(x, y float64) Transform {
	return Transform{X: x, Y: y, ScaleX: 1, ScaleY: 1}
}

// Local returns the matrix mapping the entity's space into its parent's.
func (t Transform) Local() Matrix {
	sx, sy := t.ScaleX, t.ScaleY
	if sx == 0 {
		sx = 1
	}
	if sy == 0 {
		sy = 1
	}
	return Translate(t.X, t.Y).Mul(Rotate(t.Rotation)).Mul(Scale(sx, sy))
}

// WorldPosition returns the entity's origin in world space.
func (t Transform) WorldPosition() (float64, float64) {
	return t.World.Tx, t.World.Ty
}

// Type is Transform registered with ecs.DefaultRegistry.
var Type = ecs.RegisterComponent[Transform](ecs.DefaultRegistry)

// Register registers Transform with a registry other than the default one.
func Register(registry *ecs.ComponentRegistry) ecs.ComponentType[Transform] {
	return ecs.RegisterComponent[Transform](registry)
}
