package ecs_test

import (
	"testing"

	"github.com/plus3/ecsrt/ecs"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Common test component types
type Position struct {
	X, Y float32
}

type Velocity struct {
	DX, DY float32
}

type Name struct {
	Value string
}

type Health struct {
	Current int
	Max     int
}

type Hidden struct{}

type Follow struct {
	Leader ecs.EntityLink
}

type Score int32

// testTypes holds one registry with every test component registered, the
// way a game registers package-level ComponentType variables.
type testTypes struct {
	Registry *ecs.ComponentRegistry
	Position ecs.ComponentType[Position]
	Velocity ecs.ComponentType[Velocity]
	Name     ecs.ComponentType[Name]
	Health   ecs.ComponentType[Health]
	Hidden   ecs.ComponentType[Hidden]
	Follow   ecs.ComponentType[Follow]
	Score    ecs.ComponentType[Score]
}

func newTestTypes() *testTypes {
	registry := ecs.NewComponentRegistry()
	return &testTypes{
		Registry: registry,
		Position: ecs.RegisterComponent[Position](registry),
		Velocity: ecs.RegisterComponent[Velocity](registry),
		Name:     ecs.RegisterComponent[Name](registry),
		Health:   ecs.RegisterComponent[Health](registry),
		Hidden:   ecs.RegisterComponent[Hidden](registry),
		Follow:   ecs.RegisterComponent[Follow](registry),
		Score:    ecs.RegisterComponent[Score](registry),
	}
}

func newTestStorage() (*ecs.Storage, *testTypes) {
	types := newTestTypes()
	return ecs.NewStorage(types.Registry), types
}

// assertViolation runs fn and checks that it panicked with an error wrapping target.
func assertViolation(t *testing.T, target error, fn func()) {
	t.Helper()
	defer func() {
		t.Helper()
		r := recover()
		require.NotNil(t, r, "expected a contract violation")
		err, ok := r.(error)
		require.True(t, ok, "panic value %v is not an error", r)
		assert.True(t, eris.Is(err, target), "got %v", err)
	}()
	fn()
}
