package ecs_test

import (
	"fmt"

	"github.com/plus3/ecsrt/ecs"
)

type GameClock struct {
	Elapsed float64
	Paused  bool
}

type ClockSystem struct {
	Tracked ecs.Query[struct{ *Hitpoints }]
	Clock   ecs.Singleton[GameClock]
}

func (s *ClockSystem) Priority() ecs.TickOrder { return ecs.TickFirst }

func (s *ClockSystem) Process(frame *ecs.UpdateFrame) {
	clock := s.Clock.Get()
	if !clock.Paused {
		clock.Elapsed += frame.DeltaTime
	}
}

// ExampleSingleton threads world-wide state through the storage instead of
// a package global. Singleton fields on systems are bound on Register.
func ExampleSingleton() {
	registry := ecs.NewComponentRegistry()
	ecs.RegisterComponent[Hitpoints](registry)
	storage := ecs.NewStorage(registry)

	clock := ecs.NewSingleton(storage, GameClock{})

	scheduler := ecs.NewScheduler(storage)
	scheduler.Register(&ClockSystem{})

	scheduler.Once(0.5)
	scheduler.Once(0.5)
	clock.Get().Paused = true
	scheduler.Once(0.5)

	fmt.Printf("elapsed %.1f\n", clock.Get().Elapsed)

	// Output:
	// elapsed 1.0
}
