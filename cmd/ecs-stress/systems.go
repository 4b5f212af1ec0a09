package main

import (
	"fmt"

	"github.com/plus3/ecsrt/ecs"
	"github.com/plus3/ecsrt/ecs/transform"
)

type IntegrateSystem struct {
	label    string
	priority ecs.TickOrder
	Items    ecs.Query[struct {
		Transform *transform.Transform
		Velocity  *Velocity `ecs:"read"`
		_         ecs.Without[Sleeping]
	}]
}

func (s *IntegrateSystem) Name() string             { return s.label }
func (s *IntegrateSystem) Priority() ecs.TickOrder { return s.priority }

func (s *IntegrateSystem) Process(frame *ecs.UpdateFrame) {
	for _, item := range s.Items.Range() {
		item.Transform.X += item.Velocity.DX * frame.DeltaTime
		item.Transform.Y += item.Velocity.DY * frame.DeltaTime
	}
}

type AccelerateSystem struct {
	label    string
	priority ecs.TickOrder
	Items    ecs.Query[struct {
		Velocity     *Velocity
		Acceleration *Acceleration `ecs:"read"`
	}]
}

func (s *AccelerateSystem) Name() string             { return s.label }
func (s *AccelerateSystem) Priority() ecs.TickOrder { return s.priority }

func (s *AccelerateSystem) Process(frame *ecs.UpdateFrame) {
	for _, item := range s.Items.Range() {
		item.Velocity.DX += item.Acceleration.AX * frame.DeltaTime
		item.Velocity.DY += item.Acceleration.AY * frame.DeltaTime
	}
}

type DamageSystem struct {
	label    string
	priority ecs.TickOrder
	Items    ecs.Query[struct {
		Health *Health
		Damage *Damage `ecs:"read"`
	}]
}

func (s *DamageSystem) Name() string             { return s.label }
func (s *DamageSystem) Priority() ecs.TickOrder { return s.priority }

func (s *DamageSystem) Process(frame *ecs.UpdateFrame) {
	for id, item := range s.Items.Range() {
		item.Health.Current -= item.Damage.PerSecond * frame.DeltaTime
		if item.Health.Current <= 0 {
			frame.Commands.Destroy(id)
		}
	}
}

type LifetimeSystem struct {
	label    string
	priority ecs.TickOrder
	Items    ecs.Query[struct{ Lifetime *Lifetime }]
}

func (s *LifetimeSystem) Name() string             { return s.label }
func (s *LifetimeSystem) Priority() ecs.TickOrder { return s.priority }

// Process recycles expired entities so the population stays level.
func (s *LifetimeSystem) Process(frame *ecs.UpdateFrame) {
	for id, item := range s.Items.Range() {
		item.Lifetime.Remaining -= frame.DeltaTime
		if item.Lifetime.Remaining > 0 {
			continue
		}
		frame.Commands.Destroy(id)
		frame.Commands.Spawn(func(st *ecs.Storage, e ecs.EntityId) {
			transform.Type.Add(st, e, transform.Transform{})
			lifetimeType.Add(st, e, Lifetime{Remaining: 5})
		})
	}
}

type WorldReaderSystem struct {
	label    string
	priority ecs.TickOrder
	sum      float64
	Items    ecs.Query[struct {
		Transform *transform.Transform `ecs:"read"`
		Health    *Health              `ecs:"optional,read"`
	}]
}

func (s *WorldReaderSystem) Name() string             { return s.label }
func (s *WorldReaderSystem) Priority() ecs.TickOrder { return s.priority }

func (s *WorldReaderSystem) Process(frame *ecs.UpdateFrame) {
	s.sum = 0
	for _, item := range s.Items.Range() {
		x, y := item.Transform.WorldPosition()
		s.sum += x + y
		if item.Health != nil {
			s.sum += item.Health.Current
		}
	}
}

// NewSystems builds n systems cycling through the stress system kinds. Each
// kind keeps its own tick band so the ordering between kinds is fixed.
func NewSystems(n int) []ecs.System {
	systems := make([]ecs.System, 0, n+1)
	systems = append(systems, &transform.PropagationSystem{})
	for i := 0; i < n; i++ {
		offset := ecs.TickOrder(i / 5)
		label := func(kind string) string { return fmt.Sprintf("%s-%d", kind, i) }
		switch i % 5 {
		case 0:
			systems = append(systems, &AccelerateSystem{label: label("accelerate"), priority: ecs.TickInput + offset})
		case 1:
			systems = append(systems, &IntegrateSystem{label: label("integrate"), priority: ecs.TickSimulation + offset})
		case 2:
			systems = append(systems, &DamageSystem{label: label("damage"), priority: ecs.TickSimulation + 50 + offset})
		case 3:
			systems = append(systems, &LifetimeSystem{label: label("lifetime"), priority: ecs.TickSimulation + 75 + offset})
		case 4:
			systems = append(systems, &WorldReaderSystem{label: label("reader"), priority: ecs.TickCamera + offset})
		}
	}
	return systems
}
