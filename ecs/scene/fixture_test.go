package scene_test

import (
	"github.com/rotisserie/eris"

	"github.com/plus3/ecsrt/ecs"
	"github.com/plus3/ecsrt/ecs/scene"
)

type Sprite struct {
	Image string
	Frame int

	texture *int
}

type SpriteDescriptor struct {
	Image string `json:"image"`
	Frame int    `json:"frame,omitempty"`
}

func (d SpriteDescriptor) MakeData() (Sprite, error) {
	if d.Image == "" {
		return Sprite{}, eris.New("sprite needs an image")
	}
	return Sprite{Image: d.Image, Frame: d.Frame}, nil
}

type Health struct {
	Current int
	Max     int
}

type HealthDescriptor struct {
	Max int `json:"max"`
}

func (d HealthDescriptor) MakeData() (Health, error) {
	if d.Max <= 0 {
		return Health{}, eris.Errorf("max health must be positive, got %d", d.Max)
	}
	return Health{Current: d.Max, Max: d.Max}, nil
}

type Follow struct {
	Leader ecs.EntityLink
}

type FollowDescriptor struct {
	Leader string `json:"leader"`
}

func (d FollowDescriptor) MakeData() (Follow, error) {
	return Follow{Leader: ecs.EntityLink{Name: d.Leader}}, nil
}

type fixture struct {
	registry *ecs.ComponentRegistry
	bridge   *scene.Bridge
	sprite   ecs.ComponentType[Sprite]
	health   ecs.ComponentType[Health]
	follow   ecs.ComponentType[Follow]

	// images seen by the sprite OnAdded hook
	added []string
}

func newFixture(opts ...scene.BridgeOption) *fixture {
	f := &fixture{registry: ecs.NewComponentRegistry()}
	f.sprite = ecs.RegisterComponent[Sprite](f.registry,
		ecs.OnAdded(func(s *ecs.Storage, e ecs.EntityId, c *Sprite) {
			f.added = append(f.added, c.Image)
			frame := c.Frame
			c.texture = &frame
		}),
	)
	f.health = ecs.RegisterComponent[Health](f.registry)
	f.follow = ecs.RegisterComponent[Follow](f.registry)

	f.bridge = scene.NewBridge(f.registry, opts...)
	scene.Register(f.bridge, f.sprite, scene.Binding[Sprite, SpriteDescriptor]{
		Capture: func(c *Sprite) SpriteDescriptor {
			return SpriteDescriptor{Image: c.Image, Frame: c.Frame}
		},
	})
	scene.Register(f.bridge, f.health, scene.Binding[Health, HealthDescriptor]{
		Capture: func(c *Health) HealthDescriptor {
			return HealthDescriptor{Max: c.Max}
		},
	})
	scene.Register(f.bridge, f.follow, scene.Binding[Follow, FollowDescriptor]{
		Capture: func(c *Follow) FollowDescriptor {
			return FollowDescriptor{Leader: c.Leader.Name}
		},
		PostLoad: func(ctx *scene.LoadContext, e ecs.EntityId, c *Follow, d FollowDescriptor) error {
			if !ctx.Resolve(&c.Leader) {
				return eris.Wrap(ecs.ErrUnresolvedLink, d.Leader)
			}
			return nil
		},
	})
	return f
}

func (f *fixture) storage() *ecs.Storage {
	return ecs.NewStorage(f.registry)
}

const levelYAML = `
version: 1
name: level-1
entities:
  - name: player
    id: 5f0c6f0e-8e3b-4a4f-9a55-0f6f0a9d2c11
    components:
      - type: Sprite
        data:
          image: hero.png
          frame: 2
      - type: Health
        data:
          max: 30
  - name: sword
    parent: player
    components:
      - type: Sprite
        data:
          image: sword.png
  - name: pet
    components:
      - type: Follow
        data:
          leader: player
      - type: Health
        data:
          max: 5
`
