package transform

import "github.com/plus3/ecsrt/ecs"

// PropagationSystem computes every Transform's World matrix from its local
// placement and its parent's World. Parents are visited before their
// children, so a whole hierarchy settles in a single tick. It runs at
// ecs.TickTransform, ahead of camera, light and render extraction.
type PropagationSystem struct {
	Transforms ecs.Query[struct {
		Transform *Transform
		Parent    *Transform `ecs:"parent"`
	}]
}

func (s *PropagationSystem) Priority() ecs.TickOrder { return ecs.TickTransform }

func (s *PropagationSystem) Process(frame *ecs.UpdateFrame) {
	for _, item := range s.Transforms.Hierarchical() {
		local := item.Transform.Local()
		if item.Parent == nil {
			item.Transform.World = local
			continue
		}
		item.Transform.World = item.Parent.World.Mul(local)
	}
}
