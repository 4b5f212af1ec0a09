package transform

import (
	"math"

	"github.com/rotisserie/eris"

	"github.com/plus3/ecsrt/ecs"
	"github.com/plus3/ecsrt/ecs/scene"
)

// Descriptor is the authored form of a Transform. Rotation is in radians,
// as stored at runtime; authors may give RotationDegrees instead, which wins
// when set. Omitted scales default to 1.
type Descriptor struct {
	X               float64  `json:"x,omitempty"`
	Y               float64  `json:"y,omitempty"`
	Rotation        float64  `json:"rotation,omitempty"`
	RotationDegrees *float64 `json:"rotation_deg,omitempty"`
	ScaleX          *float64 `json:"scale_x,omitempty"`
	ScaleY          *float64 `json:"scale_y,omitempty"`
}

// MakeData implements scene.Descriptor.
func (d Descriptor) MakeData() (Transform, error) {
	t := Transform{X: d.X, Y: d.Y, Rotation: d.Rotation, ScaleX: 1, ScaleY: 1}
	if d.RotationDegrees != nil {
		t.Rotation = *d.RotationDegrees * math.Pi / 180
	}
	if d.ScaleX != nil {
		t.ScaleX = *d.ScaleX
	}
	if d.ScaleY != nil {
		t.ScaleY = *d.ScaleY
	}
	for _, v := range []float64{t.X, t.Y, t.Rotation, t.ScaleX, t.ScaleY} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Transform{}, eris.New("transform fields must be finite")
		}
	}
	if t.ScaleX == 0 || t.ScaleY == 0 {
		return Transform{}, eris.New("transform scale cannot be zero")
	}
	return t, nil
}

// Capture converts t back into its authored form. Rotation is written in
// radians so that a reload reproduces it exactly. World is runtime-only.
func Capture(t *Transform) Descriptor {
	d := Descriptor{X: t.X, Y: t.Y, Rotation: t.Rotation}
	if t.ScaleX != 1 && t.ScaleX != 0 {
		sx := t.ScaleX
		d.ScaleX = &sx
	}
	if t.ScaleY != 1 && t.ScaleY != 0 {
		sy := t.ScaleY
		d.ScaleY = &sy
	}
	return d
}

// Bind makes ct loadable from scene documents under the name "Transform".
func Bind(bridge *scene.Bridge, ct ecs.ComponentType[Transform]) {
	scene.Register(bridge, ct, scene.Binding[Transform, Descriptor]{
		Name:    "Transform",
		Capture: Capture,
	})
}
