package transform_test

import (
	"math"
	"testing"

	"github.com/goccy/go-json"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plus3/ecsrt/ecs"
	"github.com/plus3/ecsrt/ecs/scene"
	"github.com/plus3/ecsrt/ecs/transform"
)

const hierarchyYAML = `
version: 1
entities:
  - name: ship
    components:
      - type: Transform
        data: {x: 100, y: 50, rotation_deg: 90}
  - name: turret
    parent: ship
    components:
      - type: Transform
        data: {x: 10, scale_x: 2, scale_y: 2}
`

func TestDescriptorLoadAndPropagate(t *testing.T) {
	registry := ecs.NewComponentRegistry()
	transforms := transform.Register(registry)
	bridge := scene.NewBridge(registry)
	transform.Bind(bridge, transforms)

	doc, err := scene.Decode([]byte(hierarchyYAML), scene.FormatYAML)
	require.NoError(t, err)

	storage := ecs.NewStorage(registry)
	result, err := bridge.Load(storage, doc)
	require.NoError(t, err)
	require.NoError(t, result.Err())

	scheduler := ecs.NewScheduler(storage)
	scheduler.Register(&transform.PropagationSystem{})
	scheduler.Once(0)

	turret, _ := result.Lookup("turret")
	x, y := transforms.Get(storage, turret).WorldPosition()
	assert.InDelta(t, 100, x, 1e-9)
	assert.InDelta(t, 60, y, 1e-9)

	captured, err := bridge.Capture(storage)
	require.NoError(t, err)
	require.Len(t, captured.Entities, 2)
	var ship transform.Descriptor
	require.NoError(t, json.Unmarshal(captured.Entities[0].Components[0].Data, &ship))
	assert.Equal(t, 100.0, ship.X)
	assert.Equal(t, 90*math.Pi/180, ship.Rotation)
	assert.Nil(t, ship.RotationDegrees)
	assert.Nil(t, ship.ScaleX)
	assert.JSONEq(t, `{"x":10,"scale_x":2,"scale_y":2}`, captured.Entities[1].Components[0].Data.String())
}

func TestDescriptorRejectsDegenerateScale(t *testing.T) {
	zero := 0.0
	_, err := transform.Descriptor{ScaleX: &zero}.MakeData()
	assert.Error(t, err)

	registry := ecs.NewComponentRegistry()
	bridge := scene.NewBridge(registry)
	transform.Bind(bridge, transform.Register(registry))

	doc := &scene.Document{Version: 1, Entities: []scene.Entity{{
		Name:       "flat",
		Components: []scene.Component{{Type: "Transform", Data: scene.Payload(`{"scale_y":0}`)}},
	}}}
	result, err := bridge.Load(ecs.NewStorage(registry), doc)
	require.NoError(t, err)
	require.Len(t, result.Failures, 1)
	assert.True(t, eris.Is(result.Failures[0].Err, scene.ErrMakeData))
}

func TestCaptureLoadPreservesRotation(t *testing.T) {
	registry := ecs.NewComponentRegistry()
	transforms := transform.Register(registry)
	bridge := scene.NewBridge(registry)
	transform.Bind(bridge, transforms)

	storage := ecs.NewStorage(registry)
	var originals []ecs.EntityId
	for i := range 200 {
		e := storage.CreateEntity()
		tr := transform.At(float64(i)/3, -float64(i)*0.1)
		tr.Rotation = float64(i) * 0.013
		tr.ScaleX = 1 + float64(i)/7
		transforms.Add(storage, e, tr)
		originals = append(originals, e)
	}

	for _, format := range []scene.Format{scene.FormatJSON, scene.FormatYAML} {
		t.Run(format.String(), func(t *testing.T) {
			doc, err := bridge.Capture(storage, originals...)
			require.NoError(t, err)
			data, err := doc.Encode(format)
			require.NoError(t, err)
			decoded, err := scene.Decode(data, format)
			require.NoError(t, err)

			reloaded := ecs.NewStorage(registry)
			result, err := bridge.Load(reloaded, decoded)
			require.NoError(t, err)
			require.NoError(t, result.Err())
			require.Len(t, result.Entities, len(originals))

			for i, e := range result.Entities {
				want := transforms.Get(storage, originals[i])
				got := transforms.Get(reloaded, e)
				assert.Equal(t, want.Rotation, got.Rotation, "entity %d", i)
				assert.Equal(t, want.X, got.X, "entity %d", i)
				assert.Equal(t, want.Y, got.Y, "entity %d", i)
				assert.Equal(t, want.ScaleX, got.ScaleX, "entity %d", i)
			}
		})
	}
}

func TestRotationDegreesWins(t *testing.T) {
	deg := 180.0
	tr, err := transform.Descriptor{Rotation: 1, RotationDegrees: &deg}.MakeData()
	require.NoError(t, err)
	assert.InDelta(t, math.Pi, tr.Rotation, 1e-12)
}
