package scene_test

import (
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plus3/ecsrt/ecs"
	"github.com/plus3/ecsrt/ecs/scene"
)

type snapshot struct {
	Sprite *Sprite
	Health *Health
	Leader string
	Parent string
}

// snapshotByName collects the serializable state of every identified entity.
func snapshotByName(f *fixture, storage *ecs.Storage) map[string]snapshot {
	out := map[string]snapshot{}
	for e, identity := range f.bridge.Identity().Each(storage) {
		var s snapshot
		if sprite := f.sprite.Get(storage, e); sprite != nil {
			s.Sprite = &Sprite{Image: sprite.Image, Frame: sprite.Frame}
		}
		if health := f.health.Get(storage, e); health != nil {
			copied := *health
			s.Health = &copied
		}
		if follow := f.follow.Get(storage, e); follow != nil {
			if leader, ok := follow.Leader.Resolve(storage); ok {
				s.Leader = f.bridge.Identity().Get(storage, leader).Name
			}
		}
		if parent, ok := storage.Parent(e); ok {
			s.Parent = f.bridge.Identity().Get(storage, parent).Name
		}
		out[identity.Name] = s
	}
	return out
}

func TestCaptureRoundTrip(t *testing.T) {
	for _, format := range []scene.Format{scene.FormatYAML, scene.FormatJSON} {
		t.Run(format.String(), func(t *testing.T) {
			f := newFixture()
			original := f.storage()
			doc, err := scene.Decode([]byte(levelYAML), scene.FormatYAML)
			require.NoError(t, err)
			_, err = f.bridge.Load(original, doc)
			require.NoError(t, err)

			captured, err := f.bridge.Capture(original)
			require.NoError(t, err)
			assert.Equal(t, scene.CurrentVersion, captured.Version)
			assert.Len(t, captured.Entities, 3)
			assert.Contains(t, captured.Schemas, "Sprite")

			data, err := captured.Encode(format)
			require.NoError(t, err)
			decoded, err := scene.Decode(data, format)
			require.NoError(t, err)

			reloaded := f.storage()
			result, err := f.bridge.Load(reloaded, decoded)
			require.NoError(t, err)
			require.NoError(t, result.Err())
			assert.Empty(t, result.Drift)

			assert.Equal(t, snapshotByName(f, original), snapshotByName(f, reloaded))
		})
	}
}

func TestCaptureSubset(t *testing.T) {
	f := newFixture()
	storage := f.storage()

	parent := storage.CreateEntity()
	f.health.Add(storage, parent, Health{Current: 3, Max: 9})
	child := storage.CreateEntity()
	f.sprite.Add(storage, child, Sprite{Image: "a.png"})
	require.NoError(t, storage.SetParent(child, parent))

	doc, err := f.bridge.Capture(storage, child)
	require.NoError(t, err)
	require.Len(t, doc.Entities, 1)
	assert.NotEmpty(t, doc.Entities[0].Id)
	assert.Empty(t, doc.Entities[0].Parent, "parent outside the capture is dropped")
	assert.False(t, f.bridge.Identity().Has(storage, child), "capture does not mutate storage")

	doc, err = f.bridge.Capture(storage, parent, child)
	require.NoError(t, err)
	assert.Equal(t, doc.Entities[0].Id, doc.Entities[1].Parent)
	assert.JSONEq(t, `{"max":9}`, doc.Entities[0].Components[0].Data.String())

	storage.DestroyEntity(child)
	_, err = f.bridge.Capture(storage, child)
	assert.True(t, eris.Is(err, ecs.ErrStaleHandle))
}

func TestFileRoundTrip(t *testing.T) {
	f := newFixture()
	storage := f.storage()
	doc, err := scene.Decode([]byte(levelYAML), scene.FormatYAML)
	require.NoError(t, err)
	_, err = f.bridge.Load(storage, doc)
	require.NoError(t, err)

	captured, err := f.bridge.Capture(storage)
	require.NoError(t, err)
	captured.Name = "saved"

	dir := t.TempDir()
	for _, name := range []string{"level.yaml", "level.json"} {
		path := filepath.Join(dir, name)
		require.NoError(t, scene.WriteFile(path, captured))

		reloaded := f.storage()
		result, err := f.bridge.LoadFile(reloaded, path)
		require.NoError(t, err, name)
		assert.NoError(t, result.Err(), name)
		assert.Equal(t, 3, reloaded.Count(), name)
	}

	_, err = scene.ReadFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestCaptureNilIdentityIdGetsFreshId(t *testing.T) {
	f := newFixture()
	storage := f.storage()
	for _, name := range []string{"hero", "villain"} {
		e := storage.CreateEntity()
		f.bridge.Identity().Add(storage, e, scene.Identity{Name: name})
		f.health.Add(storage, e, Health{Current: 3, Max: 3})
	}

	doc, err := f.bridge.Capture(storage)
	require.NoError(t, err)
	require.Len(t, doc.Entities, 2)
	assert.NotEqual(t, doc.Entities[0].Id, doc.Entities[1].Id)
	for _, de := range doc.Entities {
		assert.NotEqual(t, uuid.Nil.String(), de.Id)
	}

	reloaded := f.storage()
	result, err := f.bridge.Load(reloaded, doc)
	require.NoError(t, err)
	require.NoError(t, result.Err())
	assert.Len(t, result.Entities, 2)

	got := snapshotByName(f, reloaded)
	assert.Contains(t, got, "hero")
	assert.Contains(t, got, "villain")
}
