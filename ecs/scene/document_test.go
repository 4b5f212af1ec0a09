package scene_test

import (
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/plus3/ecsrt/ecs/scene"
)

func TestPayloadYAML(t *testing.T) {
	doc := &scene.Document{
		Version: 1,
		Entities: []scene.Entity{{
			Name:       "crate",
			Components: []scene.Component{{Type: "Health", Data: scene.Payload(`{"max":4}`)}},
		}},
	}
	data, err := doc.Encode(scene.FormatYAML)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, yaml.Unmarshal(data, &raw))
	entities := raw["entities"].([]any)
	component := entities[0].(map[string]any)["components"].([]any)[0].(map[string]any)
	assert.Equal(t, map[string]any{"max": 4}, component["data"])

	decoded, err := scene.Decode(data, scene.FormatYAML)
	require.NoError(t, err)
	assert.JSONEq(t, `{"max":4}`, decoded.Entities[0].Components[0].Data.String())
}

func TestPayloadJSONIsCompacted(t *testing.T) {
	doc, err := scene.Decode([]byte(`{
		"version": 1,
		"entities": [{"name": "a", "components": [{"type": "Health", "data": { "max" : 4 }}]}]
	}`), scene.FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, `{"max":4}`, doc.Entities[0].Components[0].Data.String())
	assert.Equal(t, 1, doc.ComponentCount())
}

func TestDecodeErrors(t *testing.T) {
	_, err := scene.Decode([]byte("entities: ["), scene.FormatYAML)
	assert.True(t, eris.Is(err, scene.ErrDecode))

	_, err = scene.Decode([]byte(`{"version": 99}`), scene.FormatJSON)
	assert.True(t, eris.Is(err, scene.ErrDecode))
}

func TestFormatOf(t *testing.T) {
	assert.Equal(t, scene.FormatJSON, scene.FormatOf("a/b/level.JSON"))
	assert.Equal(t, scene.FormatYAML, scene.FormatOf("level.yml"))
	assert.Equal(t, scene.FormatYAML, scene.FormatOf("level"))
}

func TestPayloadYAMLKeepsNumbers(t *testing.T) {
	const data = `{"big":18446744073709551615,"enabled":true,"label":"42","max":1000000,"none":null,"ratio":0.325,"seed":9007199254740993,"tags":["a",1]}`
	doc := &scene.Document{
		Version: 1,
		Entities: []scene.Entity{{
			Name:       "dice",
			Components: []scene.Component{{Type: "Seed", Data: scene.Payload(data)}},
		}},
	}

	encoded, err := doc.Encode(scene.FormatYAML)
	require.NoError(t, err)
	text := string(encoded)
	assert.Contains(t, text, "seed: 9007199254740993")
	assert.Contains(t, text, "big: 18446744073709551615")
	assert.Contains(t, text, "max: 1000000")
	assert.Contains(t, text, "ratio: 0.325")

	decoded, err := scene.Decode(encoded, scene.FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, data, decoded.Entities[0].Components[0].Data.String())
}

func TestPayloadYAMLKeepsAuthoredOrder(t *testing.T) {
	doc, err := scene.Decode([]byte(`
version: 1
entities:
  - name: a
    components:
      - type: Health
        data: {max: 10, current: 1.50, hex: 0x10}
`), scene.FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, `{"max":10,"current":1.50,"hex":16}`, doc.Entities[0].Components[0].Data.String())
}
