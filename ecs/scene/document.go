package scene

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// CurrentVersion is the document version written by Capture.
const CurrentVersion = 1

// Document is the serialized form of a scene.
type Document struct {
	Version  int               `json:"version" yaml:"version"`
	Name     string            `json:"name,omitempty" yaml:"name,omitempty"`
	Schemas  map[string]Schema `json:"schemas,omitempty" yaml:"schemas,omitempty"`
	Entities []Entity          `json:"entities" yaml:"entities"`
}

// Entity is one entity of a document. Parent refers to another entity of the
// same document by Id or Name.
type Entity struct {
	Id         string      `json:"id,omitempty" yaml:"id,omitempty"`
	Name       string      `json:"name,omitempty" yaml:"name,omitempty"`
	Parent     string      `json:"parent,omitempty" yaml:"parent,omitempty"`
	Components []Component `json:"components,omitempty" yaml:"components,omitempty"`
}

// Component is one descriptor payload of an entity.
type Component struct {
	Type string  `json:"type" yaml:"type"`
	Data Payload `json:"data,omitempty" yaml:"data,omitempty"`
}

// Ref returns the reference other entities use for e: its name if it has
// one, else its id.
func (e Entity) Ref() string {
	if e.Name != "" {
		return e.Name
	}
	return e.Id
}

// ComponentCount returns the total number of component payloads.
func (d *Document) ComponentCount() int {
	n := 0
	for _, e := range d.Entities {
		n += len(e.Components)
	}
	return n
}

// Format is a document encoding.
type Format int

const (
	FormatYAML Format = iota
	FormatJSON
)

func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	default:
		return "yaml"
	}
}

// FormatOf picks the format from a file extension. Anything but .json is
// YAML.
func FormatOf(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatYAML
}

// Decode parses a document.
func Decode(data []byte, format Format) (*Document, error) {
	var doc Document
	var err error
	switch format {
	case FormatJSON:
		err = json.Unmarshal(data, &doc)
	default:
		err = yaml.Unmarshal(data, &doc)
	}
	if err != nil {
		return nil, wrapCause(ErrDecode, err)
	}
	if doc.Version > CurrentVersion {
		return nil, eris.Wrapf(ErrDecode, "document version %d is newer than %d", doc.Version, CurrentVersion)
	}
	return &doc, nil
}

// Encode renders d in format.
func (d *Document) Encode(format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(d, "", "  ")
		return data, eris.Wrap(err, "encode json document")
	default:
		data, err := yaml.Marshal(d)
		return data, eris.Wrap(err, "encode yaml document")
	}
}

// ReadFile reads and decodes the document at path.
func ReadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "read %s", path)
	}
	doc, err := Decode(data, FormatOf(path))
	if err != nil {
		return nil, eris.Wrapf(err, "decode %s", path)
	}
	return doc, nil
}

// WriteFile encodes d in the format implied by path and writes it.
func WriteFile(path string, d *Document) error {
	data, err := d.Encode(FormatOf(path))
	if err != nil {
		return err
	}
	return eris.Wrapf(os.WriteFile(path, data, 0o644), "write %s", path)
}
