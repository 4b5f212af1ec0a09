package scene

import (
	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/plus3/ecsrt/ecs"
)

// Capture converts entities of storage into a document. With no entities
// given it captures every entity carrying an Identity. Entities without an
// Identity, or with a nil Identity.Id, are given a fresh id in the document;
// their storage is left untouched. Components without a bound Capture are skipped as runtime-only.
func (b *Bridge) Capture(storage *ecs.Storage, entities ...ecs.EntityId) (*Document, error) {
	if storage.Registry() != b.registry {
		return nil, eris.New("storage uses a different component registry than the bridge")
	}
	if len(entities) == 0 {
		for e := range b.identity.Each(storage) {
			entities = append(entities, e)
		}
	}

	index := make(map[ecs.EntityId]int, len(entities))
	doc := &Document{Version: CurrentVersion, Schemas: make(map[string]Schema)}
	for _, e := range entities {
		if !storage.Alive(e) {
			return nil, eris.Wrapf(ecs.ErrStaleHandle, "capture %v", e)
		}
		de := Entity{Id: uuid.NewString()}
		if identity := b.identity.Get(storage, e); identity != nil {
			if identity.Id != uuid.Nil {
				de.Id = identity.Id.String()
			}
			de.Name = identity.Name
		}
		index[e] = len(doc.Entities)
		doc.Entities = append(doc.Entities, de)
	}

	for i, e := range entities {
		de := &doc.Entities[i]
		if parent, ok := storage.Parent(e); ok {
			if j, captured := index[parent]; captured {
				de.Parent = doc.Entities[j].Ref()
			}
		}

		mask, _ := storage.Mask(e)
		for id := range mask.Ids() {
			bd, ok := b.byId[id]
			if !ok {
				continue
			}
			data, ok, err := bd.capture(storage, e)
			if err != nil {
				return nil, eris.Wrapf(err, "capture %s of %s", bd.name(), de.Ref())
			}
			if !ok {
				continue
			}
			de.Components = append(de.Components, Component{Type: bd.name(), Data: data})
			doc.Schemas[bd.name()] = bd.schema()
		}
	}
	return doc, nil
}
