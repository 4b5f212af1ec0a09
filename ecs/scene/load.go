package scene

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/plus3/ecsrt/ecs"
)

// Failure records one entity or component that could not be loaded. The
// rest of the scene is loaded regardless.
type Failure struct {
	Entity    string
	Component string
	Err       error
}

func (f Failure) Error() string {
	if f.Component == "" {
		return fmt.Sprintf("entity %q: %v", f.Entity, f.Err)
	}
	return fmt.Sprintf("entity %q component %s: %v", f.Entity, f.Component, f.Err)
}

func (f Failure) Unwrap() error {
	return f.Err
}

// LoadResult reports what Load created.
type LoadResult struct {
	// Entities holds the created entities in document order.
	Entities []ecs.EntityId
	Failures []Failure
	Drift    []SchemaDrift

	refs map[string]ecs.EntityId
}

// Lookup returns the entity created for a document reference.
func (r *LoadResult) Lookup(ref string) (ecs.EntityId, bool) {
	return lookup(r.refs, ref)
}

// Err joins every failure, or returns nil if the scene loaded cleanly.
func (r *LoadResult) Err() error {
	if len(r.Failures) == 0 {
		return nil
	}
	errs := make([]error, len(r.Failures))
	for i, f := range r.Failures {
		errs[i] = f
	}
	return errors.Join(errs...)
}

// Teardown destroys every entity the load created. There is no rollback on
// failure, so callers that reject a partially loaded scene call this.
func (r *LoadResult) Teardown(storage *ecs.Storage) {
	for _, e := range r.Entities {
		storage.DestroyEntity(e)
	}
	r.Entities = nil
	clear(r.refs)
}

// LoadContext is handed to PostLoad callbacks.
type LoadContext struct {
	storage *ecs.Storage
	refs    map[string]ecs.EntityId
}

// Storage returns the storage being loaded into.
func (c *LoadContext) Storage() *ecs.Storage {
	return c.storage
}

// Lookup resolves a document reference (entity name or id) to the entity
// created for it.
func (c *LoadContext) Lookup(ref string) (ecs.EntityId, bool) {
	return lookup(c.refs, ref)
}

// lookup accepts ids in any case uuid.Parse understands.
func lookup(refs map[string]ecs.EntityId, ref string) (ecs.EntityId, bool) {
	if e, ok := refs[ref]; ok {
		return e, true
	}
	if id, err := uuid.Parse(ref); err == nil {
		e, ok := refs[id.String()]
		return e, ok
	}
	return ecs.NoEntity, false
}

// Resolve points link at the entity named by link.Name. It reports whether
// the name was found; on failure the link is left unset.
func (c *LoadContext) Resolve(link *ecs.EntityLink) bool {
	e, ok := c.Lookup(link.Name)
	if !ok {
		link.Target = ecs.NoEntity
		return false
	}
	link.Target = e
	return true
}

// Load materializes doc into storage. Components are added in file order,
// each one built by its descriptor before it is added; parents are linked
// once every entity exists; PostLoad callbacks run last. Failures of single
// entities or components are collected in the result, and the error is only
// non-nil when the document cannot be used at all.
func (b *Bridge) Load(storage *ecs.Storage, doc *Document) (*LoadResult, error) {
	if storage.Registry() != b.registry {
		return nil, eris.New("storage uses a different component registry than the bridge")
	}
	if doc.Version > CurrentVersion {
		return nil, eris.Wrapf(ErrDecode, "document version %d is newer than %d", doc.Version, CurrentVersion)
	}

	result := &LoadResult{refs: make(map[string]ecs.EntityId, len(doc.Entities)*2)}
	ctx := &LoadContext{storage: storage, refs: result.refs}
	logger := b.logger.With().Str("scene", doc.Name).Logger()

	result.Drift = b.CheckSchemas(doc)
	mismatched := make(map[string]bool, len(result.Drift))
	for _, drift := range result.Drift {
		logger.Warn().Str("type", drift.Type).Str("patch", drift.Patch).Msg("descriptor schema drift")
		mismatched[drift.Type] = b.strict
	}

	fail := func(f Failure) {
		result.Failures = append(result.Failures, f)
		logger.Warn().Err(f.Err).Str("entity", f.Entity).Str("component", f.Component).Msg("scene load failure")
	}

	created := make([]ecs.EntityId, len(doc.Entities))
	refs := make([]string, len(doc.Entities))
	var post []func() error
	var postOwner []Failure
	for i := range doc.Entities {
		de := &doc.Entities[i]
		ref := de.Ref()
		if ref == "" {
			ref = fmt.Sprintf("#%d", i)
		}
		refs[i] = ref

		id, err := entityUUID(de.Id)
		if err != nil {
			fail(Failure{Entity: ref, Err: wrapCause(ErrDecode, err)})
			continue
		}
		if _, dup := result.refs[id.String()]; dup {
			fail(Failure{Entity: ref, Err: ErrDuplicateEntity})
			continue
		}
		if _, dup := result.refs[de.Name]; dup && de.Name != "" {
			fail(Failure{Entity: ref, Err: ErrDuplicateEntity})
			continue
		}

		e := storage.CreateEntity()
		b.identity.Add(storage, e, Identity{Id: id, Name: de.Name})
		result.Entities = append(result.Entities, e)
		created[i] = e
		result.refs[id.String()] = e
		if de.Name != "" {
			result.refs[de.Name] = e
		}

		for _, dc := range de.Components {
			bd, ok := b.byName[dc.Type]
			if !ok {
				fail(Failure{Entity: ref, Component: dc.Type, Err: ErrUnknownComponent})
				continue
			}
			if mismatched[dc.Type] {
				fail(Failure{Entity: ref, Component: dc.Type, Err: ErrSchemaMismatch})
				continue
			}
			fn, err := bd.materialize(ctx, e, dc.Data)
			if err != nil {
				fail(Failure{Entity: ref, Component: dc.Type, Err: err})
				continue
			}
			if fn != nil {
				post = append(post, fn)
				postOwner = append(postOwner, Failure{Entity: ref, Component: dc.Type})
			}
		}
	}

	for i := range doc.Entities {
		de := &doc.Entities[i]
		if de.Parent == "" {
			continue
		}
		child := created[i]
		if child == ecs.NoEntity {
			continue
		}
		parent, ok := lookup(result.refs, de.Parent)
		if !ok {
			fail(Failure{Entity: refs[i], Err: eris.Wrap(ErrUnresolvedParent, de.Parent)})
			continue
		}
		if err := storage.SetParent(child, parent); err != nil {
			fail(Failure{Entity: refs[i], Err: eris.Wrap(ErrUnresolvedParent, err.Error())})
		}
	}

	for i, fn := range post {
		if err := fn(); err != nil {
			f := postOwner[i]
			f.Err = err
			fail(f)
		}
	}

	logger.Debug().
		Int("entities", len(result.Entities)).
		Int("failures", len(result.Failures)).
		Msg("scene loaded")
	return result, nil
}

func entityUUID(text string) (uuid.UUID, error) {
	if text == "" {
		return uuid.New(), nil
	}
	return uuid.Parse(text)
}

// LoadFile reads the document at path and loads it into storage.
func (b *Bridge) LoadFile(storage *ecs.Storage, path string) (*LoadResult, error) {
	doc, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	return b.Load(storage, doc)
}
