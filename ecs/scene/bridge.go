// Package scene turns authored scene documents into entities and back.
//
// Each component type that can be authored is bound to a descriptor: a plain
// serializable struct whose MakeData method builds the runtime component.
// Loading decodes the descriptor, calls MakeData and only then adds the
// component, so OnAdded hooks always see a fully constructed value.
package scene

import (
	"fmt"
	"slices"

	"github.com/cespare/xxhash/v2"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/invopop/jsonschema"
	"github.com/rs/zerolog"

	"github.com/plus3/ecsrt/ecs"
)

// Descriptor builds a runtime component of type T from authored fields.
type Descriptor[T any] interface {
	MakeData() (T, error)
}

// Identity is attached to every entity created by Load. Its Id survives
// save and reload, unlike the entity handle.
type Identity struct {
	Id   uuid.UUID
	Name string
}

// Ref returns the reference other entities use to name this one.
func (i Identity) Ref() string {
	if i.Name != "" {
		return i.Name
	}
	return i.Id.String()
}

// Binding connects a component type to its descriptor D.
type Binding[T any, D Descriptor[T]] struct {
	// Name is the type name used in documents. Defaults to the registered
	// component name.
	Name string
	// Capture converts a runtime component back into its descriptor. Types
	// without Capture are load-only.
	Capture func(c *T) D
	// PostLoad runs once after every entity and component of the scene has
	// been materialized, in materialization order. It is where links to
	// other entities are resolved.
	PostLoad func(ctx *LoadContext, e ecs.EntityId, c *T, d D) error
}

// binding is the type-erased view of a Binding the bridge works with.
type binding interface {
	name() string
	componentId() ecs.ComponentId
	schema() Schema
	materialize(ctx *LoadContext, e ecs.EntityId, data Payload) (func() error, error)
	capture(storage *ecs.Storage, e ecs.EntityId) (Payload, bool, error)
}

// BridgeOption configures a Bridge.
type BridgeOption func(*Bridge)

// WithStrictSchemas makes schema drift a per-component load failure instead
// of a warning.
func WithStrictSchemas() BridgeOption {
	return func(b *Bridge) {
		b.strict = true
	}
}

// WithLogger sets the logger used for load failures and schema drift.
func WithLogger(logger zerolog.Logger) BridgeOption {
	return func(b *Bridge) {
		b.logger = logger
	}
}

// Bridge holds the descriptor bindings of one component registry.
type Bridge struct {
	registry *ecs.ComponentRegistry
	identity ecs.ComponentType[Identity]
	byName   map[string]binding
	byId     map[ecs.ComponentId]binding
	order    []binding
	strict   bool
	logger   zerolog.Logger
}

// NewBridge creates a bridge for registry, registering Identity with it if
// it is not registered already.
func NewBridge(registry *ecs.ComponentRegistry, opts ...BridgeOption) *Bridge {
	identity, ok := ecs.ComponentTypeOf[Identity](registry)
	if !ok {
		identity = ecs.RegisterComponent[Identity](registry)
	}
	b := &Bridge{
		registry: registry,
		identity: identity,
		byName:   make(map[string]binding),
		byId:     make(map[ecs.ComponentId]binding),
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Identity returns the component type holding scene identities.
func (b *Bridge) Identity() ecs.ComponentType[Identity] {
	return b.identity
}

// Registry returns the registry the bridge was created for.
func (b *Bridge) Registry() *ecs.ComponentRegistry {
	return b.registry
}

// Types lists the bound type names in registration order.
func (b *Bridge) Types() []string {
	names := make([]string, len(b.order))
	for i, bd := range b.order {
		names[i] = bd.name()
	}
	return names
}

// Schemas returns the schema of every bound descriptor keyed by type name.
func (b *Bridge) Schemas() map[string]Schema {
	schemas := make(map[string]Schema, len(b.order))
	for _, bd := range b.order {
		schemas[bd.name()] = bd.schema()
	}
	return schemas
}

// Register binds component type ct to descriptor D. It panics if ct belongs
// to another registry or if the type or its name is already bound.
func Register[T any, D Descriptor[T]](b *Bridge, ct ecs.ComponentType[T], bd Binding[T, D]) {
	if ct.Registry() != b.registry {
		panic(fmt.Sprintf("scene: component %s belongs to another registry", ct.Name()))
	}
	if bd.Name == "" {
		bd.Name = ct.Name()
	}
	if _, dup := b.byName[bd.Name]; dup {
		panic("scene: type name " + bd.Name + " already bound")
	}
	if _, dup := b.byId[ct.ComponentId()]; dup {
		panic("scene: component " + ct.Name() + " already bound")
	}

	tb := &typedBinding[T, D]{ct: ct, bd: bd}
	tb.sch = reflectSchema[D]()
	b.byName[bd.Name] = tb
	b.byId[ct.ComponentId()] = tb
	b.order = append(b.order, tb)
}

type typedBinding[T any, D Descriptor[T]] struct {
	ct  ecs.ComponentType[T]
	bd  Binding[T, D]
	sch Schema
}

func (tb *typedBinding[T, D]) name() string                 { return tb.bd.Name }
func (tb *typedBinding[T, D]) componentId() ecs.ComponentId { return tb.ct.ComponentId() }
func (tb *typedBinding[T, D]) schema() Schema               { return tb.sch }

func (tb *typedBinding[T, D]) materialize(ctx *LoadContext, e ecs.EntityId, data Payload) (func() error, error) {
	var d D
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, wrapCause(ErrDecode, err)
	}
	value, err := d.MakeData()
	if err != nil {
		return nil, wrapCause(ErrMakeData, err)
	}
	if tb.ct.Has(ctx.storage, e) {
		return nil, ecs.ErrDuplicateComponent
	}
	tb.ct.Add(ctx.storage, e, value)

	if tb.bd.PostLoad == nil {
		return nil, nil
	}
	return func() error {
		c := tb.ct.Get(ctx.storage, e)
		if c == nil {
			return nil
		}
		return tb.bd.PostLoad(ctx, e, c, d)
	}, nil
}

func (tb *typedBinding[T, D]) capture(storage *ecs.Storage, e ecs.EntityId) (Payload, bool, error) {
	if tb.bd.Capture == nil {
		return nil, false, nil
	}
	c := tb.ct.Get(storage, e)
	if c == nil {
		return nil, false, nil
	}
	data, err := json.Marshal(tb.bd.Capture(c))
	if err != nil {
		return nil, false, err
	}
	return Payload(data), true, nil
}

// Schema is the JSON schema of a descriptor type and its fingerprint.
type Schema struct {
	Fingerprint string  `json:"fingerprint" yaml:"fingerprint"`
	Definition  Payload `json:"definition" yaml:"definition"`
}

func reflectSchema[D any]() Schema {
	def, err := jsonschema.Reflect(new(D)).MarshalJSON()
	if err != nil {
		panic(fmt.Sprintf("scene: reflect schema of %T: %v", *new(D), err))
	}
	return Schema{Fingerprint: fingerprint(def), Definition: Payload(def)}
}

func fingerprint(data []byte) string {
	return fmt.Sprintf("%016x", xxhash.Sum64(data))
}

func (b *Bridge) sortedTypes() []string {
	names := b.Types()
	slices.Sort(names)
	return names
}
