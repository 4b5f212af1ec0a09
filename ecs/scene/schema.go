package scene

import (
	"slices"

	"github.com/wI2L/jsondiff"
)

// SchemaDrift reports a bound type whose document schema differs from the
// running descriptor.
type SchemaDrift struct {
	Type string
	// Patch is the JSON patch turning the running schema into the
	// document's, or the diff error if the schemas could not be compared.
	Patch string
}

// CheckSchemas compares the schemas recorded in doc with the bound
// descriptors. Types the document does not record, or the bridge does not
// bind, are not reported. Fingerprints are compared first and schemas are
// only diffed when they differ.
func (b *Bridge) CheckSchemas(doc *Document) []SchemaDrift {
	var drift []SchemaDrift
	for _, name := range b.sortedTypes() {
		recorded, ok := doc.Schemas[name]
		if !ok {
			continue
		}
		current := b.byName[name].schema()
		if recorded.Fingerprint == current.Fingerprint && fingerprint(recorded.Definition) == current.Fingerprint {
			continue
		}
		patch, err := jsondiff.CompareJSON(current.Definition, recorded.Definition)
		if err != nil {
			drift = append(drift, SchemaDrift{Type: name, Patch: err.Error()})
			continue
		}
		if len(patch) == 0 {
			// same schema, different encoding
			continue
		}
		drift = append(drift, SchemaDrift{Type: name, Patch: patch.String()})
	}
	return drift
}

// Validate reports the problems Load would hit without touching a storage:
// schema drift, unknown component types and malformed parent references.
func (b *Bridge) Validate(doc *Document) []Failure {
	var failures []Failure
	for _, d := range b.CheckSchemas(doc) {
		if b.strict {
			failures = append(failures, Failure{Component: d.Type, Err: ErrSchemaMismatch})
		}
	}

	refs := make(map[string]bool, len(doc.Entities))
	for _, e := range doc.Entities {
		if e.Id != "" {
			id, err := entityUUID(e.Id)
			if err != nil {
				failures = append(failures, Failure{Entity: e.Ref(), Err: wrapCause(ErrDecode, err)})
				continue
			}
			refs[id.String()] = true
			refs[e.Id] = true
		}
		if e.Name != "" {
			refs[e.Name] = true
		}
	}
	for _, e := range doc.Entities {
		if e.Parent != "" && !refs[e.Parent] {
			failures = append(failures, Failure{Entity: e.Ref(), Err: ErrUnresolvedParent})
		}
		for _, c := range e.Components {
			if _, ok := b.byName[c.Type]; !ok {
				failures = append(failures, Failure{Entity: e.Ref(), Component: c.Type, Err: ErrUnknownComponent})
			}
		}
	}
	slices.SortStableFunc(failures, func(a, b Failure) int {
		switch {
		case a.Entity < b.Entity:
			return -1
		case a.Entity > b.Entity:
			return 1
		}
		return 0
	})
	return failures
}
