package scene

import "github.com/rotisserie/eris"

var (
	// ErrUnknownComponent means a document names a component type that has
	// no binding on the bridge.
	ErrUnknownComponent = eris.New("unknown component type")
	// ErrDecode means a payload or document could not be decoded.
	ErrDecode = eris.New("decode failed")
	// ErrMakeData means a descriptor rejected its authored fields.
	ErrMakeData = eris.New("descriptor rejected data")
	// ErrSchemaMismatch means a document was written against a different
	// descriptor schema and the bridge runs with strict schemas.
	ErrSchemaMismatch = eris.New("descriptor schema mismatch")
	// ErrUnresolvedParent means an entity's parent reference names no entity
	// of the scene.
	ErrUnresolvedParent = eris.New("unresolved parent")
	// ErrDuplicateEntity means two entities of a document share an id or name.
	ErrDuplicateEntity = eris.New("duplicate entity reference")
)

// wrapCause wraps sentinel with the message of the error that triggered it,
// so callers can match the sentinel with eris.Is.
func wrapCause(sentinel, cause error) error {
	return eris.Wrap(sentinel, cause.Error())
}
