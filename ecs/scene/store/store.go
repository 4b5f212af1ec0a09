// Package store persists scene documents by name.
package store

import (
	"context"
	"regexp"

	"github.com/rotisserie/eris"

	"github.com/plus3/ecsrt/ecs/scene"
)

var (
	// ErrNotFound is returned when no scene is stored under a name.
	ErrNotFound = eris.New("scene not found")
	// ErrInvalidName is returned for names that are not safe as file names
	// or keys.
	ErrInvalidName = eris.New("invalid scene name")
)

// Store saves and loads scene documents by name.
type Store interface {
	Save(ctx context.Context, name string, doc *scene.Document) error
	Load(ctx context.Context, name string) (*scene.Document, error)
	// List returns the stored names in lexical order.
	List(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, name string) error
}

var validName = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]*$`)

func checkName(name string) error {
	if !validName.MatchString(name) {
		return eris.Wrapf(ErrInvalidName, "%q", name)
	}
	return nil
}
