package store

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/plus3/ecsrt/ecs/scene"
)

// Dir stores each scene as a file in a directory.
type Dir struct {
	path   string
	format scene.Format
}

// NewDir returns a store writing files of the given format under path. The
// directory is created on first save.
func NewDir(path string, format scene.Format) *Dir {
	return &Dir{path: path, format: format}
}

func (d *Dir) file(name string) string {
	return filepath.Join(d.path, name+"."+d.format.String())
}

func (d *Dir) Save(ctx context.Context, name string, doc *scene.Document) error {
	if err := checkName(name); err != nil {
		return err
	}
	if err := os.MkdirAll(d.path, 0o755); err != nil {
		return eris.Wrapf(err, "create %s", d.path)
	}
	return scene.WriteFile(d.file(name), doc)
}

func (d *Dir) Load(ctx context.Context, name string) (*scene.Document, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	path := d.file(name)
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil, eris.Wrap(ErrNotFound, name)
	}
	return scene.ReadFile(path)
}

func (d *Dir) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(d.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "list %s", d.path)
	}
	ext := "." + d.format.String()
	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ext) {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), ext))
	}
	slices.Sort(names)
	return names, nil
}

func (d *Dir) Delete(ctx context.Context, name string) error {
	if err := checkName(name); err != nil {
		return err
	}
	err := os.Remove(d.file(name))
	if errors.Is(err, fs.ErrNotExist) {
		return eris.Wrap(ErrNotFound, name)
	}
	return eris.Wrapf(err, "delete %s", name)
}
