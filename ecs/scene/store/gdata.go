package store

import (
	"context"
	"slices"

	"github.com/goccy/go-json"
	"github.com/quasilyte/gdata/v2"
	"github.com/rotisserie/eris"

	"github.com/plus3/ecsrt/ecs/scene"
)

const (
	gdataObject = "scenes"
	gdataIndex  = "index"
)

// Gdata stores scenes in the platform save-data location managed by gdata,
// one object property per scene plus a JSON index of names.
type Gdata struct {
	manager *gdata.Manager
}

// OpenGdata opens the save-data store of appName.
func OpenGdata(appName string) (*Gdata, error) {
	manager, err := gdata.Open(gdata.Config{AppName: appName})
	if err != nil {
		return nil, eris.Wrapf(err, "open save data for %s", appName)
	}
	return NewGdata(manager), nil
}

// NewGdata returns a store on an already opened manager.
func NewGdata(manager *gdata.Manager) *Gdata {
	return &Gdata{manager: manager}
}

func (g *Gdata) prop(name string) string {
	return "scene_" + name
}

func (g *Gdata) names() ([]string, error) {
	if !g.manager.ObjectPropExists(gdataObject, gdataIndex) {
		return nil, nil
	}
	data, err := g.manager.LoadObjectProp(gdataObject, gdataIndex)
	if err != nil {
		return nil, eris.Wrap(err, "load scene index")
	}
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return nil, eris.Wrap(err, "decode scene index")
	}
	return names, nil
}

func (g *Gdata) writeNames(names []string) error {
	slices.Sort(names)
	data, err := json.Marshal(names)
	if err != nil {
		return eris.Wrap(err, "encode scene index")
	}
	return eris.Wrap(g.manager.SaveObjectProp(gdataObject, gdataIndex, data), "save scene index")
}

func (g *Gdata) Save(ctx context.Context, name string, doc *scene.Document) error {
	if err := checkName(name); err != nil {
		return err
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return eris.Wrapf(err, "encode %s", name)
	}
	if err := g.manager.SaveObjectProp(gdataObject, g.prop(name), data); err != nil {
		return eris.Wrapf(err, "save %s", name)
	}
	names, err := g.names()
	if err != nil {
		return err
	}
	if slices.Contains(names, name) {
		return nil
	}
	return g.writeNames(append(names, name))
}

func (g *Gdata) Load(ctx context.Context, name string) (*scene.Document, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	if !g.manager.ObjectPropExists(gdataObject, g.prop(name)) {
		return nil, eris.Wrap(ErrNotFound, name)
	}
	data, err := g.manager.LoadObjectProp(gdataObject, g.prop(name))
	if err != nil {
		return nil, eris.Wrapf(err, "load %s", name)
	}
	return scene.Decode(data, scene.FormatJSON)
}

func (g *Gdata) List(ctx context.Context) ([]string, error) {
	return g.names()
}

func (g *Gdata) Delete(ctx context.Context, name string) error {
	if err := checkName(name); err != nil {
		return err
	}
	if !g.manager.ObjectPropExists(gdataObject, g.prop(name)) {
		return eris.Wrap(ErrNotFound, name)
	}
	if err := g.manager.DeleteObjectProp(gdataObject, g.prop(name)); err != nil {
		return eris.Wrapf(err, "delete %s", name)
	}
	names, err := g.names()
	if err != nil {
		return err
	}
	return g.writeNames(slices.DeleteFunc(names, func(n string) bool { return n == name }))
}
