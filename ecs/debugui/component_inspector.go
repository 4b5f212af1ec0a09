package debugui

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/AllenDang/cimgui-go/imgui"

	"github.com/plus3/ecsrt/ecs"
)

type fieldInfo struct {
	Name  string
	Index int
}

// fieldCache memoizes the exported fields of component types.
type fieldCache struct {
	mu     sync.RWMutex
	fields map[reflect.Type][]fieldInfo
}

func (fc *fieldCache) get(t reflect.Type) []fieldInfo {
	fc.mu.RLock()
	cached, ok := fc.fields[t]
	fc.mu.RUnlock()
	if ok {
		return cached
	}

	var fields []fieldInfo
	if t.Kind() == reflect.Struct {
		for i := 0; i < t.NumField(); i++ {
			if f := t.Field(i); f.IsExported() {
				fields = append(fields, fieldInfo{Name: f.Name, Index: i})
			}
		}
	}

	fc.mu.Lock()
	fc.fields[t] = fields
	fc.mu.Unlock()
	return fields
}

var fields = &fieldCache{fields: make(map[reflect.Type][]fieldInfo)}

var entityLinkType = reflect.TypeFor[ecs.EntityLink]()

// setField assigns value to field, converting between numeric kinds. It
// reports whether the assignment happened.
func setField(field reflect.Value, value any) bool {
	if !field.CanSet() {
		return false
	}
	v := reflect.ValueOf(value)
	switch field.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if !v.CanInt() {
			return false
		}
		if field.OverflowInt(v.Int()) {
			return false
		}
		field.SetInt(v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		if !v.CanInt() || v.Int() < 0 || field.OverflowUint(uint64(v.Int())) {
			return false
		}
		field.SetUint(uint64(v.Int()))
	case reflect.Float32, reflect.Float64:
		if !v.CanFloat() {
			return false
		}
		field.SetFloat(v.Float())
	case reflect.Bool:
		if v.Kind() != reflect.Bool {
			return false
		}
		field.SetBool(v.Bool())
	case reflect.String:
		if v.Kind() != reflect.String {
			return false
		}
		field.SetString(v.String())
	default:
		return false
	}
	return true
}

// ComponentInspector shows and edits the components of one entity.
type ComponentInspector struct{}

func NewComponentInspector() *ComponentInspector {
	return &ComponentInspector{}
}

func (ci *ComponentInspector) Render(storage *ecs.Storage, e ecs.EntityId) {
	if !imgui.BeginV("Component Inspector", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return
	}
	defer imgui.End()

	if e.IsZero() {
		imgui.Text("No entity selected")
		return
	}
	mask, ok := storage.Mask(e)
	if !ok {
		imgui.Text(fmt.Sprintf("Entity %v is gone", e))
		return
	}

	imgui.Text(fmt.Sprintf("Entity: %v", e))
	if parent, ok := storage.Parent(e); ok {
		imgui.Text(fmt.Sprintf("Parent: %v (depth %d)", parent, storage.Depth(e)))
	}
	children := 0
	for range storage.Children(e) {
		children++
	}
	imgui.Text(fmt.Sprintf("Children: %d", children))
	imgui.Separator()

	registry := storage.Registry()
	for id := range mask.Ids() {
		component := storage.GetComponent(e, id)
		if component == nil {
			continue
		}
		if imgui.TreeNodeStr(registry.Name(id)) {
			val := reflect.ValueOf(component)
			if val.Kind() == reflect.Ptr {
				val = val.Elem()
			}
			ci.renderValue(storage, registry.Name(id), val)
			imgui.TreePop()
		}
	}
}

func (ci *ComponentInspector) renderValue(storage *ecs.Storage, name string, val reflect.Value) {
	if val.Type() == entityLinkType {
		link := val.Interface().(ecs.EntityLink)
		if target, ok := link.Resolve(storage); ok {
			imgui.Text(fmt.Sprintf("%s: %s -> %v", name, link.Name, target))
		} else {
			imgui.Text(fmt.Sprintf("%s: %s (unresolved)", name, link.Name))
		}
		return
	}
	if val.Kind() != reflect.Struct {
		ci.renderField(storage, name, val)
		return
	}
	for _, f := range fields.get(val.Type()) {
		ci.renderField(storage, f.Name, val.Field(f.Index))
	}
}

func (ci *ComponentInspector) renderField(storage *ecs.Storage, name string, val reflect.Value) {
	if val.Kind() == reflect.Ptr {
		if val.IsNil() {
			imgui.Text(fmt.Sprintf("%s: nil", name))
			return
		}
		val = val.Elem()
	}

	label := "##" + name
	switch val.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		var v int32
		if val.CanInt() {
			v = int32(val.Int())
		} else {
			v = int32(val.Uint())
		}
		imgui.Text(name + ":")
		imgui.SameLine()
		imgui.SetNextItemWidth(150)
		if imgui.InputInt(label, &v) {
			setField(val, v)
		}

	case reflect.Float32, reflect.Float64:
		v := float32(val.Float())
		imgui.Text(name + ":")
		imgui.SameLine()
		imgui.SetNextItemWidth(150)
		if imgui.InputFloat(label, &v) {
			setField(val, v)
		}

	case reflect.Bool:
		v := val.Bool()
		if imgui.Checkbox(name, &v) {
			setField(val, v)
		}

	case reflect.String:
		v := val.String()
		imgui.Text(name + ":")
		imgui.SameLine()
		imgui.SetNextItemWidth(200)
		if imgui.InputTextWithHint(label, "", &v, imgui.InputTextFlagsNone, nil) {
			setField(val, v)
		}

	case reflect.Struct:
		if imgui.TreeNodeStr(name) {
			ci.renderValue(storage, name, val)
			imgui.TreePop()
		}

	case reflect.Slice, reflect.Array:
		imgui.Text(fmt.Sprintf("%s: [%d items]", name, val.Len()))

	case reflect.Map:
		imgui.Text(fmt.Sprintf("%s: map[%d items]", name, val.Len()))

	default:
		if val.CanInterface() {
			imgui.Text(fmt.Sprintf("%s: %v", name, val.Interface()))
		} else {
			imgui.Text(name + ": <unexported>")
		}
	}
}
