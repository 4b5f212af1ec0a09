// Package debugui provides immediate-mode GUI integration for ECS applications using Dear ImGui.
// It manages ImGui rendering and input state through ECS components and systems.
package debugui

import (
	"github.com/AllenDang/cimgui-go/imgui"

	"github.com/plus3/ecsrt/ecs"
)

// ImguiItem is a component that holds a Dear ImGui render function.
// Attach this to entities that should render ImGui widgets each frame.
type ImguiItem struct {
	Render func()
}

// ImguiInputState tracks Dear ImGui's input capture state as a singleton.
// Use this to determine if ImGui is consuming mouse or keyboard input.
type ImguiInputState struct {
	WantCaptureMouse    bool
	WantCaptureKeyboard bool
}

// Register registers ImguiItem with registry, or returns the existing
// registration.
func Register(registry *ecs.ComponentRegistry) ecs.ComponentType[ImguiItem] {
	if ct, ok := ecs.ComponentTypeOf[ImguiItem](registry); ok {
		return ct
	}
	return ecs.RegisterComponent[ImguiItem](registry, ecs.WithName[ImguiItem]("ImguiItem"))
}

// ImguiSystem queries all ImguiItem components and defers their render functions.
// It also updates the ImguiInputState singleton with current input capture state.
type ImguiSystem struct {
	Items      ecs.Query[struct{ Item *ImguiItem `ecs:"read"` }]
	InputState ecs.Singleton[ImguiInputState]
}

func (i *ImguiSystem) Priority() ecs.TickOrder { return ecs.TickDebug }

// Process updates input state and queues all ImGui render functions. They
// run after every system of the tick, so windows show the settled frame.
func (i *ImguiSystem) Process(frame *ecs.UpdateFrame) {
	state := i.InputState.Get()
	state.WantCaptureMouse = imgui.CurrentIO().WantCaptureMouse()
	state.WantCaptureKeyboard = imgui.CurrentIO().WantCaptureKeyboard()

	for item := range i.Items.Values() {
		if item.Item.Render != nil {
			frame.Commands.Defer(item.Item.Render)
		}
	}
}
