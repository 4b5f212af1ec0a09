package debugui

import (
	"fmt"
	"slices"
	"strings"

	"github.com/AllenDang/cimgui-go/imgui"

	"github.com/plus3/ecsrt/ecs"
	"github.com/plus3/ecsrt/ecs/cql"
)

// containsExpr builds the cql expression matching entities that hold every
// selected component.
func containsExpr(selected map[string]bool) string {
	names := make([]string, 0, len(selected))
	for name, on := range selected {
		if on {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return ""
	}
	slices.Sort(names)
	return "CONTAINS(" + strings.Join(names, ", ") + ")"
}

// QueryDebugger shows each system's declared view and lets the user try
// component combinations against the live storage.
type QueryDebugger struct {
	scheduler *ecs.Scheduler
	selected  map[string]bool
}

func NewQueryDebugger(scheduler *ecs.Scheduler) *QueryDebugger {
	return &QueryDebugger{scheduler: scheduler, selected: make(map[string]bool)}
}

// Count returns how many entities hold every selected component type.
func (qd *QueryDebugger) Count(storage *ecs.Storage) (int, error) {
	expr := containsExpr(qd.selected)
	if expr == "" {
		return 0, nil
	}
	filter, err := cql.Compile(expr, storage.Registry())
	if err != nil {
		return 0, err
	}
	n := 0
	for range cql.Search(storage, filter) {
		n++
	}
	return n, nil
}

func (qd *QueryDebugger) Render(storage *ecs.Storage) {
	if !imgui.BeginV("Query Debugger", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return
	}

	if imgui.TreeNodeStr("System Views") {
		const tableFlags = imgui.TableFlagsBorders | imgui.TableFlagsRowBg
		if imgui.BeginTableV("ViewTable", 3, tableFlags, imgui.NewVec2(0, 0), 0) {
			imgui.TableSetupColumn("System")
			imgui.TableSetupColumn("Batch")
			imgui.TableSetupColumn("Access")
			imgui.TableHeadersRow()
			for _, s := range qd.scheduler.Systems() {
				imgui.TableNextRow()
				imgui.TableNextColumn()
				imgui.Text(s.Name)
				imgui.TableNextColumn()
				imgui.Text(fmt.Sprintf("%d", s.Batch))
				imgui.TableNextColumn()
				imgui.Text(s.View)
			}
			imgui.EndTable()
		}
		imgui.TreePop()
	}

	imgui.Separator()
	if imgui.Button("Clear All") {
		clear(qd.selected)
	}
	for _, info := range storage.Registry().Components() {
		on := qd.selected[info.Name]
		if imgui.Checkbox(info.Name, &on) {
			qd.selected[info.Name] = on
		}
	}

	imgui.Separator()
	if expr := containsExpr(qd.selected); expr == "" {
		imgui.Text("No component types selected")
	} else {
		imgui.Text(expr)
		if n, err := qd.Count(storage); err != nil {
			imgui.Text(err.Error())
		} else {
			imgui.Text(fmt.Sprintf("Matching Entities: %d", n))
		}
	}

	imgui.End()
}
