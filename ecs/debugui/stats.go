package debugui

import (
	"fmt"

	"github.com/AllenDang/cimgui-go/imgui"

	"github.com/plus3/ecsrt/ecs"
)

// StorageStatsWindow shows entity and component counts and a frame time
// graph.
type StorageStatsWindow struct {
	frameHistory []float32
	frameIndex   int
}

func NewStorageStatsWindow(historyFrames int) *StorageStatsWindow {
	return &StorageStatsWindow{frameHistory: make([]float32, historyFrames)}
}

// record stores one frame time and returns the average in milliseconds.
func (w *StorageStatsWindow) record(deltaTime float32) float32 {
	w.frameHistory[w.frameIndex] = deltaTime * 1000.0
	w.frameIndex = (w.frameIndex + 1) % len(w.frameHistory)

	var sum float32
	for _, ft := range w.frameHistory {
		sum += ft
	}
	return sum / float32(len(w.frameHistory))
}

func (w *StorageStatsWindow) Render(storage *ecs.Storage, deltaTime float32) {
	if !imgui.BeginV("Storage Stats", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return
	}

	avg := w.record(deltaTime)
	stats := storage.CollectStats()

	imgui.Text(fmt.Sprintf("Entities: %d", stats.TotalEntityCount))
	imgui.Text(fmt.Sprintf("Components: %d", stats.ComponentCount))
	imgui.Text(fmt.Sprintf("Views: %d", stats.ViewCount))
	imgui.Text(fmt.Sprintf("Pending: %d", stats.PendingCount))
	imgui.Text(fmt.Sprintf("Singletons: %d", stats.SingletonCount))
	if avg > 0 {
		imgui.Text(fmt.Sprintf("Avg Frame Time: %.2f ms (%.0f FPS)", avg, 1000.0/avg))
	}

	imgui.Separator()
	imgui.Text("Frame Time Graph (ms)")
	imgui.PlotLinesFloatPtr("##frametime", &w.frameHistory[0], int32(len(w.frameHistory)))

	if imgui.TreeNodeStr("Components") {
		const tableFlags = imgui.TableFlagsBorders | imgui.TableFlagsRowBg
		if imgui.BeginTableV("ComponentStatsTable", 3, tableFlags, imgui.NewVec2(0, 0), 0) {
			imgui.TableSetupColumn("Id")
			imgui.TableSetupColumn("Name")
			imgui.TableSetupColumn("Count")
			imgui.TableHeadersRow()

			for _, c := range stats.ComponentBreakdown {
				imgui.TableNextRow()
				imgui.TableNextColumn()
				imgui.Text(fmt.Sprintf("%d", c.Id))
				imgui.TableNextColumn()
				imgui.Text(c.Name)
				imgui.TableNextColumn()
				imgui.Text(fmt.Sprintf("%d", c.Count))
			}

			imgui.EndTable()
		}
		imgui.TreePop()
	}

	if imgui.TreeNodeStr("Singletons") {
		for _, singletonType := range stats.SingletonTypes {
			imgui.BulletText(singletonType)
		}
		imgui.TreePop()
	}

	imgui.End()
}

// SystemStatsWindow lists the scheduler's systems in execution order with
// their timings.
type SystemStatsWindow struct {
	scheduler *ecs.Scheduler
}

func NewSystemStatsWindow(scheduler *ecs.Scheduler) *SystemStatsWindow {
	return &SystemStatsWindow{scheduler: scheduler}
}

func (w *SystemStatsWindow) Render() {
	if !imgui.BeginV("Systems", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return
	}

	stats := w.scheduler.GetStats()
	imgui.Text(fmt.Sprintf("Systems: %d  Ticks: %d  Executions: %d", stats.SystemCount, stats.Ticks, stats.TotalExecutions))

	const tableFlags = imgui.TableFlagsBorders | imgui.TableFlagsRowBg | imgui.TableFlagsScrollY
	if imgui.BeginTableV("SystemTable", 6, tableFlags, imgui.NewVec2(0, 0), 0) {
		imgui.TableSetupColumn("System")
		imgui.TableSetupColumn("Tick Order")
		imgui.TableSetupColumn("Matched")
		imgui.TableSetupColumn("Last")
		imgui.TableSetupColumn("Avg")
		imgui.TableSetupColumn("Max")
		imgui.TableHeadersRow()

		for _, s := range stats.Systems {
			imgui.TableNextRow()
			imgui.TableNextColumn()
			imgui.Text(s.Name)
			imgui.TableNextColumn()
			imgui.Text(s.Priority.String())
			imgui.TableNextColumn()
			imgui.Text(fmt.Sprintf("%d", s.Matched))
			imgui.TableNextColumn()
			imgui.Text(s.LastDuration.String())
			imgui.TableNextColumn()
			imgui.Text(s.AvgDuration.String())
			imgui.TableNextColumn()
			imgui.Text(s.MaxDuration.String())
		}

		imgui.EndTable()
	}

	imgui.End()
}
