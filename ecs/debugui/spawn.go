package debugui

import (
	"time"

	"github.com/plus3/ecsrt/ecs"
)

// Inspector groups the debug windows spawned by SpawnInspector.
type Inspector struct {
	Browser   *EntityBrowser
	Component *ComponentInspector
	Systems   *SystemStatsWindow
	Storage   *StorageStatsWindow
	Queries   *QueryDebugger

	storage *ecs.Storage
	timer   *FrameTimer
}

// SpawnInspector creates an entity whose ImguiItem draws the entity
// browser, component inspector, system and storage statistics, and query
// debugger windows. The scheduler must have an ImguiSystem registered for
// the windows to render.
func SpawnInspector(storage *ecs.Storage, scheduler *ecs.Scheduler) *Inspector {
	inspector := &Inspector{
		Browser:   NewEntityBrowser(100),
		Component: NewComponentInspector(),
		Systems:   NewSystemStatsWindow(scheduler),
		Storage:   NewStorageStatsWindow(120),
		Queries:   NewQueryDebugger(scheduler),
		storage:   storage,
		timer:     NewFrameTimer(),
	}

	items := Register(storage.Registry())
	e := storage.CreateEntity()
	items.Add(storage, e, ImguiItem{Render: inspector.Render})
	return inspector
}

// Render draws every inspector window.
func (in *Inspector) Render() {
	in.Browser.Render(in.storage)
	in.Component.Render(in.storage, in.Browser.Selected())
	in.Systems.Render()
	in.Storage.Render(in.storage, in.timer.GetDeltaTime())
	in.Queries.Render(in.storage)
}

// FrameTimer measures the wall time between successive calls.
type FrameTimer struct {
	lastFrameTime time.Time
}

func NewFrameTimer() *FrameTimer {
	return &FrameTimer{
		lastFrameTime: time.Now(),
	}
}

func (ft *FrameTimer) GetDeltaTime() float32 {
	now := time.Now()
	delta := float32(now.Sub(ft.lastFrameTime).Seconds())
	ft.lastFrameTime = now
	return delta
}
