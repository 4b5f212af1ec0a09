// Package ebiten runs the debug UI on top of an Ebiten game loop.
package ebiten

import (
	ebitenbackend "github.com/AllenDang/cimgui-go/backend/ebiten-backend"
	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/hajimehoshi/ebiten/v2"

	"github.com/plus3/ecsrt/ecs"
)

// ImguiBackend wraps the Ebiten-specific Dear ImGui backend. It is stored
// as a storage singleton so systems can reach it.
type ImguiBackend struct {
	*ebitenbackend.EbitenBackend
}

// NewImguiBackend creates the backend and its window. The imgui.ini file is
// disabled.
func NewImguiBackend(title string, width, height int) ImguiBackend {
	backend := ebitenbackend.NewEbitenBackend()
	backend.CreateWindow(title, width, height)
	imgui.CurrentIO().SetIniFilename("")
	return ImguiBackend{EbitenBackend: backend}
}

// Game implements ebiten.Game by ticking Scheduler once per Update inside an
// ImGui frame. DrawWorld, if set, draws under the ImGui overlay.
type Game struct {
	Scheduler *ecs.Scheduler
	Backend   *ecs.Singleton[ImguiBackend]
	DrawWorld func(screen *ebiten.Image)
}

// NewGame stores backend as a singleton of the scheduler's storage.
func NewGame(storage *ecs.Storage, scheduler *ecs.Scheduler, backend ImguiBackend) *Game {
	return &Game{
		Scheduler: scheduler,
		Backend:   ecs.NewSingleton(storage, backend),
	}
}

func (g *Game) Update() error {
	backend := g.Backend.Get()
	backend.BeginFrame()
	// ImguiSystem defers its render closures; they run when the tick flushes,
	// still inside the frame.
	g.Scheduler.Once(1.0 / float64(ebiten.TPS()))
	backend.EndFrame()
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	if g.DrawWorld != nil {
		g.DrawWorld(screen)
	}
	g.Backend.Get().Draw(screen)
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	g.Backend.Get().Layout(outsideWidth, outsideHeight)
	return outsideWidth, outsideHeight
}
