package ecs

import "strconv"

// TickOrder places a system in the tick. Systems run in ascending order;
// systems with equal order run in registration order.
//
// The framework ordinals are spaced by 100 so subsystems can slot their own
// orders between them:
//
//	const TickPhysics = ecs.TickSimulation + 10
type TickOrder int

const (
	TickFirst      TickOrder = 0
	TickInput      TickOrder = 100
	TickSimulation TickOrder = 200
	TickTransform  TickOrder = 300
	TickCamera     TickOrder = 400
	TickLight      TickOrder = 500
	TickRenderSync TickOrder = 600
	TickAudioSync  TickOrder = 700
	TickGui        TickOrder = 800
	TickDebug      TickOrder = 900
	TickLast       TickOrder = 1000
)

var tickOrderNames = map[TickOrder]string{
	TickFirst:      "first",
	TickInput:      "input",
	TickSimulation: "simulation",
	TickTransform:  "transform",
	TickCamera:     "camera",
	TickLight:      "light",
	TickRenderSync: "render-sync",
	TickAudioSync:  "audio-sync",
	TickGui:        "gui",
	TickDebug:      "debug",
	TickLast:       "last",
}

func (o TickOrder) String() string {
	if name, ok := tickOrderNames[o]; ok {
		return name
	}
	base := o - o%100
	if name, ok := tickOrderNames[base]; ok {
		return name + "+" + strconv.Itoa(int(o-base))
	}
	return strconv.Itoa(int(o))
}
