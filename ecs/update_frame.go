package ecs

import "github.com/rs/zerolog"

// UpdateFrame is the context handed to a system's Process. It replaces any
// ambient global state: everything a system may touch is reachable from here.
type UpdateFrame struct {
	DeltaTime float64
	Tick      uint64
	Storage   *Storage
	Commands  *Commands
	Logger    zerolog.Logger
}

func newUpdateFrame(dt float64, tick uint64, storage *Storage, commands *Commands, logger zerolog.Logger) *UpdateFrame {
	return &UpdateFrame{
		DeltaTime: dt,
		Tick:      tick,
		Storage:   storage,
		Commands:  commands,
		Logger:    logger,
	}
}
