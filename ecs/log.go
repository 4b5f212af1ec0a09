package ecs

import "github.com/rs/zerolog"

// LogWorld writes one event describing the storage: entity and view counts
// and the population of every component type.
func (s *Storage) LogWorld(level zerolog.Level) {
	stats := s.CollectStats()
	components := zerolog.Dict()
	for _, c := range stats.ComponentBreakdown {
		components.Int(c.Name, c.Count)
	}

	views := zerolog.Arr()
	for _, v := range s.views {
		views.Str(v.String())
	}

	s.logger.WithLevel(level).
		Int("entities", stats.TotalEntityCount).
		Int("pending", stats.PendingCount).
		Dict("components", components).
		Array("views", views).
		Strs("singletons", stats.SingletonTypes).
		Msg("world")
}

// LogSystems writes one event per system in execution order.
func (s *Scheduler) LogSystems(level zerolog.Level) {
	for _, info := range s.Systems() {
		s.logger.WithLevel(level).
			Str("system", info.Name).
			Stringer("priority", info.Priority).
			Int("batch", info.Batch).
			Str("view", info.View).
			Msg("registered system")
	}
}
