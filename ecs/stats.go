package ecs

import "sort"

// StorageStats is a snapshot of what a storage holds.
type StorageStats struct {
	TotalEntityCount   int
	ComponentCount     int
	ViewCount          int
	PendingCount       int
	SingletonCount     int
	ComponentBreakdown []ComponentStats
	SingletonTypes     []string
}

// ComponentStats counts the live instances of one component type.
type ComponentStats struct {
	Id    ComponentId
	Name  string
	Count int
}

// CollectStats gathers a StorageStats snapshot. Component types that were
// registered but never instantiated are reported with a zero count.
func (s *Storage) CollectStats() *StorageStats {
	stats := &StorageStats{
		TotalEntityCount: s.Count(),
		ViewCount:        len(s.views),
		PendingCount:     s.Pending(),
		SingletonCount:   len(s.singletons),
	}

	for _, info := range s.registry.Components() {
		count := 0
		if pool := s.pools[info.Id]; pool != nil {
			count = pool.len()
		}
		stats.ComponentBreakdown = append(stats.ComponentBreakdown, ComponentStats{
			Id:    info.Id,
			Name:  info.Name,
			Count: count,
		})
		stats.ComponentCount += count
	}

	for typ := range s.singletons {
		stats.SingletonTypes = append(stats.SingletonTypes, typ.String())
	}
	sort.Strings(stats.SingletonTypes)

	return stats
}
