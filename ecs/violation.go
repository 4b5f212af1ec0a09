package ecs

// violation reports misuse of the storage API. Development builds panic with
// err; builds tagged ecs_shipping log it and let the caller fall through to its
// no-op path.
func (s *Storage) violation(err error) {
	if shipping {
		s.logger.Error().Err(err).Msg("ecs contract violation")
		return
	}
	panic(err)
}
