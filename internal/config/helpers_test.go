package config_test

import (
	"testing"

	"github.com/rs/zerolog"
)

func zeroLogger(t *testing.T) zerolog.Logger {
	t.Helper()
	return zerolog.New(zerolog.NewTestWriter(t))
}
