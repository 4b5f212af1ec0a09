// Package config loads the settings shared by the commands from an optional
// env file and the process environment, and turns them into the options the
// library packages take.
package config

import (
	"io"
	"os"
	"strings"

	"github.com/DataDog/datadog-go/v5/statsd"
	jlconfig "github.com/JeremyLoy/config"
	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"github.com/plus3/ecsrt/ecs"
	"github.com/plus3/ecsrt/ecs/scene"
	"github.com/plus3/ecsrt/ecs/scene/store"
)

type Config struct {
	LogLevel  string `config:"ECS_LOG_LEVEL"`
	LogFormat string `config:"ECS_LOG_FORMAT"`

	ParallelDispatch bool `config:"ECS_PARALLEL_DISPATCH"`
	StrictSchemas    bool `config:"ECS_STRICT_SCHEMAS"`

	StatsdAddress   string `config:"STATSD_ADDRESS"`
	StatsdNamespace string `config:"STATSD_NAMESPACE"`

	RedisAddress  string `config:"REDIS_ADDRESS"`
	RedisPassword string `config:"REDIS_PASSWORD"`
	RedisPrefix   string `config:"REDIS_PREFIX"`

	SceneDir     string `config:"SCENE_DIR"`
	SceneAppName string `config:"SCENE_APP_NAME"`
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		LogLevel:        "info",
		LogFormat:       "console",
		StatsdNamespace: "ecsrt.",
		RedisPrefix:     "ecsrt:",
		SceneDir:        "scenes",
	}
}

// Load reads file, if given, and then the environment, which wins. Fields
// neither sets keep their defaults.
func Load(file string) (Config, error) {
	cfg := Default()
	builder := jlconfig.FromEnv()
	if file != "" {
		if _, err := os.Stat(file); err != nil {
			return cfg, eris.Wrapf(err, "config file %s", file)
		}
		builder = jlconfig.From(file).FromEnv()
	}
	if err := builder.To(&cfg); err != nil {
		return cfg, eris.Wrap(err, "load config")
	}
	return cfg, nil
}

// Logger builds the process logger writing to w.
func (c Config) Logger(w io.Writer) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel))
	if err != nil {
		return zerolog.Nop(), eris.Wrapf(err, "ECS_LOG_LEVEL %q", c.LogLevel)
	}
	switch c.LogFormat {
	case "json":
	case "console", "":
		w = zerolog.ConsoleWriter{Out: w}
	default:
		return zerolog.Nop(), eris.Errorf("ECS_LOG_FORMAT %q must be json or console", c.LogFormat)
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger(), nil
}

// SchedulerOptions returns the scheduler options implied by the config. The
// returned close function releases the statsd client, if one was created.
func (c Config) SchedulerOptions(logger zerolog.Logger) ([]ecs.SchedulerOption, func() error, error) {
	opts := []ecs.SchedulerOption{ecs.WithSchedulerLogger(logger)}
	closer := func() error { return nil }
	if c.ParallelDispatch {
		opts = append(opts, ecs.WithParallelDispatch())
	}
	if c.StatsdAddress != "" {
		client, err := statsd.New(c.StatsdAddress, statsd.WithNamespace(c.StatsdNamespace))
		if err != nil {
			return nil, closer, eris.Wrapf(err, "statsd %s", c.StatsdAddress)
		}
		opts = append(opts, ecs.WithStatsd(client))
		closer = client.Close
	}
	return opts, closer, nil
}

// BridgeOptions returns the scene bridge options implied by the config.
func (c Config) BridgeOptions(logger zerolog.Logger) []scene.BridgeOption {
	opts := []scene.BridgeOption{scene.WithLogger(logger)}
	if c.StrictSchemas {
		opts = append(opts, scene.WithStrictSchemas())
	}
	return opts
}

// Store opens the scene store selected by the config: Redis when
// REDIS_ADDRESS is set, gdata save data when SCENE_APP_NAME is set, and the
// SCENE_DIR directory otherwise.
func (c Config) Store() (store.Store, func() error, error) {
	switch {
	case c.RedisAddress != "":
		client := redis.NewClient(&redis.Options{
			Addr:     c.RedisAddress,
			Password: c.RedisPassword,
		})
		return store.NewRedis(client, c.RedisPrefix), client.Close, nil
	case c.SceneAppName != "":
		s, err := store.OpenGdata(c.SceneAppName)
		if err != nil {
			return nil, nil, err
		}
		return s, func() error { return nil }, nil
	default:
		return store.NewDir(c.SceneDir, scene.FormatYAML), func() error { return nil }, nil
	}
}
