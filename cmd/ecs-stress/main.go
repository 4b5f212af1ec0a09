package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"runtime"
	"time"

	"github.com/pkg/profile"
	"github.com/rs/zerolog"

	"github.com/plus3/ecsrt/ecs"
	"github.com/plus3/ecsrt/internal/config"
)

func main() {
	duration := flag.Duration("duration", 10*time.Second, "The total duration the test should run for.")
	entityCount := flag.Int("entities", 10000, "The initial number of entities to create.")
	depth := flag.Int("depth", 4, "Length of each parent chain; 1 disables hierarchies.")
	systemCount := flag.Int("systems", 50, "The number of stress systems to register.")
	profileMode := flag.String("profile", "", "Write a cpu, mem, block, mutex or trace profile to the working directory.")
	configFile := flag.String("config", "", "Optional env file read before the environment.")
	gcPauseMetrics := flag.Bool("gc-pause-metrics", false, "Enable detailed GC pause metrics in the report.")
	seed := flag.Int64("seed", 1, "Random seed for entity population.")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger, err := cfg.Logger(os.Stderr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if stop := startProfile(*profileMode, logger); stop != nil {
		defer stop()
	}

	logger.Info().Msg("starting ECS stress test")

	storage := ecs.NewStorage(ecs.DefaultRegistry, ecs.WithLogger(logger), ecs.WithCapacity(*entityCount))
	schedulerOpts, closeStatsd, err := cfg.SchedulerOptions(logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("scheduler options")
	}
	defer closeStatsd()
	scheduler := ecs.NewScheduler(storage, schedulerOpts...)
	for _, system := range NewSystems(*systemCount) {
		scheduler.Register(system)
	}

	logger.Info().Int("entities", *entityCount).Int("depth", *depth).Msg("populating storage")
	r := rand.New(rand.NewSource(*seed))
	Populate(storage, r, *entityCount, *depth)
	storage.LogWorld(zerolog.DebugLevel)
	scheduler.LogSystems(zerolog.DebugLevel)

	report := &Report{
		Duration:       *duration,
		Entities:       *entityCount,
		Depth:          *depth,
		Components:     len(ecs.DefaultRegistry.Components()),
		Systems:        len(scheduler.Systems()),
		Parallel:       cfg.ParallelDispatch,
		GCPauseMetrics: *gcPauseMetrics,
	}

	runtime.ReadMemStats(&report.MemStatsStart)

	logger.Info().Dur("duration", *duration).Msg("running simulation")
	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()

	startTime := time.Now()
	lastFrameTime := time.Now()

Loop:
	for {
		select {
		case <-ctx.Done():
			break Loop
		default:
			deltaTime := time.Since(lastFrameTime)
			lastFrameTime = time.Now()

			updateStart := time.Now()
			scheduler.Once(deltaTime.Seconds())
			report.UpdateTime.Samples = append(report.UpdateTime.Samples, time.Since(updateStart))
			report.TotalUpdates++
		}
	}

	report.TotalTime = time.Since(startTime)
	report.UpdateTime.Finalize()
	report.Storage = storage.CollectStats()
	report.Scheduler = scheduler.GetStats()
	runtime.ReadMemStats(&report.MemStatsEnd)

	logger.Info().Int64("updates", report.TotalUpdates).Msg("simulation finished")

	if err := report.Generate(os.Stdout); err != nil {
		logger.Fatal().Err(err).Msg("failed to generate report")
	}
}

// Populate spawns n entities. When depth > 1 a fraction of them are laid out
// as parent chains of that length.
func Populate(storage *ecs.Storage, r *rand.Rand, n, depth int) {
	spawned := 0
	if depth > 1 {
		for spawned+depth <= n/4 {
			SpawnHierarchy(storage, r, depth)
			spawned += depth
		}
	}
	for ; spawned < n; spawned++ {
		SpawnRandomEntity(storage, r, r.Intn(5)+1)
	}
}

func startProfile(mode string, logger zerolog.Logger) func() {
	var opt func(*profile.Profile)
	switch mode {
	case "":
		return nil
	case "cpu":
		opt = profile.CPUProfile
	case "mem":
		opt = profile.MemProfile
	case "block":
		opt = profile.BlockProfile
	case "mutex":
		opt = profile.MutexProfile
	case "trace":
		opt = profile.TraceProfile
	default:
		logger.Fatal().Str("profile", mode).Msg("unknown profile mode")
	}
	return profile.Start(opt, profile.ProfilePath("."), profile.NoShutdownHook, profile.Quiet).Stop
}
