package ecs

import (
	"context"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/DataDog/datadog-go/v5/statsd"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// SchedulerStats provides statistics about scheduler execution.
type SchedulerStats struct {
	SystemCount     int
	TotalExecutions int64
	Ticks           uint64
	Systems         []SystemStats
}

// SystemStats provides execution statistics for a single system.
type SystemStats struct {
	Name           string
	Priority       TickOrder
	Matched        int
	ExecutionCount int64
	MinDuration    time.Duration
	MaxDuration    time.Duration
	AvgDuration    time.Duration
	LastDuration   time.Duration
	TotalDuration  time.Duration
}

type systemStatsInternal struct {
	executionCount int64
	minDuration    time.Duration
	maxDuration    time.Duration
	totalDuration  time.Duration
	lastDuration   time.Duration
}

func (st *systemStatsInternal) record(d time.Duration) {
	st.executionCount++
	st.lastDuration = d
	st.totalDuration += d
	if d < st.minDuration {
		st.minDuration = d
	}
	if d > st.maxDuration {
		st.maxDuration = d
	}
}

// Named can be implemented by a system to override the name it is reported
// under, which defaults to its Go type name.
type Named interface {
	Name() string
}

type systemEntry struct {
	system   System
	name     string
	priority TickOrder
	view     *QueryView
	commands *Commands
	logger   zerolog.Logger
	tags     []string
	stats    systemStatsInternal
}

// Scheduler runs registered systems once per tick in priority order.
type Scheduler struct {
	storage  *Storage
	entries  []*systemEntry
	batches  [][]*systemEntry
	sorted   bool
	parallel bool
	statsd   statsd.ClientInterface
	logger   zerolog.Logger
	tick     uint64
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithParallelDispatch lets consecutive systems whose declared accesses do
// not conflict run concurrently. Systems in such a batch must not mutate
// storage structure directly; they queue changes on frame.Commands.
func WithParallelDispatch() SchedulerOption {
	return func(s *Scheduler) {
		s.parallel = true
	}
}

// WithStatsd emits system.process timings tagged system:<name>, plus a tick
// timing for every Once.
func WithStatsd(client statsd.ClientInterface) SchedulerOption {
	return func(s *Scheduler) {
		s.statsd = client
	}
}

// WithSchedulerLogger sets the logger system loggers are derived from. It
// defaults to the storage's logger.
func WithSchedulerLogger(logger zerolog.Logger) SchedulerOption {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

// NewScheduler creates a new scheduler for the given storage.
func NewScheduler(storage *Storage, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		storage: storage,
		statsd:  &statsd.NoOpClient{},
		logger:  storage.logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register adds a system to the scheduler and initializes its Query and
// Singleton fields. The system must hold exactly one Query field.
func (s *Scheduler) Register(system System) {
	for _, e := range s.entries {
		if e.system == system {
			panic("system registered twice")
		}
	}

	view := s.initializeFields(system)
	name := systemName(system)

	s.entries = append(s.entries, &systemEntry{
		system:   system,
		name:     name,
		priority: system.Priority(),
		view:     view,
		commands: newCommands(),
		logger:   s.logger.With().Str("system", name).Logger(),
		tags:     []string{"system:" + name},
		stats:    systemStatsInternal{minDuration: time.Duration(1<<63 - 1)},
	})
	s.sorted = false
}

func systemName(system System) string {
	if named, ok := system.(Named); ok {
		return named.Name()
	}
	systemType := reflect.TypeOf(system)
	if systemType.Kind() == reflect.Ptr {
		systemType = systemType.Elem()
	}
	return systemType.Name()
}

type storageInitializer interface {
	Init(storage *Storage)
}

type viewProvider interface {
	View() *QueryView
}

func (s *Scheduler) initializeFields(system System) *QueryView {
	systemValue := reflect.ValueOf(system)
	if systemValue.Kind() != reflect.Ptr || systemValue.Elem().Kind() != reflect.Struct {
		panic("systems must be pointers to structs")
	}
	systemValue = systemValue.Elem()
	systemType := systemValue.Type()

	var view *QueryView
	for i := 0; i < systemValue.NumField(); i++ {
		field := systemValue.Field(i)
		fieldType := systemType.Field(i)

		if !field.CanSet() || field.Kind() != reflect.Struct {
			continue
		}

		typeName := field.Type().Name()
		isQuery := strings.HasPrefix(typeName, "Query[")
		if !isQuery && !strings.HasPrefix(typeName, "Singleton[") {
			continue
		}

		init, ok := field.Addr().Interface().(storageInitializer)
		if !ok {
			panic("Init method not found on field: " + fieldType.Name)
		}
		if isQuery && view != nil {
			panic("system " + systemType.Name() + " declares more than one Query")
		}
		init.Init(s.storage)

		if isQuery {
			view = field.Addr().Interface().(viewProvider).View()
		}
	}

	if view == nil {
		panic("system " + systemType.Name() + " declares no Query")
	}
	return view
}

// sort orders systems by priority, keeping registration order for ties, and
// groups them into dispatch batches.
func (s *Scheduler) sort() {
	if s.sorted {
		return
	}
	sort.SliceStable(s.entries, func(i, j int) bool {
		return s.entries[i].priority < s.entries[j].priority
	})

	s.batches = s.batches[:0]
	var batch []*systemEntry
	for _, e := range s.entries {
		if len(batch) > 0 && (!s.parallel || conflictsWithBatch(e, batch)) {
			s.batches = append(s.batches, batch)
			batch = nil
		}
		batch = append(batch, e)
	}
	if len(batch) > 0 {
		s.batches = append(s.batches, batch)
	}
	s.sorted = true
}

func conflictsWithBatch(e *systemEntry, batch []*systemEntry) bool {
	for _, other := range batch {
		if e.view.Conflicts(other.view) {
			return true
		}
	}
	return false
}

// Once executes all registered systems once with the given delta time.
// Command buffers are flushed in system order after every system has run.
func (s *Scheduler) Once(dt float64) {
	s.sort()
	start := time.Now()

	for _, batch := range s.batches {
		if len(batch) == 1 {
			s.process(batch[0], dt)
			continue
		}
		s.dispatch(batch, dt)
	}

	for _, e := range s.entries {
		e.commands.Flush(s.storage)
	}

	s.tick++
	_ = s.statsd.Timing("tick", time.Since(start), nil, 1)
}

func (s *Scheduler) process(e *systemEntry, dt float64) {
	if err := e.view.validate(); err != nil {
		s.storage.violation(eris.Wrapf(err, "system %s", e.name))
		return
	}

	frame := newUpdateFrame(dt, s.tick, s.storage, e.commands, e.logger)

	start := time.Now()
	e.system.Process(frame)
	duration := time.Since(start)

	e.stats.record(duration)
	_ = s.statsd.Timing("system.process", duration, e.tags, 1)
}

// dispatch runs a batch of non-conflicting systems concurrently. A panic in
// any of them is re-raised on the calling goroutine once the batch settles.
func (s *Scheduler) dispatch(batch []*systemEntry, dt float64) {
	s.storage.dispatching.Store(true)

	var g errgroup.Group
	for _, e := range batch {
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					if rErr, ok := r.(error); ok {
						err = eris.Wrapf(rErr, "system %s", e.name)
					} else {
						err = eris.Errorf("system %s panicked: %v", e.name, r)
					}
				}
			}()
			s.process(e, dt)
			return nil
		})
	}
	err := g.Wait()

	s.storage.dispatching.Store(false)
	s.storage.flushDeferred()
	if err != nil {
		panic(err)
	}
}

// Run executes all systems repeatedly at the given interval until the context is cancelled.
func (s *Scheduler) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	lastTime := time.Now()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			dt := now.Sub(lastTime).Seconds()
			lastTime = now
			s.Once(dt)
		}
	}
}

// Tick returns the number of completed ticks.
func (s *Scheduler) Tick() uint64 {
	return s.tick
}

// SystemInfo describes a registered system.
type SystemInfo struct {
	Name     string
	Priority TickOrder
	View     string
	Batch    int
}

// Systems lists registered systems in execution order.
func (s *Scheduler) Systems() []SystemInfo {
	s.sort()
	infos := make([]SystemInfo, 0, len(s.entries))
	for b, batch := range s.batches {
		for _, e := range batch {
			infos = append(infos, SystemInfo{
				Name:     e.name,
				Priority: e.priority,
				View:     e.view.String(),
				Batch:    b,
			})
		}
	}
	return infos
}

// GetStats returns statistics about system execution, in execution order.
func (s *Scheduler) GetStats() *SchedulerStats {
	s.sort()
	stats := &SchedulerStats{
		SystemCount: len(s.entries),
		Ticks:       s.tick,
		Systems:     make([]SystemStats, len(s.entries)),
	}

	var totalExecs int64
	for i, e := range s.entries {
		internal := &e.stats
		avgDuration := time.Duration(0)
		minDuration := internal.minDuration
		if internal.executionCount > 0 {
			avgDuration = internal.totalDuration / time.Duration(internal.executionCount)
		} else {
			minDuration = 0
		}

		stats.Systems[i] = SystemStats{
			Name:           e.name,
			Priority:       e.priority,
			Matched:        e.view.Len(),
			ExecutionCount: internal.executionCount,
			MinDuration:    minDuration,
			MaxDuration:    internal.maxDuration,
			AvgDuration:    avgDuration,
			LastDuration:   internal.lastDuration,
			TotalDuration:  internal.totalDuration,
		}
		totalExecs += internal.executionCount
	}

	stats.TotalExecutions = totalExecs
	return stats
}
