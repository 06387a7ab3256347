// Package sim drives a fleet of aircraft through a timed run: it steps the
// fleet, removes collided aircraft, invokes the flight controller on its
// cadence and keeps the penalty ledger used for scoring.
package sim

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/signalsfoundry/airspace-simulator/core"
	"github.com/signalsfoundry/airspace-simulator/internal/logging"
	"github.com/signalsfoundry/airspace-simulator/kb"
	"github.com/signalsfoundry/airspace-simulator/model"
	"github.com/signalsfoundry/airspace-simulator/timectrl"
)

const tracerName = "github.com/signalsfoundry/airspace-simulator/internal/sim"

// RemovalCollision is the kb removal reason for crashed aircraft.
const RemovalCollision = "collision"

// MetricsRecorder receives per-tick engine measurements.
type MetricsRecorder interface {
	ObserveTick(d time.Duration, fleet, inRange, nearMiss int)
	AddRemovals(reason string, n int)
	SetPenalty(points float64)
}

// ControllerRecorder receives one observation per controller cycle.
type ControllerRecorder interface {
	ObserveCycle(d time.Duration, controllable int, err error)
}

// Option customises Engine construction.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l logging.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithController installs the flight controller. Without one the fleet
// flies its last commands. The controller runs with the engine lock held
// and must not call back into the Engine. Its context carries the run
// logger, see logging.LoggerFromContext.
func WithController(c core.FlightController) Option {
	return func(e *Engine) { e.controller = c }
}

// WithMetrics attaches a recorder for tick metrics.
func WithMetrics(m MetricsRecorder) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithControllerMetrics attaches a recorder for controller cycles.
func WithControllerMetrics(m ControllerRecorder) Option {
	return func(e *Engine) { e.ctrlMetrics = m }
}

// WithTracer overrides the tracer taken from the global provider.
func WithTracer(t trace.Tracer) Option {
	return func(e *Engine) {
		if t != nil {
			e.tracer = t
		}
	}
}

// Engine owns a fleet and advances it tick by tick.
type Engine struct {
	cfg      Config
	fleet    *kb.KnowledgeBase
	detector *core.ProximityDetector

	controller  core.FlightController
	log         logging.Logger
	metrics     MetricsRecorder
	ctrlMetrics ControllerRecorder
	tracer      trace.Tracer

	mu         sync.Mutex
	tick       int
	started    bool
	penalty    float64
	crashed    []string
	nearMisses int
	last       core.ProximityReport
}

// Summary is the outcome of a run, or of the ticks stepped so far.
type Summary struct {
	RunID   string
	Ticks   int
	SimTime time.Duration

	Penalty float64
	// Crashed lists collided aircraft in removal order.
	Crashed []string
	// NearMissPenalties counts the aircraft charged a near-miss penalty,
	// summed over controller ticks.
	NearMissPenalties int

	Survivors    []model.AircraftState
	InRadarRange int
}

// NewEngine validates cfg after applying defaults and builds an engine over
// fleet.
func NewEngine(fleet *kb.KnowledgeBase, cfg Config, opts ...Option) (*Engine, error) {
	if fleet == nil {
		return nil, fmt.Errorf("%w: nil fleet", ErrInvalidConfig)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	detector, err := core.NewProximityDetector(cfg.Thresholds)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:      cfg,
		fleet:    fleet,
		detector: detector,
		log:      logging.Noop(),
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e, nil
}

// Config returns the effective configuration.
func (e *Engine) Config() Config { return e.cfg }

// Fleet exposes the knowledge base the engine steps.
func (e *Engine) Fleet() *kb.KnowledgeBase { return e.fleet }

// Tick returns the number of ticks stepped.
func (e *Engine) Tick() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tick
}

// Penalty returns the accumulated penalty points.
func (e *Engine) Penalty() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.penalty
}

// LastReport returns the proximity report of the most recent tick.
func (e *Engine) LastReport() core.ProximityReport {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.last
}

// Start runs the initial controller cycle. Step calls it implicitly, so
// callers only need it to observe the fleet after the opening commands.
func (e *Engine) Start(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.startLocked(ctx)
}

func (e *Engine) startLocked(ctx context.Context) {
	if e.started {
		return
	}
	e.started = true
	e.controlLocked(ctx, e.fleet.ListAircraft())
}

// Step advances the simulation by one tick: every aircraft moves, collided
// aircraft are removed and charged, and on controller ticks the controller
// runs and near misses are charged once enabled. Fleet subscribers hear of
// removals after the engine lock is released.
func (e *Engine) Step(ctx context.Context) error {
	e.mu.Lock()
	removed, err := e.stepLocked(ctx)
	e.mu.Unlock()
	for _, notify := range removed {
		notify()
	}
	return err
}

func (e *Engine) stepLocked(ctx context.Context) (removed []func(), err error) {
	e.startLocked(ctx)

	begin := time.Now()
	e.tick++
	fleet := e.fleet.ListAircraft()
	for _, a := range fleet {
		if err := a.Advance(e.cfg.Timestep); err != nil {
			return nil, fmt.Errorf("tick %d: advance %s: %w", e.tick, a.Name(), err)
		}
	}

	report, err := e.detector.Detect(fleet)
	if err != nil {
		return nil, fmt.Errorf("tick %d: %w", e.tick, err)
	}
	e.last = report

	crashed := report.Collided.Sorted()
	for _, name := range crashed {
		notify, err := e.fleet.Detach(name, RemovalCollision)
		if err != nil {
			return removed, fmt.Errorf("tick %d: %w", e.tick, err)
		}
		removed = append(removed, notify)
		e.penalty += e.cfg.CrashPenalty
		e.crashed = append(e.crashed, name)
		e.log.Warn(ctx, "aircraft crashed",
			logging.String("aircraft", name),
			logging.Int("tick", e.tick),
			logging.Float64("penalty", e.cfg.CrashPenalty),
		)
	}
	if e.metrics != nil {
		e.metrics.AddRemovals(RemovalCollision, len(crashed))
	}

	if e.tick == e.cfg.NearMissPenaltyAfter {
		e.log.Info(ctx, "near misses are now penalized", logging.Int("tick", e.tick))
	}

	survivors := e.fleet.ListAircraft()
	if e.tick%e.cfg.ControlEvery == 0 {
		e.log.Debug(ctx, "time remaining",
			logging.Float64("seconds", float64(e.cfg.Duration-e.tick)*e.cfg.Timestep))
		e.controlLocked(ctx, survivors)
		if e.tick >= e.cfg.NearMissPenaltyAfter {
			if n := report.NearMiss.Len(); n > 0 {
				points := float64(n) * e.cfg.NearMissPenalty
				e.penalty += points
				e.nearMisses += n
				e.log.Info(ctx, "aircraft too close",
					logging.Int("aircraft", n),
					logging.Strings("names", report.NearMiss.Sorted()),
					logging.Float64("penalty", points),
				)
			}
		}
	}

	if e.metrics != nil {
		e.metrics.ObserveTick(time.Since(begin), len(survivors),
			inRange(survivors, e.cfg.RadarRadius), report.NearMiss.Len())
		e.metrics.SetPenalty(e.penalty)
	}
	return removed, nil
}

// controlLocked runs one controller cycle inside a span. Controller errors
// are logged and recorded; the run carries on with whatever commands were
// issued.
func (e *Engine) controlLocked(ctx context.Context, fleet []core.Aircraft) {
	if e.controller == nil {
		return
	}
	views := core.ControlViews(fleet)
	controllable := 0
	for _, v := range views {
		if core.IsControllable(v) {
			controllable++
		}
	}

	ctx, span := e.tracer.Start(ctx, "sim.control", trace.WithAttributes(
		attribute.Int("sim.tick", e.tick),
		attribute.Int("sim.fleet_size", len(views)),
		attribute.Int("sim.controllable", controllable),
	))
	defer span.End()

	begin := time.Now()
	err := e.controller.ExecuteControl(logging.ContextWithLogger(ctx, e.log), views)
	if e.ctrlMetrics != nil {
		e.ctrlMetrics.ObserveCycle(time.Since(begin), controllable, err)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		e.log.Error(ctx, "flight controller failed", logging.Int("tick", e.tick), logging.Err(err))
		return
	}
	e.log.Debug(ctx, "flight controller ran",
		logging.Int("tick", e.tick),
		logging.Int("controllable", controllable),
	)
}

// Run steps the fleet for cfg.Duration ticks, paced by a TimeController,
// and returns the final summary. On cancellation the summary covers the
// ticks completed and the context error is returned with it.
func (e *Engine) Run(ctx context.Context) (Summary, error) {
	ctx, log := logging.WithRunLogger(ctx, e.log)
	runID := logging.RunIDFromContext(ctx)
	e.mu.Lock()
	prev := e.log
	e.log = log
	e.mu.Unlock()
	defer func() {
		e.mu.Lock()
		e.log = prev
		e.mu.Unlock()
	}()

	ctx, span := e.tracer.Start(ctx, "sim.run", trace.WithAttributes(
		attribute.Int("sim.duration_ticks", e.cfg.Duration),
		attribute.Float64("sim.timestep_s", e.cfg.Timestep),
		attribute.Int("sim.initial_fleet", e.fleet.Len()),
	))
	defer span.End()

	mode := timectrl.Accelerated
	if e.cfg.RealTime {
		mode = timectrl.RealTime
	}
	log.Info(ctx, "simulation starting",
		logging.Int("aircraft", e.fleet.Len()),
		logging.Int("ticks", e.cfg.Duration),
		logging.String("mode", mode.String()),
	)

	e.Start(ctx)
	clock := timectrl.NewTimeController(time.Time{}, e.cfg.TickDuration(), mode)
	clock.AddListener(func(int, time.Time) error { return e.Step(ctx) })

	remaining := e.cfg.Duration - e.Tick()
	var err error
	if remaining > 0 {
		err = clock.Run(ctx, remaining)
	}
	summary := e.Summary()
	summary.RunID = runID

	span.SetAttributes(
		attribute.Float64("sim.penalty", summary.Penalty),
		attribute.Int("sim.crashed", len(summary.Crashed)),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Error(ctx, "simulation stopped", logging.Int("tick", summary.Ticks), logging.Err(err))
		return summary, err
	}

	log.Info(ctx, "simulation finished",
		logging.Int("ticks", summary.Ticks),
		logging.Int("survivors", len(summary.Survivors)),
		logging.Int("crashed", len(summary.Crashed)),
		logging.Int("in_radar_range", summary.InRadarRange),
		logging.Float64("penalty", summary.Penalty),
	)
	return summary, nil
}

// Summary reports the state of the run so far.
func (e *Engine) Summary() Summary {
	e.mu.Lock()
	defer e.mu.Unlock()
	survivors := e.fleet.ListAircraft()
	snaps := make([]model.AircraftState, 0, len(survivors))
	for _, a := range survivors {
		snaps = append(snaps, kb.Snapshot(a))
	}
	return Summary{
		Ticks:             e.tick,
		SimTime:           time.Duration(e.tick) * e.cfg.TickDuration(),
		Penalty:           e.penalty,
		Crashed:           append([]string(nil), e.crashed...),
		NearMissPenalties: e.nearMisses,
		Survivors:         snaps,
		InRadarRange:      inRange(survivors, e.cfg.RadarRadius),
	}
}

// inRange counts aircraft whose ground position is strictly inside radius.
func inRange(fleet []core.Aircraft, radius float64) int {
	n := 0
	for _, a := range fleet {
		p := a.Position()
		if math.Hypot(p.X, p.Y) < radius {
			n++
		}
	}
	return n
}
