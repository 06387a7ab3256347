package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/signalsfoundry/airspace-simulator/control"
	"github.com/signalsfoundry/airspace-simulator/core"
	"github.com/signalsfoundry/airspace-simulator/internal/logging"
	"github.com/signalsfoundry/airspace-simulator/internal/observability"
	"github.com/signalsfoundry/airspace-simulator/internal/scenario"
	"github.com/signalsfoundry/airspace-simulator/internal/scoring"
	"github.com/signalsfoundry/airspace-simulator/internal/sim"
	"github.com/signalsfoundry/airspace-simulator/kb"
)

func main() {
	log := logging.NewFromEnv()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, log); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		log.Error(ctx, "simulation failed", logging.Err(err))
		os.Exit(1)
	}
}

type options struct {
	cfg          sim.Config
	seed         int64
	scenarioPath string
	controller   string
	metricsAddr  string
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	def := sim.DefaultConfig()
	fs := flag.NewFlagSet("simulator", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var o options
	fs.IntVar(&o.cfg.Duration, "ticks", def.Duration, "number of ticks to simulate")
	fs.Float64Var(&o.cfg.Timestep, "dt", def.Timestep, "simulated seconds per tick")
	fs.IntVar(&o.cfg.ControlEvery, "control-every", def.ControlEvery, "run the flight controller every N ticks")
	fs.IntVar(&o.cfg.NearMissPenaltyAfter, "near-miss-after", def.NearMissPenaltyAfter, "tick from which near misses are penalized")
	fs.BoolVar(&o.cfg.RealTime, "realtime", false, "pace ticks against the wall clock")
	strict := fs.Bool("strict", false, "use the strict 200 m / 1000 m near-miss volume")
	fs.Int64Var(&o.seed, "seed", 0, "scenario seed; 0 picks one from the clock")
	fs.StringVar(&o.scenarioPath, "scenario", "", "path to a JSON scenario; empty generates the default game")
	fs.StringVar(&o.controller, "controller", "desired", "flight controller: desired | none")
	fs.StringVar(&o.metricsAddr, "metrics-addr", "", "HTTP address for Prometheus /metrics; empty disables")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if fs.NArg() > 0 {
		return options{}, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}

	o.cfg.CrashPenalty = def.CrashPenalty
	o.cfg.NearMissPenalty = def.NearMissPenalty
	o.cfg.RadarRadius = def.RadarRadius
	o.cfg.Thresholds = core.DefaultThresholds()
	if *strict {
		o.cfg.Thresholds = core.StrictThresholds()
	}
	if o.seed == 0 {
		o.seed = time.Now().UnixNano()
	}
	return o, nil
}

func run(ctx context.Context, args []string, stdout io.Writer, log logging.Logger) error {
	o, err := parseFlags(args, os.Stderr)
	if err != nil {
		return err
	}

	tracing := observability.TracingConfigFromEnv()
	tracing.Run = observability.RunInfo{
		Seed:       o.seed,
		Scenario:   o.scenarioPath,
		Controller: o.controller,
		Ticks:      o.cfg.Duration,
		Timestep:   o.cfg.Timestep,
		RealTime:   o.cfg.RealTime,
	}
	shutdownTracing, err := observability.InitTracing(ctx, tracing, log)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdownTracing, log)

	controller, err := controllerFor(o.controller)
	if err != nil {
		return err
	}

	aircraft, err := loadFleet(o)
	if err != nil {
		return err
	}
	fleet := kb.NewKnowledgeBase()
	for _, a := range aircraft {
		if err := fleet.AddAircraft(a); err != nil {
			return err
		}
	}
	fleet.Subscribe(func(e kb.Event) {
		if e.Type == kb.EventAircraftRemoved {
			log.Debug(ctx, "aircraft removed",
				logging.String("aircraft", e.Aircraft.Name),
				logging.String("reason", e.Reason))
		}
	})

	opts := []sim.Option{sim.WithLogger(log), sim.WithController(controller)}
	if o.metricsAddr != "" {
		reg := prometheus.NewRegistry()
		simMetrics, err := observability.NewSimCollector(reg)
		if err != nil {
			return fmt.Errorf("init metrics: %w", err)
		}
		ctrlMetrics, err := observability.NewControllerCollector(reg)
		if err != nil {
			return fmt.Errorf("init metrics: %w", err)
		}
		opts = append(opts, sim.WithMetrics(simMetrics), sim.WithControllerMetrics(ctrlMetrics))

		srv := serveMetrics(o.metricsAddr, simMetrics, log)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	engine, err := sim.NewEngine(fleet, o.cfg, opts...)
	if err != nil {
		return err
	}
	log.Info(ctx, "fleet ready",
		logging.Int("aircraft", fleet.Len()),
		logging.Any("seed", o.seed),
		logging.String("controller", o.controller),
	)

	summary, err := engine.Run(ctx)
	if err != nil {
		return err
	}
	report(stdout, summary, scoring.Score(summary.Survivors, summary.Penalty))
	return nil
}

func controllerFor(name string) (core.FlightController, error) {
	switch strings.ToLower(name) {
	case "desired", "":
		return control.NewDesiredStateController(), nil
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown controller %q", name)
	}
}

func loadFleet(o options) ([]core.Aircraft, error) {
	if o.scenarioPath == "" {
		return scenario.Default(o.seed)
	}
	f, err := os.Open(o.scenarioPath)
	if err != nil {
		return nil, fmt.Errorf("open scenario %q: %w", o.scenarioPath, err)
	}
	defer f.Close()
	return scenario.Load(f, core.DefaultLimits())
}

func report(w io.Writer, s sim.Summary, res scoring.Result) {
	fmt.Fprintf(w, "Simulated %d ticks (%s).\n", s.Ticks, s.SimTime)
	for _, name := range s.Crashed {
		fmt.Fprintf(w, "%s crashed.\n", name)
	}
	fmt.Fprintf(w, "%d aircraft in radar range.\n", s.InRadarRange)
	fmt.Fprintf(w, "%.0f points to deduct for penalties.\n", res.Penalty)
	for _, a := range res.Aircraft {
		line := a.State.Name
		if a.OnHeading {
			line += " on heading"
		}
		if a.AtAltitude {
			line += " at altitude"
		}
		if a.AtSpeed {
			line += " at speed"
		}
		fmt.Fprintln(w, line)
	}
	fmt.Fprintf(w, "Your score: %.0f\n", res.Total)
}

func serveMetrics(addr string, collector *observability.SimCollector, log logging.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())

	srv := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn(context.Background(), "metrics server exited", logging.Err(err))
		}
	}()

	log.Info(context.Background(), "serving Prometheus metrics", logging.String("addr", addr))
	return srv
}
