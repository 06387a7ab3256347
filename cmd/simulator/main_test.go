package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/signalsfoundry/airspace-simulator/core"
	"github.com/signalsfoundry/airspace-simulator/internal/logging"
	"github.com/signalsfoundry/airspace-simulator/internal/observability"
	"github.com/signalsfoundry/airspace-simulator/internal/sim"
	"github.com/signalsfoundry/airspace-simulator/kb"
)

func TestParseFlagsDefaults(t *testing.T) {
	o, err := parseFlags(nil, io.Discard)
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}
	if o.cfg.Duration != 6000 || o.cfg.Timestep != 0.1 || o.cfg.ControlEvery != 100 {
		t.Fatalf("defaults = %+v", o.cfg)
	}
	if o.cfg.Thresholds != core.DefaultThresholds() {
		t.Fatalf("Thresholds = %+v, want default", o.cfg.Thresholds)
	}
	if o.seed == 0 {
		t.Fatalf("seed should be drawn from the clock when unset")
	}
}

func TestParseFlagsOverrides(t *testing.T) {
	o, err := parseFlags([]string{"-ticks", "300", "-strict", "-seed", "9", "-controller", "none"}, io.Discard)
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}
	if o.cfg.Duration != 300 || o.seed != 9 || o.controller != "none" {
		t.Fatalf("options = %+v", o)
	}
	if o.cfg.Thresholds != core.StrictThresholds() {
		t.Fatalf("Thresholds = %+v, want strict", o.cfg.Thresholds)
	}

	if _, err := parseFlags([]string{"-h"}, io.Discard); !errors.Is(err, flag.ErrHelp) {
		t.Fatalf("-h err = %v, want flag.ErrHelp", err)
	}
	if _, err := parseFlags([]string{"extra"}, io.Discard); err == nil {
		t.Fatalf("expected error for positional arguments")
	}
}

func TestNearMissAfterZeroReachesEngine(t *testing.T) {
	o, err := parseFlags([]string{"-near-miss-after", "0"}, io.Discard)
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}
	e, err := sim.NewEngine(kb.NewKnowledgeBase(), o.cfg)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	if got := e.Config().NearMissPenaltyAfter; got != 0 {
		t.Fatalf("NearMissPenaltyAfter = %d, want 0", got)
	}
	if got := e.Config().CrashPenalty; got != sim.DefaultCrashPenalty {
		t.Fatalf("CrashPenalty = %v, want %v", got, sim.DefaultCrashPenalty)
	}
}

func TestRunDefaultScenario(t *testing.T) {
	var out bytes.Buffer
	err := run(context.Background(), []string{"-ticks", "500", "-seed", "42"}, &out, logging.Noop())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	body := out.String()
	for _, want := range []string{"Simulated 500 ticks", "points to deduct for penalties", "Your score:"} {
		if !strings.Contains(body, want) {
			t.Fatalf("output missing %q:\n%s", want, body)
		}
	}
}

func TestRunScenarioFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.json")
	doc := `{"aircraft": [
		{"name": "United1", "position": {"coords": [0, 0, 8000]}, "velocity": {"coords": [230, 0, 0]}},
		{"name": "balloon", "controllable": false, "position": {"coords": [0, 40000, 3000]}, "velocity": {"coords": [0, 0, 0]}}
	]}`
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatalf("write scenario: %v", err)
	}

	var out bytes.Buffer
	if err := run(context.Background(), []string{"-ticks", "200", "-scenario", path}, &out, logging.Noop()); err != nil {
		t.Fatalf("run: %v", err)
	}
	// United1 holds its initial heading East, cruise altitude and speed.
	if !strings.Contains(out.String(), "United1 on heading at altitude at speed") {
		t.Fatalf("unexpected report:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "Your score: 3000") {
		t.Fatalf("want score 3000:\n%s", out.String())
	}
}

func TestRunRejectsBadInput(t *testing.T) {
	for name, args := range map[string][]string{
		"missing scenario":   {"-scenario", filepath.Join(t.TempDir(), "nope.json")},
		"unknown controller": {"-controller", "magic"},
		"bad timestep":       {"-dt", "-1"},
	} {
		t.Run(name, func(t *testing.T) {
			if err := run(context.Background(), args, io.Discard, logging.Noop()); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestServeMetricsHandler(t *testing.T) {
	collector, err := observability.NewSimCollector(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("NewSimCollector: %v", err)
	}
	srv := serveMetrics("127.0.0.1:0", collector, logging.Noop())
	defer srv.Close()

	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "sim_ticks_total") {
		t.Fatalf("/metrics = %d %q", rr.Code, rr.Body.String())
	}
}
