package observability

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ControllerCollector exposes flight-controller Prometheus metrics.
type ControllerCollector struct {
	gatherer prometheus.Gatherer

	CycleDuration prometheus.Histogram
	Invocations   prometheus.Counter
	Failures      prometheus.Counter
	Controllable  prometheus.Gauge
}

// NewControllerCollector registers controller metrics against the provided registerer.
func NewControllerCollector(reg prometheus.Registerer) (*ControllerCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	cycle := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "controller_cycle_duration_seconds",
		Help:    "Duration of a single flight-controller decision cycle.",
		Buckets: []float64{0.00001, 0.0001, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	})
	cycle, err := registerHistogram(reg, cycle, "controller_cycle_duration_seconds")
	if err != nil {
		return nil, err
	}

	invocations := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "controller_invocations_total",
		Help: "Cumulative number of flight-controller invocations.",
	})
	invocations, err = registerCounter(reg, invocations, "controller_invocations_total")
	if err != nil {
		return nil, err
	}

	failures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "controller_failures_total",
		Help: "Cumulative number of flight-controller invocations that returned an error.",
	})
	failures, err = registerCounter(reg, failures, "controller_failures_total")
	if err != nil {
		return nil, err
	}

	controllable := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "controller_controllable_aircraft",
		Help: "Number of controllable aircraft handed to the last controller cycle.",
	})
	controllable, err = registerGauge(reg, controllable, "controller_controllable_aircraft")
	if err != nil {
		return nil, err
	}

	return &ControllerCollector{
		gatherer:      gatherer,
		CycleDuration: cycle,
		Invocations:   invocations,
		Failures:      failures,
		Controllable:  controllable,
	}, nil
}

// Gatherer returns the Prometheus gatherer associated with the collector.
func (c *ControllerCollector) Gatherer() prometheus.Gatherer {
	if c == nil {
		return nil
	}
	return c.gatherer
}

// ObserveCycle records one controller invocation.
func (c *ControllerCollector) ObserveCycle(d time.Duration, controllable int, err error) {
	if c == nil {
		return
	}
	if c.Invocations != nil {
		c.Invocations.Inc()
	}
	if c.CycleDuration != nil {
		c.CycleDuration.Observe(d.Seconds())
	}
	if c.Controllable != nil {
		c.Controllable.Set(float64(controllable))
	}
	if err != nil && c.Failures != nil {
		c.Failures.Inc()
	}
}

func registerHistogram(reg prometheus.Registerer, hist prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(hist); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return hist, nil
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}
