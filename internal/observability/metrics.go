package observability

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SimCollector bundles Prometheus metrics for the simulation engine and
// exposes them over HTTP.
type SimCollector struct {
	gatherer prometheus.Gatherer

	Ticks        prometheus.Counter
	TickDuration prometheus.Histogram
	Removals     *prometheus.CounterVec

	FleetSize     prometheus.Gauge
	InRadarRange  prometheus.Gauge
	NearMisses    prometheus.Gauge
	PenaltyPoints prometheus.Gauge
}

// NewSimCollector registers engine metrics against the provided registerer,
// defaulting to the global Prometheus registry when nil.
func NewSimCollector(reg prometheus.Registerer) (*SimCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	ticks, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sim_ticks_total",
		Help: "Total number of simulation ticks processed.",
	}), "sim_ticks_total")
	if err != nil {
		return nil, err
	}

	tickDuration, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "sim_tick_duration_seconds",
		Help:    "Wall-clock time spent advancing the fleet and detecting conflicts per tick.",
		Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
	}), "sim_tick_duration_seconds")
	if err != nil {
		return nil, err
	}

	removals := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sim_aircraft_removed_total",
		Help: "Aircraft removed from the fleet, labeled by reason.",
	}, []string{"reason"})
	removals, err = registerCounterVec(reg, removals, "sim_aircraft_removed_total")
	if err != nil {
		return nil, err
	}

	fleet, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sim_fleet_size",
		Help: "Current number of aircraft in the fleet.",
	}), "sim_fleet_size")
	if err != nil {
		return nil, err
	}
	inRange, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sim_aircraft_in_radar_range",
		Help: "Current number of aircraft inside the radar radius.",
	}), "sim_aircraft_in_radar_range")
	if err != nil {
		return nil, err
	}
	nearMisses, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sim_near_miss_aircraft",
		Help: "Number of aircraft involved in a near-miss on the last tick.",
	}), "sim_near_miss_aircraft")
	if err != nil {
		return nil, err
	}
	penalty, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sim_penalty_points",
		Help: "Accumulated penalty points for the current run.",
	}), "sim_penalty_points")
	if err != nil {
		return nil, err
	}

	return &SimCollector{
		gatherer:      gatherer,
		Ticks:         ticks,
		TickDuration:  tickDuration,
		Removals:      removals,
		FleetSize:     fleet,
		InRadarRange:  inRange,
		NearMisses:    nearMisses,
		PenaltyPoints: penalty,
	}, nil
}

// Handler exposes a ready-to-use /metrics handler.
func (c *SimCollector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// ObserveTick records one processed tick and the fleet gauges measured at
// the end of it.
func (c *SimCollector) ObserveTick(d time.Duration, fleet, inRange, nearMiss int) {
	if c == nil {
		return
	}
	if c.Ticks != nil {
		c.Ticks.Inc()
	}
	if c.TickDuration != nil {
		c.TickDuration.Observe(d.Seconds())
	}
	if c.FleetSize != nil {
		c.FleetSize.Set(float64(fleet))
	}
	if c.InRadarRange != nil {
		c.InRadarRange.Set(float64(inRange))
	}
	if c.NearMisses != nil {
		c.NearMisses.Set(float64(nearMiss))
	}
}

// AddRemovals counts n aircraft removed for reason.
func (c *SimCollector) AddRemovals(reason string, n int) {
	if c == nil || c.Removals == nil || n <= 0 {
		return
	}
	c.Removals.WithLabelValues(reason).Add(float64(n))
}

// SetPenalty publishes the running penalty total.
func (c *SimCollector) SetPenalty(points float64) {
	if c == nil || c.PenaltyPoints == nil {
		return
	}
	c.PenaltyPoints.Set(points)
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
