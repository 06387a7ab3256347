package sim

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/signalsfoundry/airspace-simulator/core"
)

// Defaults for the standard game.
const (
	DefaultTimestep             = 0.1 // seconds
	DefaultControlEvery         = 100 // ticks
	DefaultDuration             = 6000
	DefaultCrashPenalty         = 1000
	DefaultNearMissPenalty      = 100
	DefaultNearMissPenaltyAfter = 1000
)

// ErrInvalidConfig indicates an engine configuration that can not be run.
var ErrInvalidConfig = errors.New("invalid simulation config")

// Config holds engine pacing and scoring rules.
type Config struct {
	// Timestep is the simulated seconds per tick.
	Timestep float64
	// ControlEvery is the controller cadence in ticks. The controller also
	// runs once before the first tick.
	ControlEvery int
	// Duration is the run length in ticks.
	Duration int

	// CrashPenalty is charged per aircraft removed in a collision.
	CrashPenalty float64
	// NearMissPenalty is charged per near-miss aircraft at each controller
	// tick from NearMissPenaltyAfter onward.
	NearMissPenalty      float64
	NearMissPenaltyAfter int

	Thresholds core.Thresholds
	// RadarRadius bounds the ground-plane region counted as in range.
	RadarRadius float64

	// RealTime paces ticks against the wall clock instead of running as
	// fast as possible.
	RealTime bool
}

// DefaultConfig returns the standard game configuration.
func DefaultConfig() Config {
	return Config{
		Timestep:             DefaultTimestep,
		ControlEvery:         DefaultControlEvery,
		Duration:             DefaultDuration,
		CrashPenalty:         DefaultCrashPenalty,
		NearMissPenalty:      DefaultNearMissPenalty,
		NearMissPenaltyAfter: DefaultNearMissPenaltyAfter,
		Thresholds:           core.DefaultThresholds(),
		RadarRadius:          core.RadarRadius,
	}
}

// ApplyDefaults fills the zero-valued fields for which zero can not be run
// with DefaultConfig values. Penalties and NearMissPenaltyAfter are kept as
// given, since zero is a valid setting for them; start from DefaultConfig
// for the standard scoring.
func (c *Config) ApplyDefaults() {
	def := DefaultConfig()
	if c.Timestep == 0 {
		c.Timestep = def.Timestep
	}
	if c.ControlEvery == 0 {
		c.ControlEvery = def.ControlEvery
	}
	if c.Duration == 0 {
		c.Duration = def.Duration
	}
	if c.Thresholds == (core.Thresholds{}) {
		c.Thresholds = def.Thresholds
	}
	if c.RadarRadius == 0 {
		c.RadarRadius = def.RadarRadius
	}
}

// Validate rejects configurations the engine can not run.
func (c Config) Validate() error {
	switch {
	case !(c.Timestep > 0) || math.IsInf(c.Timestep, 0):
		return fmt.Errorf("%w: timestep %v", ErrInvalidConfig, c.Timestep)
	case c.ControlEvery <= 0:
		return fmt.Errorf("%w: control cadence %d", ErrInvalidConfig, c.ControlEvery)
	case c.Duration <= 0:
		return fmt.Errorf("%w: duration %d", ErrInvalidConfig, c.Duration)
	case c.CrashPenalty < 0 || c.NearMissPenalty < 0:
		return fmt.Errorf("%w: negative penalty", ErrInvalidConfig)
	case c.NearMissPenaltyAfter < 0:
		return fmt.Errorf("%w: near-miss start tick %d", ErrInvalidConfig, c.NearMissPenaltyAfter)
	case !(c.RadarRadius > 0):
		return fmt.Errorf("%w: radar radius %v", ErrInvalidConfig, c.RadarRadius)
	}
	if err := c.Thresholds.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// TickDuration converts Timestep to a time.Duration.
func (c Config) TickDuration() time.Duration {
	return time.Duration(c.Timestep * float64(time.Second))
}
