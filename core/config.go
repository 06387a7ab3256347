package core

import (
	"fmt"
	"math"
)

// Limits are the performance envelope of a controllable aircraft. Commands
// outside the envelope are saturated, never rejected.
type Limits struct {
	MinSpeed    float64 // m/s
	MaxSpeed    float64 // m/s
	CruiseSpeed float64 // m/s

	MinAltitude    float64 // m
	MaxAltitude    float64 // m
	CruiseAltitude float64 // m

	// TurnRate bounds the heading change in radians per second.
	TurnRate float64
	// MaxTilt bounds the pitch angle in radians, and with it the vertical
	// rate to speed·sin(MaxTilt).
	MaxTilt float64
}

// DefaultLimits returns the airliner envelope used by the stock scenarios.
func DefaultLimits() Limits {
	return Limits{
		MinSpeed:       215,
		MaxSpeed:       250,
		CruiseSpeed:    230,
		MinAltitude:    6000,
		MaxAltitude:    10000,
		CruiseAltitude: 8000,
		TurnRate:       1.5 * math.Pi / 180,
		MaxTilt:        7.5 * math.Pi / 180,
	}
}

// Validate checks that the envelope is ordered and non-degenerate.
func (l Limits) Validate() error {
	for _, v := range []float64{l.MinSpeed, l.MaxSpeed, l.CruiseSpeed, l.MinAltitude,
		l.MaxAltitude, l.CruiseAltitude, l.TurnRate, l.MaxTilt} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite value %v", ErrInvalidLimits, v)
		}
	}
	switch {
	case l.MinSpeed <= 0:
		return fmt.Errorf("%w: min speed %v must be positive", ErrInvalidLimits, l.MinSpeed)
	case l.MinSpeed > l.CruiseSpeed || l.CruiseSpeed > l.MaxSpeed:
		return fmt.Errorf("%w: speeds must satisfy min <= cruise <= max (%v, %v, %v)",
			ErrInvalidLimits, l.MinSpeed, l.CruiseSpeed, l.MaxSpeed)
	case l.MinAltitude > l.CruiseAltitude || l.CruiseAltitude > l.MaxAltitude:
		return fmt.Errorf("%w: altitudes must satisfy min <= cruise <= max (%v, %v, %v)",
			ErrInvalidLimits, l.MinAltitude, l.CruiseAltitude, l.MaxAltitude)
	case l.TurnRate <= 0:
		return fmt.Errorf("%w: turn rate %v must be positive", ErrInvalidLimits, l.TurnRate)
	case l.MaxTilt <= 0 || l.MaxTilt >= math.Pi/2:
		return fmt.Errorf("%w: max tilt %v must be in (0, π/2)", ErrInvalidLimits, l.MaxTilt)
	}
	return nil
}

// Thresholds configure the proximity detector. All distances are metres.
type Thresholds struct {
	// Collision is the 3-D separation below which a pair has collided.
	Collision float64
	// Vertical and Horizontal together bound the near-miss volume.
	Vertical   float64
	Horizontal float64
}

// DefaultThresholds returns the thresholds used by the standard game.
func DefaultThresholds() Thresholds {
	return Thresholds{Collision: 100, Vertical: 600, Horizontal: 10000}
}

// StrictThresholds returns the tighter warning volume used by the
// single-aircraft test harness.
func StrictThresholds() Thresholds {
	return Thresholds{Collision: 100, Vertical: 200, Horizontal: 1000}
}

// Validate rejects non-positive or non-finite thresholds.
func (t Thresholds) Validate() error {
	for name, v := range map[string]float64{
		"collision":  t.Collision,
		"vertical":   t.Vertical,
		"horizontal": t.Horizontal,
	} {
		if !(v > 0) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s distance %v", ErrInvalidThresholds, name, v)
		}
	}
	return nil
}

// RadarRadius is the ground range of the approach radar, in metres. Inbound
// traffic is spawned on this circle.
const RadarRadius = 70000.0
