package core

import (
	"math"

	"golang.org/x/exp/constraints"

	"github.com/signalsfoundry/airspace-simulator/vector"
)

const twoPi = 2 * math.Pi

// Clamp limits x to [low, high].
func Clamp[T constraints.Ordered](x, low, high T) T {
	if x < low {
		return low
	} else if x > high {
		return high
	}
	return x
}

// Sqr returns v*v.
func Sqr[V constraints.Integer | constraints.Float](v V) V { return v * v }

// NormalizeHeading maps h into [0, 2π).
func NormalizeHeading(h float64) float64 {
	h = math.Mod(h, twoPi)
	if h < 0 {
		h += twoPi
	}
	// math.Mod of a tiny negative value can round up to exactly 2π.
	if h >= twoPi {
		h = 0
	}
	return h
}

// HeadingFromVelocity returns the compass heading of v: clockwise from
// North, in [0, 2π). Heading and azimuth are related by heading = π/2 - φ.
func HeadingFromVelocity(v vector.Vector3) float64 {
	h := math.Pi/2 - v.Phi()
	if h < 0 {
		h += twoPi
	}
	return h
}

// wrapTurn maps a heading difference of two values in [0, 2π) into
// (-π, π] with at most one wrap.
func wrapTurn(d float64) float64 {
	if d > math.Pi {
		d -= twoPi
	} else if d <= -math.Pi {
		d += twoPi
	}
	return d
}

// HeadingDifference returns the signed shortest turn from cur to target in
// (-π, π]. Positive values turn clockwise.
func HeadingDifference(cur, target float64) float64 {
	return wrapTurn(NormalizeHeading(target) - NormalizeHeading(cur))
}
