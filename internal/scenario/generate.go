// Package scenario builds the opening fleet for a run, either generated from
// a seed or loaded from a JSON file.
package scenario

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/signalsfoundry/airspace-simulator/core"
	"github.com/signalsfoundry/airspace-simulator/vector"
)

// ErrNamesExhausted indicates the callsign pool has been used up.
var ErrNamesExhausted = errors.New("callsign pool exhausted")

// PoolSize is the number of distinct generated callsigns.
const PoolSize = 10000

var callsigns = []string{"United", "American", "Delta", "N"}

// Names returns the callsign pool: airline prefixes cycled over the indices
// 0..PoolSize-1, e.g. United0, American1, Delta2, N3, United4.
func Names() []string {
	names := make([]string, 0, PoolSize)
	for i := 0; i < PoolSize; i++ {
		names = append(names, callsigns[i%len(callsigns)]+strconv.Itoa(i))
	}
	return names
}

// Generator creates aircraft with unique callsigns drawn from a shuffled
// pool.
type Generator struct {
	rng    *Rand
	names  []string
	limits core.Limits
}

// NewGenerator returns a generator seeded with seed whose aircraft fly with
// limits.
func NewGenerator(seed int64, limits core.Limits) (*Generator, error) {
	if err := limits.Validate(); err != nil {
		return nil, err
	}
	rng := NewRand(seed)
	names := Names()
	Shuffle(rng, names)
	return &Generator{rng: rng, names: names, limits: limits}, nil
}

// NextName pops the next unused callsign.
func (g *Generator) NextName() (string, error) {
	if len(g.names) == 0 {
		return "", ErrNamesExhausted
	}
	n := g.names[len(g.names)-1]
	g.names = g.names[:len(g.names)-1]
	return n, nil
}

// azimuth is uniform in [-π, π).
func (g *Generator) azimuth() float64 {
	return -math.Pi + g.rng.Float64()*2*math.Pi
}

// CollidingPair returns two level aircraft at cruise speed, on independent
// random courses, that reach crash after t seconds if left alone.
func (g *Generator) CollidingPair(crash vector.Vector3, t float64) (*core.ControllableAircraft, *core.ControllableAircraft, error) {
	if !(t >= 0) || math.IsInf(t, 0) {
		return nil, nil, fmt.Errorf("colliding pair: invalid time to impact %v", t)
	}
	a, err := g.converging(crash, t)
	if err != nil {
		return nil, nil, err
	}
	b, err := g.converging(crash, t)
	if err != nil {
		return nil, nil, err
	}
	return a, b, nil
}

func (g *Generator) converging(crash vector.Vector3, t float64) (*core.ControllableAircraft, error) {
	name, err := g.NextName()
	if err != nil {
		return nil, err
	}
	v := vector.Sph(g.limits.CruiseSpeed, math.Pi/2, g.azimuth())
	return core.NewControllableAircraft(name, crash.Sub(v.Scale(t)), v, g.limits)
}

// RandomInbound returns a level cruise-speed aircraft on the radar circle at
// a random azimuth φ, flying in direction φ + 3π/4 + U(0, π/2) so that it
// crosses the covered area.
func (g *Generator) RandomInbound(altitude float64) (*core.ControllableAircraft, error) {
	name, err := g.NextName()
	if err != nil {
		return nil, err
	}
	phi := g.azimuth()
	course := phi + 3*math.Pi/4 + g.rng.Float64()*math.Pi/2
	pos := vector.Cyl(core.RadarRadius, phi, altitude)
	vel := vector.Sph(g.limits.CruiseSpeed, math.Pi/2, course)
	return core.NewControllableAircraft(name, pos, vel, g.limits)
}

// Impact is a point where a generated pair will meet.
type Impact struct {
	Position vector.Vector3
	After    float64 // seconds from start
}

// Standard layout of the default game.
var (
	DefaultImpacts = []Impact{
		{Position: vector.Rec(0, 10000, 8000), After: 200},
		{Position: vector.Rec(0, 0, 8000), After: 250},
		{Position: vector.Rec(10000, 0, 7000), After: 300},
	}
	DefaultInboundAltitudes = []float64{8000, 7000, 6000, 8000}
)

// Build returns the colliding pairs for impacts followed by one inbound
// aircraft per altitude.
func (g *Generator) Build(impacts []Impact, inbound []float64) ([]core.Aircraft, error) {
	fleet := make([]core.Aircraft, 0, 2*len(impacts)+len(inbound))
	for _, im := range impacts {
		a, b, err := g.CollidingPair(im.Position, im.After)
		if err != nil {
			return nil, err
		}
		fleet = append(fleet, a, b)
	}
	for _, alt := range inbound {
		a, err := g.RandomInbound(alt)
		if err != nil {
			return nil, err
		}
		fleet = append(fleet, a)
	}
	return fleet, nil
}

// Default returns the standard ten-aircraft game for seed: three colliding
// pairs and four inbound aircraft.
func Default(seed int64) ([]core.Aircraft, error) {
	g, err := NewGenerator(seed, core.DefaultLimits())
	if err != nil {
		return nil, err
	}
	return g.Build(DefaultImpacts, DefaultInboundAltitudes)
}
