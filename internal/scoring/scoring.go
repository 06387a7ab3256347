// Package scoring grades the surviving fleet at the end of a run.
package scoring

import (
	"math"

	"github.com/brunoga/deep"

	"github.com/signalsfoundry/airspace-simulator/core"
	"github.com/signalsfoundry/airspace-simulator/model"
)

// Rules are the points and tolerances used to grade each survivor.
type Rules struct {
	Survival   float64
	OnHeading  float64
	AtAltitude float64
	AtSpeed    float64

	HeadingTolerance  float64 // radians
	AltitudeTolerance float64 // metres
	SpeedTolerance    float64 // metres per second
}

// DefaultRules returns the standard game scoring.
func DefaultRules() Rules {
	return Rules{
		Survival:          1000,
		OnHeading:         500,
		AtAltitude:        250,
		AtSpeed:           250,
		HeadingTolerance:  0.01,
		AltitudeTolerance: 100,
		SpeedTolerance:    1,
	}
}

// AircraftScore is one survivor's grade.
type AircraftScore struct {
	State      model.AircraftState
	OnHeading  bool
	AtAltitude bool
	AtSpeed    bool
	Points     float64
}

// Result is the graded fleet.
type Result struct {
	Aircraft []AircraftScore
	Earned   float64
	Penalty  float64
	Total    float64
}

// Score grades survivors with DefaultRules.
func Score(survivors []model.AircraftState, penalty float64) Result {
	return DefaultRules().Score(survivors, penalty)
}

// Score awards survival points to every survivor, and goal bonuses to
// controllable ones, then subtracts penalty. The result holds its own copy
// of the states.
func (r Rules) Score(survivors []model.AircraftState, penalty float64) Result {
	res := Result{
		Aircraft: make([]AircraftScore, 0, len(survivors)),
		Penalty:  penalty,
	}
	for _, s := range deep.MustCopy(survivors) {
		sc := AircraftScore{State: s, Points: r.Survival}
		if g := s.Goal; g != nil {
			sc.OnHeading = math.Abs(core.HeadingDifference(s.Heading, g.Heading)) < r.HeadingTolerance
			sc.AtAltitude = math.Abs(s.Position.Z-g.Altitude) < r.AltitudeTolerance
			sc.AtSpeed = math.Abs(s.Speed()-g.Speed) < r.SpeedTolerance
			if sc.OnHeading {
				sc.Points += r.OnHeading
			}
			if sc.AtAltitude {
				sc.Points += r.AtAltitude
			}
			if sc.AtSpeed {
				sc.Points += r.AtSpeed
			}
		}
		res.Earned += sc.Points
		res.Aircraft = append(res.Aircraft, sc)
	}
	res.Total = res.Earned - penalty
	return res
}
