package core

import (
	"fmt"
	"maps"
	"math"
	"slices"

	"github.com/signalsfoundry/airspace-simulator/vector"
)

// ConflictKind classifies a pair of aircraft.
type ConflictKind int

const (
	// ConflictCollision means the 3-D separation is below the collision
	// distance.
	ConflictCollision ConflictKind = iota
	// ConflictNearMiss means the pair is inside the warning volume but has
	// not collided.
	ConflictNearMiss
)

func (k ConflictKind) String() string {
	switch k {
	case ConflictCollision:
		return "collision"
	case ConflictNearMiss:
		return "near_miss"
	default:
		return fmt.Sprintf("ConflictKind(%d)", int(k))
	}
}

// Conflict is one qualifying pair from a sweep.
type Conflict struct {
	A, B string
	Kind ConflictKind
	// Separation is B's position relative to A.
	Separation vector.Vector3
}

// NameSet is a set of aircraft names.
type NameSet map[string]struct{}

func (s NameSet) add(name string) { s[name] = struct{}{} }

// Has reports whether name is in the set.
func (s NameSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Len returns the number of names in the set.
func (s NameSet) Len() int { return len(s) }

// Sorted returns the names in lexical order.
func (s NameSet) Sorted() []string {
	return slices.Sorted(maps.Keys(s))
}

// ProximityReport is the result of one sweep. Collided and NearMiss are
// classified per pair and are independent: an aircraft that collided with
// one neighbour and is merely close to another appears in both. Consumers
// should treat Collided as dominant.
type ProximityReport struct {
	Collided  NameSet
	NearMiss  NameSet
	Conflicts []Conflict
}

// ProximityDetector classifies every unordered pair of aircraft once per
// call.
type ProximityDetector struct {
	Thresholds Thresholds
}

// NewProximityDetector validates th and returns a detector using it.
func NewProximityDetector(th Thresholds) (*ProximityDetector, error) {
	if err := th.Validate(); err != nil {
		return nil, err
	}
	return &ProximityDetector{Thresholds: th}, nil
}

// Detect sweeps all pairs of fleet. Two members sharing a name is an error;
// nothing is classified in that case.
func (d *ProximityDetector) Detect(fleet []Aircraft) (ProximityReport, error) {
	report := ProximityReport{
		Collided: make(NameSet),
		NearMiss: make(NameSet),
	}

	seen := make(map[string]struct{}, len(fleet))
	positions := make([]vector.Vector3, len(fleet))
	for i, a := range fleet {
		if _, dup := seen[a.Name()]; dup {
			return ProximityReport{}, fmt.Errorf("%w: %q", ErrDuplicateName, a.Name())
		}
		seen[a.Name()] = struct{}{}
		positions[i] = a.Position()
	}

	th := d.Thresholds
	horizontalSq := Sqr(th.Horizontal)
	for i := 0; i < len(fleet); i++ {
		for j := i + 1; j < len(fleet); j++ {
			sep := positions[j].Sub(positions[i])
			kind, ok := classify(sep, th.Collision, th.Vertical, horizontalSq)
			if !ok {
				continue
			}
			a, b := fleet[i].Name(), fleet[j].Name()
			set := report.NearMiss
			if kind == ConflictCollision {
				set = report.Collided
			}
			set.add(a)
			set.add(b)
			report.Conflicts = append(report.Conflicts, Conflict{A: a, B: b, Kind: kind, Separation: sep})
		}
	}
	return report, nil
}

func classify(sep vector.Vector3, collision, vertical, horizontalSq float64) (ConflictKind, bool) {
	if sep.Norm() < collision {
		return ConflictCollision, true
	}
	if math.Abs(sep.Z) < vertical && Sqr(sep.X)+Sqr(sep.Y) < horizontalSq {
		return ConflictNearMiss, true
	}
	return 0, false
}
