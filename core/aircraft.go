package core

import (
	"context"
	"fmt"
	"math"

	"github.com/signalsfoundry/airspace-simulator/vector"
)

// Track is the read-only view of anything flying: identity plus current
// kinematic state.
type Track interface {
	Name() string
	// Position is in metres: x East, y North, z altitude above sea level.
	Position() vector.Vector3
	// Velocity is in metres per second on the same axes.
	Velocity() vector.Vector3
	// Heading is clockwise from North in [0, 2π).
	Heading() float64
}

// Aircraft is a Track that the simulation driver can step forward in time.
type Aircraft interface {
	Track
	// Advance integrates the state over dt seconds. dt must be positive.
	Advance(dt float64) error
}

// Controllable is the optional command capability of an aircraft. Commands
// are stored as given and saturated on the next Advance.
type Controllable interface {
	SendHeading(heading float64)
	SendAltitude(altitude float64)
	SendSpeed(speed float64)

	// The desired state is the aircraft's own long-term goal, which it
	// should resume once clear of conflicts.
	DesiredHeading() float64
	DesiredAltitude() float64
	DesiredSpeed() float64
}

// FlightController is the pluggable decision policy. It is handed a view of
// the fleet and may issue commands to the Controllable members, but it can
// not move aircraft directly.
type FlightController interface {
	ExecuteControl(ctx context.Context, fleet []Track) error
}

// IsControllable reports whether t accepts commands.
func IsControllable(t Track) bool {
	_, ok := t.(Controllable)
	return ok
}

// checkTimestep rejects dt <= 0 and non-finite dt.
func checkTimestep(dt float64) error {
	if !(dt > 0) || math.IsInf(dt, 0) {
		return fmt.Errorf("%w: dt=%v", ErrInvalidTimestep, dt)
	}
	return nil
}

// FlyingObject moves ballistically: its velocity never changes.
type FlyingObject struct {
	name     string
	position vector.Vector3
	velocity vector.Vector3
}

// NewFlyingObject creates an uncontrolled object.
func NewFlyingObject(name string, position, velocity vector.Vector3) (*FlyingObject, error) {
	if name == "" {
		return nil, ErrEmptyName
	}
	return &FlyingObject{name: name, position: position, velocity: velocity}, nil
}

// Name returns the unique name of the object.
func (o *FlyingObject) Name() string { return o.name }

// Position returns the current position.
func (o *FlyingObject) Position() vector.Vector3 { return o.position }

// Velocity returns the current velocity.
func (o *FlyingObject) Velocity() vector.Vector3 { return o.velocity }

// Heading returns the heading implied by the current velocity.
func (o *FlyingObject) Heading() float64 { return HeadingFromVelocity(o.velocity) }

// Advance moves the object by velocity·dt. An invalid dt leaves the state
// untouched.
func (o *FlyingObject) Advance(dt float64) error {
	if err := checkTimestep(dt); err != nil {
		return err
	}
	o.position = o.position.Add(o.velocity.Scale(dt))
	return nil
}

// view hides Advance from controllers.
type view struct {
	t Track
}

func (v view) Name() string             { return v.t.Name() }
func (v view) Position() vector.Vector3 { return v.t.Position() }
func (v view) Velocity() vector.Vector3 { return v.t.Velocity() }
func (v view) Heading() float64         { return v.t.Heading() }

type controllableView struct {
	view
	c Controllable
}

func (v controllableView) SendHeading(h float64)    { v.c.SendHeading(h) }
func (v controllableView) SendAltitude(a float64)   { v.c.SendAltitude(a) }
func (v controllableView) SendSpeed(s float64)      { v.c.SendSpeed(s) }
func (v controllableView) DesiredHeading() float64  { return v.c.DesiredHeading() }
func (v controllableView) DesiredAltitude() float64 { return v.c.DesiredAltitude() }
func (v controllableView) DesiredSpeed() float64    { return v.c.DesiredSpeed() }

// ControlView wraps a for handing to a FlightController. The result exposes
// the Track methods and, when a is controllable, the command methods; the
// underlying aircraft can not be recovered from it.
func ControlView(a Aircraft) Track {
	if c, ok := a.(Controllable); ok {
		return controllableView{view: view{t: a}, c: c}
	}
	return view{t: a}
}

// ControlViews wraps every member of fleet, preserving order.
func ControlViews(fleet []Aircraft) []Track {
	out := make([]Track, 0, len(fleet))
	for _, a := range fleet {
		out = append(out, ControlView(a))
	}
	return out
}
