package core

import (
	"math"

	"github.com/signalsfoundry/airspace-simulator/vector"
)

// Command is a heading (radians clockwise from North), altitude (m) and
// speed (m/s) triple.
type Command struct {
	Heading  float64
	Altitude float64
	Speed    float64
}

// ControllableAircraft steers its velocity toward the commanded state each
// tick, subject to the rate limits in Limits.
type ControllableAircraft struct {
	FlyingObject

	limits  Limits
	command Command
	desired Command
}

// NewControllableAircraft creates an aircraft whose initial command is its
// current heading, speed and altitude. The desired speed and altitude are
// always the cruise values from limits, whatever the initial state.
func NewControllableAircraft(name string, position, velocity vector.Vector3, limits Limits) (*ControllableAircraft, error) {
	if name == "" {
		return nil, ErrEmptyName
	}
	if err := limits.Validate(); err != nil {
		return nil, err
	}
	heading := HeadingFromVelocity(velocity)
	return &ControllableAircraft{
		FlyingObject: FlyingObject{name: name, position: position, velocity: velocity},
		limits:       limits,
		command: Command{
			Heading:  heading,
			Altitude: position.Z,
			Speed:    velocity.Norm(),
		},
		desired: Command{
			Heading:  heading,
			Altitude: limits.CruiseAltitude,
			Speed:    limits.CruiseSpeed,
		},
	}, nil
}

// SendHeading sets the commanded heading in radians: 0 is North, π/2 East.
func (a *ControllableAircraft) SendHeading(heading float64) { a.command.Heading = heading }

// SendAltitude sets the commanded altitude in metres. Values outside the
// altitude envelope are held at the nearest limit.
func (a *ControllableAircraft) SendAltitude(altitude float64) { a.command.Altitude = altitude }

// SendSpeed sets the commanded speed in m/s. Values outside the speed
// envelope are held at the nearest limit.
func (a *ControllableAircraft) SendSpeed(speed float64) { a.command.Speed = speed }

// DesiredHeading is the heading fixed at construction, the direction the
// aircraft was first flying.
func (a *ControllableAircraft) DesiredHeading() float64 { return a.desired.Heading }

// DesiredAltitude is the cruise altitude from the aircraft's Limits.
func (a *ControllableAircraft) DesiredAltitude() float64 { return a.desired.Altitude }

// DesiredSpeed is the cruise speed from the aircraft's Limits.
func (a *ControllableAircraft) DesiredSpeed() float64 { return a.desired.Speed }

// Command returns the command currently stored, before saturation.
func (a *ControllableAircraft) Command() Command { return a.command }

// Limits returns the aircraft's performance envelope.
func (a *ControllableAircraft) Limits() Limits { return a.limits }

// Advance applies one step of the control law. Speed and altitude commands
// are clamped to the envelope, climb is limited to MaxTilt and turns to
// TurnRate·dt. The position is integrated with the mean of the old and new
// velocity. A NaN command, or an infinite heading, is ignored in favour of
// the current state.
func (a *ControllableAircraft) Advance(dt float64) error {
	if err := checkTimestep(dt); err != nil {
		return err
	}
	lim := a.limits

	current := HeadingFromVelocity(a.velocity)
	speed := Clamp(nanOr(a.command.Speed, a.velocity.Norm()), lim.MinSpeed, lim.MaxSpeed)
	altitude := Clamp(nanOr(a.command.Altitude, a.position.Z), lim.MinAltitude, lim.MaxAltitude)

	tilt := tiltFor(altitude-a.position.Z, speed, dt, lim.MaxTilt)

	target := current
	if h := a.command.Heading; !math.IsNaN(h) && !math.IsInf(h, 0) {
		target = NormalizeHeading(h)
	}
	heading := current + turnFor(target-current, lim.TurnRate*dt)

	next := vector.Sph(speed, math.Pi/2-tilt, math.Pi/2-heading)

	a.position = a.position.Add(a.velocity.Scale(0.5).Add(next.Scale(0.5)).Scale(dt))
	a.velocity = next
	return nil
}

// tiltFor returns the pitch that closes delta metres of altitude in one
// tick, saturated at ±maxTilt. A gap exactly equal to the one-tick reach
// takes the saturated branch.
func tiltFor(delta, speed, dt, maxTilt float64) float64 {
	reach := speed * math.Sin(maxTilt) * dt
	switch {
	case delta >= reach:
		return maxTilt
	case delta <= -reach:
		return -maxTilt
	default:
		return math.Asin(delta / speed / dt)
	}
}

// turnFor wraps delta into (-π, π] and saturates it at ±limit. Both inputs
// to delta are in [0, 2π) so a single wrap suffices.
func turnFor(delta, limit float64) float64 {
	delta = wrapTurn(delta)
	switch {
	case delta >= limit:
		return limit
	case delta <= -limit:
		return -limit
	default:
		return delta
	}
}

func nanOr(v, fallback float64) float64 {
	if math.IsNaN(v) {
		return fallback
	}
	return v
}
