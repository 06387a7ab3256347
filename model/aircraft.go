package model

import "github.com/signalsfoundry/airspace-simulator/vector"

// AircraftState is a point-in-time copy of an aircraft's observable state.
type AircraftState struct {
	Name     string
	Position vector.Vector3 // metres; x East, y North, z altitude
	Velocity vector.Vector3 // metres per second
	Heading  float64        // radians clockwise from North

	// Goal is nil for aircraft that do not accept commands.
	Goal *Goal
}

// Goal is the long-term state a controllable aircraft wants to resume.
type Goal struct {
	Heading  float64
	Altitude float64
	Speed    float64
}

// Controllable reports whether the aircraft accepts commands.
func (s AircraftState) Controllable() bool { return s.Goal != nil }

// Speed returns the magnitude of the velocity.
func (s AircraftState) Speed() float64 { return s.Velocity.Norm() }
