// Package vector provides a small 3-D vector value type used for aircraft
// positions (metres) and velocities (metres per second). The x axis points
// East, y points North and z is altitude above sea level.
//
// Every operation returns a new Vector3; values are never mutated in place.
package vector

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrTypeMismatch indicates operands of an incompatible shape, e.g. a
	// coordinate list that does not hold exactly three components.
	ErrTypeMismatch = errors.New("vector: type mismatch")
	// ErrDivisionByZero indicates a division or normalisation by zero.
	ErrDivisionByZero = errors.New("vector: division by zero")
	// ErrInvalidArgument indicates a non-finite scalar or an unknown frame.
	ErrInvalidArgument = errors.New("vector: invalid argument")
)

// Vector3 is a rectangular-backed three component vector.
type Vector3 struct {
	X, Y, Z float64
}

// Unit basis vectors.
var (
	I = Vector3{X: 1}
	J = Vector3{Y: 1}
	K = Vector3{Z: 1}
)

// Rec returns the vector defined by x, y and z in rectangular coordinates.
func Rec(x, y, z float64) Vector3 {
	return Vector3{X: x, Y: y, Z: z}
}

// Cyl returns the vector defined by rho, phi and z in cylindrical
// coordinates.
func Cyl(rho, phi, z float64) Vector3 {
	return Vector3{
		X: rho * math.Cos(phi),
		Y: rho * math.Sin(phi),
		Z: z,
	}
}

// Sph returns the vector defined by r, theta and phi in spherical
// coordinates. theta is measured from the +z axis, phi counter-clockwise
// from +x.
func Sph(r, theta, phi float64) Vector3 {
	return Vector3{
		X: r * math.Sin(theta) * math.Cos(phi),
		Y: r * math.Sin(theta) * math.Sin(phi),
		Z: r * math.Cos(theta),
	}
}

// Add returns v + o.
func (v Vector3) Add(o Vector3) Vector3 {
	return Vector3{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z}
}

// Sub returns v - o.
func (v Vector3) Sub(o Vector3) Vector3 {
	return v.Add(o.Neg())
}

// Scale returns s·v.
func (v Vector3) Scale(s float64) Vector3 {
	return Vector3{X: s * v.X, Y: s * v.Y, Z: s * v.Z}
}

// Div returns v / s. It fails when s is zero or not a finite number.
func (v Vector3) Div(s float64) (Vector3, error) {
	if s == 0 {
		return Vector3{}, ErrDivisionByZero
	}
	if math.IsNaN(s) || math.IsInf(s, 0) {
		return Vector3{}, fmt.Errorf("%w: divisor %v", ErrInvalidArgument, s)
	}
	return v.Scale(1 / s), nil
}

// Neg returns -v.
func (v Vector3) Neg() Vector3 {
	return Vector3{X: -v.X, Y: -v.Y, Z: -v.Z}
}

// Dot returns the scalar product of v and o.
func (v Vector3) Dot(o Vector3) float64 {
	return v.X*o.X + v.Y*o.Y + v.Z*o.Z
}

// Cross returns v × o.
func (v Vector3) Cross(o Vector3) Vector3 {
	return Vector3{
		X: v.Y*o.Z - v.Z*o.Y,
		Y: v.Z*o.X - v.X*o.Z,
		Z: v.X*o.Y - v.Y*o.X,
	}
}

// Equal reports whether all components are exactly equal.
func (v Vector3) Equal(o Vector3) bool {
	return v.X == o.X && v.Y == o.Y && v.Z == o.Z
}

// Norm returns the magnitude of v.
func (v Vector3) Norm() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Rho is the cylindrical radius, the length of the projection onto the
// x-y plane.
func (v Vector3) Rho() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y)
}

// Phi is the azimuth measured counter-clockwise from +x, in (-π, π].
func (v Vector3) Phi() float64 {
	return math.Atan2(v.Y, v.X)
}

// Theta is the polar angle between v and the +z axis. It is undefined for
// the zero vector.
func (v Vector3) Theta() (float64, error) {
	n := v.Norm()
	if n == 0 {
		return 0, fmt.Errorf("theta of zero vector: %w", ErrDivisionByZero)
	}
	c := v.Z / n
	// rounding can push |c| just past 1
	if c > 1 {
		c = 1
	} else if c < -1 {
		c = -1
	}
	return math.Acos(c), nil
}

// Unit returns a unit-length vector in the direction of v.
func (v Vector3) Unit() (Vector3, error) {
	u, err := v.Div(v.Norm())
	if err != nil {
		return Vector3{}, fmt.Errorf("unit of %s: %w", v, err)
	}
	return u, nil
}

// Rotate returns v rotated about axis by angle radians in the right-handed
// sense. v is split into a component along axis and a component along
// (axis × v) × axis; only the latter turns. A v parallel to axis is returned
// unchanged.
func (v Vector3) Rotate(axis Vector3, angle float64) (Vector3, error) {
	ea, err := axis.Unit()
	if err != nil {
		return Vector3{}, fmt.Errorf("rotate about zero axis: %w", err)
	}
	perp := axis.Cross(v)
	if perp.Norm() == 0 {
		return v, nil
	}
	eb, err := perp.Unit()
	if err != nil {
		return Vector3{}, err
	}
	ec := eb.Cross(ea)

	along := v.Dot(ea)
	across := v.Dot(ec)
	return ea.Scale(along).
		Add(eb.Scale(math.Sin(angle) * across)).
		Add(ec.Scale(math.Cos(angle) * across)), nil
}

// Components returns x, y and z.
func (v Vector3) Components() (float64, float64, float64) {
	return v.X, v.Y, v.Z
}

func (v Vector3) String() string {
	return fmt.Sprintf("(%g,%g,%g)", v.X, v.Y, v.Z)
}
