package vector

import (
	"fmt"
	"strings"
)

// Frame names the coordinate system a triple of components is expressed in.
type Frame int

const (
	// Rectangular components are (x, y, z).
	Rectangular Frame = iota
	// Cylindrical components are (rho, phi, z).
	Cylindrical
	// Spherical components are (r, theta, phi).
	Spherical
)

func (f Frame) String() string {
	switch f {
	case Rectangular:
		return "rectangular"
	case Cylindrical:
		return "cylindrical"
	case Spherical:
		return "spherical"
	default:
		return fmt.Sprintf("Frame(%d)", int(f))
	}
}

// ParseFrame maps a frame name to a Frame. The empty string is rectangular.
func ParseFrame(s string) (Frame, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "rectangular", "rec", "cartesian":
		return Rectangular, nil
	case "cylindrical", "cyl":
		return Cylindrical, nil
	case "spherical", "sph":
		return Spherical, nil
	}
	return 0, fmt.Errorf("%w: unknown frame %q", ErrInvalidArgument, s)
}

// Parse builds a vector from exactly three components in the given frame.
func Parse(frame Frame, coords []float64) (Vector3, error) {
	if len(coords) != 3 {
		return Vector3{}, fmt.Errorf("%w: want 3 components, got %d", ErrTypeMismatch, len(coords))
	}
	a, b, c := coords[0], coords[1], coords[2]
	switch frame {
	case Rectangular:
		return Rec(a, b, c), nil
	case Cylindrical:
		return Cyl(a, b, c), nil
	case Spherical:
		return Sph(a, b, c), nil
	}
	return Vector3{}, fmt.Errorf("%w: unknown frame %v", ErrInvalidArgument, frame)
}
