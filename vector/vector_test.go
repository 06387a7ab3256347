package vector

import (
	"errors"
	"math"
	"math/rand"
	"testing"
)

const tol = 1e-9

func near(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps*math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
}

func nearVec(a, b Vector3, eps float64) bool {
	return near(a.X, b.X, eps) && near(a.Y, b.Y, eps) && near(a.Z, b.Z, eps)
}

func samples(n int) []Vector3 {
	r := rand.New(rand.NewSource(7))
	out := make([]Vector3, n)
	for i := range out {
		out[i] = Rec(r.Float64()*2000-1000, r.Float64()*2000-1000, r.Float64()*2000-1000)
	}
	return out
}

func TestRecRoundTrip(t *testing.T) {
	v := Rec(1.25, -3.5, 8000)
	if v.X != 1.25 || v.Y != -3.5 || v.Z != 8000 {
		t.Fatalf("Rec(1.25,-3.5,8000) = %v", v)
	}
	x, y, z := v.Components()
	if x != 1.25 || y != -3.5 || z != 8000 {
		t.Fatalf("Components() = %v,%v,%v", x, y, z)
	}
}

func TestAlgebraProperties(t *testing.T) {
	vs := samples(30)
	for i := 0; i+2 < len(vs); i++ {
		a, b, c := vs[i], vs[i+1], vs[i+2]
		s := float64(i) - 7.5

		if !a.Add(b).Equal(b.Add(a)) {
			t.Fatalf("a+b != b+a for %v, %v", a, b)
		}
		if !nearVec(a.Add(b).Add(c), a.Add(b.Add(c)), tol) {
			t.Fatalf("addition not associative for %v, %v, %v", a, b, c)
		}
		if !nearVec(a.Add(b).Scale(s), a.Scale(s).Add(b.Scale(s)), tol) {
			t.Fatalf("scaling does not distribute over addition")
		}
		if !a.Cross(b).Equal(b.Cross(a).Neg()) {
			t.Fatalf("a×b = %v, -(b×a) = %v", a.Cross(b), b.Cross(a).Neg())
		}
		if d := a.Dot(a.Cross(b)); math.Abs(d) > 1e-6*a.Norm()*a.Norm()*b.Norm() {
			t.Fatalf("a·(a×b) = %v, want 0", d)
		}
		u, err := a.Unit()
		if err != nil {
			t.Fatalf("Unit(%v): %v", a, err)
		}
		if !near(u.Norm(), 1, tol) {
			t.Fatalf("|unit| = %v, want 1", u.Norm())
		}
	}
}

func TestSubAndNeg(t *testing.T) {
	a := Rec(1, 2, 3)
	b := Rec(4, 6, 8)
	if got := b.Sub(a); !got.Equal(Rec(3, 4, 5)) {
		t.Fatalf("b-a = %v, want (3,4,5)", got)
	}
	if got := a.Neg(); !got.Equal(Rec(-1, -2, -3)) {
		t.Fatalf("-a = %v", got)
	}
	if got := Rec(3, 4, 12).Norm(); got != 13 {
		t.Fatalf("|(3,4,12)| = %v, want 13", got)
	}
}

func TestDiv(t *testing.T) {
	got, err := Rec(2, 4, 6).Div(2)
	if err != nil {
		t.Fatalf("Div: %v", err)
	}
	if !got.Equal(Rec(1, 2, 3)) {
		t.Fatalf("Div(2) = %v", got)
	}
	if _, err := Rec(1, 1, 1).Div(0); !errors.Is(err, ErrDivisionByZero) {
		t.Fatalf("Div(0) err = %v, want ErrDivisionByZero", err)
	}
	if _, err := Rec(1, 1, 1).Div(math.NaN()); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("Div(NaN) err = %v, want ErrInvalidArgument", err)
	}
}

func TestZeroVectorFailures(t *testing.T) {
	var z Vector3
	if _, err := z.Unit(); !errors.Is(err, ErrDivisionByZero) {
		t.Fatalf("Unit() of zero err = %v", err)
	}
	if _, err := z.Theta(); !errors.Is(err, ErrDivisionByZero) {
		t.Fatalf("Theta() of zero err = %v", err)
	}
	if _, err := I.Rotate(z, 1); !errors.Is(err, ErrDivisionByZero) {
		t.Fatalf("Rotate about zero axis err = %v", err)
	}
}

func TestDerivedAngles(t *testing.T) {
	v := Rec(3, 4, 0)
	if v.Rho() != 5 {
		t.Fatalf("Rho = %v, want 5", v.Rho())
	}
	if got := Rec(-1, 0, 0).Phi(); got != math.Pi {
		t.Fatalf("Phi of -x = %v, want π", got)
	}
	theta, err := K.Theta()
	if err != nil || theta != 0 {
		t.Fatalf("Theta of +z = %v, %v", theta, err)
	}
}

func TestSphericalRoundTrip(t *testing.T) {
	for _, r := range []float64{1, 230, 70000} {
		for theta := 0.1; theta < math.Pi; theta += 0.3 {
			for phi := -math.Pi + 0.05; phi <= math.Pi; phi += 0.4 {
				v := Sph(r, theta, phi)
				gotTheta, err := v.Theta()
				if err != nil {
					t.Fatalf("Theta: %v", err)
				}
				if !near(v.Norm(), r, tol) || !near(gotTheta, theta, 1e-9) || !near(v.Phi(), phi, 1e-9) {
					t.Fatalf("Sph(%v,%v,%v) -> (%v,%v,%v)", r, theta, phi, v.Norm(), gotTheta, v.Phi())
				}
			}
		}
	}
}

func TestCylindricalRoundTrip(t *testing.T) {
	v := Cyl(70000, 2.5, 6000)
	if !near(v.Rho(), 70000, tol) || !near(v.Phi(), 2.5, tol) || v.Z != 6000 {
		t.Fatalf("Cyl round trip = rho %v phi %v z %v", v.Rho(), v.Phi(), v.Z)
	}
}

func TestRotate(t *testing.T) {
	got, err := I.Rotate(K, math.Pi/2)
	if err != nil {
		t.Fatalf("Rotate: %v", err)
	}
	if !nearVec(got, J, 1e-12) {
		t.Fatalf("x rotated 90° about z = %v, want y", got)
	}

	v := Rec(1, 1, 5)
	got, err = v.Rotate(K, math.Pi)
	if err != nil {
		t.Fatalf("Rotate: %v", err)
	}
	if !nearVec(got, Rec(-1, -1, 5), 1e-12) {
		t.Fatalf("(1,1,5) rotated π about z = %v", got)
	}
	if !near(got.Norm(), v.Norm(), tol) {
		t.Fatalf("rotation changed magnitude: %v -> %v", v.Norm(), got.Norm())
	}

	got, err = K.Scale(3).Rotate(K, 1.2)
	if err != nil {
		t.Fatalf("Rotate parallel: %v", err)
	}
	if !got.Equal(K.Scale(3)) {
		t.Fatalf("vector parallel to axis changed: %v", got)
	}
}

func TestParse(t *testing.T) {
	v, err := Parse(Cylindrical, []float64{10, 0, 5})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !nearVec(v, Rec(10, 0, 5), tol) {
		t.Fatalf("Parse cylindrical = %v", v)
	}
	if _, err := Parse(Rectangular, []float64{1, 2}); !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("Parse short err = %v, want ErrTypeMismatch", err)
	}
	if _, err := ParseFrame("polar"); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("ParseFrame(polar) err = %v", err)
	}
	f, err := ParseFrame("Spherical")
	if err != nil || f != Spherical {
		t.Fatalf("ParseFrame(Spherical) = %v, %v", f, err)
	}
}
