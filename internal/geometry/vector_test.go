package geometry

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"
)

const tol = 1e-9

func TestMapToSphereUnitNorm(t *testing.T) {
	for c := 0.0; c <= 100; c += 2.5 {
		for r := 0.0; r <= 100; r += 2.5 {
			v, err := MapToSphere(c, r)
			if err != nil {
				t.Fatalf("map(%v, %v): %v", c, r, err)
			}
			sum := v.X*v.X + v.Y*v.Y + v.Z*v.Z
			if !scalar.EqualWithinAbs(sum, 1, tol) {
				t.Fatalf("map(%v, %v): x²+y²+z² = %v", c, r, sum)
			}
			if !scalar.EqualWithinAbs(v.Norm(), 1, tol) {
				t.Fatalf("map(%v, %v): norm = %v", c, r, v.Norm())
			}
		}
	}
}

func TestMapToSpherePoles(t *testing.T) {
	tests := []struct {
		name       string
		confidence float64
		z          float64
		theta      float64
	}{
		{"north", 100, 1, 0},
		{"south", 0, -1, math.Pi},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			for _, risk := range []float64{0, 12.5, 25, 50, 73, 99.9, 100} {
				v, err := MapToSphere(tc.confidence, risk)
				if err != nil {
					t.Fatalf("risk %v: %v", risk, err)
				}
				if !scalar.EqualWithinAbs(v.Theta, tc.theta, tol) {
					t.Fatalf("risk %v: theta %v, want %v", risk, v.Theta, tc.theta)
				}
				if !scalar.EqualWithinAbs(v.X, 0, tol) || !scalar.EqualWithinAbs(v.Y, 0, tol) {
					t.Fatalf("risk %v: expected x=y=0 got (%v, %v)", risk, v.X, v.Y)
				}
				if !scalar.EqualWithinAbs(v.Z, tc.z, tol) {
					t.Fatalf("risk %v: z %v, want %v", risk, v.Z, tc.z)
				}
			}
		})
	}
}

func TestMapToSphereMonotonicZ(t *testing.T) {
	for _, risk := range []float64{0, 25, 50, 100} {
		prev := math.Inf(-1)
		for c := 0.0; c <= 100; c += 0.5 {
			v, err := MapToSphere(c, risk)
			if err != nil {
				t.Fatalf("map(%v, %v): %v", c, risk, err)
			}
			if v.Z < prev {
				t.Fatalf("z decreased at confidence %v risk %v: %v < %v", c, risk, v.Z, prev)
			}
			if v.Z < -1 || v.Z > 1 {
				t.Fatalf("z out of [-1, 1]: %v", v.Z)
			}
			prev = v.Z
		}
	}
}

func TestMapToSphereKnownPoint(t *testing.T) {
	v, err := MapToSphere(75, 25)
	if err != nil {
		t.Fatalf("map: %v", err)
	}
	theta := 0.25 * math.Pi
	phi := 0.5 * math.Pi
	checks := []struct {
		name      string
		got, want float64
	}{
		{"theta", v.Theta, theta},
		{"phi", v.Phi, phi},
		{"x", v.X, math.Sin(theta) * math.Cos(phi)},
		{"y", v.Y, math.Sin(theta) * math.Sin(phi)},
		{"z", v.Z, math.Cos(theta)},
	}
	for _, c := range checks {
		if !scalar.EqualWithinAbs(c.got, c.want, tol) {
			t.Fatalf("%s: got %v want %v", c.name, c.got, c.want)
		}
	}
	if !scalar.EqualWithinAbs(v.X, 0, 1e-4) || !scalar.EqualWithinAbs(v.Y, 0.7071, 1e-4) || !scalar.EqualWithinAbs(v.Z, 0.7071, 1e-4) {
		t.Fatalf("unexpected point (%v, %v, %v)", v.X, v.Y, v.Z)
	}
}

func TestMapToSphereRejectsOutOfRange(t *testing.T) {
	tests := []struct {
		name       string
		confidence float64
		risk       float64
		field      string
	}{
		{"negative confidence", -1, 50, "confidence"},
		{"risk above max", 50, 101, "risk"},
		{"nan confidence", math.NaN(), 50, "confidence"},
		{"nan risk", 50, math.NaN(), "risk"},
		{"inf risk", 50, math.Inf(1), "risk"},
		{"tiny overshoot", 100.0000001, 0, "confidence"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := MapToSphere(tc.confidence, tc.risk)
			if !errors.Is(err, ErrOutOfRange) {
				t.Fatalf("expected ErrOutOfRange, got %v", err)
			}
			var rangeErr *OutOfRangeError
			if !errors.As(err, &rangeErr) {
				t.Fatalf("expected *OutOfRangeError, got %T", err)
			}
			if rangeErr.Field != tc.field {
				t.Fatalf("field %q, want %q", rangeErr.Field, tc.field)
			}
		})
	}
}

func TestPhiWrapIsEquivalentNotEqual(t *testing.T) {
	a, err := MapToSphere(40, 0)
	if err != nil {
		t.Fatal(err)
	}
	b, err := ScoreInput{Confidence: 40, Risk: 100}.Map()
	if err != nil {
		t.Fatal(err)
	}
	if a.Phi == b.Phi {
		t.Fatalf("expected distinct phi, both %v", a.Phi)
	}
	if !a.Equivalent(b, tol) {
		t.Fatalf("expected equivalent points, got %+v and %+v", a, b)
	}

	c, _ := MapToSphere(40, 50)
	if a.Equivalent(c, tol) {
		t.Fatalf("opposite azimuths reported equivalent")
	}
}
