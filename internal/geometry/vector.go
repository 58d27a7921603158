package geometry

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Score bounds shared by confidence, risk and integrity.
const (
	ScoreMin = 0.0
	ScoreMax = 100.0
)

// ScoreInput carries the two bounded scores that position a decision on the sphere.
type ScoreInput struct {
	Confidence float64 `json:"confidence"`
	Risk       float64 `json:"risk"`
}

// Map is shorthand for MapToSphere(in.Confidence, in.Risk).
func (in ScoreInput) Map() (DecisionVector, error) {
	return MapToSphere(in.Confidence, in.Risk)
}

// DecisionVector is a point on the unit sphere in spherical and Cartesian form.
type DecisionVector struct {
	Theta float64 `json:"theta"`
	Phi   float64 `json:"phi"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Z     float64 `json:"z"`
}

// MapToSphere converts confidence and risk (both in [0, 100]) into a decision vector.
//
// Confidence tilts the vector from the south pole (0) to the north pole (100); risk rotates
// it around the polar axis. At full confidence the vector sits on the pole and risk has no
// effect on position. Inputs outside the range are rejected, not clamped.
func MapToSphere(confidence, risk float64) (DecisionVector, error) {
	if err := checkScore("confidence", confidence); err != nil {
		return DecisionVector{}, err
	}
	if err := checkScore("risk", risk); err != nil {
		return DecisionVector{}, err
	}

	theta := (1 - confidence/ScoreMax) * math.Pi
	phi := (risk / ScoreMax) * 2 * math.Pi

	sinTheta := math.Sin(theta)
	return DecisionVector{
		Theta: theta,
		Phi:   phi,
		X:     sinTheta * math.Cos(phi),
		Y:     sinTheta * math.Sin(phi),
		Z:     math.Cos(theta),
	}, nil
}

// Vec returns the Cartesian coordinates as a gonum vector.
func (v DecisionVector) Vec() r3.Vec {
	return r3.Vec{X: v.X, Y: v.Y, Z: v.Z}
}

// Norm is the Euclidean length of the vector; 1 within rounding for any mapped input.
func (v DecisionVector) Norm() float64 {
	return r3.Norm(v.Vec())
}

// Equivalent reports whether two vectors denote the same point on the sphere.
// Phi is not compared: phi 0 and phi 2π are different values for the same point.
func (v DecisionVector) Equivalent(o DecisionVector, tol float64) bool {
	return r3.Norm(r3.Sub(v.Vec(), o.Vec())) <= tol
}

func checkScore(field string, value float64) error {
	if math.IsNaN(value) || math.IsInf(value, 0) || value < ScoreMin || value > ScoreMax {
		return &OutOfRangeError{Field: field, Value: value}
	}
	return nil
}
