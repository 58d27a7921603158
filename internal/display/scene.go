package display

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"nerva/backend/internal/analysis"
	"nerva/backend/internal/geometry"
)

// MeshResolution is the number of samples along each sphere parameter.
const MeshResolution = 100

// Banner texts for the two classifications.
const (
	AlignedBanner    = "VECTOR ALIGNED. EXECUTE."
	SubOptimalBanner = "VECTOR SUB-OPTIMAL. DO NOT COMMIT."
)

// Point is a Cartesian coordinate for plotting.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Surface is a parametric grid; X[i][j] pairs with Y[i][j] and Z[i][j].
type Surface struct {
	X [][]float64 `json:"x"`
	Y [][]float64 `json:"y"`
	Z [][]float64 `json:"z"`
}

// Scene is everything the client needs to draw the decision sphere.
type Scene struct {
	Sphere         Surface                 `json:"sphere"`
	Horizon        []Point                 `json:"horizon"`
	Needle         [2]Point                `json:"needle"`
	IntegrityScore *float64                `json:"integrity_score,omitempty"`
	Synthesis      string                  `json:"synthesis,omitempty"`
	Classification geometry.Classification `json:"classification,omitempty"`
	Banner         string                  `json:"banner,omitempty"`
	EvaluationID   string                  `json:"evaluation_id,omitempty"`
}

// Render builds a scene for the given result. A nil result draws the needle at the
// north pole with no metric or banner.
func Render(last *analysis.Result) Scene {
	scene := Scene{
		Sphere:  unitSphere(MeshResolution),
		Horizon: equator(MeshResolution),
		Needle:  [2]Point{{}, {X: 0, Y: 0, Z: 1}},
	}
	if last == nil {
		return scene
	}
	scene.Needle[1] = Point{X: last.Vector.X, Y: last.Vector.Y, Z: last.Vector.Z}
	score := last.Assessment.IntegrityScore
	scene.IntegrityScore = &score
	scene.Synthesis = last.Assessment.Synthesis
	scene.Classification = last.Classification
	scene.Banner = Banner(last.Classification)
	scene.EvaluationID = last.ID
	return scene
}

// Banner returns the display text for a classification.
func Banner(c geometry.Classification) string {
	if c.IsAligned() {
		return AlignedBanner
	}
	return SubOptimalBanner
}

func unitSphere(n int) Surface {
	u := floats.Span(make([]float64, n), 0, 2*math.Pi)
	v := floats.Span(make([]float64, n), 0, math.Pi)
	s := Surface{
		X: make([][]float64, n),
		Y: make([][]float64, n),
		Z: make([][]float64, n),
	}
	for i := range u {
		s.X[i] = make([]float64, n)
		s.Y[i] = make([]float64, n)
		s.Z[i] = make([]float64, n)
		cosU, sinU := math.Cos(u[i]), math.Sin(u[i])
		for j := range v {
			s.X[i][j] = cosU * math.Sin(v[j])
			s.Y[i][j] = sinU * math.Sin(v[j])
			s.Z[i][j] = math.Cos(v[j])
		}
	}
	return s
}

func equator(n int) []Point {
	u := floats.Span(make([]float64, n), 0, 2*math.Pi)
	out := make([]Point, n)
	for i, a := range u {
		out[i] = Point{X: math.Cos(a), Y: math.Sin(a)}
	}
	return out
}
