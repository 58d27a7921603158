package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"math"

	"nerva/backend/internal/analysis"
	"nerva/backend/internal/display"
	"nerva/backend/internal/geometry"
)

func writeVector(w io.Writer, v geometry.DecisionVector) {
	fmt.Fprintf(w, "theta: %.4f (%.4fπ)\n", v.Theta, v.Theta/math.Pi)
	fmt.Fprintf(w, "phi:   %.4f (%.4fπ)\n", v.Phi, v.Phi/math.Pi)
	fmt.Fprintf(w, "x:     %.4f\n", v.X)
	fmt.Fprintf(w, "y:     %.4f\n", v.Y)
	fmt.Fprintf(w, "z:     %.4f\n", v.Z)
}

func writeClassification(w io.Writer, score float64, c geometry.Classification) {
	fmt.Fprintf(w, "integrity: %g%%\n", score)
	fmt.Fprintf(w, "%s: %s\n", c, display.Banner(c))
}

func writeResult(w io.Writer, r analysis.Result) {
	if r.Assessment.Synthesis != "" {
		fmt.Fprintf(w, "synthesis: %s\n", r.Assessment.Synthesis)
	}
	fmt.Fprintf(w, "thesis: %g  antithesis: %g\n", r.Assessment.ThesisStrength, r.Assessment.AntithesisRisk)
	writeVector(w, r.Vector)
	writeClassification(w, r.Assessment.IntegrityScore, r.Classification)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
