package geometry

import (
	"math"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		score    float64
		expected Classification
	}{
		{"threshold", 50, Aligned},
		{"just below", 49.999, SubOptimal},
		{"zero", 0, SubOptimal},
		{"max", 100, Aligned},
		{"above range", 250, Aligned},
		{"below range", -10, SubOptimal},
		{"nan", math.NaN(), SubOptimal},
		{"inf", math.Inf(1), Aligned},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Classify(tc.score); got != tc.expected {
				t.Fatalf("expected %s got %s", tc.expected, got)
			}
		})
	}
}

func TestClassificationIsAligned(t *testing.T) {
	if !Aligned.IsAligned() || SubOptimal.IsAligned() {
		t.Fatal("IsAligned mismatch")
	}
}
