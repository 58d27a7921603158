package geometry

// Classification is the pass/fail outcome of the integrity threshold check.
type Classification string

const (
	Aligned    Classification = "ALIGNED"
	SubOptimal Classification = "SUB_OPTIMAL"
)

// AlignmentThreshold is the lowest integrity score classified as Aligned.
const AlignmentThreshold = 50.0

// Classify compares an integrity score against AlignmentThreshold. Any real number is
// accepted, including values outside [0, 100]; NaN classifies as SubOptimal.
func Classify(integrityScore float64) Classification {
	if integrityScore >= AlignmentThreshold {
		return Aligned
	}
	return SubOptimal
}

// IsAligned reports whether c is Aligned.
func (c Classification) IsAligned() bool {
	return c == Aligned
}
