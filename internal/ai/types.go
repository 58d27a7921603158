package ai

import (
	"errors"
	"fmt"

	"nerva/backend/internal/geometry"
)

// Assessment is the strictly decoded reply of the dialectic analysis.
type Assessment struct {
	ThesisStrength float64 `json:"thesis_strength"`
	AntithesisRisk float64 `json:"antithesis_risk"`
	IntegrityScore float64 `json:"integrity_score"`
	Synthesis      string  `json:"synthesis"`
}

// ScoreInput maps thesis strength to confidence and antithesis risk to risk.
func (a Assessment) ScoreInput() geometry.ScoreInput {
	return geometry.ScoreInput{Confidence: a.ThesisStrength, Risk: a.AntithesisRisk}
}

// Signals are the scenario parameters produced by Extract, each in [0, 1].
type Signals struct {
	Urgency         float64 `json:"urgency"`
	Strategy        float64 `json:"strategy"`
	Risk            float64 `json:"risk"`
	Support         float64 `json:"support"`
	Stability       float64 `json:"stability"`
	Irreversibility float64 `json:"irreversibility"`
	Stakes          float64 `json:"stakes"`
	TimePressure    float64 `json:"time_pressure"`
	Reasoning       string  `json:"reasoning"`
}

// ErrMalformedResponse matches any *MalformedResponseError via errors.Is.
var ErrMalformedResponse = errors.New("malformed ai response")

// MalformedResponseError reports a reply that does not fit the expected schema.
type MalformedResponseError struct {
	Reason string
	Raw    string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed ai response: %s", e.Reason)
}

func (e *MalformedResponseError) Is(target error) bool {
	return target == ErrMalformedResponse
}

// StatusError is returned when the upstream API answers with a non-200 status.
type StatusError struct {
	StatusCode int
	Body       map[string]any
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("openai status %d: %v", e.StatusCode, e.Body)
}
