package api

import (
	"time"

	"nerva/backend/internal/analysis"
	"nerva/backend/internal/display"
	"nerva/backend/internal/geometry"
)

// AnalyzeRequest carries free text for the scoring collaborator.
type AnalyzeRequest struct {
	Dilemma string `json:"dilemma"`
}

// BatchAnalyzeRequest carries several dilemmas evaluated concurrently.
type BatchAnalyzeRequest struct {
	Dilemmas []string `json:"dilemmas"`
}

// MapRequest supplies already computed scores, bypassing the AI call.
type MapRequest struct {
	Dilemma        string   `json:"dilemma"`
	ThesisStrength *float64 `json:"thesis_strength" binding:"required"`
	AntithesisRisk *float64 `json:"antithesis_risk" binding:"required"`
	IntegrityScore *float64 `json:"integrity_score" binding:"required"`
	Synthesis      string   `json:"synthesis"`
}

// ClassifyRequest asks for the threshold classification of one integrity score.
type ClassifyRequest struct {
	IntegrityScore *float64 `json:"integrity_score" binding:"required"`
}

// ClassifyResponse reports the classification outcome.
type ClassifyResponse struct {
	IntegrityScore float64                 `json:"integrity_score"`
	Threshold      float64                 `json:"threshold"`
	Classification geometry.Classification `json:"classification"`
	Banner         string                  `json:"banner"`
}

// ExtractRequest carries the scenario text for signal extraction.
type ExtractRequest struct {
	Scenario string `json:"scenario"`
}

// EvaluationDTO is the API representation of an evaluation.
type EvaluationDTO struct {
	ID               string                  `json:"id"`
	Dilemma          string                  `json:"dilemma"`
	ThesisStrength   float64                 `json:"thesis_strength"`
	AntithesisRisk   float64                 `json:"antithesis_risk"`
	IntegrityScore   float64                 `json:"integrity_score"`
	Synthesis        string                  `json:"synthesis"`
	Theta            float64                 `json:"theta"`
	Phi              float64                 `json:"phi"`
	X                float64                 `json:"x"`
	Y                float64                 `json:"y"`
	Z                float64                 `json:"z"`
	Classification   geometry.Classification `json:"classification"`
	Banner           string                  `json:"banner"`
	Source           string                  `json:"source"`
	ProcessingTimeMs int64                   `json:"processing_time_ms"`
	CreatedAt        time.Time               `json:"created_at"`
}

// EvaluationsResponse holds a page of evaluations and the total match count.
type EvaluationsResponse struct {
	Items []EvaluationDTO `json:"items"`
	Total int64           `json:"total"`
}

// FromResult converts an analysis.Result into the DTO representation.
func FromResult(r analysis.Result) EvaluationDTO {
	return EvaluationDTO{
		ID:               r.ID,
		Dilemma:          r.Dilemma,
		ThesisStrength:   r.Assessment.ThesisStrength,
		AntithesisRisk:   r.Assessment.AntithesisRisk,
		IntegrityScore:   r.Assessment.IntegrityScore,
		Synthesis:        r.Assessment.Synthesis,
		Theta:            r.Vector.Theta,
		Phi:              r.Vector.Phi,
		X:                r.Vector.X,
		Y:                r.Vector.Y,
		Z:                r.Vector.Z,
		Classification:   r.Classification,
		Banner:           display.Banner(r.Classification),
		Source:           r.Source,
		ProcessingTimeMs: r.ProcessingTimeMs,
		CreatedAt:        r.CreatedAt,
	}
}
