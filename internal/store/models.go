package store

import "time"

// Evaluation is one persisted analysis: the collaborator's scores, the derived
// decision vector and the integrity classification.
type Evaluation struct {
	ID               string `gorm:"primaryKey;size:36"`
	Dilemma          string `gorm:"type:text"`
	ThesisStrength   float64
	AntithesisRisk   float64
	IntegrityScore   float64 `gorm:"index"`
	Synthesis        string  `gorm:"type:text"`
	Theta            float64
	Phi              float64
	X                float64
	Y                float64
	Z                float64
	Classification   string `gorm:"size:32;index"`
	Model            string `gorm:"size:64"`
	Source           string `gorm:"size:16;index"`
	ProcessingTimeMs int64
	CreatedAt        time.Time `gorm:"autoCreateTime;index"`
}

// Sources recorded on Evaluation.Source.
const (
	SourceAnalyze = "analyze"
	SourceDirect  = "direct"
)
