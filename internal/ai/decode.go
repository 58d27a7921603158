package ai

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

type assessmentSchema struct {
	ThesisStrength *float64 `json:"thesis_strength"`
	AntithesisRisk *float64 `json:"antithesis_risk"`
	IntegrityScore *float64 `json:"integrity_score"`
	Synthesis      *string  `json:"synthesis"`
}

type signalsSchema struct {
	Urgency         *float64 `json:"urgency"`
	Strategy        *float64 `json:"strategy"`
	Risk            *float64 `json:"risk"`
	Support         *float64 `json:"support"`
	Stability       *float64 `json:"stability"`
	Irreversibility *float64 `json:"irreversibility"`
	Stakes          *float64 `json:"stakes"`
	TimePressure    *float64 `json:"time_pressure"`
	Reasoning       *string  `json:"reasoning"`
}

// DecodeAssessment parses a model reply into an Assessment. Scores are passed through
// unmodified; range checks belong to the geometry package.
func DecodeAssessment(content string) (Assessment, error) {
	var raw assessmentSchema
	if err := decodeStrict(content, &raw); err != nil {
		return Assessment{}, err
	}
	var missing []string
	if raw.ThesisStrength == nil {
		missing = append(missing, "thesis_strength")
	}
	if raw.AntithesisRisk == nil {
		missing = append(missing, "antithesis_risk")
	}
	if raw.IntegrityScore == nil {
		missing = append(missing, "integrity_score")
	}
	if raw.Synthesis == nil {
		missing = append(missing, "synthesis")
	}
	if len(missing) > 0 {
		return Assessment{}, &MalformedResponseError{Reason: "missing fields " + strings.Join(missing, ", "), Raw: content}
	}
	return Assessment{
		ThesisStrength: *raw.ThesisStrength,
		AntithesisRisk: *raw.AntithesisRisk,
		IntegrityScore: *raw.IntegrityScore,
		Synthesis:      strings.TrimSpace(*raw.Synthesis),
	}, nil
}

// DecodeSignals parses an extraction reply. Every signal must be present and in [0, 1].
func DecodeSignals(content string) (Signals, error) {
	var raw signalsSchema
	if err := decodeStrict(content, &raw); err != nil {
		return Signals{}, err
	}
	values := []struct {
		name  string
		value *float64
	}{
		{"urgency", raw.Urgency},
		{"strategy", raw.Strategy},
		{"risk", raw.Risk},
		{"support", raw.Support},
		{"stability", raw.Stability},
		{"irreversibility", raw.Irreversibility},
		{"stakes", raw.Stakes},
		{"time_pressure", raw.TimePressure},
	}
	var missing []string
	for _, v := range values {
		if v.value == nil {
			missing = append(missing, v.name)
			continue
		}
		if *v.value < 0 || *v.value > 1 {
			return Signals{}, &MalformedResponseError{Reason: fmt.Sprintf("%s %v outside [0, 1]", v.name, *v.value), Raw: content}
		}
	}
	if len(missing) > 0 {
		return Signals{}, &MalformedResponseError{Reason: "missing fields " + strings.Join(missing, ", "), Raw: content}
	}
	out := Signals{
		Urgency:         *raw.Urgency,
		Strategy:        *raw.Strategy,
		Risk:            *raw.Risk,
		Support:         *raw.Support,
		Stability:       *raw.Stability,
		Irreversibility: *raw.Irreversibility,
		Stakes:          *raw.Stakes,
		TimePressure:    *raw.TimePressure,
	}
	if raw.Reasoning != nil {
		out.Reasoning = strings.TrimSpace(*raw.Reasoning)
	}
	return out, nil
}

func decodeStrict(content string, dst any) error {
	block := normalizeJSONBlock(content)
	if block == "" {
		return &MalformedResponseError{Reason: "empty reply", Raw: content}
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(block)))
	if err := dec.Decode(dst); err != nil {
		return &MalformedResponseError{Reason: err.Error(), Raw: content}
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return &MalformedResponseError{Reason: "trailing data after json object", Raw: content}
	}
	return nil
}

func normalizeJSONBlock(input string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return ""
	}
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```")
		if idx := strings.IndexRune(trimmed, '\n'); idx >= 0 {
			trimmed = trimmed[idx+1:]
		}
		if strings.HasSuffix(trimmed, "```") {
			trimmed = trimmed[:len(trimmed)-3]
		}
	}
	trimmed = strings.TrimSpace(trimmed)
	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start >= 0 && end >= start {
		return strings.TrimSpace(trimmed[start : end+1])
	}
	return trimmed
}
