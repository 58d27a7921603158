package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"nerva/backend/internal/ai"
	"nerva/backend/internal/geometry"
	"nerva/backend/internal/store"
	"nerva/backend/internal/util"
)

const (
	defaultMaxRetries     = 3
	defaultInitialBackoff = 2 * time.Second
	defaultMaxBackoff     = 10 * time.Second
	defaultBatchLimit     = 4
)

// ErrEmptyDilemma is returned when there is no text to analyze.
var ErrEmptyDilemma = errors.New("dilemma is required")

// Result is one completed evaluation.
type Result struct {
	ID               string                  `json:"id"`
	Dilemma          string                  `json:"dilemma,omitempty"`
	Assessment       ai.Assessment           `json:"assessment"`
	Vector           geometry.DecisionVector `json:"vector"`
	Classification   geometry.Classification `json:"classification"`
	Source           string                  `json:"source"`
	ProcessingTimeMs int64                   `json:"processing_time_ms"`
	CreatedAt        time.Time               `json:"created_at"`
}

// Recorder persists evaluations.
type Recorder interface {
	SaveEvaluation(e *store.Evaluation) error
}

// Event is published for every evaluation lifecycle step.
type Event struct {
	Type    string  `json:"type"`
	Dilemma string  `json:"dilemma,omitempty"`
	Result  *Result `json:"result,omitempty"`
	Message string  `json:"message,omitempty"`
}

// Event types.
const (
	EventStarted    = "started"
	EventEvaluation = "evaluation"
	EventFailed     = "failed"
)

// Sink receives evaluation events.
type Sink interface {
	Publish(Event)
}

// Options configures a Service. Only Analyzer is needed for Evaluate.
type Options struct {
	Analyzer       ai.Analyzer
	Recorder       Recorder
	Sink           Sink
	Model          string
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// Service runs the dilemma → scores → decision vector pipeline.
type Service struct {
	analyzer       ai.Analyzer
	recorder       Recorder
	sink           Sink
	model          string
	maxRetries     int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	now            func() time.Time
	newID          func() string
}

// NewService constructs a Service, applying retry defaults.
func NewService(opts Options) *Service {
	s := &Service{
		analyzer:       opts.Analyzer,
		recorder:       opts.Recorder,
		sink:           opts.Sink,
		model:          opts.Model,
		maxRetries:     opts.MaxRetries,
		initialBackoff: opts.InitialBackoff,
		maxBackoff:     opts.MaxBackoff,
		now:            func() time.Time { return time.Now().UTC() },
		newID:          uuid.NewString,
	}
	if s.maxRetries <= 0 {
		s.maxRetries = defaultMaxRetries
	}
	if s.initialBackoff <= 0 {
		s.initialBackoff = defaultInitialBackoff
	}
	if s.maxBackoff <= 0 {
		s.maxBackoff = defaultMaxBackoff
	}
	return s
}

// Enabled reports whether Evaluate can reach an analyzer.
func (s *Service) Enabled() bool {
	return s != nil && s.analyzer != nil && s.analyzer.Enabled()
}

// Evaluate analyzes a dilemma and maps the returned scores onto the sphere.
func (s *Service) Evaluate(ctx context.Context, dilemma string) (Result, error) {
	dilemma = strings.TrimSpace(dilemma)
	if dilemma == "" {
		return Result{}, ErrEmptyDilemma
	}
	if !s.Enabled() {
		return Result{}, ai.ErrDisabled
	}

	timer := util.StartTimer()
	s.publish(Event{Type: EventStarted, Dilemma: dilemma})

	assessment, err := s.analyzeWithRetry(ctx, dilemma)
	if err != nil {
		s.publish(Event{Type: EventFailed, Dilemma: dilemma, Message: err.Error()})
		return Result{}, err
	}

	result, err := s.FromAssessment(assessment)
	if err != nil {
		s.publish(Event{Type: EventFailed, Dilemma: dilemma, Message: err.Error()})
		return Result{}, err
	}
	result.ID = s.newID()
	result.Dilemma = dilemma
	result.Source = store.SourceAnalyze
	result.CreatedAt = s.now()
	result.ProcessingTimeMs = timer.ElapsedMs()

	s.record(result)
	s.publish(Event{Type: EventEvaluation, Dilemma: dilemma, Result: &result})
	return result, nil
}

// Record maps an already decoded assessment, persists it and publishes it.
func (s *Service) Record(dilemma string, assessment ai.Assessment) (Result, error) {
	result, err := s.FromAssessment(assessment)
	if err != nil {
		return Result{}, err
	}
	result.ID = s.newID()
	result.Dilemma = strings.TrimSpace(dilemma)
	result.Source = store.SourceDirect
	result.CreatedAt = s.now()

	s.record(result)
	s.publish(Event{Type: EventEvaluation, Dilemma: result.Dilemma, Result: &result})
	return result, nil
}

// FromAssessment maps scores to a decision vector and classifies the integrity score.
// It has no side effects.
func (s *Service) FromAssessment(assessment ai.Assessment) (Result, error) {
	vector, err := assessment.ScoreInput().Map()
	if err != nil {
		return Result{}, fmt.Errorf("map scores: %w", err)
	}
	return Result{
		Assessment:     assessment,
		Vector:         vector,
		Classification: geometry.Classify(assessment.IntegrityScore),
	}, nil
}

// EvaluateBatch evaluates dilemmas concurrently, at most limit at a time. Results keep
// the input order; the first failure cancels the remaining work.
func (s *Service) EvaluateBatch(ctx context.Context, dilemmas []string, limit int) ([]Result, error) {
	if limit <= 0 {
		limit = defaultBatchLimit
	}
	results := make([]Result, len(dilemmas))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, dilemma := range dilemmas {
		i, dilemma := i, dilemma
		g.Go(func() error {
			result, err := s.Evaluate(gctx, dilemma)
			if err != nil {
				return fmt.Errorf("dilemma %d: %w", i, err)
			}
			results[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) analyzeWithRetry(ctx context.Context, dilemma string) (ai.Assessment, error) {
	delay := s.initialBackoff
	var lastErr error
	for attempt := 0; attempt < s.maxRetries; attempt++ {
		assessment, err := s.analyzer.Analyze(ctx, dilemma)
		if err == nil {
			return assessment, nil
		}

		lastErr = err
		if ctx.Err() != nil {
			return ai.Assessment{}, ctx.Err()
		}
		if !ai.Retryable(err) || attempt == s.maxRetries-1 {
			break
		}

		logrus.WithError(err).WithFields(logrus.Fields{
			"attempt": attempt + 1,
			"delay":   delay,
		}).Warn("analyzer request failed; retrying")

		select {
		case <-ctx.Done():
			return ai.Assessment{}, ctx.Err()
		case <-time.After(delay):
		}

		delay *= 2
		if delay > s.maxBackoff {
			delay = s.maxBackoff
		}
	}
	return ai.Assessment{}, lastErr
}

func (s *Service) record(result Result) {
	if s.recorder == nil {
		return
	}
	row := ToModel(result)
	row.Model = s.model
	if err := s.recorder.SaveEvaluation(&row); err != nil {
		logrus.WithError(err).WithField("evaluation", result.ID).Error("persist evaluation")
	}
}

func (s *Service) publish(event Event) {
	if s.sink != nil {
		s.sink.Publish(event)
	}
}

// ToModel converts a Result into its persisted form.
func ToModel(r Result) store.Evaluation {
	return store.Evaluation{
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
		Classification:   string(r.Classification),
		Source:           r.Source,
		ProcessingTimeMs: r.ProcessingTimeMs,
		CreatedAt:        r.CreatedAt,
	}
}

// FromModel converts a persisted evaluation back into a Result.
func FromModel(e store.Evaluation) Result {
	return Result{
		ID:      e.ID,
		Dilemma: e.Dilemma,
		Assessment: ai.Assessment{
			ThesisStrength: e.ThesisStrength,
			AntithesisRisk: e.AntithesisRisk,
			IntegrityScore: e.IntegrityScore,
			Synthesis:      e.Synthesis,
		},
		Vector: geometry.DecisionVector{
			Theta: e.Theta,
			Phi:   e.Phi,
			X:     e.X,
			Y:     e.Y,
			Z:     e.Z,
		},
		Classification:   geometry.Classification(e.Classification),
		Source:           e.Source,
		ProcessingTimeMs: e.ProcessingTimeMs,
		CreatedAt:        e.CreatedAt,
	}
}
