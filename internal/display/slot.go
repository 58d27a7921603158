package display

import (
	"sync"

	"nerva/backend/internal/analysis"
)

// Slot holds the most recent result shown by the display layer. Each new evaluation
// overwrites it; Clear resets the view to its default.
type Slot struct {
	mu   sync.RWMutex
	last *analysis.Result
}

// Store replaces the held result with a copy of r.
func (s *Slot) Store(r analysis.Result) {
	s.mu.Lock()
	s.last = &r
	s.mu.Unlock()
}

// Load returns a copy of the held result, or nil when empty.
func (s *Slot) Load() *analysis.Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.last == nil {
		return nil
	}
	out := *s.last
	return &out
}

// Clear empties the slot.
func (s *Slot) Clear() {
	s.mu.Lock()
	s.last = nil
	s.mu.Unlock()
}

// Publish stores evaluation events so the slot tracks the latest result.
func (s *Slot) Publish(event analysis.Event) {
	if event.Type == analysis.EventEvaluation && event.Result != nil {
		s.Store(*event.Result)
	}
}
