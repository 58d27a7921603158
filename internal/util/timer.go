package util

import "time"

// Timer measures how long one evaluation step takes.
type Timer struct {
	start time.Time
	now   func() time.Time
}

// StartTimer creates a timer reading the wall clock.
func StartTimer() Timer {
	return Timer{start: time.Now(), now: time.Now}
}

// Elapsed returns the duration since start; zero for an unstarted timer.
func (t Timer) Elapsed() time.Duration {
	if t.start.IsZero() || t.now == nil {
		return 0
	}
	return t.now().Sub(t.start)
}

// ElapsedMs returns Elapsed in whole milliseconds.
func (t Timer) ElapsedMs() int64 {
	return t.Elapsed().Milliseconds()
}
