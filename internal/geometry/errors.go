package geometry

import (
	"errors"
	"fmt"
)

// ErrOutOfRange matches any *OutOfRangeError via errors.Is.
var ErrOutOfRange = errors.New("score out of range")

// OutOfRangeError reports a score that is not a finite number in [ScoreMin, ScoreMax].
type OutOfRangeError struct {
	Field string
	Value float64
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("%s score %v outside [%g, %g]", e.Field, e.Value, ScoreMin, ScoreMax)
}

// Is lets errors.Is(err, ErrOutOfRange) succeed.
func (e *OutOfRangeError) Is(target error) bool {
	return target == ErrOutOfRange
}
