package ai

import (
	"context"

	"github.com/sirupsen/logrus"
)

type analyzerChain struct {
	primary  Analyzer
	fallback Analyzer
}

// WithFallback returns an analyzer that first tries the primary implementation and
// falls back to the provided analyzer when the primary is unavailable or fails,
// including when it returns a malformed reply.
func WithFallback(primary, fallback Analyzer) Analyzer {
	if primary == nil {
		return fallback
	}
	if fallback == nil {
		return primary
	}
	return &analyzerChain{primary: primary, fallback: fallback}
}

func (c *analyzerChain) Enabled() bool {
	if c == nil {
		return false
	}
	if c.primary != nil && c.primary.Enabled() {
		return true
	}
	if c.fallback != nil && c.fallback.Enabled() {
		return true
	}
	return false
}

func (c *analyzerChain) Analyze(ctx context.Context, dilemma string) (Assessment, error) {
	if c == nil {
		return Assessment{}, ErrDisabled
	}
	var primaryErr error
	if c.primary != nil && c.primary.Enabled() {
		assessment, err := c.primary.Analyze(ctx, dilemma)
		if err == nil {
			return assessment, nil
		}
		if ctx.Err() != nil {
			return Assessment{}, ctx.Err()
		}
		primaryErr = err
		logrus.WithError(err).Warn("primary analyzer failed; trying fallback")
	}
	if c.fallback != nil && c.fallback.Enabled() {
		return c.fallback.Analyze(ctx, dilemma)
	}
	if primaryErr != nil {
		return Assessment{}, primaryErr
	}
	return Assessment{}, ErrDisabled
}
