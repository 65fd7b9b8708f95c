// Package resilience provides retry with exponential backoff for the
// upstream search and enrichment adapters. Search requests are cheap and
// idempotent, so every adapter call goes through a Policy.
package resilience

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
)

// Policy controls retry behavior for one adapter.
type Policy struct {
	// Attempts is the total number of tries including the first. 1 means
	// no retries.
	Attempts int

	// BaseDelay is the backoff before the first retry; each further retry
	// multiplies it by Multiplier up to MaxDelay.
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Multiplier float64

	// Jitter randomizes each delay by up to this fraction in either
	// direction, so concurrent item waterfalls don't retry in lockstep.
	Jitter float64

	// Classify overrides the transient check. Nil means IsTransient.
	Classify func(err error) bool
}

// DefaultPolicy returns the retry tuning used for the search adapters.
// Per-item stages already degrade on failure, so the budget stays small.
func DefaultPolicy() Policy {
	return Policy{
		Attempts:   3,
		BaseDelay:  300 * time.Millisecond,
		MaxDelay:   5 * time.Second,
		Multiplier: 2.0,
		Jitter:     0.25,
	}
}

// NoRetry returns a single-attempt policy.
func NoRetry() Policy {
	return Policy{Attempts: 1}
}

// Do runs fn under the policy, retrying transient failures until the
// attempt budget runs out. Context cancellation stops retries at once.
func Do(ctx context.Context, p Policy, adapter string, fn func(ctx context.Context) error) error {
	p = p.withDefaults()

	classify := p.Classify
	if classify == nil {
		classify = IsTransient
	}

	var lastErr error
	for attempt := 0; attempt < p.Attempts; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil || !classify(lastErr) || attempt == p.Attempts-1 {
			return lastErr
		}

		zap.L().Warn("retrying upstream call",
			zap.String("adapter", adapter),
			zap.Int("attempt", attempt+1),
			zap.Error(lastErr),
		)

		timer := time.NewTimer(p.delay(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return lastErr
		case <-timer.C:
		}
	}
	return lastErr
}

// DoVal is Do for calls that return a value.
func DoVal[T any](ctx context.Context, p Policy, adapter string, fn func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := Do(ctx, p, adapter, func(ctx context.Context) error {
		var err error
		out, err = fn(ctx)
		return err
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

func (p Policy) withDefaults() Policy {
	if p.Attempts <= 0 {
		p.Attempts = 3
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = 300 * time.Millisecond
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = 5 * time.Second
	}
	if p.Multiplier <= 0 {
		p.Multiplier = 2.0
	}
	if p.Jitter < 0 {
		p.Jitter = 0
	}
	return p
}

func (p Policy) delay(attempt int) time.Duration {
	d := float64(p.BaseDelay) * math.Pow(p.Multiplier, float64(attempt))
	if d > float64(p.MaxDelay) {
		d = float64(p.MaxDelay)
	}
	if p.Jitter > 0 {
		d += (rand.Float64()*2 - 1) * d * p.Jitter
	}
	if d < 0 {
		d = 0
	}
	return time.Duration(d)
}
