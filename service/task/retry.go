package task

import (
	"context"
	"math"
	"strings"
	"time"
)

const (
	RetryNone        = "none"
	RetryFixed       = "fixed"
	RetryExponential = "exponential"
)

// RetryPolicy bounds retries of a failing invocation.
type RetryPolicy struct {
	Type       string        // fixed, exponential, none
	MaxRetries int           // retries beyond the first attempt
	Delay      time.Duration // base delay
	Multiplier float64       // exponential multiplier (>1)
	MaxDelay   time.Duration
}

// DefaultPublishRetry is the policy applied to publish commands.
func DefaultPublishRetry() *RetryPolicy {
	return &RetryPolicy{Type: RetryFixed, MaxRetries: 2, Delay: 2 * time.Second}
}

// Next returns whether another attempt is allowed after attempts retries
// and how long to wait before it.
func (p *RetryPolicy) Next(attempts int) (bool, time.Duration) {
	if p == nil || strings.ToLower(p.Type) == RetryNone {
		return false, 0
	}
	if attempts >= p.MaxRetries {
		return false, 0
	}
	switch strings.ToLower(p.Type) {
	case RetryExponential:
		mult := p.Multiplier
		if mult <= 1 {
			mult = 2
		}
		delay := float64(p.Delay) * math.Pow(mult, float64(attempts))
		if p.MaxDelay > 0 && time.Duration(delay) > p.MaxDelay {
			delay = float64(p.MaxDelay)
		}
		return true, time.Duration(delay)
	default:
		return true, p.Delay
	}
}

// wait sleeps for delay or until ctx is done.
func wait(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
