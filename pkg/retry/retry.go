// Package retry runs an operation with bounded exponential backoff.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrExhausted wraps the last error once every attempt has failed.
var ErrExhausted = errors.New("retry attempts exhausted")

// Policy configures attempts and delays. Delay n (1-based) is
// InitialDelay * Multiplier^(n-1), capped at MaxDelay.
type Policy struct {
	Attempts     int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	Retryable    func(error) bool
	// Sleep is swapped in tests; nil means a context-aware timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Default mirrors the feed fetch policy: 3 attempts, 2s doubling, capped at 10s.
func Default() Policy {
	return Policy{
		Attempts:     3,
		InitialDelay: 2 * time.Second,
		MaxDelay:     10 * time.Second,
		Multiplier:   2,
	}
}

// Permanent marks an error that must not be retried.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

type permanentError struct{ err error }

func (p *permanentError) Error() string { return p.err.Error() }
func (p *permanentError) Unwrap() error { return p.err }

// Delay returns the wait before the given retry (1 = first retry).
func (p Policy) Delay(retry int) time.Duration {
	d := float64(p.InitialDelay)
	for i := 1; i < retry; i++ {
		d *= p.Multiplier
		if p.MaxDelay > 0 && time.Duration(d) >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if p.MaxDelay > 0 && time.Duration(d) > p.MaxDelay {
		return p.MaxDelay
	}
	return time.Duration(d)
}

// Do calls fn until it succeeds, returns a permanent error, the policy is
// exhausted, or ctx is done.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context) error) error {
	p = p.normalized()

	var lastErr error
	for attempt := 1; attempt <= p.Attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		var perm *permanentError
		if errors.As(err, &perm) {
			return perm.err
		}
		if p.Retryable != nil && !p.Retryable(err) {
			return err
		}
		if attempt == p.Attempts {
			break
		}

		if err := p.Sleep(ctx, p.Delay(attempt)); err != nil {
			return err
		}
	}

	return fmt.Errorf("%w after %d attempts: %w", ErrExhausted, p.Attempts, lastErr)
}

func (p Policy) normalized() Policy {
	def := Default()
	if p.Attempts <= 0 {
		p.Attempts = def.Attempts
	}
	if p.InitialDelay < 0 {
		p.InitialDelay = 0
	}
	if p.Multiplier <= 0 {
		p.Multiplier = def.Multiplier
	}
	if p.Sleep == nil {
		p.Sleep = sleep
	}
	return p
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
