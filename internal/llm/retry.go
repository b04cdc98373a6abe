package llm

import (
	"context"
	"math/rand"
	"time"
)

// Policy defines bounded retry behavior with exponential backoff. It is a
// value consumed by the gateway rather than inline looping, so the schedule
// is independently testable.
type Policy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	// JitterFactor in [0,1] spreads delays by +/- that fraction.
	JitterFactor float64
}

// DefaultPolicy returns the gateway's standard schedule: three attempts,
// 500ms initial delay doubling up to 4s, with 10% jitter.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:  3,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     4 * time.Second,
		Multiplier:   2.0,
		JitterFactor: 0.1,
	}
}

// retryable is implemented by errors that declare their own retryability.
type retryable interface {
	IsRetryable() bool
}

// Do runs fn up to MaxAttempts times, sleeping with exponential backoff
// between attempts. It stops early when fn succeeds, when the error
// declares itself non-retryable (auth failures short-circuit here), or
// when ctx is done during a wait.
func (p Policy) Do(ctx context.Context, fn func() error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	delay := p.InitialDelay

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if r, ok := err.(retryable); ok && !r.IsRetryable() {
			return err
		}
		if attempt == attempts {
			break
		}

		select {
		case <-time.After(p.jittered(delay)):
		case <-ctx.Done():
			return ctx.Err()
		}
		delay = time.Duration(float64(delay) * p.Multiplier)
		if p.MaxDelay > 0 && delay > p.MaxDelay {
			delay = p.MaxDelay
		}
	}
	return lastErr
}

// jittered spreads a delay by +/- JitterFactor to avoid synchronized
// retries.
func (p Policy) jittered(d time.Duration) time.Duration {
	if p.JitterFactor <= 0 || d <= 0 {
		return d
	}
	j := float64(d) * p.JitterFactor * (rand.Float64()*2 - 1)
	return time.Duration(float64(d) + j)
}
