package resilience

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
)

// RetryConfig controls exponential backoff for outbound calls. The zero value
// is usable: missing fields fall back to the defaults below.
type RetryConfig struct {
	// MaxAttempts is the total number of tries including the first one, so 1
	// disables retries entirely. Default: 3.
	MaxAttempts int

	// InitialBackoff is the sleep before the first retry. Default: 500ms.
	InitialBackoff time.Duration

	// MaxBackoff caps the sleep between attempts. Default: 30s.
	MaxBackoff time.Duration

	// Multiplier grows the sleep after every failed attempt. Default: 2.0.
	Multiplier float64

	// JitterFraction spreads the sleep by ±fraction so parallel workers that
	// fail together do not retry together. Default: 0.25.
	JitterFraction float64

	// ShouldRetry decides whether an error is worth another attempt. Nil
	// means IsTransient.
	ShouldRetry func(err error) bool

	// OnRetry runs before each sleep with the upcoming attempt number.
	OnRetry func(attempt int, err error)
}

// DefaultRetryConfig is tuned for rate-limited vendor APIs: three attempts
// with half-second initial backoff covers the usual 429/529 blips without
// stalling a batch run.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: 500 * time.Millisecond,
		MaxBackoff:     30 * time.Second,
		Multiplier:     2.0,
		JitterFraction: 0.25,
	}
}

// Do runs fn until it succeeds, the error is permanent, attempts run out, or
// ctx is cancelled. The last error is returned as-is so callers can keep
// matching with errors.Is and errors.As.
func Do(ctx context.Context, cfg RetryConfig, fn func(ctx context.Context) error) error {
	_, err := DoVal(ctx, cfg, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// DoVal is Do for calls that produce a value. On failure the zero value is
// returned alongside the last error.
func DoVal[T any](ctx context.Context, cfg RetryConfig, fn func(ctx context.Context) (T, error)) (T, error) {
	cfg = withDefaults(cfg)
	retryable := cfg.ShouldRetry
	if retryable == nil {
		retryable = IsTransient
	}

	var zero T
	var lastErr error
	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		val, err := fn(ctx)
		if err == nil {
			return val, nil
		}
		lastErr = err

		if ctx.Err() != nil || !retryable(lastErr) {
			break
		}
		if attempt == cfg.MaxAttempts-1 {
			break
		}

		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt+1, lastErr)
		}

		timer := time.NewTimer(backoffFor(attempt, cfg))
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, lastErr
		case <-timer.C:
		}
	}

	return zero, lastErr
}

func withDefaults(cfg RetryConfig) RetryConfig {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 500 * time.Millisecond
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 30 * time.Second
	}
	if cfg.Multiplier <= 0 {
		cfg.Multiplier = 2.0
	}
	if cfg.JitterFraction < 0 {
		cfg.JitterFraction = 0
	}
	return cfg
}

func backoffFor(attempt int, cfg RetryConfig) time.Duration {
	delay := float64(cfg.InitialBackoff) * math.Pow(cfg.Multiplier, float64(attempt))
	delay = math.Min(delay, float64(cfg.MaxBackoff))

	if cfg.JitterFraction > 0 {
		// Uniform in [delay*(1-f), delay*(1+f)].
		delay *= 1 + cfg.JitterFraction*(rand.Float64()*2-1)
	}
	return time.Duration(math.Max(delay, 0))
}

// RetryLogger returns an OnRetry callback that records each attempt against
// the named service and operation.
func RetryLogger(service, operation string) func(int, error) {
	return func(attempt int, err error) {
		zap.L().Warn("retrying operation",
			zap.String("service", service),
			zap.String("operation", operation),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
	}
}
