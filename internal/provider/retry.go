package provider

import (
	"context"
	"errors"
	"net/http"
	"time"

	"sentiment-lens/internal/domain"

	"github.com/cenkalti/backoff/v5"
)

// RetryPolicy bounds each attempt with Timeout and makes at most MaxTries attempts.
type RetryPolicy struct {
	MaxTries        uint
	Timeout         time.Duration
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultRetryPolicy is used when a caller passes a zero policy.
var DefaultRetryPolicy = RetryPolicy{
	MaxTries:        3,
	Timeout:         20 * time.Second,
	InitialInterval: 500 * time.Millisecond,
	MaxInterval:     5 * time.Second,
}

// Retry runs op with a per-attempt timeout, retrying transient failures with
// exponential backoff. Schema and request errors are never retried.
func Retry[T any](ctx context.Context, policy RetryPolicy, op func(context.Context) (T, error)) (T, error) {
	if policy.MaxTries == 0 {
		policy = DefaultRetryPolicy
	}

	b := backoff.NewExponentialBackOff()
	if policy.InitialInterval > 0 {
		b.InitialInterval = policy.InitialInterval
	}
	if policy.MaxInterval > 0 {
		b.MaxInterval = policy.MaxInterval
	}

	attempt := func() (T, error) {
		attemptCtx := ctx
		if policy.Timeout > 0 {
			var cancel context.CancelFunc
			attemptCtx, cancel = context.WithTimeout(ctx, policy.Timeout)
			defer cancel()
		}
		v, err := op(attemptCtx)
		if err == nil {
			return v, nil
		}
		if ctx.Err() != nil || !IsTransient(err) {
			return v, backoff.Permanent(err)
		}
		return v, err
	}

	return backoff.Retry(ctx, attempt,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(policy.MaxTries),
	)
}

// IsTransient reports whether err is worth another attempt.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code == http.StatusTooManyRequests || se.Code >= http.StatusInternalServerError
	}
	if errors.Is(err, domain.ErrSchemaMismatch) || errors.Is(err, domain.ErrInvalidRequest) {
		return false
	}
	return errors.Is(err, domain.ErrSourceUnavailable) || errors.Is(err, context.DeadlineExceeded)
}
