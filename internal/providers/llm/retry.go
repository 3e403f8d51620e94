package llm

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Retrying retries a provider with exponential backoff (Base, 2*Base, 4*Base, ...).
type Retrying struct {
	Provider Provider
	Attempts uint
	Base     time.Duration
	// OnRetry observes every failed attempt that will be retried.
	OnRetry func(err error, wait time.Duration)
}

func (r *Retrying) Generate(ctx context.Context, messages []Message) (string, error) {
	attempts := r.Attempts
	if attempts == 0 {
		attempts = 1
	}

	bo := &backoff.ExponentialBackOff{
		InitialInterval:     r.Base,
		RandomizationFactor: 0,
		Multiplier:          2,
		MaxInterval:         time.Minute,
	}
	bo.Reset()

	op := func() (string, error) {
		out, err := r.Provider.Generate(ctx, messages)
		if err != nil && ctx.Err() != nil {
			return "", backoff.Permanent(ctx.Err())
		}
		return out, err
	}

	opts := []backoff.RetryOption{
		backoff.WithBackOff(bo),
		backoff.WithMaxTries(attempts),
		backoff.WithMaxElapsedTime(0),
	}
	if r.OnRetry != nil {
		opts = append(opts, backoff.WithNotify(r.OnRetry))
	}

	out, err := backoff.Retry(ctx, op, opts...)
	if err != nil {
		var perm *backoff.PermanentError
		if errors.As(err, &perm) {
			return "", perm.Unwrap()
		}
		return "", err
	}
	return out, nil
}

func (r *Retrying) Close() error { return r.Provider.Close() }
