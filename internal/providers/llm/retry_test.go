package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flakyProvider struct {
	failures int
	calls    int
	reply    string
}

func (f *flakyProvider) Generate(ctx context.Context, _ []Message) (string, error) {
	f.calls++
	if f.calls <= f.failures {
		return "", errors.New("upstream unavailable")
	}
	return f.reply, nil
}

func (f *flakyProvider) Close() error { return nil }

func TestRetryingSucceedsAfterFailures(t *testing.T) {
	p := &flakyProvider{failures: 2, reply: "ok"}
	var waits []time.Duration
	r := &Retrying{
		Provider: p,
		Attempts: 3,
		Base:     time.Millisecond,
		OnRetry:  func(_ error, d time.Duration) { waits = append(waits, d) },
	}

	out, err := r.Generate(context.Background(), []Message{User("hi")})
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, 3, p.calls)
	assert.Equal(t, []time.Duration{time.Millisecond, 2 * time.Millisecond}, waits)
}

func TestRetryingGivesUpAfterAttempts(t *testing.T) {
	p := &flakyProvider{failures: 10}
	r := &Retrying{Provider: p, Attempts: 3, Base: time.Millisecond}

	_, err := r.Generate(context.Background(), nil)
	require.Error(t, err)
	assert.Equal(t, 3, p.calls)
}

func TestRetryingStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := &flakyProvider{failures: 10}
	r := &Retrying{Provider: p, Attempts: 3, Base: time.Second}

	_, err := r.Generate(ctx, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.LessOrEqual(t, p.calls, 1)
}
