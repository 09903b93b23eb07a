package invoke

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/sermon-engine/internal/provider"
	"github.com/pdiddy/sermon-engine/pkg/types"
)

// scriptedClient fails with the scripted errors in order, then succeeds.
type scriptedClient struct {
	errs  []error
	calls int
}

func (c *scriptedClient) Name() string { return "scripted" }

func (c *scriptedClient) Send(_ context.Context, _ provider.Request) (*provider.Reply, error) {
	c.calls++
	if c.calls <= len(c.errs) {
		return nil, c.errs[c.calls-1]
	}
	return &provider.Reply{Text: "ok"}, nil
}

// fastRetry keeps test sleeps in the microsecond range.
func fastRetry() types.RetryConfig {
	return types.RetryConfig{
		RateLimitAttempts: 3,
		OverloadAttempts:  4,
		RetryableAttempts: 2,
		RateLimitBaseline: time.Microsecond,
		OverloadBase:      time.Microsecond,
		RetryableBase:     time.Microsecond,
		MaxElapsed:        time.Second,
	}
}

func validRequest() provider.Request {
	return provider.Request{
		Provider: "scripted",
		Model:    "test-model",
		Messages: []provider.Message{{Role: "user", Content: "hi"}},
	}
}

func classErr(class provider.Class) *provider.Error {
	return &provider.Error{Provider: "scripted", Class: class, Message: "simulated"}
}

func TestInvokeSucceedsAfterTransientFailures(t *testing.T) {
	client := &scriptedClient{errs: []error{
		classErr(provider.ClassRetryable),
	}}
	inv := New(client, fastRetry(), slog.Default())

	reply, err := inv.Invoke(context.Background(), validRequest())
	require.NoError(t, err)
	assert.Equal(t, "ok", reply.Text)
	assert.Equal(t, 2, client.calls)
}

func TestInvokeOverloadExhaustsAtCeiling(t *testing.T) {
	overloaded := classErr(provider.ClassOverloaded)
	client := &scriptedClient{errs: []error{
		overloaded, overloaded, overloaded, overloaded, overloaded, overloaded,
	}}
	inv := New(client, fastRetry(), slog.Default())

	_, err := inv.Invoke(context.Background(), validRequest())
	require.ErrorIs(t, err, ErrExhaustedRetries)
	// The ceiling is the configured maximum attempts, exactly.
	assert.Equal(t, 4, client.calls)
}

func TestInvokeUnrecoverableImmediate(t *testing.T) {
	client := &scriptedClient{errs: []error{
		classErr(provider.ClassUnrecoverable),
	}}
	inv := New(client, fastRetry(), slog.Default())

	_, err := inv.Invoke(context.Background(), validRequest())
	require.ErrorIs(t, err, ErrUnrecoverable)
	assert.Equal(t, 1, client.calls, "unrecoverable errors must not be retried")
}

func TestInvokeNoProviderFailsFast(t *testing.T) {
	client := &scriptedClient{}
	inv := New(client, fastRetry(), slog.Default())

	req := validRequest()
	req.Provider = ""
	_, err := inv.Invoke(context.Background(), req)
	require.ErrorIs(t, err, provider.ErrNoProvider)
	assert.Zero(t, client.calls)
}

func TestWaitStrictlyIncreasesPerClass(t *testing.T) {
	inv := New(&scriptedClient{}, types.RetryConfig{}, nil)

	for _, class := range []provider.Class{provider.ClassOverloaded, provider.ClassRetryable} {
		prev := time.Duration(0)
		for attempt := 1; attempt <= 5; attempt++ {
			w := inv.wait(class, attempt, 0)
			assert.Greater(t, w, prev, "class %s attempt %d", class, attempt)
			prev = w
		}
	}
}

func TestWaitOverloadBackoffSlowerThanRetryable(t *testing.T) {
	inv := New(&scriptedClient{}, types.RetryConfig{}, nil)
	for attempt := 1; attempt <= 4; attempt++ {
		assert.Greater(t,
			inv.wait(provider.ClassOverloaded, attempt, 0),
			inv.wait(provider.ClassRetryable, attempt, 0))
	}
}

func TestWaitRateLimitTrustsHint(t *testing.T) {
	inv := New(&scriptedClient{}, types.RetryConfig{}, nil)

	hint := 37 * time.Second
	assert.Equal(t, hint, inv.wait(provider.ClassRateLimited, 1, hint))
	// Without a hint the fixed baseline applies, not exponential growth.
	assert.Equal(t,
		inv.wait(provider.ClassRateLimited, 1, 0),
		inv.wait(provider.ClassRateLimited, 3, 0))
}

func TestInvokeWallClockBudget(t *testing.T) {
	cfg := fastRetry()
	cfg.OverloadBase = time.Hour
	cfg.MaxElapsed = time.Minute

	client := &scriptedClient{errs: []error{classErr(provider.ClassOverloaded)}}
	inv := New(client, cfg, slog.Default())

	start := time.Now()
	_, err := inv.Invoke(context.Background(), validRequest())
	require.ErrorIs(t, err, ErrExhaustedRetries)
	assert.Less(t, time.Since(start), time.Second, "budget overflow must fail without waiting")
	assert.Equal(t, 1, client.calls)
}

func TestInvokeContextCancelledDuringWait(t *testing.T) {
	cfg := fastRetry()
	cfg.RetryableBase = time.Hour

	client := &scriptedClient{errs: []error{classErr(provider.ClassRetryable)}}
	inv := New(client, cfg, slog.Default())

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := inv.Invoke(ctx, validRequest())
	require.ErrorIs(t, err, context.Canceled)
}
