// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package invoke wraps a provider client with per-error-class retry
// policy. Callers see a reply, ErrExhaustedRetries, or ErrUnrecoverable;
// raw provider errors never escape.
package invoke

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/pdiddy/sermon-engine/internal/provider"
	"github.com/pdiddy/sermon-engine/pkg/types"
)

var (
	// ErrExhaustedRetries marks a call abandoned after its attempt
	// ceiling or wall-clock budget.
	ErrExhaustedRetries = errors.New("retries exhausted")

	// ErrUnrecoverable marks a provider failure that retrying cannot fix.
	ErrUnrecoverable = errors.New("unrecoverable provider error")
)

// Defaults applied when a RetryConfig field is unset. Overload tolerates
// the most attempts; generic retryable failures the fewest ceiling-wise
// among retried classes.
const (
	defaultRateLimitAttempts = 6
	defaultOverloadAttempts  = 10
	defaultRetryableAttempts = 5

	defaultRateLimitBaseline = 20 * time.Second
	defaultOverloadBase      = 10 * time.Second
	defaultRetryableBase     = 2 * time.Second

	defaultMaxElapsed = 10 * time.Minute
)

// Invoker retries provider calls according to the configured policy.
// One Invoker is safe for concurrent use; retry state lives on the
// stack of each Invoke call.
type Invoker struct {
	client provider.Client
	cfg    types.RetryConfig
	logger *slog.Logger
}

// New builds an invoker over client, filling unset policy fields with
// defaults. A nil logger falls back to slog.Default.
func New(client provider.Client, cfg types.RetryConfig, logger *slog.Logger) *Invoker {
	if cfg.RateLimitAttempts <= 0 {
		cfg.RateLimitAttempts = defaultRateLimitAttempts
	}
	if cfg.OverloadAttempts <= 0 {
		cfg.OverloadAttempts = defaultOverloadAttempts
	}
	if cfg.RetryableAttempts <= 0 {
		cfg.RetryableAttempts = defaultRetryableAttempts
	}
	if cfg.RateLimitBaseline <= 0 {
		cfg.RateLimitBaseline = defaultRateLimitBaseline
	}
	if cfg.OverloadBase <= 0 {
		cfg.OverloadBase = defaultOverloadBase
	}
	if cfg.RetryableBase <= 0 {
		cfg.RetryableBase = defaultRetryableBase
	}
	if cfg.MaxElapsed <= 0 {
		cfg.MaxElapsed = defaultMaxElapsed
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Invoker{client: client, cfg: cfg, logger: logger}
}

// retryState tracks one logical call's progress. Attempts are counted
// per error class so each class's ceiling and backoff curve are
// independent of failures in the other classes.
type retryState struct {
	attempts  map[provider.Class]int
	totalWait time.Duration
}

// Invoke performs one logical provider call, retrying rate-limited,
// overloaded, and provider-signaled-retryable failures with the
// configured backoff. Waits are context-cancellable.
func (inv *Invoker) Invoke(ctx context.Context, req provider.Request) (*provider.Reply, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnrecoverable, err)
	}

	state := retryState{attempts: make(map[provider.Class]int)}

	for {
		reply, err := inv.client.Send(ctx, req)
		if err == nil {
			return reply, nil
		}

		var pErr *provider.Error
		if !errors.As(err, &pErr) || !pErr.Retryable() {
			return nil, fmt.Errorf("%w: %w", ErrUnrecoverable, err)
		}

		class := pErr.Class
		state.attempts[class]++
		attempt := state.attempts[class]

		if attempt >= inv.ceiling(class) {
			return nil, fmt.Errorf("%w: %d %s attempts: %w",
				ErrExhaustedRetries, attempt, class, err)
		}

		wait := inv.wait(class, attempt, pErr.RetryAfter)
		if state.totalWait+wait > inv.cfg.MaxElapsed {
			return nil, fmt.Errorf("%w: backoff budget %s spent: %w",
				ErrExhaustedRetries, inv.cfg.MaxElapsed, err)
		}
		state.totalWait += wait

		inv.logger.Info("retrying provider call",
			"provider", req.Provider,
			"class", class.String(),
			"attempt", attempt,
			"wait", wait)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
}

// ceiling returns the attempt ceiling for an error class.
func (inv *Invoker) ceiling(class provider.Class) int {
	switch class {
	case provider.ClassRateLimited:
		return inv.cfg.RateLimitAttempts
	case provider.ClassOverloaded:
		return inv.cfg.OverloadAttempts
	default:
		return inv.cfg.RetryableAttempts
	}
}

// wait computes the backoff before the next attempt. Rate limits trust
// the provider's hint verbatim when present and use a fixed baseline
// otherwise; overload and generic retryable failures back off
// exponentially from their respective bases.
func (inv *Invoker) wait(class provider.Class, attempt int, hint time.Duration) time.Duration {
	switch class {
	case provider.ClassRateLimited:
		if hint > 0 {
			return hint
		}
		return inv.cfg.RateLimitBaseline
	case provider.ClassOverloaded:
		return backoff(inv.cfg.OverloadBase, attempt)
	default:
		return backoff(inv.cfg.RetryableBase, attempt)
	}
}

// backoff is base doubled per completed attempt: base, 2·base, 4·base, …
func backoff(base time.Duration, attempt int) time.Duration {
	return time.Duration(math.Pow(2, float64(attempt-1))) * base
}
