// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package provider abstracts model provider APIs behind a single Client
// capability. Each adapter translates its backend's call shape and maps
// failures onto one shared classification so the retry layer never has
// to branch on provider identity.
package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Class buckets provider failures by how the caller should react.
type Class int

const (
	// ClassUnrecoverable errors are surfaced immediately, never retried.
	ClassUnrecoverable Class = iota

	// ClassRateLimited errors carry an optional provider wait hint.
	ClassRateLimited

	// ClassOverloaded errors indicate the backend is shedding load;
	// recovery is slow, so retries back off from a large base.
	ClassOverloaded

	// ClassRetryable errors are transient by provider signal.
	ClassRetryable
)

// String returns the class name used in logs.
func (c Class) String() string {
	switch c {
	case ClassRateLimited:
		return "rate_limited"
	case ClassOverloaded:
		return "overloaded"
	case ClassRetryable:
		return "retryable"
	default:
		return "unrecoverable"
	}
}

// Error is the classified failure every adapter returns. Callers inspect
// Class and RetryAfter; Message is for humans and never contains the
// request payload or credentials.
type Error struct {
	Provider   string
	StatusCode int
	Class      Class
	RetryAfter time.Duration // provider wait hint, zero when absent
	Message    string
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %s (HTTP %d): %s", e.Provider, e.Class, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Provider, e.Class, e.Message)
}

// Retryable reports whether the error class permits another attempt.
func (e *Error) Retryable() bool {
	return e.Class != ClassUnrecoverable
}

// classifyStatus maps an HTTP status code to an error class. Adapters
// refine this when the backend reports a more specific error type.
func classifyStatus(code int) Class {
	switch code {
	case http.StatusTooManyRequests:
		return ClassRateLimited
	case http.StatusServiceUnavailable, 529:
		return ClassOverloaded
	case http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusGatewayTimeout, http.StatusRequestTimeout:
		return ClassRetryable
	default:
		return ClassUnrecoverable
	}
}

// ErrNoProvider is returned when a request names no provider. Providers
// are never defaulted silently.
var ErrNoProvider = errors.New("no provider selected")

// Message is one role-tagged entry in a conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is the normalized invocation shape shared by all adapters.
type Request struct {
	// Provider names the configured adapter to use. Required.
	Provider string

	// Model is the backend model identifier. Required.
	Model string

	// Messages is the ordered conversation to send.
	Messages []Message

	// Temperature is the sampling temperature.
	Temperature float64

	// MaxTokens caps the reply size.
	MaxTokens int
}

// Validate checks the request shape before any network work.
func (r *Request) Validate() error {
	if r.Provider == "" {
		return ErrNoProvider
	}
	if r.Model == "" {
		return errors.New("no model selected")
	}
	if len(r.Messages) == 0 {
		return errors.New("empty message list")
	}
	return nil
}

// Usage reports token consumption for one reply.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// Reply is the normalized provider response.
type Reply struct {
	// Text is the model's reply, concatenated across content blocks.
	Text string

	// Model is the model that actually served the request.
	Model string

	// Usage reports token counts when the backend supplies them.
	Usage Usage
}

// Client is the capability a concrete provider adapter exposes. Send
// returns either a reply or an *Error carrying a retry classification.
type Client interface {
	// Name returns the adapter name ("anthropic", "openai", "openrouter").
	Name() string

	// Send performs one model call. Errors are always *Error.
	Send(ctx context.Context, req Request) (*Reply, error)
}
