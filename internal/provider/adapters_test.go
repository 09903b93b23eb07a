package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/sermon-engine/pkg/types"
)

func testRequest() Request {
	return Request{
		Provider:    "anthropic",
		Model:       "test-model",
		Messages:    []Message{{Role: "system", Content: "be brief"}, {Role: "user", Content: "hello"}},
		Temperature: 0.2,
		MaxTokens:   128,
	}
}

func TestAnthropicSend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/messages", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("x-api-key"))
		assert.NotEmpty(t, r.Header.Get("anthropic-version"))

		var body anthropicRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "be brief", body.System, "system message lifted out of the list")
		require.Len(t, body.Messages, 1)
		assert.Equal(t, "user", body.Messages[0].Role)

		json.NewEncoder(w).Encode(map[string]any{
			"model": "test-model-20260801",
			"content": []map[string]any{
				{"type": "text", "text": "SCORE gospel_clarity: 9\n"},
			},
			"usage": map[string]any{"input_tokens": 10, "output_tokens": 5},
		})
	}))
	defer srv.Close()

	a := NewAnthropic(types.ProviderConfig{APIKey: "secret", BaseURL: srv.URL})
	reply, err := a.Send(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "gospel_clarity")
	assert.Equal(t, "test-model-20260801", reply.Model)
	assert.Equal(t, 10, reply.Usage.InputTokens)
}

func TestAnthropicSendRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "12")
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"type": "rate_limit_error", "message": "slow down"},
		})
	}))
	defer srv.Close()

	a := NewAnthropic(types.ProviderConfig{APIKey: "secret", BaseURL: srv.URL})
	_, err := a.Send(context.Background(), testRequest())

	var pErr *Error
	require.ErrorAs(t, err, &pErr)
	assert.Equal(t, ClassRateLimited, pErr.Class)
	assert.Equal(t, 12*time.Second, pErr.RetryAfter)
	assert.Equal(t, "slow down", pErr.Message)
}

func TestOpenRouterSend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer or-key", r.Header.Get("Authorization"))

		json.NewEncoder(w).Encode(map[string]any{
			"model": "anthropic/claude-sonnet-4-5",
			"choices": []map[string]any{
				{"message": map[string]any{"content": "```json\n{\"title\": \"Jubilee\"}\n```"}},
			},
			"usage": map[string]any{"prompt_tokens": 7, "completion_tokens": 3},
		})
	}))
	defer srv.Close()

	o := NewOpenRouter(types.ProviderConfig{APIKey: "or-key", BaseURL: srv.URL})
	reply, err := o.Send(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "Jubilee")
	assert.Equal(t, 7, reply.Usage.InputTokens)
}

func TestOpenRouterSendOverloaded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"code": 503, "message": "upstream saturated"},
		})
	}))
	defer srv.Close()

	o := NewOpenRouter(types.ProviderConfig{APIKey: "or-key", BaseURL: srv.URL})
	_, err := o.Send(context.Background(), testRequest())

	var pErr *Error
	require.ErrorAs(t, err, &pErr)
	assert.Equal(t, ClassOverloaded, pErr.Class)
	assert.Equal(t, "upstream saturated", pErr.Message)
}

func TestOpenRouterListModels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{
				{
					"id":             "anthropic/claude-sonnet-4-5",
					"context_length": 200000,
					"pricing":        map[string]any{"prompt": "0.000003", "completion": "0.000015"},
				},
			},
		})
	}))
	defer srv.Close()

	o := NewOpenRouter(types.ProviderConfig{APIKey: "or-key", BaseURL: srv.URL})
	models, err := o.ListModels(context.Background())
	require.NoError(t, err)
	require.Len(t, models, 1)
	assert.Equal(t, "anthropic/claude-sonnet-4-5", models[0].ID)
	assert.Equal(t, 200000, models[0].ContextLength)
	assert.Equal(t, "0.000003", models[0].PromptPrice)
}

func TestAnthropicConnectionErrorIsRetryable(t *testing.T) {
	// Point at a server that is already closed.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	a := NewAnthropic(types.ProviderConfig{APIKey: "secret", BaseURL: url})
	_, err := a.Send(context.Background(), testRequest())

	var pErr *Error
	require.True(t, errors.As(err, &pErr))
	assert.Equal(t, ClassRetryable, pErr.Class)
}
