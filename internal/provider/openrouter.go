// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pdiddy/sermon-engine/pkg/types"
)

const openRouterDefaultURL = "https://openrouter.ai/api/v1"

// OpenRouter calls the OpenRouter gateway, which fronts many models
// behind an OpenAI-compatible chat completions API. Beyond Send it
// exposes model discovery, which the retry core does not use.
type OpenRouter struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewOpenRouter builds the OpenRouter adapter from provider configuration.
func NewOpenRouter(cfg types.ProviderConfig) *OpenRouter {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = openRouterDefaultURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &OpenRouter{
		apiKey:  cfg.APIKey,
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// Name returns the adapter name.
func (o *OpenRouter) Name() string { return "openrouter" }

// openRouterRequest is the chat completions request body.
type openRouterRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

// openRouterResponse is the chat completions success body.
type openRouterResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// openRouterError is the gateway error body.
type openRouterError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Send performs one chat completion call through the gateway.
func (o *OpenRouter) Send(ctx context.Context, req Request) (*Reply, error) {
	body := openRouterRequest{
		Model:       req.Model,
		Messages:    req.Messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}

	respBytes, status, header, err := o.post(ctx, "/chat/completions", body)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, o.classify(status, header, respBytes)
	}

	var oResp openRouterResponse
	if err := json.Unmarshal(respBytes, &oResp); err != nil {
		return nil, &Error{Provider: o.Name(), Class: ClassUnrecoverable,
			Message: fmt.Sprintf("decoding response: %v", err)}
	}
	if len(oResp.Choices) == 0 {
		return nil, &Error{Provider: o.Name(), Class: ClassUnrecoverable,
			Message: "no choices in response"}
	}

	return &Reply{
		Text:  oResp.Choices[0].Message.Content,
		Model: oResp.Model,
		Usage: Usage{
			InputTokens:  oResp.Usage.PromptTokens,
			OutputTokens: oResp.Usage.CompletionTokens,
		},
	}, nil
}

// ModelInfo describes one model available through the gateway.
type ModelInfo struct {
	// ID is the gateway model identifier (e.g. "anthropic/claude-sonnet-4-5").
	ID string

	// ContextLength is the model's context window in tokens.
	ContextLength int

	// PromptPrice and CompletionPrice are per-token USD prices as the
	// gateway reports them (decimal strings).
	PromptPrice     string
	CompletionPrice string
}

// ListModels queries the gateway's model catalog for discovery.
func (o *OpenRouter) ListModels(ctx context.Context) ([]ModelInfo, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, o.baseURL+"/models", nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("listing models: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("listing models: HTTP %d", resp.StatusCode)
	}

	var listing struct {
		Data []struct {
			ID            string `json:"id"`
			ContextLength int    `json:"context_length"`
			Pricing       struct {
				Prompt     string `json:"prompt"`
				Completion string `json:"completion"`
			} `json:"pricing"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return nil, fmt.Errorf("decoding model listing: %w", err)
	}

	models := make([]ModelInfo, 0, len(listing.Data))
	for _, m := range listing.Data {
		models = append(models, ModelInfo{
			ID:              m.ID,
			ContextLength:   m.ContextLength,
			PromptPrice:     m.Pricing.Prompt,
			CompletionPrice: m.Pricing.Completion,
		})
	}
	return models, nil
}

// post sends a JSON body and returns the raw response.
func (o *OpenRouter) post(ctx context.Context, path string, body any) ([]byte, int, http.Header, error) {
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return nil, 0, nil, &Error{Provider: o.Name(), Class: ClassUnrecoverable,
			Message: fmt.Sprintf("marshaling request: %v", err)}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		o.baseURL+path, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, 0, nil, &Error{Provider: o.Name(), Class: ClassUnrecoverable,
			Message: fmt.Sprintf("creating request: %v", err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.client.Do(httpReq)
	if err != nil {
		return nil, 0, nil, &Error{Provider: o.Name(), Class: ClassRetryable,
			Message: fmt.Sprintf("calling gateway: %v", err)}
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, nil, &Error{Provider: o.Name(), Class: ClassRetryable,
			Message: fmt.Sprintf("reading response: %v", err)}
	}
	return respBytes, resp.StatusCode, resp.Header, nil
}

// classify maps a non-200 gateway response to a classified error.
func (o *OpenRouter) classify(status int, header http.Header, body []byte) *Error {
	message := http.StatusText(status)
	var eBody openRouterError
	if err := json.Unmarshal(body, &eBody); err == nil && eBody.Error.Message != "" {
		message = eBody.Error.Message
	}
	return &Error{
		Provider:   o.Name(),
		StatusCode: status,
		Class:      classifyStatus(status),
		RetryAfter: retryAfterHint(header),
		Message:    message,
	}
}
