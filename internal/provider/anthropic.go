// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/pdiddy/sermon-engine/pkg/types"
)

const anthropicDefaultURL = "https://api.anthropic.com/v1"

// Anthropic calls the Claude Messages API.
type Anthropic struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewAnthropic builds the Anthropic adapter from provider configuration.
func NewAnthropic(cfg types.ProviderConfig) *Anthropic {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = anthropicDefaultURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Anthropic{
		apiKey:  cfg.APIKey,
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// Name returns the adapter name.
func (a *Anthropic) Name() string { return "anthropic" }

// anthropicRequest is the request body for the Claude Messages API.
type anthropicRequest struct {
	Model       string    `json:"model"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature,omitempty"`
	System      string    `json:"system,omitempty"`
	Messages    []Message `json:"messages"`
}

// anthropicResponse is the success body from the Claude Messages API.
type anthropicResponse struct {
	Model   string `json:"model"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// anthropicError is the error body from the Claude Messages API.
type anthropicError struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Send performs one Claude Messages call. The system prompt, when the
// first message is role "system", is lifted into Anthropic's separate
// system field.
func (a *Anthropic) Send(ctx context.Context, req Request) (*Reply, error) {
	body := anthropicRequest{
		Model:       req.Model,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}
	for _, m := range req.Messages {
		if m.Role == "system" && body.System == "" {
			body.System = m.Content
			continue
		}
		body.Messages = append(body.Messages, m)
	}

	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return nil, &Error{Provider: a.Name(), Class: ClassUnrecoverable,
			Message: fmt.Sprintf("marshaling request: %v", err)}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		a.baseURL+"/messages", bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, &Error{Provider: a.Name(), Class: ClassUnrecoverable,
			Message: fmt.Sprintf("creating request: %v", err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", a.apiKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return nil, &Error{Provider: a.Name(), Class: ClassRetryable,
			Message: fmt.Sprintf("calling Claude API: %v", err)}
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Provider: a.Name(), Class: ClassRetryable,
			Message: fmt.Sprintf("reading response: %v", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, a.classify(resp, respBytes)
	}

	var cResp anthropicResponse
	if err := json.Unmarshal(respBytes, &cResp); err != nil {
		return nil, &Error{Provider: a.Name(), Class: ClassUnrecoverable,
			Message: fmt.Sprintf("decoding response: %v", err)}
	}

	var text bytes.Buffer
	for _, block := range cResp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return nil, &Error{Provider: a.Name(), Class: ClassUnrecoverable,
			Message: "no text content in response"}
	}

	return &Reply{
		Text:  text.String(),
		Model: cResp.Model,
		Usage: Usage{
			InputTokens:  cResp.Usage.InputTokens,
			OutputTokens: cResp.Usage.OutputTokens,
		},
	}, nil
}

// classify maps a non-200 Claude response to a classified error. The
// error body's type field is more precise than the status code:
// overloaded_error arrives with 529 but has also been seen on 500.
func (a *Anthropic) classify(resp *http.Response, body []byte) *Error {
	class := classifyStatus(resp.StatusCode)
	message := http.StatusText(resp.StatusCode)

	var eBody anthropicError
	if err := json.Unmarshal(body, &eBody); err == nil && eBody.Error.Type != "" {
		message = eBody.Error.Message
		switch eBody.Error.Type {
		case "overloaded_error":
			class = ClassOverloaded
		case "rate_limit_error":
			class = ClassRateLimited
		case "api_error":
			class = ClassRetryable
		}
	}

	return &Error{
		Provider:   a.Name(),
		StatusCode: resp.StatusCode,
		Class:      class,
		RetryAfter: retryAfterHint(resp.Header),
		Message:    message,
	}
}

// retryAfterHint parses a Retry-After header given in seconds. Date
// forms are ignored; the invoker falls back to its own baseline.
func retryAfterHint(h http.Header) time.Duration {
	v := h.Get("Retry-After")
	if v == "" {
		return 0
	}
	secs, err := strconv.ParseFloat(v, 64)
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs * float64(time.Second))
}
