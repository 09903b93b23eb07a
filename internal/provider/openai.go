// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package provider

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/packages/param"

	"github.com/pdiddy/sermon-engine/pkg/types"
)

// OpenAI calls the Chat Completions API through the official SDK.
type OpenAI struct {
	client *openai.Client
}

// NewOpenAI builds the OpenAI adapter from provider configuration. The
// SDK's own retry loop is disabled; retrying is the invoker's job.
func NewOpenAI(cfg types.ProviderConfig) *OpenAI {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	} else {
		opts = append(opts, option.WithRequestTimeout(2*time.Minute))
	}

	client := openai.NewClient(opts...)
	return &OpenAI{client: &client}
}

// Name returns the adapter name.
func (o *OpenAI) Name() string { return "openai" }

// Send performs one chat completion call.
func (o *OpenAI) Send(ctx context.Context, req Request) (*Reply, error) {
	var messages []openai.ChatCompletionMessageParamUnion
	for _, m := range req.Messages {
		switch m.Role {
		case "system":
			messages = append(messages, openai.SystemMessage(m.Content))
		case "assistant":
			messages = append(messages, openai.AssistantMessage(m.Content))
		default:
			messages = append(messages, openai.UserMessage(m.Content))
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(req.Model),
		Messages: messages,
	}
	if req.Temperature > 0 {
		params.Temperature = param.NewOpt(req.Temperature)
	}
	if req.MaxTokens > 0 {
		params.MaxCompletionTokens = param.NewOpt(int64(req.MaxTokens))
	}

	completion, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, o.classify(err)
	}
	if len(completion.Choices) == 0 {
		return nil, &Error{Provider: o.Name(), Class: ClassUnrecoverable,
			Message: "no choices in response"}
	}

	return &Reply{
		Text:  completion.Choices[0].Message.Content,
		Model: completion.Model,
		Usage: Usage{
			InputTokens:  int(completion.Usage.PromptTokens),
			OutputTokens: int(completion.Usage.CompletionTokens),
		},
	}, nil
}

// classify maps an SDK error to a classified error. API errors carry an
// HTTP status; anything else (DNS, timeout) counts as retryable.
func (o *OpenAI) classify(err error) *Error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		e := &Error{
			Provider:   o.Name(),
			StatusCode: apiErr.StatusCode,
			Class:      classifyStatus(apiErr.StatusCode),
			Message:    apiErr.Message,
		}
		if apiErr.Response != nil {
			e.RetryAfter = retryAfterHint(apiErr.Response.Header)
		}
		return e
	}
	return &Error{Provider: o.Name(), Class: ClassRetryable,
		Message: fmt.Sprintf("calling OpenAI API: %v", err)}
}
