package types

import "time"

// ProviderConfig holds connection settings for one model provider.
// Read-only after initialization; shared by every document in a batch.
type ProviderConfig struct {
	// APIKey is the authentication key for the provider API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// BaseURL overrides the provider's default API endpoint.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`

	// Timeout is the per-attempt HTTP request timeout (default 120s).
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// AIConfig holds shared settings for operations that call a model provider.
type AIConfig struct {
	// Provider selects the configured provider: anthropic, openai, or
	// openrouter. There is no default; an empty provider is an error.
	Provider string `json:"provider" yaml:"provider"`

	// Model is the model identifier (e.g. "claude-sonnet-4-5").
	Model string `json:"model" yaml:"model"`

	// FallbackModel, when set, is tried once per document after the
	// primary model's invocation fails.
	FallbackModel string `json:"fallback_model,omitempty" yaml:"fallback_model,omitempty"`

	// Temperature is the sampling temperature passed to the provider.
	Temperature float64 `json:"temperature" yaml:"temperature"`

	// MaxTokens caps the model's output size (default 4096).
	MaxTokens int `json:"max_tokens" yaml:"max_tokens"`
}

// RetryConfig bounds the invoker's retry behavior per error class.
// Overload tolerates the most attempts, generic retryable failures the
// fewest; rate limits sit between and trust provider wait hints.
type RetryConfig struct {
	// RateLimitAttempts is the attempt ceiling for rate-limited errors (default 6).
	RateLimitAttempts int `json:"rate_limit_attempts" yaml:"rate_limit_attempts"`

	// OverloadAttempts is the attempt ceiling for overloaded errors (default 10).
	OverloadAttempts int `json:"overload_attempts" yaml:"overload_attempts"`

	// RetryableAttempts is the attempt ceiling for other retryable errors (default 5).
	RetryableAttempts int `json:"retryable_attempts" yaml:"retryable_attempts"`

	// RateLimitBaseline is the wait used for rate limits when the
	// provider supplies no hint (default 20s).
	RateLimitBaseline time.Duration `json:"rate_limit_baseline" yaml:"rate_limit_baseline"`

	// OverloadBase is the exponential backoff base for overloaded errors
	// (default 10s); overload recovery is slower than rate limiting.
	OverloadBase time.Duration `json:"overload_base" yaml:"overload_base"`

	// RetryableBase is the exponential backoff base for other retryable
	// errors (default 2s).
	RetryableBase time.Duration `json:"retryable_base" yaml:"retryable_base"`

	// MaxElapsed caps the total backoff wait for one logical call
	// (default 10m). Once exceeded the call fails without further waits.
	MaxElapsed time.Duration `json:"max_elapsed" yaml:"max_elapsed"`
}

// BatchConfig holds the batch orchestration contract.
type BatchConfig struct {
	// Concurrency is the size of each concurrent document group (default 3).
	Concurrency int `json:"concurrency" yaml:"concurrency"`

	// InterGroupDelay is the pause between document groups, a courtesy
	// toward provider rate limits (default 2s).
	InterGroupDelay time.Duration `json:"inter_group_delay" yaml:"inter_group_delay"`
}

// AnnotateConfig holds settings for the annotation pipeline stages.
type AnnotateConfig struct {
	AIConfig `yaml:",inline"`

	// SermonsDir is the base directory holding sermon manuscripts.
	SermonsDir string `json:"sermons_dir" yaml:"sermons_dir"`

	// SectionHeading is the marker heading of the generated radar
	// section (default "## Sermon Radar").
	SectionHeading string `json:"section_heading" yaml:"section_heading"`

	// Retry bounds the per-call retry policy.
	Retry RetryConfig `json:"retry" yaml:"retry"`

	// Batch holds the batch orchestration settings.
	Batch BatchConfig `json:"batch" yaml:"batch"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	Providers map[string]ProviderConfig `json:"providers" yaml:"providers"`
	Annotate  AnnotateConfig            `json:"annotate" yaml:"annotate"`
}
