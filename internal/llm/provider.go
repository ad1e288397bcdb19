package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/ppiankov/qforge/internal/model"
)

// Provider defines the interface for generation backends
type Provider interface {
	// Name returns the provider name
	Name() string

	// Generate sends one prompt and returns the completion text
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// GenerateRequest is one prompt to the backend
type GenerateRequest struct {
	// Model overrides the provider's configured model
	Model string

	Prompt string

	// System is an optional system instruction
	System string

	MaxTokens   int
	Temperature float64

	// Variant distinguishes otherwise identical requests that must not share
	// a cached response, such as parallel verification attempts
	Variant int
}

// GenerateResponse is the backend's completion
type GenerateResponse struct {
	Text string

	// Model is the model that produced the text
	Model string

	// TokensUsed tracks token consumption
	TokensUsed int
}

// ErrEmptyResponse is returned when the backend answers without any text
var ErrEmptyResponse = errors.New("empty response from provider")

// APIError is a non-2xx answer from an HTTP backend
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (%d): %s", e.StatusCode, e.Message)
}

// Temporary reports whether retrying the same request may succeed
func (e *APIError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// Config holds provider configuration
type Config struct {
	// Provider name: "openai", "anthropic", "ollama"
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI/Anthropic
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama)
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	MaxTokens   int
	Temperature float64

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:    "openai",
		Timeout:     120,
		MaxTokens:   4096,
		Temperature: 0.7,
	}
}

// ConfigFromModel converts the application config into provider config
func ConfigFromModel(cfg model.Config) Config {
	return Config{
		Provider:    cfg.LLM.Provider,
		Model:       cfg.LLM.Model,
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Timeout:     cfg.LLM.Timeout,
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
		HTTPProxy:   cfg.HTTP.HTTPProxy,
		HTTPSProxy:  cfg.HTTP.HTTPSProxy,
		NoProxy:     cfg.HTTP.NoProxy,
	}
}

// resolve fills request fields the caller left empty from provider config
func (c Config) resolve(req GenerateRequest, fallbackModel string) GenerateRequest {
	if req.Model == "" {
		req.Model = c.Model
	}
	if req.Model == "" {
		req.Model = fallbackModel
	}
	if req.MaxTokens == 0 {
		req.MaxTokens = c.MaxTokens
	}
	if req.MaxTokens == 0 {
		req.MaxTokens = 4096
	}
	if req.Temperature == 0 {
		req.Temperature = c.Temperature
	}
	return req
}
