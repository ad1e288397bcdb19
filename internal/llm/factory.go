package llm

import (
	"fmt"
	"strings"
	"time"

	"github.com/ppiankov/qforge/internal/cache"
	"github.com/ppiankov/qforge/internal/metrics"
	"github.com/ppiankov/qforge/internal/worker"
)

// NewProvider creates a provider based on configuration
func NewProvider(config Config) (Provider, error) {
	switch strings.ToLower(config.Provider) {
	case "openai":
		return NewOpenAIProvider(config)

	case "anthropic", "claude":
		return NewAnthropicProvider(config)

	case "ollama":
		return NewOllamaProvider(config)

	case "":
		return nil, fmt.Errorf("no LLM provider configured (set llm.provider or --provider)")

	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: openai, anthropic, ollama)", config.Provider)
	}
}

// StackOptions configures the decorators around a base provider
type StackOptions struct {
	MaxRetries int
	Limiter    *worker.Limiter // nil disables rate limiting
	Cache      cache.Cache     // nil disables response caching
	CacheTTL   time.Duration
	Metrics    *metrics.Metrics // nil disables instrumentation
}

// NewStack builds the provider used by the pipeline:
// cache, then retry, then the per-model rate limit, then metrics, then the
// backend. Every retry waits for its own rate limit token; cache hits skip both.
func NewStack(config Config, opts StackOptions) (Provider, error) {
	base, err := NewProvider(config)
	if err != nil {
		return nil, err
	}
	return Decorate(base, config.Model, opts), nil
}

// Decorate wraps an existing provider the same way NewStack does
func Decorate(base Provider, defaultModel string, opts StackOptions) Provider {
	p := base
	if opts.Metrics != nil {
		p = WithMetrics(p, opts.Metrics)
	}
	if opts.Limiter != nil {
		p = WithRateLimit(p, opts.Limiter, defaultModel)
	}
	p = WithRetry(p, opts.MaxRetries)
	if opts.Cache != nil {
		p = WithCache(p, opts.Cache, opts.CacheTTL)
	}
	return p
}
