package llm

import (
	"context"
	"fmt"

	"github.com/ppiankov/qforge/internal/worker"
)

// RateLimitedProvider holds each call until the model's token bucket allows it
type RateLimitedProvider struct {
	inner        Provider
	limiter      *worker.Limiter
	defaultModel string
}

// WithRateLimit wraps p. Buckets are keyed by request model, falling back to
// defaultModel when the request leaves it empty.
func WithRateLimit(p Provider, limiter *worker.Limiter, defaultModel string) *RateLimitedProvider {
	return &RateLimitedProvider{inner: p, limiter: limiter, defaultModel: defaultModel}
}

func (r *RateLimitedProvider) Name() string { return r.inner.Name() }

func (r *RateLimitedProvider) IsAvailable(ctx context.Context) bool {
	return r.inner.IsAvailable(ctx)
}

func (r *RateLimitedProvider) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	key := req.Model
	if key == "" {
		key = r.defaultModel
	}
	if err := r.limiter.Wait(ctx, r.inner.Name()+"/"+key); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}
	return r.inner.Generate(ctx, req)
}
