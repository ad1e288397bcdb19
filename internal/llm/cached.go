package llm

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/ppiankov/qforge/internal/cache"
)

// CachedProvider answers repeated identical requests from a cache
type CachedProvider struct {
	inner Provider
	cache cache.Cache
	ttl   time.Duration
}

// WithCache wraps p. Model, system prompt, prompt, sampling settings and
// Variant are all part of the key, so parallel verification attempts never
// collapse into one cached answer.
func WithCache(p Provider, c cache.Cache, ttl time.Duration) *CachedProvider {
	return &CachedProvider{inner: p, cache: c, ttl: ttl}
}

func (c *CachedProvider) Name() string { return c.inner.Name() }

func (c *CachedProvider) IsAvailable(ctx context.Context) bool {
	return c.inner.IsAvailable(ctx)
}

func (c *CachedProvider) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	key := requestKey(c.inner.Name(), req)

	if data, ok := c.cache.Get(key); ok {
		var resp GenerateResponse
		if err := json.Unmarshal(data, &resp); err == nil && resp.Text != "" {
			return &resp, nil
		}
	}

	resp, err := c.inner.Generate(ctx, req)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(resp); err == nil {
		_ = c.cache.Set(key, data, c.ttl)
	}
	return resp, nil
}

func requestKey(provider string, req GenerateRequest) string {
	return cache.CacheKey(
		provider,
		req.Model,
		req.System,
		req.Prompt,
		strconv.Itoa(req.MaxTokens),
		strconv.FormatFloat(req.Temperature, 'g', -1, 64),
		strconv.Itoa(req.Variant),
	)
}
