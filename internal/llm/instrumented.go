package llm

import (
	"context"
	"time"

	"github.com/ppiankov/qforge/internal/metrics"
)

// InstrumentedProvider records every backend call in prometheus
type InstrumentedProvider struct {
	inner   Provider
	metrics *metrics.Metrics
}

func WithMetrics(p Provider, m *metrics.Metrics) *InstrumentedProvider {
	return &InstrumentedProvider{inner: p, metrics: m}
}

func (i *InstrumentedProvider) Name() string { return i.inner.Name() }

func (i *InstrumentedProvider) IsAvailable(ctx context.Context) bool {
	return i.inner.IsAvailable(ctx)
}

func (i *InstrumentedProvider) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	start := time.Now()
	resp, err := i.inner.Generate(ctx, req)

	model, tokens := req.Model, 0
	if resp != nil {
		tokens = resp.TokensUsed
		if resp.Model != "" {
			model = resp.Model
		}
	}
	i.metrics.BackendCall(i.inner.Name(), model, time.Since(start), tokens, err)
	return resp, err
}
