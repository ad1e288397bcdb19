package llm

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/qforge/internal/cache"
	"github.com/ppiankov/qforge/internal/metrics"
	"github.com/ppiankov/qforge/internal/worker"
)

// scriptedProvider returns the queued errors first, then a fixed reply
type scriptedProvider struct {
	mu    sync.Mutex
	errs  []error
	calls int32
	reqs  []GenerateRequest
}

func (s *scriptedProvider) Name() string                     { return "scripted" }
func (s *scriptedProvider) IsAvailable(context.Context) bool { return true }

func (s *scriptedProvider) Generate(_ context.Context, req GenerateRequest) (*GenerateResponse, error) {
	atomic.AddInt32(&s.calls, 1)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reqs = append(s.reqs, req)
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		return nil, err
	}
	return &GenerateResponse{Text: "reply " + req.Prompt, Model: req.Model}, nil
}

func noSleep(r *RetryingProvider) *[]time.Duration {
	var waits []time.Duration
	r.sleep = func(_ context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}
	return &waits
}

func TestRetry_RecoversFromTransientErrors(t *testing.T) {
	inner := &scriptedProvider{errs: []error{
		&APIError{StatusCode: http.StatusTooManyRequests, Message: "slow down"},
		&APIError{StatusCode: http.StatusBadGateway, Message: "upstream"},
	}}
	r := WithRetry(inner, 3)
	waits := noSleep(r)

	resp, err := r.Generate(context.Background(), GenerateRequest{Prompt: "p"})
	require.NoError(t, err)
	assert.Equal(t, "reply p", resp.Text)
	assert.EqualValues(t, 3, inner.calls)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, *waits)
}

func TestRetry_GivesUpAfterMaxAttempts(t *testing.T) {
	transient := &APIError{StatusCode: http.StatusServiceUnavailable, Message: "down"}
	inner := &scriptedProvider{errs: []error{transient, transient, transient, transient}}
	r := WithRetry(inner, 3)
	noSleep(r)

	_, err := r.Generate(context.Background(), GenerateRequest{Prompt: "p"})
	require.Error(t, err)
	assert.EqualValues(t, 3, inner.calls)
}

func TestRetry_DoesNotRetryPermanentErrors(t *testing.T) {
	inner := &scriptedProvider{errs: []error{&APIError{StatusCode: http.StatusUnauthorized, Message: "bad key"}}}
	r := WithRetry(inner, 3)
	noSleep(r)

	_, err := r.Generate(context.Background(), GenerateRequest{Prompt: "p"})
	require.Error(t, err)
	assert.EqualValues(t, 1, inner.calls)
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, isRetryable(context.DeadlineExceeded))
	assert.True(t, isRetryable(errors.New("read tcp: connection reset by peer")))
	assert.False(t, isRetryable(context.Canceled))
	assert.False(t, isRetryable(ErrEmptyResponse))
	assert.False(t, isRetryable(nil))
}

func TestCache_VariantKeepsAttemptsIndependent(t *testing.T) {
	inner := &scriptedProvider{}
	c := WithCache(inner, cache.NewMemoryCache(time.Minute, time.Minute), time.Minute)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := c.Generate(ctx, GenerateRequest{Model: "m", Prompt: "same", Variant: 0})
		require.NoError(t, err)
	}
	assert.EqualValues(t, 1, inner.calls)

	_, err := c.Generate(ctx, GenerateRequest{Model: "m", Prompt: "same", Variant: 1})
	require.NoError(t, err)
	assert.EqualValues(t, 2, inner.calls)
}

func TestCache_ErrorsAreNotCached(t *testing.T) {
	inner := &scriptedProvider{errs: []error{errors.New("boom")}}
	c := WithCache(inner, cache.NewMemoryCache(time.Minute, time.Minute), time.Minute)

	_, err := c.Generate(context.Background(), GenerateRequest{Prompt: "p"})
	require.Error(t, err)

	resp, err := c.Generate(context.Background(), GenerateRequest{Prompt: "p"})
	require.NoError(t, err)
	assert.Equal(t, "reply p", resp.Text)
}

func TestRateLimit_KeysByModel(t *testing.T) {
	inner := &scriptedProvider{}
	limiter := worker.NewLimiter(1, 1)
	p := WithRateLimit(inner, limiter, "default-model")

	_, err := p.Generate(context.Background(), GenerateRequest{Prompt: "p"})
	require.NoError(t, err)

	assert.False(t, limiter.Allow("scripted/default-model"), "default model bucket should be drained")
	assert.True(t, limiter.Allow("scripted/other-model"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.Generate(ctx, GenerateRequest{Prompt: "p"})
	assert.Error(t, err)
}

func TestEvaluator(t *testing.T) {
	inner := &fixedProvider{text: "SCORE: 1\nFEEDBACK: Same final answer."}
	ev, err := NewEvaluator(inner, "m").Evaluate(context.Background(), `\boxed{2}`, `\boxed{2}`)
	require.NoError(t, err)
	assert.Equal(t, 1.0, ev.Score)
	assert.Equal(t, "Same final answer.", ev.Feedback)

	assert.Equal(t, 0.0, parseEvaluation("score = 0\nfeedback: wrong sign").Score)
	unreadable := parseEvaluation("looks fine to me")
	assert.Equal(t, 0.0, unreadable.Score)
	assert.Contains(t, unreadable.Feedback, "looks fine")
}

type fixedProvider struct {
	text string
	err  error
}

func (f *fixedProvider) Name() string                     { return "fixed" }
func (f *fixedProvider) IsAvailable(context.Context) bool { return true }
func (f *fixedProvider) Generate(context.Context, GenerateRequest) (*GenerateResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &GenerateResponse{Text: f.text, Model: "fixed"}, nil
}

func TestMetrics_RecordsCalls(t *testing.T) {
	m := metrics.New()
	inner := &scriptedProvider{errs: []error{errors.New("boom")}}
	p := Decorate(inner, "gpt-test", StackOptions{MaxRetries: 1, Metrics: m})

	_, err := p.Generate(context.Background(), GenerateRequest{Model: "gpt-test", Prompt: "a"})
	require.Error(t, err)
	_, err = p.Generate(context.Background(), GenerateRequest{Model: "gpt-test", Prompt: "b"})
	require.NoError(t, err)

	families, err := m.Registry().Gather()
	require.NoError(t, err)
	var total float64
	for _, f := range families {
		if f.GetName() == "qforge_backend_requests_total" {
			for _, metric := range f.GetMetric() {
				total += metric.GetCounter().GetValue()
			}
		}
	}
	assert.Equal(t, 2.0, total)
}
