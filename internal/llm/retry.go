package llm

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"
)

const defaultMaxRetries = 3

// RetryingProvider retries transient backend failures with exponential backoff
type RetryingProvider struct {
	inner      Provider
	maxRetries int
	baseDelay  time.Duration

	// sleep waits between attempts (injectable for tests)
	sleep func(ctx context.Context, d time.Duration) error
}

// WithRetry wraps p so 429, 5xx and timeouts are retried up to maxRetries attempts in total
func WithRetry(p Provider, maxRetries int) *RetryingProvider {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	return &RetryingProvider{
		inner:      p,
		maxRetries: maxRetries,
		baseDelay:  time.Second,
		sleep:      sleepContext,
	}
}

func (r *RetryingProvider) Name() string { return r.inner.Name() }

func (r *RetryingProvider) IsAvailable(ctx context.Context) bool {
	return r.inner.IsAvailable(ctx)
}

func (r *RetryingProvider) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	var lastErr error
	for attempt := 0; attempt < r.maxRetries; attempt++ {
		resp, err := r.inner.Generate(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !isRetryable(err) || ctx.Err() != nil {
			return nil, err
		}
		if attempt < r.maxRetries-1 {
			backoff := r.baseDelay * time.Duration(1<<uint(attempt))
			if err := r.sleep(ctx, backoff); err != nil {
				return nil, lastErr
			}
		}
	}
	return nil, lastErr
}

// isRetryable reports whether err looks transient
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Temporary()
	}
	if status, ok := openAIStatus(err); ok && status != 0 {
		return status == 429 || status >= 500
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	s := strings.ToLower(err.Error())
	return strings.Contains(s, "timeout") ||
		strings.Contains(s, "connection refused") ||
		strings.Contains(s, "connection reset")
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
