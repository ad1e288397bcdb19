package worker

import (
	"context"
	"testing"
	"time"
)

func TestLimiter_New(t *testing.T) {
	limiter := NewLimiter(10, 5)
	if limiter.defaultBurst != 5 {
		t.Errorf("expected burst 5, got %d", limiter.defaultBurst)
	}

	l2 := NewLimiter(10, -1)
	if l2.defaultBurst != 5 {
		t.Errorf("expected default burst 5 for negative input, got %d", l2.defaultBurst)
	}
}

func TestLimiter_Wait(t *testing.T) {
	limiter := NewLimiter(100, 1)
	ctx := context.Background()

	if err := limiter.Wait(ctx, "gpt-4o-mini"); err != nil {
		t.Errorf("wait failed: %v", err)
	}
	if err := limiter.Wait(ctx, "llama3.1:8b"); err != nil {
		t.Errorf("wait failed: %v", err)
	}
}

func TestLimiter_WaitWithDelay(t *testing.T) {
	limiter := NewLimiter(100, 1)
	ctx := context.Background()

	start := time.Now()
	if err := limiter.WaitWithDelay(ctx, "gpt-4o-mini", 50*time.Millisecond); err != nil {
		t.Fatalf("WaitWithDelay failed: %v", err)
	}

	if d := time.Since(start); d < 50*time.Millisecond {
		t.Errorf("expected delay >= 50ms, got %v", d)
	}
}

func TestLimiter_PerKeyBuckets(t *testing.T) {
	limiter := NewLimiter(1, 1)

	if !limiter.Allow("gpt-4o") {
		t.Errorf("first request should pass")
	}
	if limiter.Allow("gpt-4o") {
		t.Errorf("expected allow to fail once the bucket is empty")
	}
	if !limiter.Allow("gpt-4o-mini") {
		t.Errorf("expected a separate bucket for another model")
	}
}

func TestLimiter_SetRate(t *testing.T) {
	limiter := NewLimiter(10, 10)
	limiter.SetRate("slow-model", 0.1, 1)

	if !limiter.Allow("slow-model") {
		t.Errorf("first request should pass")
	}
	if limiter.Allow("slow-model") {
		t.Errorf("second request should fail")
	}
	if !limiter.Allow("fast-model") {
		t.Errorf("other key should pass")
	}
}

func TestLimiter_Unlimited(t *testing.T) {
	limiter := NewLimiter(0, 1)
	for i := 0; i < 100; i++ {
		if !limiter.Allow("m") {
			t.Fatalf("request %d refused with limiting disabled", i)
		}
	}
}

func TestLimiter_WaitURL(t *testing.T) {
	limiter := NewLimiter(1, 1)
	ctx := context.Background()

	if err := limiter.WaitURL(ctx, "https://example.com/book.txt"); err != nil {
		t.Fatalf("WaitURL failed: %v", err)
	}
	if limiter.Allow("example.com") {
		t.Errorf("expected host bucket to be drained by WaitURL")
	}
	if err := limiter.WaitURL(ctx, "not a url"); err == nil {
		t.Errorf("expected error for URL without host")
	}
}
