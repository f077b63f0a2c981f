package ratelimit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fretlogapp/fretlog-web/internal/clientip"
)

func TestInMemoryRateLimiterAllow(t *testing.T) {
	t.Run("allows up to the burst", func(t *testing.T) {
		limiter := NewInMemoryRateLimiter(1, 3)
		defer limiter.Stop()

		ctx := context.Background()
		for i := 0; i < 3; i++ {
			if !limiter.Allow(ctx, "client-a") {
				t.Fatalf("expected request %d within burst to be allowed", i+1)
			}
		}
		if limiter.Allow(ctx, "client-a") {
			t.Error("expected request beyond burst to be denied")
		}
	})

	t.Run("tracks keys independently", func(t *testing.T) {
		limiter := NewInMemoryRateLimiter(1, 1)
		defer limiter.Stop()

		ctx := context.Background()
		if !limiter.Allow(ctx, "client-a") {
			t.Fatal("expected first request from client-a to be allowed")
		}
		if limiter.Allow(ctx, "client-a") {
			t.Error("expected second request from client-a to be denied")
		}
		if !limiter.Allow(ctx, "client-b") {
			t.Error("expected client-b to have its own bucket")
		}
	})
}

func TestHandlerFunc(t *testing.T) {
	limiter := NewInMemoryRateLimiter(1, 2)
	defer limiter.Stop()

	called := 0
	handler := HandlerFunc(limiter, func(w http.ResponseWriter, r *http.Request) {
		called++
		w.WriteHeader(http.StatusOK)
	})

	// clientip.Middleware derives the rate-limit key in production
	wrapped := clientip.Middleware(handler)

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = "203.0.113.7:4321"
		w := httptest.NewRecorder()
		wrapped.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("expected request %d to pass, got %d", i+1, w.Code)
		}
	}

	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.RemoteAddr = "203.0.113.7:4321"
	w := httptest.NewRecorder()
	wrapped.ServeHTTP(w, req)

	if w.Code != http.StatusTooManyRequests {
		t.Errorf("expected 429 after burst, got %d", w.Code)
	}
	if called != 2 {
		t.Errorf("expected handler called twice, got %d", called)
	}
}
