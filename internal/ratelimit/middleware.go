package ratelimit

import (
	"net/http"

	"github.com/fretlogapp/fretlog-web/internal/clientip"
	"github.com/fretlogapp/fretlog-web/internal/logger"
)

// HandlerFunc wraps a single handler function with rate limiting keyed by
// client IP. Used for expensive or abuse-prone endpoints like login.
// Requires clientip.Middleware earlier in the chain.
func HandlerFunc(limiter RateLimiter, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := clientip.FromRequest(r).RateLimitKey

		if !limiter.Allow(r.Context(), key) {
			logger.Ctx(r.Context()).Warn("Rate limit exceeded", "key", key, "path", r.URL.Path)
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}

		handler(w, r)
	}
}
