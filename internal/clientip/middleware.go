// Package clientip provides middleware for extracting real client IPs
// behind edge proxies and load balancers.
package clientip

import (
	"context"
	"net/http"
	"sort"
	"strings"
)

// contextKey is unexported to prevent collisions
type contextKey struct{}

var clientIPKey = contextKey{}

// Info contains extracted client IP information
type Info struct {
	// Primary is the most trusted single IP (for logging, display)
	Primary string

	// RateLimitKey is a composite of all observed IPs. Even if some
	// headers are spoofed, RemoteAddr anchors the key.
	RateLimitKey string
}

// Middleware extracts client IPs from proxy headers, updates r.RemoteAddr
// to the primary IP, and stores Info in context for downstream use.
//
// Trusted header priority (highest first):
//   - Fly-Client-IP: set by the Fly.io edge proxy
//   - CF-Connecting-IP: set by Cloudflare
//   - X-Real-IP: nginx reverse proxy
//   - X-Forwarded-For[0]: first hop (partially trusted)
//   - RemoteAddr: TCP connection (always available)
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		info := extract(r)

		r.RemoteAddr = info.Primary

		ctx := context.WithValue(r.Context(), clientIPKey, info)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// FromContext retrieves Info from context
// Returns zero Info if not present
func FromContext(ctx context.Context) Info {
	if info, ok := ctx.Value(clientIPKey).(Info); ok {
		return info
	}
	return Info{}
}

// FromRequest is a convenience wrapper around FromContext
func FromRequest(r *http.Request) Info {
	return FromContext(r.Context())
}

var trustedHeaders = []string{
	"Fly-Client-IP",
	"CF-Connecting-IP",
	"X-Real-IP",
}

// extract pulls IPs from all known headers and computes Primary + RateLimitKey
func extract(r *http.Request) Info {
	// Collect all IPs for composite rate limit key
	allIPs := make(map[string]bool)

	// RemoteAddr - always trusted (actual TCP connection)
	remoteIP := extractIPFromAddr(r.RemoteAddr)
	if remoteIP != "" {
		allIPs[remoteIP] = true
	}

	// Primary IP - first trusted header found, in priority order
	var primary string
	for _, header := range trustedHeaders {
		if ip := strings.TrimSpace(r.Header.Get(header)); ip != "" {
			allIPs[ip] = true
			if primary == "" {
				primary = ip
			}
		}
	}

	// X-Forwarded-For - partially trusted (first IP only)
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		if ip := strings.TrimSpace(parts[0]); ip != "" {
			allIPs[ip] = true
			if primary == "" {
				primary = ip
			}
		}
	}

	if primary == "" {
		primary = remoteIP
	}

	// Build composite key from all IPs (sorted for determinism)
	ipList := make([]string, 0, len(allIPs))
	for ip := range allIPs {
		ipList = append(ipList, ip)
	}
	sort.Strings(ipList)

	return Info{
		Primary:      primary,
		RateLimitKey: strings.Join(ipList, "|"),
	}
}

// extractIPFromAddr extracts IP from address that may include port
// Handles formats: "IP:port", "[IPv6]:port", "IP", "IPv6"
func extractIPFromAddr(addr string) string {
	if addr == "" {
		return ""
	}

	// IPv6 with port [IPv6]:port
	if strings.HasPrefix(addr, "[") {
		if idx := strings.LastIndex(addr, "]:"); idx != -1 {
			return strings.Trim(addr[:idx+1], "[]")
		}
		return strings.Trim(addr, "[]")
	}

	// IPv4:port (exactly one colon)
	if strings.Count(addr, ":") == 1 {
		idx := strings.LastIndex(addr, ":")
		return addr[:idx]
	}

	// Plain IP (IPv4 or IPv6 without port)
	return addr
}
