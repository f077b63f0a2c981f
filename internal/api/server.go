// Package api wires the HTTP surface: routing, middleware, and handlers.
package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	filippocsrf "filippo.io/csrf"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	gorillacsrf "github.com/gorilla/csrf"

	"github.com/fretlogapp/fretlog-web/internal/analytics"
	"github.com/fretlogapp/fretlog-web/internal/auth"
	"github.com/fretlogapp/fretlog-web/internal/clientip"
	"github.com/fretlogapp/fretlog-web/internal/db"
	"github.com/fretlogapp/fretlog-web/internal/logger"
	"github.com/fretlogapp/fretlog-web/internal/ratelimit"
	"github.com/fretlogapp/fretlog-web/internal/storage"
)

// DatabaseTimeout is the maximum duration for database operations behind a
// single request
const DatabaseTimeout = 5 * time.Second

// loginRatePerSecond throttles password login attempts per client IP.
const (
	loginRatePerSecond = 1
	loginBurst         = 5
)

// Config holds the API server's HTTP-level settings
type Config struct {
	// CSRFSecretKey authenticates gorilla/csrf tokens; at least 32 bytes
	CSRFSecretKey string

	// AllowedOrigins is the CORS and CSRF trusted-origin list
	AllowedOrigins []string

	// SecureCookies disables the Secure cookie flag for local development
	SecureCookies bool
}

// Server holds dependencies for API handlers
type Server struct {
	db           *db.DB
	storage      *storage.S3Storage
	engine       *analytics.Engine
	config       Config
	loginLimiter ratelimit.RateLimiter
}

// NewServer creates a new API server
func NewServer(database *db.DB, store *storage.S3Storage, engine *analytics.Engine, config Config) *Server {
	return &Server{
		db:           database,
		storage:      store,
		engine:       engine,
		config:       config,
		loginLimiter: ratelimit.NewInMemoryRateLimiter(loginRatePerSecond, loginBurst),
	}
}

// SetupRoutes configures HTTP routes
func (s *Server) SetupRoutes() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(clientip.Middleware)
	r.Use(logger.Middleware)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.config.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Content-Encoding", "X-CSRF-Token"},
		ExposedHeaders:   []string{"X-CSRF-Token"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(decompressMiddleware())
	r.Use(compressMiddleware())

	// Health check
	r.Get("/health", s.handleHealth)
	r.Get("/", s.handleRoot)

	// Auth routes (public, login rate-limited by client IP)
	r.Post("/auth/password/login", ratelimit.HandlerFunc(s.loginLimiter, auth.HandlePasswordLogin(s.db)))
	r.Post("/auth/logout", auth.HandleLogout(s.db))

	// API v1 routes. Browser sessions and bearer API keys share the same
	// endpoints; CSRF applies only to cookie-authenticated requests.
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.csrfProtect())
		r.Use(authMiddleware(s.db))
		r.Use(validateContentType)

		r.Get("/csrf-token", s.handleCSRFToken)
		r.Get("/me", s.handleGetMe)

		// API key management (browser only in practice, but a key that
		// can mint keys is no worse than the key itself)
		r.Post("/keys", HandleCreateAPIKey(s.db))
		r.Get("/keys", HandleListAPIKeys(s.db))
		r.Delete("/keys/{id}", HandleDeleteAPIKey(s.db))

		// Song library
		r.Post("/songs", s.handleCreateSong)
		r.Get("/songs", s.handleListSongs)
		r.Put("/songs/{id}", s.handleUpdateSong)
		r.Delete("/songs/{id}", s.handleDeleteSong)
		r.Post("/songs/{id}/cover", s.handleUploadSongCover)

		// Practice log
		r.Post("/sessions", s.handleCreatePracticeSession)
		r.Get("/sessions", s.handleListPracticeSessions)
		r.Get("/sessions/{id}", s.handleGetPracticeSession)
		r.Put("/sessions/{id}", s.handleUpdatePracticeSession)
		r.Delete("/sessions/{id}", s.handleDeletePracticeSession)

		// Practice analytics
		r.Get("/stats/summary", s.handleGetSummary)
		r.Get("/stats/charts", s.handleGetCharts)
	})

	return r
}

// authMiddleware authenticates a request either by bearer API key
// (mobile/CLI clients) or web session cookie (browser), in that order.
func authMiddleware(database *db.DB) func(http.Handler) http.Handler {
	apiKey := auth.APIKeyMiddleware(database)
	session := auth.SessionMiddleware(database)
	return func(next http.Handler) http.Handler {
		withKey := apiKey(next)
		withSession := session(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "" {
				withKey.ServeHTTP(w, r)
				return
			}
			withSession.ServeHTTP(w, r)
		})
	}
}

// csrfProtect layers two defenses for cookie-authenticated routes:
// filippo.io/csrf rejects cross-site requests via Sec-Fetch-Site, and
// gorilla/csrf enforces the double-submit token. Bearer requests carry no
// cookies, so both checks are skipped for them.
func (s *Server) csrfProtect() func(http.Handler) http.Handler {
	crossOrigin := filippocsrf.New()
	for _, origin := range s.config.AllowedOrigins {
		if err := crossOrigin.AddTrustedOrigin(origin); err != nil {
			logger.Fatal("invalid entry in ALLOWED_ORIGINS", "origin", origin, "error", err)
		}
	}

	tokenProtect := gorillacsrf.Protect(
		[]byte(s.config.CSRFSecretKey),
		gorillacsrf.Secure(s.config.SecureCookies),
		gorillacsrf.Path("/"),
		gorillacsrf.TrustedOrigins(trimSchemes(s.config.AllowedOrigins)),
	)

	return func(next http.Handler) http.Handler {
		protected := crossOrigin.Handler(tokenProtect(next))
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "" {
				next.ServeHTTP(w, r)
				return
			}
			protected.ServeHTTP(w, r)
		})
	}
}

// trimSchemes strips http(s):// prefixes; gorilla/csrf matches trusted
// origins by host.
func trimSchemes(origins []string) []string {
	hosts := make([]string, 0, len(origins))
	for _, o := range origins {
		o = strings.TrimPrefix(o, "https://")
		o = strings.TrimPrefix(o, "http://")
		if o != "" {
			hosts = append(hosts, o)
		}
	}
	return hosts
}

// handleCSRFToken hands the SPA a token for state-changing requests
func (s *Server) handleCSRFToken(w http.ResponseWriter, r *http.Request) {
	token := gorillacsrf.Token(r)
	w.Header().Set("X-CSRF-Token", token)
	respondJSON(w, http.StatusOK, map[string]string{
		"csrf_token": token,
	})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// handleRoot returns API info
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"service": "fretlog-backend",
		"version": "v1",
	})
}

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError writes an error JSON response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}
