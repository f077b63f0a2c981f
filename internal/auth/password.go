package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/fretlogapp/fretlog-web/internal/db"
	"github.com/fretlogapp/fretlog-web/internal/logger"
	"github.com/fretlogapp/fretlog-web/internal/validation"
)

const (
	// SessionCookieName is the browser session cookie
	SessionCookieName = "fretlog_session"

	// SessionDuration is how long a web session stays valid
	SessionDuration = 30 * 24 * time.Hour

	// BcryptCost is the cost factor for bcrypt hashing
	// 12 is a good balance of security and performance (~250ms on modern hardware)
	BcryptCost = 12

	// MinPasswordLength applies when accounts are created
	MinPasswordLength = 8
)

// cookieSecure returns false only when INSECURE_DEV_MODE is set, so local
// development over plain HTTP keeps its cookies.
func cookieSecure() bool {
	return os.Getenv("INSECURE_DEV_MODE") != "true"
}

// HashPassword creates a bcrypt hash of the password
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(bytes), nil
}

// CheckPassword compares a password against a bcrypt hash
// Uses constant-time comparison to prevent timing attacks
func CheckPassword(hash, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandlePasswordLogin handles POST /auth/password/login
func HandlePasswordLogin(database *db.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		log := logger.Ctx(ctx)

		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeAuthError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		email := validation.NormalizeEmail(req.Email)
		if !validation.IsValidEmail(email) {
			writeAuthError(w, http.StatusBadRequest, "Invalid email address")
			return
		}
		if req.Password == "" {
			writeAuthError(w, http.StatusBadRequest, "Password is required")
			return
		}

		user, err := database.AuthenticatePassword(ctx, email, req.Password)
		if err != nil {
			if errors.Is(err, db.ErrAccountLocked) {
				log.Warn("Login attempt on locked account", "email", email)
				writeAuthError(w, http.StatusUnauthorized, "Account is temporarily locked. Please try again later.")
				return
			}
			if errors.Is(err, db.ErrInvalidCredentials) {
				log.Warn("Failed login attempt", "email", email)
				writeAuthError(w, http.StatusUnauthorized, "Invalid email or password")
				return
			}
			log.Error("Password authentication error", "error", err, "email", email)
			writeAuthError(w, http.StatusInternalServerError, "An error occurred. Please try again.")
			return
		}

		log.Info("Password login successful", "user_id", user.ID, "email", email)

		sessionID, err := generateRandomString(32)
		if err != nil {
			writeAuthError(w, http.StatusInternalServerError, "Failed to create session")
			return
		}

		expiresAt := time.Now().UTC().Add(SessionDuration)
		if err := database.CreateWebSession(ctx, sessionID, user.ID, expiresAt); err != nil {
			log.Error("Failed to save web session", "error", err, "user_id", user.ID)
			writeAuthError(w, http.StatusInternalServerError, "Failed to save session")
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     SessionCookieName,
			Value:    sessionID,
			Path:     "/",
			Expires:  expiresAt,
			HttpOnly: true,
			Secure:   cookieSecure(),
			SameSite: http.SameSiteLaxMode,
		})

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(user)
	}
}

// HandleLogout handles POST /auth/logout
func HandleLogout(database *db.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		// Delete the session row if the cookie is present
		if cookie, err := r.Cookie(SessionCookieName); err == nil {
			if err := database.DeleteWebSession(ctx, cookie.Value); err != nil {
				logger.Ctx(ctx).Warn("Failed to delete web session", "error", err)
			}
		}

		// Clear session cookie
		http.SetCookie(w, &http.Cookie{
			Name:   SessionCookieName,
			Value:  "",
			Path:   "/",
			MaxAge: -1,
		})

		w.WriteHeader(http.StatusNoContent)
	}
}

// SessionMiddleware validates web sessions
func SessionMiddleware(database *db.DB) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Get session cookie
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			// Validate session in database
			session, err := database.GetWebSession(r.Context(), cookie.Value)
			if err != nil {
				http.Error(w, "Invalid or expired session", http.StatusUnauthorized)
				return
			}

			// Add user ID to context
			ctx := context.WithValue(r.Context(), userIDContextKey, session.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeAuthError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
