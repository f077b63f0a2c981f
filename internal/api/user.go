package api

import (
	"context"
	"net/http"

	"github.com/fretlogapp/fretlog-web/internal/auth"
	"github.com/fretlogapp/fretlog-web/internal/logger"
	"github.com/fretlogapp/fretlog-web/internal/models"
)

// meResponse extends the User model with onboarding status fields
type meResponse struct {
	models.User
	HasSongs            bool `json:"has_songs"`
	HasPracticeSessions bool `json:"has_practice_sessions"`
}

// handleGetMe returns the current authenticated user's info
func (s *Server) handleGetMe(w http.ResponseWriter, r *http.Request) {
	log := logger.Ctx(r.Context())

	userID, ok := auth.GetUserID(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), DatabaseTimeout)
	defer cancel()

	user, err := s.db.GetUserByID(ctx, userID)
	if err != nil {
		log.Error("Failed to get user", "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to get user")
		return
	}

	// Onboarding status drives the frontend's empty states
	hasSongs, err := s.db.HasSongs(ctx, userID)
	if err != nil {
		log.Error("Failed to check user songs", "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to get user")
		return
	}

	hasPracticeSessions, err := s.db.HasPracticeSessions(ctx, userID)
	if err != nil {
		log.Error("Failed to check user practice sessions", "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to get user")
		return
	}

	respondJSON(w, http.StatusOK, meResponse{
		User:                *user,
		HasSongs:            hasSongs,
		HasPracticeSessions: hasPracticeSessions,
	})
}
