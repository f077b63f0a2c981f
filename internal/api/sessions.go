package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fretlogapp/fretlog-web/internal/auth"
	"github.com/fretlogapp/fretlog-web/internal/db"
	"github.com/fretlogapp/fretlog-web/internal/logger"
	"github.com/fretlogapp/fretlog-web/internal/models"
	"github.com/fretlogapp/fretlog-web/internal/validation"
)

// handleCreatePracticeSession logs a practice session
func (s *Server) handleCreatePracticeSession(w http.ResponseWriter, r *http.Request) {
	log := logger.Ctx(r.Context())

	userID, ok := auth.GetUserID(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	var req models.SavePracticeSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := validation.ValidatePracticeSession(&req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), DatabaseTimeout)
	defer cancel()

	if err := s.checkSongOwnership(ctx, userID, req.SongID); err != nil {
		if errors.Is(err, db.ErrSongNotFound) {
			respondError(w, http.StatusBadRequest, "song_id does not reference one of your songs")
			return
		}
		log.Error("Failed to check song", "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to log practice session")
		return
	}

	session, err := s.db.CreatePracticeSession(ctx, userID, &req)
	if err != nil {
		log.Error("Failed to create practice session", "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to log practice session")
		return
	}

	respondJSON(w, http.StatusCreated, session)
}

// handleListPracticeSessions returns the user's practice log, optionally
// narrowed by song_id, start_date, end_date (inclusive calendar days in the
// app time zone), and mood
func (s *Server) handleListPracticeSessions(w http.ResponseWriter, r *http.Request) {
	log := logger.Ctx(r.Context())

	userID, ok := auth.GetUserID(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	filters, err := s.parseSessionFilters(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), DatabaseTimeout)
	defer cancel()

	sessions, err := s.db.ListPracticeSessions(ctx, userID, filters)
	if err != nil {
		log.Error("Failed to list practice sessions", "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to list practice sessions")
		return
	}

	if sessions == nil {
		sessions = []models.PracticeSession{}
	}

	respondJSON(w, http.StatusOK, sessions)
}

// handleGetPracticeSession returns a single logged session
func (s *Server) handleGetPracticeSession(w http.ResponseWriter, r *http.Request) {
	log := logger.Ctx(r.Context())

	userID, ok := auth.GetUserID(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	sessionID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid session ID")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), DatabaseTimeout)
	defer cancel()

	session, err := s.db.GetPracticeSession(ctx, userID, sessionID)
	if err != nil {
		if errors.Is(err, db.ErrPracticeSessionNotFound) {
			respondError(w, http.StatusNotFound, "Practice session not found")
			return
		}
		log.Error("Failed to get practice session", "error", err, "session_id", sessionID)
		respondError(w, http.StatusInternalServerError, "Failed to get practice session")
		return
	}

	respondJSON(w, http.StatusOK, session)
}

// handleUpdatePracticeSession replaces a logged session's fields
func (s *Server) handleUpdatePracticeSession(w http.ResponseWriter, r *http.Request) {
	log := logger.Ctx(r.Context())

	userID, ok := auth.GetUserID(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	sessionID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid session ID")
		return
	}

	var req models.SavePracticeSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := validation.ValidatePracticeSession(&req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), DatabaseTimeout)
	defer cancel()

	if err := s.checkSongOwnership(ctx, userID, req.SongID); err != nil {
		if errors.Is(err, db.ErrSongNotFound) {
			respondError(w, http.StatusBadRequest, "song_id does not reference one of your songs")
			return
		}
		log.Error("Failed to check song", "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to update practice session")
		return
	}

	session, err := s.db.UpdatePracticeSession(ctx, userID, sessionID, &req)
	if err != nil {
		if errors.Is(err, db.ErrPracticeSessionNotFound) {
			respondError(w, http.StatusNotFound, "Practice session not found")
			return
		}
		log.Error("Failed to update practice session", "error", err, "session_id", sessionID)
		respondError(w, http.StatusInternalServerError, "Failed to update practice session")
		return
	}

	respondJSON(w, http.StatusOK, session)
}

// handleDeletePracticeSession removes a logged session
func (s *Server) handleDeletePracticeSession(w http.ResponseWriter, r *http.Request) {
	log := logger.Ctx(r.Context())

	userID, ok := auth.GetUserID(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	sessionID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid session ID")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), DatabaseTimeout)
	defer cancel()

	if err := s.db.DeletePracticeSession(ctx, userID, sessionID); err != nil {
		if errors.Is(err, db.ErrPracticeSessionNotFound) {
			respondError(w, http.StatusNotFound, "Practice session not found")
			return
		}
		log.Error("Failed to delete practice session", "error", err, "session_id", sessionID)
		respondError(w, http.StatusInternalServerError, "Failed to delete practice session")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// checkSongOwnership verifies an optional song reference belongs to the
// user. A nil songID (free practice) is always valid.
func (s *Server) checkSongOwnership(ctx context.Context, userID int64, songID *int64) error {
	if songID == nil {
		return nil
	}
	_, err := s.db.GetSong(ctx, userID, *songID)
	return err
}

// parseSessionFilters builds list filters from query parameters. Dates are
// YYYY-MM-DD, interpreted in the app time zone; end_date covers the whole
// day.
func (s *Server) parseSessionFilters(r *http.Request) (db.PracticeSessionFilters, error) {
	var filters db.PracticeSessionFilters
	q := r.URL.Query()

	if raw := q.Get("song_id"); raw != "" {
		songID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return filters, fmt.Errorf("invalid song_id: %q", raw)
		}
		filters.SongID = &songID
	}

	loc := s.engine.Location()

	if raw := q.Get("start_date"); raw != "" {
		start, err := time.ParseInLocation("2006-01-02", raw, loc)
		if err != nil {
			return filters, fmt.Errorf("invalid start_date: %q (want YYYY-MM-DD)", raw)
		}
		filters.StartDate = &start
	}

	if raw := q.Get("end_date"); raw != "" {
		end, err := time.ParseInLocation("2006-01-02", raw, loc)
		if err != nil {
			return filters, fmt.Errorf("invalid end_date: %q (want YYYY-MM-DD)", raw)
		}
		endOfDay := end.AddDate(0, 0, 1).Add(-time.Nanosecond)
		filters.EndDate = &endOfDay
	}

	if filters.StartDate != nil && filters.EndDate != nil && filters.EndDate.Before(*filters.StartDate) {
		return filters, fmt.Errorf("end_date must not precede start_date")
	}

	if raw := q.Get("mood"); raw != "" {
		mood := models.Mood(raw)
		if !mood.Valid() {
			return filters, fmt.Errorf("invalid mood: %q", raw)
		}
		filters.Mood = &mood
	}

	return filters, nil
}
