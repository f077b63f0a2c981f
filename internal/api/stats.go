package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/fretlogapp/fretlog-web/internal/auth"
	"github.com/fretlogapp/fretlog-web/internal/db"
	"github.com/fretlogapp/fretlog-web/internal/logger"
	"github.com/fretlogapp/fretlog-web/internal/models"
	"github.com/fretlogapp/fretlog-web/internal/validation"
)

// defaultChartDaysBack is the chart window when days_back is not given.
const defaultChartDaysBack = 365

// handleGetSummary returns aggregate practice statistics: totals, streaks,
// week-to-date minutes, and the most practiced song
func (s *Server) handleGetSummary(w http.ResponseWriter, r *http.Request) {
	log := logger.Ctx(r.Context())

	userID, ok := auth.GetUserID(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), DatabaseTimeout)
	defer cancel()

	sessions, songs, err := s.loadPracticeData(ctx, userID, db.PracticeSessionFilters{})
	if err != nil {
		log.Error("Failed to load practice data", "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to compute summary")
		return
	}

	respondJSON(w, http.StatusOK, s.engine.Summary(sessions, songs))
}

// handleGetCharts returns the dashboard chart payload: activity heatmap,
// tempo progression, and mood/song distributions for the requested window
func (s *Server) handleGetCharts(w http.ResponseWriter, r *http.Request) {
	log := logger.Ctx(r.Context())

	userID, ok := auth.GetUserID(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	daysBack := defaultChartDaysBack
	if raw := r.URL.Query().Get("days_back"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "days_back must be an integer")
			return
		}
		daysBack = parsed
	}
	if err := validation.ValidateDaysBack(daysBack); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Charts narrow on the same filter vocabulary as the session list
	filters, err := s.parseSessionFilters(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), DatabaseTimeout)
	defer cancel()

	sessions, songs, err := s.loadPracticeData(ctx, userID, filters)
	if err != nil {
		log.Error("Failed to load practice data", "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to compute charts")
		return
	}

	respondJSON(w, http.StatusOK, s.engine.ChartData(ctx, sessions, songs, daysBack))
}

// loadPracticeData fetches the user's session log (narrowed by filters) and
// the songs those sessions reference, in one pass each. Every analytics
// endpoint fans out from this single snapshot so all numbers in a response
// agree.
func (s *Server) loadPracticeData(ctx context.Context, userID int64, filters db.PracticeSessionFilters) ([]models.PracticeSession, map[int64]models.Song, error) {
	sessions, err := s.db.ListPracticeSessions(ctx, userID, filters)
	if err != nil {
		return nil, nil, err
	}

	seen := make(map[int64]bool)
	var songIDs []int64
	for _, session := range sessions {
		if session.SongID != nil && !seen[*session.SongID] {
			seen[*session.SongID] = true
			songIDs = append(songIDs, *session.SongID)
		}
	}

	songs, err := s.db.GetSongsByIDs(ctx, userID, songIDs)
	if err != nil {
		return nil, nil, err
	}

	return sessions, songs, nil
}
