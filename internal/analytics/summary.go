package analytics

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/fretlogapp/fretlog-web/internal/models"
)

// SongRef identifies a song in aggregator output, enriched for display.
type SongRef struct {
	ID       int64   `json:"id"`
	Title    string  `json:"title"`
	Artist   string  `json:"artist"`
	CoverURL *string `json:"cover_url,omitempty"`
}

// SummaryStats is the headline card of the practice dashboard.
type SummaryStats struct {
	TotalSessions        int      `json:"total_sessions"`
	TotalMinutes         int      `json:"total_minutes"`
	AverageSessionLength int      `json:"average_session_length"`
	SessionsThisWeek     int      `json:"sessions_this_week"`
	MinutesThisWeek      int      `json:"minutes_this_week"`
	CurrentStreak        int      `json:"current_streak"`
	LongestStreak        int      `json:"longest_streak"`
	MostPracticedSong    *SongRef `json:"most_practiced_song"`
}

// Summary aggregates totals, the current calendar week (starting at the
// most recent Sunday, local midnight), streaks, and the most practiced
// song. MostPracticedSong is nil when no session references a song; ties
// on session count resolve to the lowest song ID.
func (e *Engine) Summary(sessions []models.PracticeSession, songs map[int64]models.Song) *SummaryStats {
	stats := &SummaryStats{TotalSessions: len(sessions)}

	now := e.now()
	weekStart := e.weekStartFor(now)

	songCounts := make(map[int64]int)
	for _, s := range sessions {
		stats.TotalMinutes += s.DurationMinutes

		// Week window is weekStart through now; forward-dated entries
		// within the write-side clock-skew allowance stay out of it.
		practicedAt := s.PracticedAt.In(e.loc)
		if !practicedAt.Before(weekStart) && !practicedAt.After(now) {
			stats.SessionsThisWeek++
			stats.MinutesThisWeek += s.DurationMinutes
		}

		if s.SongID != nil {
			songCounts[*s.SongID]++
		}
	}

	if stats.TotalSessions > 0 {
		stats.AverageSessionLength = roundHalfUp(
			decimal.NewFromInt(int64(stats.TotalMinutes)).Div(decimal.NewFromInt(int64(stats.TotalSessions))))
	}

	if topID, ok := mostPracticed(songCounts); ok {
		stats.MostPracticedSong = songRef(topID, songs)
	}

	streaks := e.ComputeStreaks(sessions)
	stats.CurrentStreak = streaks.Current
	stats.LongestStreak = streaks.Longest

	return stats
}

// mostPracticed picks the song with the highest session count, lowest ID
// on ties, so the result does not depend on map iteration order.
func mostPracticed(counts map[int64]int) (int64, bool) {
	var topID int64
	topCount := 0
	for id, n := range counts {
		if n > topCount || (n == topCount && topCount > 0 && id < topID) {
			topID = id
			topCount = n
		}
	}
	return topID, topCount > 0
}

func songRef(id int64, songs map[int64]models.Song) *SongRef {
	ref := &SongRef{ID: id}
	if s, ok := songs[id]; ok {
		ref.Title = s.Title
		ref.Artist = s.Artist
		ref.CoverURL = s.CoverURL
	}
	return ref
}

// weekStartFor returns the start of the local calendar week containing t:
// the most recent Sunday at midnight.
func (e *Engine) weekStartFor(t time.Time) time.Time {
	local := t.In(e.loc)
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, e.loc)
	return midnight.AddDate(0, 0, -int(local.Weekday()))
}
