package validation

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/fretlogapp/fretlog-web/internal/models"
)

// Validation limits for request payloads
const (
	MaxTitleLength  = 200  // Max song title length (runes)
	MaxArtistLength = 200  // Max song artist length (runes)
	MaxNotesLength  = 2000 // Max practice session notes length (runes)

	MaxDurationMinutes = 24 * 60 // A session cannot exceed one day
	MaxTempoBPM        = 400     // Above any practical metronome setting

	MinDaysBack = 1    // Shortest chart window
	MaxDaysBack = 1095 // Longest chart window (3 years)

	// MaxFutureSkew tolerates client clock drift when logging "now"
	MaxFutureSkew = 24 * time.Hour
)

// ValidateSong validates a create/update song payload
func ValidateSong(req *models.SaveSongRequest) error {
	if req.Title == "" {
		return fmt.Errorf("title is required")
	}
	if utf8.RuneCountInString(req.Title) > MaxTitleLength {
		return fmt.Errorf("title must be at most %d characters", MaxTitleLength)
	}
	if !utf8.ValidString(req.Title) {
		return fmt.Errorf("title must be valid UTF-8")
	}
	if utf8.RuneCountInString(req.Artist) > MaxArtistLength {
		return fmt.Errorf("artist must be at most %d characters", MaxArtistLength)
	}
	if !utf8.ValidString(req.Artist) {
		return fmt.Errorf("artist must be valid UTF-8")
	}
	return nil
}

// ValidatePracticeSession validates a log/update practice session payload
func ValidatePracticeSession(req *models.SavePracticeSessionRequest) error {
	if req.PracticedAt.IsZero() {
		return fmt.Errorf("practiced_at is required")
	}
	if req.PracticedAt.After(time.Now().Add(MaxFutureSkew)) {
		return fmt.Errorf("practiced_at cannot be in the future")
	}
	if req.DurationMinutes < 1 {
		return fmt.Errorf("duration_minutes must be at least 1")
	}
	if req.DurationMinutes > MaxDurationMinutes {
		return fmt.Errorf("duration_minutes must be at most %d", MaxDurationMinutes)
	}
	if req.TempoBPM != nil {
		if *req.TempoBPM < 1 || *req.TempoBPM > MaxTempoBPM {
			return fmt.Errorf("tempo_bpm must be between 1 and %d", MaxTempoBPM)
		}
	}
	if req.Mood != nil && !req.Mood.Valid() {
		return fmt.Errorf("mood %q is not a recognized value", *req.Mood)
	}
	if req.Notes != nil {
		if utf8.RuneCountInString(*req.Notes) > MaxNotesLength {
			return fmt.Errorf("notes must be at most %d characters", MaxNotesLength)
		}
		if !utf8.ValidString(*req.Notes) {
			return fmt.Errorf("notes must be valid UTF-8")
		}
	}
	return nil
}

// ValidateDaysBack validates a chart window size
func ValidateDaysBack(daysBack int) error {
	if daysBack < MinDaysBack || daysBack > MaxDaysBack {
		return fmt.Errorf("days_back must be between %d and %d", MinDaysBack, MaxDaysBack)
	}
	return nil
}
