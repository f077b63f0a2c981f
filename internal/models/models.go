package models

import "time"

// User represents a FretLog account.
type User struct {
	ID        int64      `json:"id"`
	Email     string     `json:"email"`
	Name      *string    `json:"name,omitempty"`
	Status    UserStatus `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// UserStatus is the users.status column.
type UserStatus string

const (
	UserStatusActive   UserStatus = "active"
	UserStatusInactive UserStatus = "inactive"
)

// WebSession represents a browser session. UserEmail and UserStatus are
// joined from users when the session is loaded.
type WebSession struct {
	ID         string     `json:"id"`
	UserID     int64      `json:"user_id"`
	UserEmail  string     `json:"user_email"`
	UserStatus UserStatus `json:"user_status"`
	CreatedAt  time.Time  `json:"created_at"`
	ExpiresAt  time.Time  `json:"expires_at"`
}

// APIKey represents an API key for non-browser clients (mobile app, CLI).
type APIKey struct {
	ID         int64      `json:"id"`
	UserID     int64      `json:"user_id"`
	KeyHash    string     `json:"-"` // Never expose the hash
	Name       string     `json:"name"`
	CreatedAt  time.Time  `json:"created_at"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
}

// Mood is a self-reported feeling attached to a practice session.
// The vocabulary is fixed; values are ordered worst to best.
type Mood string

const (
	MoodFrustrated Mood = "frustrated"
	MoodNeutral    Mood = "neutral"
	MoodGood       Mood = "good"
	MoodGreat      Mood = "great"
	MoodOnFire     Mood = "on_fire"
)

// Moods lists all mood values in canonical (worst to best) order.
var Moods = []Mood{MoodFrustrated, MoodNeutral, MoodGood, MoodGreat, MoodOnFire}

// Valid reports whether m is one of the fixed mood values.
func (m Mood) Valid() bool {
	switch m {
	case MoodFrustrated, MoodNeutral, MoodGood, MoodGreat, MoodOnFire:
		return true
	}
	return false
}

// Song represents a song in a user's library.
type Song struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Title     string    `json:"title"`
	Artist    string    `json:"artist"`
	CoverURL  *string   `json:"cover_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PracticeSession is one logged practice occurrence. SongID is nil for a
// free (unstructured) session; TempoBPM is set only when the user measured
// a tempo; Mood is optional.
type PracticeSession struct {
	ID              int64     `json:"id"`
	UserID          int64     `json:"user_id"`
	SongID          *int64    `json:"song_id,omitempty"`
	PracticedAt     time.Time `json:"practiced_at"`
	DurationMinutes int       `json:"duration_minutes"` // always >= 1
	TempoBPM        *int      `json:"tempo_bpm,omitempty"`
	Mood            *Mood     `json:"mood,omitempty"`
	Notes           *string   `json:"notes,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// SavePracticeSessionRequest is the API request for logging a session.
type SavePracticeSessionRequest struct {
	SongID          *int64    `json:"song_id,omitempty"`
	PracticedAt     time.Time `json:"practiced_at"`
	DurationMinutes int       `json:"duration_minutes"`
	TempoBPM        *int      `json:"tempo_bpm,omitempty"`
	Mood            *Mood     `json:"mood,omitempty"`
	Notes           *string   `json:"notes,omitempty"`
}

// SaveSongRequest is the API request for creating or updating a song.
type SaveSongRequest struct {
	Title  string `json:"title"`
	Artist string `json:"artist"`
}
