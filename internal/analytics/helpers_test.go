package analytics

import (
	"testing"
	"time"

	"github.com/fretlogapp/fretlog-web/internal/models"
)

// testZone is deliberately non-UTC so UTC-day bucketing bugs surface.
const testZone = "America/New_York"

// testEngine returns an engine pinned to a fixed "now" in the test zone.
// now is given as "2006-01-02 15:04:05" local time.
func testEngine(t *testing.T, now string) *Engine {
	t.Helper()

	loc, err := time.LoadLocation(testZone)
	if err != nil {
		t.Fatalf("failed to load location %s: %v", testZone, err)
	}

	fixed, err := time.ParseInLocation("2006-01-02 15:04:05", now, loc)
	if err != nil {
		t.Fatalf("failed to parse test clock %q: %v", now, err)
	}

	e := NewEngine(loc)
	e.now = func() time.Time { return fixed }
	return e
}

// at parses a local timestamp in the engine's zone.
func at(t *testing.T, e *Engine, ts string) time.Time {
	t.Helper()
	parsed, err := time.ParseInLocation("2006-01-02 15:04:05", ts, e.loc)
	if err != nil {
		t.Fatalf("failed to parse timestamp %q: %v", ts, err)
	}
	return parsed
}

// session builds a free practice session at the given local time.
func session(t *testing.T, e *Engine, ts string, minutes int) models.PracticeSession {
	t.Helper()
	return models.PracticeSession{
		PracticedAt:     at(t, e, ts),
		DurationMinutes: minutes,
	}
}

// songSession builds a song-linked session, optionally with a tempo
// (bpm <= 0 means no tempo measured).
func songSession(t *testing.T, e *Engine, ts string, minutes int, songID int64, bpm int) models.PracticeSession {
	t.Helper()
	s := session(t, e, ts, minutes)
	s.SongID = &songID
	if bpm > 0 {
		s.TempoBPM = &bpm
	}
	return s
}

// moodSession builds a free session tagged with a mood.
func moodSession(t *testing.T, e *Engine, ts string, minutes int, mood models.Mood) models.PracticeSession {
	t.Helper()
	s := session(t, e, ts, minutes)
	s.Mood = &mood
	return s
}

// songCatalog builds a song lookup map keyed by ID.
func songCatalog(songs ...models.Song) map[int64]models.Song {
	m := make(map[int64]models.Song, len(songs))
	for _, s := range songs {
		m[s.ID] = s
	}
	return m
}
