package analytics

import (
	"sort"

	"github.com/fretlogapp/fretlog-web/internal/models"
)

// songDistributionLimit caps the song distribution at the top entries by
// practiced minutes.
const songDistributionLimit = 10

// MoodEntry is one mood's share of the sessions that carry a mood tag.
type MoodEntry struct {
	Mood       models.Mood `json:"mood"`
	Count      int         `json:"count"`
	Percentage int         `json:"percentage"`
}

// SongShare is one song's share of total practiced minutes.
type SongShare struct {
	Song       SongRef `json:"song"`
	Minutes    int     `json:"minutes"`
	Sessions   int     `json:"sessions"`
	Percentage int     `json:"percentage"`
}

// MoodDistribution counts mood tags and their percentage of all tagged
// sessions, in canonical worst-to-best order. Sessions without a mood are
// excluded from the denominator; no tagged sessions yields an empty list.
// Percentages are rounded per entry and may not sum to exactly 100.
func (e *Engine) MoodDistribution(sessions []models.PracticeSession) []MoodEntry {
	counts := make(map[models.Mood]int)
	total := 0
	for _, s := range sessions {
		if s.Mood == nil {
			continue
		}
		counts[*s.Mood]++
		total++
	}

	result := []MoodEntry{}
	if total == 0 {
		return result
	}

	for _, mood := range models.Moods {
		n := counts[mood]
		if n == 0 {
			continue
		}
		result = append(result, MoodEntry{
			Mood:       mood,
			Count:      n,
			Percentage: percentOf(int64(n), int64(total)),
		})
	}
	return result
}

// SongDistribution ranks songs by total practiced minutes with each song's
// percentage share, truncated to the top 10. Free sessions (no song) are
// excluded. Ties on minutes order by song ID ascending for deterministic
// output.
func (e *Engine) SongDistribution(sessions []models.PracticeSession, songs map[int64]models.Song) []SongShare {
	type agg struct {
		minutes  int
		sessions int
	}
	bySong := make(map[int64]agg)
	var totalMinutes int64
	for _, s := range sessions {
		if s.SongID == nil {
			continue
		}
		a := bySong[*s.SongID]
		a.minutes += s.DurationMinutes
		a.sessions++
		bySong[*s.SongID] = a
		totalMinutes += int64(s.DurationMinutes)
	}

	result := []SongShare{}
	if totalMinutes == 0 {
		return result
	}

	for songID, a := range bySong {
		result = append(result, SongShare{
			Song:       *songRef(songID, songs),
			Minutes:    a.minutes,
			Sessions:   a.sessions,
			Percentage: percentOf(int64(a.minutes), totalMinutes),
		})
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Minutes != result[j].Minutes {
			return result[i].Minutes > result[j].Minutes
		}
		return result[i].Song.ID < result[j].Song.ID
	})

	if len(result) > songDistributionLimit {
		result = result[:songDistributionLimit]
	}
	return result
}
