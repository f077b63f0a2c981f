package analytics

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/fretlogapp/fretlog-web/internal/models"
)

// BpmPoint is one measured tempo on a practice day.
type BpmPoint struct {
	Date string `json:"date"`
	Bpm  int    `json:"bpm"`
}

// BpmProgress is a song's tempo progression: the chronological series of
// measured tempos plus first/best/latest and the percentage improvement
// from first to latest.
type BpmProgress struct {
	Song           SongRef    `json:"song"`
	Points         []BpmPoint `json:"points"`
	FirstBpm       int        `json:"first_bpm"`
	BestBpm        int        `json:"best_bpm"`
	LatestBpm      int        `json:"latest_bpm"`
	ImprovementPct int        `json:"improvement_pct"`
}

// TempoProgress builds one progression per song that has at least two
// sessions with a measured tempo; a single point cannot show progression.
// The result is sorted by point count descending (richest series first),
// song ID ascending on ties.
func (e *Engine) TempoProgress(sessions []models.PracticeSession, songs map[int64]models.Song) []BpmProgress {
	bySong := make(map[int64][]models.PracticeSession)
	for _, s := range sessions {
		if s.SongID == nil || s.TempoBPM == nil {
			continue
		}
		bySong[*s.SongID] = append(bySong[*s.SongID], s)
	}

	result := []BpmProgress{}
	for songID, recs := range bySong {
		if len(recs) < 2 {
			continue
		}

		sort.SliceStable(recs, func(i, j int) bool {
			return recs[i].PracticedAt.Before(recs[j].PracticedAt)
		})

		points := make([]BpmPoint, len(recs))
		best := 0
		for i, r := range recs {
			points[i] = BpmPoint{Date: e.DayKey(r.PracticedAt), Bpm: *r.TempoBPM}
			if *r.TempoBPM > best {
				best = *r.TempoBPM
			}
		}

		first := points[0].Bpm
		latest := points[len(points)-1].Bpm

		result = append(result, BpmProgress{
			Song:           *songRef(songID, songs),
			Points:         points,
			FirstBpm:       first,
			BestBpm:        best,
			LatestBpm:      latest,
			ImprovementPct: improvementPct(first, latest),
		})
	}

	sort.Slice(result, func(i, j int) bool {
		if len(result[i].Points) != len(result[j].Points) {
			return len(result[i].Points) > len(result[j].Points)
		}
		return result[i].Song.ID < result[j].Song.ID
	})

	return result
}

// improvementPct is round((latest-first)/first*100), 0 when first is 0.
func improvementPct(first, latest int) int {
	if first == 0 {
		return 0
	}
	delta := decimal.NewFromInt(int64(latest - first))
	return roundHalfUp(delta.Mul(decimal.NewFromInt(100)).Div(decimal.NewFromInt(int64(first))))
}
