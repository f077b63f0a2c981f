package analytics

import (
	"testing"

	"github.com/fretlogapp/fretlog-web/internal/models"
)

func TestTempoProgress_BasicProgression(t *testing.T) {
	e := testEngine(t, "2025-06-15 12:00:00")

	songs := songCatalog(models.Song{ID: 1, Title: "Cliffs of Dover", Artist: "Eric Johnson"})
	result := e.TempoProgress([]models.PracticeSession{
		songSession(t, e, "2025-06-10 09:00:00", 30, 1, 100),
		songSession(t, e, "2025-06-12 09:00:00", 30, 1, 110),
		songSession(t, e, "2025-06-14 09:00:00", 30, 1, 120),
	}, songs)

	if len(result) != 1 {
		t.Fatalf("len(result) = %d, want 1", len(result))
	}
	p := result[0]
	if p.Song.ID != 1 || p.Song.Title != "Cliffs of Dover" {
		t.Errorf("Song = %+v, want ID 1 / Cliffs of Dover", p.Song)
	}
	if p.FirstBpm != 100 || p.BestBpm != 120 || p.LatestBpm != 120 {
		t.Errorf("first/best/latest = %d/%d/%d, want 100/120/120", p.FirstBpm, p.BestBpm, p.LatestBpm)
	}
	if p.ImprovementPct != 20 {
		t.Errorf("ImprovementPct = %d, want 20", p.ImprovementPct)
	}
	if len(p.Points) != 3 {
		t.Fatalf("len(Points) = %d, want 3", len(p.Points))
	}
	if p.Points[0].Date != "2025-06-10" || p.Points[0].Bpm != 100 {
		t.Errorf("Points[0] = %+v, want 2025-06-10 @ 100", p.Points[0])
	}
	if p.Points[2].Date != "2025-06-14" || p.Points[2].Bpm != 120 {
		t.Errorf("Points[2] = %+v, want 2025-06-14 @ 120", p.Points[2])
	}
}

func TestTempoProgress_BestAboveLatest(t *testing.T) {
	e := testEngine(t, "2025-06-15 12:00:00")

	result := e.TempoProgress([]models.PracticeSession{
		songSession(t, e, "2025-06-10 09:00:00", 30, 1, 100),
		songSession(t, e, "2025-06-12 09:00:00", 30, 1, 130),
		songSession(t, e, "2025-06-14 09:00:00", 30, 1, 115),
	}, nil)

	if len(result) != 1 {
		t.Fatalf("len(result) = %d, want 1", len(result))
	}
	if result[0].BestBpm != 130 {
		t.Errorf("BestBpm = %d, want 130", result[0].BestBpm)
	}
	if result[0].LatestBpm != 115 {
		t.Errorf("LatestBpm = %d, want 115", result[0].LatestBpm)
	}
	if result[0].ImprovementPct != 15 {
		t.Errorf("ImprovementPct = %d, want 15", result[0].ImprovementPct)
	}
}

func TestTempoProgress_SkipsSongsWithOnePoint(t *testing.T) {
	e := testEngine(t, "2025-06-15 12:00:00")

	result := e.TempoProgress([]models.PracticeSession{
		songSession(t, e, "2025-06-10 09:00:00", 30, 1, 100),
		songSession(t, e, "2025-06-11 09:00:00", 30, 2, 90),
		songSession(t, e, "2025-06-12 09:00:00", 30, 2, 95),
	}, nil)

	if len(result) != 1 {
		t.Fatalf("len(result) = %d, want 1 (song 1 has a single point)", len(result))
	}
	if result[0].Song.ID != 2 {
		t.Errorf("Song.ID = %d, want 2", result[0].Song.ID)
	}
}

func TestTempoProgress_IgnoresSessionsWithoutTempoOrSong(t *testing.T) {
	e := testEngine(t, "2025-06-15 12:00:00")

	result := e.TempoProgress([]models.PracticeSession{
		songSession(t, e, "2025-06-10 09:00:00", 30, 1, 100),
		songSession(t, e, "2025-06-11 09:00:00", 30, 1, 0), // no tempo measured
		songSession(t, e, "2025-06-12 09:00:00", 30, 1, 110),
		session(t, e, "2025-06-13 09:00:00", 30), // no song
	}, nil)

	if len(result) != 1 {
		t.Fatalf("len(result) = %d, want 1", len(result))
	}
	if len(result[0].Points) != 2 {
		t.Errorf("len(Points) = %d, want 2 (tempo-less session excluded)", len(result[0].Points))
	}
}

func TestTempoProgress_SortsByPointCountThenSongID(t *testing.T) {
	e := testEngine(t, "2025-06-15 12:00:00")

	result := e.TempoProgress([]models.PracticeSession{
		// Song 5: 2 points. Song 2: 3 points. Song 9: 2 points.
		songSession(t, e, "2025-06-01 09:00:00", 30, 5, 80),
		songSession(t, e, "2025-06-02 09:00:00", 30, 5, 85),
		songSession(t, e, "2025-06-01 09:00:00", 30, 2, 60),
		songSession(t, e, "2025-06-02 09:00:00", 30, 2, 62),
		songSession(t, e, "2025-06-03 09:00:00", 30, 2, 64),
		songSession(t, e, "2025-06-01 09:00:00", 30, 9, 120),
		songSession(t, e, "2025-06-02 09:00:00", 30, 9, 125),
	}, nil)

	if len(result) != 3 {
		t.Fatalf("len(result) = %d, want 3", len(result))
	}
	got := []int64{result[0].Song.ID, result[1].Song.ID, result[2].Song.ID}
	want := []int64{2, 5, 9}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestTempoProgress_NegativeImprovementRounds(t *testing.T) {
	e := testEngine(t, "2025-06-15 12:00:00")

	// 120 -> 100 is -16.67%, rounds to -17.
	result := e.TempoProgress([]models.PracticeSession{
		songSession(t, e, "2025-06-10 09:00:00", 30, 1, 120),
		songSession(t, e, "2025-06-12 09:00:00", 30, 1, 100),
	}, nil)

	if len(result) != 1 {
		t.Fatalf("len(result) = %d, want 1", len(result))
	}
	if result[0].ImprovementPct != -17 {
		t.Errorf("ImprovementPct = %d, want -17", result[0].ImprovementPct)
	}
}

func TestTempoProgress_Empty(t *testing.T) {
	e := testEngine(t, "2025-06-15 12:00:00")

	result := e.TempoProgress(nil, nil)
	if result == nil {
		t.Fatal("result is nil, want empty slice")
	}
	if len(result) != 0 {
		t.Errorf("len(result) = %d, want 0", len(result))
	}
}
