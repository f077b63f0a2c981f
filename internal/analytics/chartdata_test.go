package analytics

import (
	"context"
	"testing"

	"github.com/fretlogapp/fretlog-web/internal/models"
)

func TestChartData_EmptyInput(t *testing.T) {
	e := testEngine(t, "2025-06-15 12:00:00")

	data := e.ChartData(context.Background(), nil, nil, 30)

	if data.Heatmap == nil {
		t.Fatal("Heatmap is nil")
	}
	if len(data.Heatmap.Days) != 30 {
		t.Errorf("len(Heatmap.Days) = %d, want 30", len(data.Heatmap.Days))
	}
	if data.BpmProgress == nil || len(data.BpmProgress) != 0 {
		t.Errorf("BpmProgress = %v, want empty non-nil slice", data.BpmProgress)
	}
	if data.MoodDistribution == nil || len(data.MoodDistribution) != 0 {
		t.Errorf("MoodDistribution = %v, want empty non-nil slice", data.MoodDistribution)
	}
	if data.SongDistribution == nil || len(data.SongDistribution) != 0 {
		t.Errorf("SongDistribution = %v, want empty non-nil slice", data.SongDistribution)
	}
}

func TestChartData_AllSections(t *testing.T) {
	e := testEngine(t, "2025-06-15 12:00:00")

	songs := songCatalog(models.Song{ID: 1, Title: "Wonderwall", Artist: "Oasis"})
	sessions := []models.PracticeSession{
		songSession(t, e, "2025-06-10 09:00:00", 30, 1, 80),
		songSession(t, e, "2025-06-12 09:00:00", 30, 1, 90),
		moodSession(t, e, "2025-06-14 09:00:00", 20, models.MoodGood),
	}

	data := e.ChartData(context.Background(), sessions, songs, 30)

	if data.Heatmap.ActiveDays != 3 {
		t.Errorf("Heatmap.ActiveDays = %d, want 3", data.Heatmap.ActiveDays)
	}
	if len(data.BpmProgress) != 1 {
		t.Errorf("len(BpmProgress) = %d, want 1", len(data.BpmProgress))
	}
	if len(data.MoodDistribution) != 1 {
		t.Errorf("len(MoodDistribution) = %d, want 1", len(data.MoodDistribution))
	}
	if len(data.SongDistribution) != 1 {
		t.Errorf("len(SongDistribution) = %d, want 1", len(data.SongDistribution))
	}
}
