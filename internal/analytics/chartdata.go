package analytics

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/fretlogapp/fretlog-web/internal/models"
)

var tracer = otel.Tracer("fretlog/analytics")

// ChartData bundles every chart the dashboard renders from one session
// fetch.
type ChartData struct {
	Heatmap          *HeatmapData  `json:"heatmap"`
	BpmProgress      []BpmProgress `json:"bpm_progress"`
	MoodDistribution []MoodEntry   `json:"mood_distribution"`
	SongDistribution []SongShare   `json:"song_distribution"`
}

// ChartData runs the four chart aggregators over the same session list.
// The aggregators are independent pure functions, so they run in parallel;
// daysBack <= 0 selects the default 365-day heatmap window.
func (e *Engine) ChartData(ctx context.Context, sessions []models.PracticeSession, songs map[int64]models.Song, daysBack int) *ChartData {
	_, span := tracer.Start(ctx, "analytics.chart_data",
		trace.WithAttributes(
			attribute.Int("session.count", len(sessions)),
			attribute.Int("days_back", daysBack),
		))
	defer span.End()

	data := &ChartData{}

	var wg sync.WaitGroup
	wg.Add(4)
	go func() {
		defer wg.Done()
		data.Heatmap = e.Heatmap(sessions, daysBack)
	}()
	go func() {
		defer wg.Done()
		data.BpmProgress = e.TempoProgress(sessions, songs)
	}()
	go func() {
		defer wg.Done()
		data.MoodDistribution = e.MoodDistribution(sessions)
	}()
	go func() {
		defer wg.Done()
		data.SongDistribution = e.SongDistribution(sessions, songs)
	}()
	wg.Wait()

	return data
}
