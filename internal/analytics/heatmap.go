package analytics

import (
	"github.com/fretlogapp/fretlog-web/internal/models"
)

// DefaultHeatmapDays is the trailing window used when callers do not
// override days_back.
const DefaultHeatmapDays = 365

// HeatmapDay is one cell of the practice calendar.
type HeatmapDay struct {
	Date     string `json:"date"`
	Minutes  int    `json:"minutes"`
	Sessions int    `json:"sessions"`
	Level    int    `json:"level"` // 0-4 intensity relative to the busiest day
}

// HeatmapData covers exactly TotalDays consecutive calendar days ending
// today, oldest first. The fixed length is a contract: renderers draw a
// fixed-size calendar grid from it.
type HeatmapData struct {
	Days       []HeatmapDay `json:"days"`
	MaxMinutes int          `json:"max_minutes"`
	TotalDays  int          `json:"total_days"`
	ActiveDays int          `json:"active_days"`
}

// Heatmap buckets sessions by local day over the trailing daysBack window.
// Days without practice appear with zero minutes and level 0. The busiest
// day in the window always gets level 4; maxMinutes is floored at 1 so the
// level ratio never divides by zero.
func (e *Engine) Heatmap(sessions []models.PracticeSession, daysBack int) *HeatmapData {
	if daysBack <= 0 {
		daysBack = DefaultHeatmapDays
	}

	type dayAgg struct {
		minutes  int
		sessions int
	}
	byDay := make(map[string]dayAgg)
	maxMinutes := 1
	for _, s := range sessions {
		key := e.DayKey(s.PracticedAt)
		agg := byDay[key]
		agg.minutes += s.DurationMinutes
		agg.sessions++
		byDay[key] = agg
		if agg.minutes > maxMinutes {
			maxMinutes = agg.minutes
		}
	}

	data := &HeatmapData{
		Days:       make([]HeatmapDay, 0, daysBack),
		MaxMinutes: maxMinutes,
		TotalDays:  daysBack,
	}

	start := e.today().AddDate(0, 0, -(daysBack - 1))
	for i := 0; i < daysBack; i++ {
		key := start.AddDate(0, 0, i).Format(dayKeyLayout)
		agg := byDay[key]
		data.Days = append(data.Days, HeatmapDay{
			Date:     key,
			Minutes:  agg.minutes,
			Sessions: agg.sessions,
			Level:    heatLevel(agg.minutes, maxMinutes),
		})
		if agg.minutes > 0 {
			data.ActiveDays++
		}
	}

	return data
}

// heatLevel maps a day's minutes to a 0-4 intensity bucket relative to the
// window maximum: quartile thresholds at 25%, 50% and 75%.
func heatLevel(minutes, maxMinutes int) int {
	if minutes == 0 {
		return 0
	}
	ratio := float64(minutes) / float64(maxMinutes)
	switch {
	case ratio <= 0.25:
		return 1
	case ratio <= 0.5:
		return 2
	case ratio <= 0.75:
		return 3
	default:
		return 4
	}
}
