// Package analytics computes practice statistics from a user's session log.
// Every aggregation is a pure function of the session list: nothing is
// cached, and the same input always produces the same output. The engine
// carries an explicit time zone and clock so "today" and day bucketing are
// deterministic rather than depending on the process environment.
package analytics

import (
	"time"

	"github.com/shopspring/decimal"
)

// dayKeyLayout is the calendar-day bucket format used everywhere a "day"
// grouping occurs.
const dayKeyLayout = "2006-01-02"

// Engine computes analytics in a fixed time zone with an injectable clock.
type Engine struct {
	loc *time.Location
	now func() time.Time
}

// NewEngine returns an engine that buckets days in loc. A nil loc falls
// back to the process local zone.
func NewEngine(loc *time.Location) *Engine {
	if loc == nil {
		loc = time.Local
	}
	return &Engine{loc: loc, now: time.Now}
}

// Location returns the time zone the engine buckets days in.
func (e *Engine) Location() *time.Location {
	return e.loc
}

// DayKey maps a timestamp to its calendar day in the engine's time zone,
// formatted YYYY-MM-DD. Two timestamps map to the same key iff they fall on
// the same local calendar date; bucketing by UTC day instead would shift
// sessions logged near midnight in non-UTC zones.
func (e *Engine) DayKey(t time.Time) string {
	return t.In(e.loc).Format(dayKeyLayout)
}

// today returns midnight of the current day in the engine's zone.
func (e *Engine) today() time.Time {
	now := e.now().In(e.loc)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, e.loc)
}

var half = decimal.New(5, -1) // 0.5

// roundHalfUp rounds to the nearest integer, with .5 rounding up.
func roundHalfUp(x decimal.Decimal) int {
	return int(x.Add(half).Floor().IntPart())
}

// percentOf returns round(part/whole*100), or 0 when whole is 0.
func percentOf(part, whole int64) int {
	if whole == 0 {
		return 0
	}
	return roundHalfUp(decimal.NewFromInt(part).Mul(decimal.NewFromInt(100)).Div(decimal.NewFromInt(whole)))
}
