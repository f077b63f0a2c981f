package analytics

import (
	"sort"
	"time"

	"github.com/fretlogapp/fretlog-web/internal/models"
)

// Streaks holds consecutive-day practice streaks. A day counts toward a
// streak if it has at least one session, regardless of duration.
type Streaks struct {
	Current int `json:"current_streak"`
	Longest int `json:"longest_streak"`
}

// ComputeStreaks derives the current and longest streaks from the set of
// practiced calendar days. The current streak is live only if the most
// recent practiced day is today or yesterday; practicing yesterday but not
// yet today does not break it.
func (e *Engine) ComputeStreaks(sessions []models.PracticeSession) Streaks {
	return e.streaksFromDays(e.practicedDays(sessions))
}

// practicedDays returns the unique practiced days as local midnights,
// sorted most recent first.
func (e *Engine) practicedDays(sessions []models.PracticeSession) []time.Time {
	uniq := make(map[string]struct{}, len(sessions))
	for _, s := range sessions {
		uniq[e.DayKey(s.PracticedAt)] = struct{}{}
	}

	days := make([]time.Time, 0, len(uniq))
	for key := range uniq {
		d, err := time.ParseInLocation(dayKeyLayout, key, e.loc)
		if err != nil {
			continue
		}
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].After(days[j]) })
	return days
}

func (e *Engine) streaksFromDays(days []time.Time) Streaks {
	if len(days) == 0 {
		return Streaks{}
	}

	// The most recent run is live if it ends today or yesterday.
	gapFromToday := daysBetween(days[0], e.today())
	live := gapFromToday <= 1

	current := 0
	if live {
		current = 1
	}
	tempStreak := 1
	longest := 0

	for i := 1; i < len(days); i++ {
		if daysBetween(days[i], days[i-1]) == 1 {
			tempStreak++
			if live {
				current = tempStreak
			}
		} else {
			// Run broke: the live run (if any) has ended.
			if tempStreak > longest {
				longest = tempStreak
			}
			tempStreak = 1
			live = false
		}
	}
	if tempStreak > longest {
		longest = tempStreak
	}

	return Streaks{Current: current, Longest: longest}
}

// daysBetween counts whole calendar days from a to b, where both are local
// midnights. Computed via each day's proleptic day number so DST
// transitions (23h/25h days) cannot skew the count.
func daysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	au := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	bu := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(bu.Sub(au).Hours() / 24)
}
