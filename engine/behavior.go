package engine

import (
	"sort"
	"strings"
	"time"
)

// ============================================================================
// BEHAVIORAL VIEWS: Funnel, gaps, density and cohorts over event logs
// ============================================================================
// Counts are distinct users wherever a user could repeat an event, so a
// user who fires the same milestone ten times still counts once.
// ============================================================================

// Weekdays lists density rows, Monday first.
var Weekdays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// FunnelCounts counts the distinct users reaching each stage. A user
// counts for a stage when they have that stage's event at all.
func FunnelCounts(events []Event, stages []string) Funnel {
	reached := make(map[string]map[string]bool, len(stages))
	for _, s := range stages {
		reached[strings.TrimSpace(s)] = make(map[string]bool)
	}
	for _, e := range events {
		if users, ok := reached[strings.TrimSpace(e.Name)]; ok {
			users[e.UserID] = true
		}
	}

	var f Funnel
	var first, prev int
	worst := -1.0
	for i, s := range stages {
		n := len(reached[strings.TrimSpace(s)])
		stage := FunnelStage{Name: s, Users: n}
		if i == 0 {
			first = n
			if n > 0 {
				stage.StepConversion = 100
				stage.CumulativeConv = 100
			}
		} else {
			stage.StepConversion = Percent(float64(n), float64(prev))
			stage.CumulativeConv = Percent(float64(n), float64(first))
			if worst < 0 || stage.StepConversion < worst {
				worst = stage.StepConversion
				f.Bottleneck = s
			}
		}
		prev = n
		f.Stages = append(f.Stages, stage)
	}
	return f
}

// StageGaps measures, per pair, the seconds between each user's first
// "from" event and first "to" event. Users missing either side are
// skipped, as are negative gaps.
func StageGaps(events []Event, pairs []StagePair) []GapStats {
	firsts := firstOccurrences(events)

	out := make([]GapStats, 0, len(pairs))
	for _, p := range pairs {
		from, to := strings.TrimSpace(p.From), strings.TrimSpace(p.To)
		stats := GapStats{Pair: p, Seconds: []float64{}}
		for _, seen := range firsts {
			start, ok1 := seen[from]
			end, ok2 := seen[to]
			if !ok1 || !ok2 {
				continue
			}
			gap := end.Sub(start).Seconds()
			if gap < 0 {
				continue
			}
			stats.Seconds = append(stats.Seconds, gap)
		}
		sort.Float64s(stats.Seconds)
		stats.Users = len(stats.Seconds)
		stats.MedianSeconds = Median(stats.Seconds)
		out = append(out, stats)
	}
	return out
}

// Density counts events by weekday and hour of day. Every one of the
// 7×24 cells is present; combinations without events are 0.
func Density(events []Event) DensityGrid {
	g := DensityGrid{Weekdays: append([]string(nil), Weekdays...)}
	for _, e := range events {
		g.Counts[mondayIndex(e.At.Weekday())][e.At.Hour()]++
	}
	return g
}

// CohortRetention counts the distinct users active N calendar days after
// their own first event, as a percentage of day 0.
func CohortRetention(events []Event) []CohortDay {
	first := make(map[string]time.Time)
	for _, e := range events {
		if t, ok := first[e.UserID]; !ok || e.At.Before(t) {
			first[e.UserID] = e.At
		}
	}

	active := make(map[int]map[string]bool)
	for _, e := range events {
		day := calendarDays(first[e.UserID], e.At)
		if active[day] == nil {
			active[day] = make(map[string]bool)
		}
		active[day][e.UserID] = true
	}

	days := make([]int, 0, len(active))
	for d := range active {
		days = append(days, d)
	}
	sort.Ints(days)

	base := float64(len(active[0]))
	out := make([]CohortDay, 0, len(days))
	for _, d := range days {
		n := len(active[d])
		out = append(out, CohortDay{
			Day:     d,
			Users:   n,
			Percent: Percent(float64(n), base),
		})
	}
	return out
}

// Median returns the median of sorted values, 0 for none.
func Median(sorted []float64) float64 {
	n := len(sorted)
	switch {
	case n == 0:
		return 0
	case n%2 == 1:
		return sorted[n/2]
	default:
		return (sorted[n/2-1] + sorted[n/2]) / 2
	}
}

// ============================================================================
// INTERNAL HELPERS
// ============================================================================

// firstOccurrences maps user → event name → earliest timestamp.
func firstOccurrences(events []Event) map[string]map[string]time.Time {
	out := make(map[string]map[string]time.Time)
	for _, e := range events {
		seen := out[e.UserID]
		if seen == nil {
			seen = make(map[string]time.Time)
			out[e.UserID] = seen
		}
		name := strings.TrimSpace(e.Name)
		if t, ok := seen[name]; !ok || e.At.Before(t) {
			seen[name] = e.At
		}
	}
	return out
}

func mondayIndex(d time.Weekday) int {
	return (int(d) + 6) % 7
}

// calendarDays is the whole-day difference between the civil dates of a
// and b, each read in its own location.
func calendarDays(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	da := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	db := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}
