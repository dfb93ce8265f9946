package engine

import (
	"fmt"
	"testing"
	"time"
)

var base = time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC) // a Monday

func ev(user, name string, offset time.Duration) Event {
	return Event{UserID: user, Name: name, At: base.Add(offset)}
}

func TestFunnelDistinctUsers(t *testing.T) {
	events := []Event{
		ev("u1", "a_complete", 0),
		ev("u1", "a_complete", time.Hour), // repeat must not inflate
		ev("u2", "a_complete", 0),
		ev("u3", "a_complete", 0),
		ev("u1", "b_start", 2*time.Hour),
		ev("u2", "b_start", 3*time.Hour),
	}

	f := FunnelCounts(events, []string{"a_complete", "b_start"})
	if len(f.Stages) != 2 {
		t.Fatalf("stages = %+v", f.Stages)
	}
	if f.Stages[0].Users != 3 || f.Stages[1].Users != 2 {
		t.Errorf("users = %d/%d, want 3/2", f.Stages[0].Users, f.Stages[1].Users)
	}
	if got := f.Stages[1].StepConversion; !approx(got, 66.67) {
		t.Errorf("A→B conversion = %.2f, want 66.67", got)
	}
	if f.Bottleneck != "b_start" {
		t.Errorf("bottleneck = %q", f.Bottleneck)
	}
}

func TestFunnelEmptyFirstStage(t *testing.T) {
	f := FunnelCounts(nil, []string{"x", "y"})
	for _, s := range f.Stages {
		if s.Users != 0 || s.StepConversion != 0 || s.CumulativeConv != 0 {
			t.Errorf("stage %+v should be all zero", s)
		}
	}
}

func TestStageGaps(t *testing.T) {
	events := []Event{
		ev("u1", "done1", 0),
		ev("u1", "start2", 60*time.Second),
		ev("u1", "start2", 600*time.Second), // later repeat ignored
		ev("u2", "done1", 0),
		ev("u2", "start2", 180*time.Second),
		ev("u3", "done1", 0),
		ev("u4", "start2", 0),
		ev("u4", "done1", 30*time.Second), // negative gap dropped
	}

	gaps := StageGaps(events, []StagePair{{From: "done1", To: "start2"}})
	if len(gaps) != 1 {
		t.Fatalf("gaps = %+v", gaps)
	}
	g := gaps[0]
	if g.Users != 2 {
		t.Errorf("users = %d, want 2", g.Users)
	}
	if len(g.Seconds) != 2 || g.Seconds[0] != 60 || g.Seconds[1] != 180 {
		t.Errorf("seconds = %v, want [60 180]", g.Seconds)
	}
	if g.MedianSeconds != 120 {
		t.Errorf("median = %v, want 120", g.MedianSeconds)
	}
}

func TestDensityZeroFill(t *testing.T) {
	events := []Event{
		ev("u1", "x", 0),                        // Monday 09
		ev("u2", "x", 30*time.Minute),           // Monday 09
		ev("u1", "x", 24*time.Hour+5*time.Hour), // Tuesday 14
	}
	g := Density(events)

	if len(g.Weekdays) != 7 || g.Weekdays[0] != "Monday" {
		t.Fatalf("weekdays = %v", g.Weekdays)
	}
	if g.Counts[0][9] != 2 || g.Counts[1][14] != 1 {
		t.Errorf("counts Mon09=%d Tue14=%d, want 2/1", g.Counts[0][9], g.Counts[1][14])
	}
	table := BuildDensityTable("d", g)
	if len(table.Rows) != 7 {
		t.Fatalf("rows = %d, want 7", len(table.Rows))
	}
	for _, row := range table.Rows {
		if len(row) != 25 {
			t.Fatalf("row %v has %d cells, want 25", row[0], len(row))
		}
		for h, cell := range row[1:] {
			if cell == "" {
				t.Errorf("%s %02d is absent, want 0", row[0], h)
			}
		}
	}
	if table.Rows[6][1] != "0" {
		t.Errorf("Sunday 00 = %q, want 0", table.Rows[6][1])
	}
}

func TestCohortRetentionDayOne(t *testing.T) {
	var events []Event
	for i := 0; i < 10; i++ {
		user := fmt.Sprintf("u%d", i)
		events = append(events, ev(user, "open", time.Duration(i)*time.Minute))
		if i < 4 {
			events = append(events, ev(user, "open", 24*time.Hour))
		}
	}

	days := CohortRetention(events)
	if len(days) != 2 {
		t.Fatalf("days = %+v", days)
	}
	if days[0].Day != 0 || days[0].Users != 10 || days[0].Percent != 100 {
		t.Errorf("day 0 = %+v", days[0])
	}
	if days[1].Day != 1 || days[1].Users != 4 || !approx(days[1].Percent, 40) {
		t.Errorf("day 1 = %+v, want 4 users at 40%%", days[1])
	}
}

func TestCalendarDaysCrossMidnight(t *testing.T) {
	a := time.Date(2025, 3, 3, 23, 30, 0, 0, time.UTC)
	b := time.Date(2025, 3, 4, 0, 15, 0, 0, time.UTC)
	if d := calendarDays(a, b); d != 1 {
		t.Errorf("calendarDays = %d, want 1", d)
	}
}

func TestMedian(t *testing.T) {
	tests := []struct {
		in   []float64
		want float64
	}{
		{nil, 0},
		{[]float64{5}, 5},
		{[]float64{1, 3, 9}, 3},
		{[]float64{1, 3, 5, 9}, 4},
	}
	for _, tt := range tests {
		if got := Median(tt.in); got != tt.want {
			t.Errorf("Median(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
