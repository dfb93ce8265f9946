package engine

import (
	"testing"

	"github.com/pkg/errors"
)

func TestExecuteUnknownView(t *testing.T) {
	_, err := Execute("pie", Input{})
	if !errors.Is(err, ErrUnknownView) {
		t.Errorf("err = %v, want ErrUnknownView", err)
	}
	if _, err := ParseView(" Heatmap "); err != nil {
		t.Errorf("ParseView should be case-insensitive: %v", err)
	}
}

func TestExecuteMissingInput(t *testing.T) {
	if _, err := Execute(ViewHeatmap, Input{}); !errors.Is(err, ErrMissingInput) {
		t.Errorf("heatmap without table: err = %v", err)
	}
	if _, err := Execute(ViewFunnel, Input{}); !errors.Is(err, ErrMissingInput) {
		t.Errorf("funnel without stages: err = %v", err)
	}
	if _, err := Execute(ViewGaps, Input{}); !errors.Is(err, ErrMissingInput) {
		t.Errorf("gaps without pairs: err = %v", err)
	}
}

func TestExecuteEveryEnrollmentView(t *testing.T) {
	in := Input{Table: sampleTable(t)}
	for _, name := range Views() {
		if IsBehavioral(name) {
			continue
		}
		res, err := Execute(name, in)
		if err != nil {
			t.Errorf("%s: %v", name, err)
			continue
		}
		if res.View != name || res.Title == "" || res.Table == nil {
			t.Errorf("%s: incomplete result %+v", name, res)
		}
		if res.Chart == nil {
			t.Errorf("%s: expected a chart", name)
		}
	}
}

func TestExecuteAttritionReportsExcluded(t *testing.T) {
	res, err := Execute(ViewAttrition, Input{Table: sampleTable(t)}, WithAgeSubset("8", "성인"), WithTitle("Drop-off"))
	if err != nil {
		t.Fatal(err)
	}
	if res.Title != "Drop-off" || res.Table.Title != "Drop-off" {
		t.Errorf("title = %q / %q", res.Title, res.Table.Title)
	}
	if len(res.Excluded) != 1 || res.Excluded[0] != "성인" {
		t.Errorf("excluded = %v, want [성인]", res.Excluded)
	}
}

func TestExecuteHeatmapTable(t *testing.T) {
	res, err := Execute(ViewHeatmap, Input{Table: sampleTable(t)})
	if err != nil {
		t.Fatal(err)
	}
	headers := res.Table.Headers()
	want := []string{"Age", "A과정", "B과정", "Total"}
	if len(headers) != len(want) {
		t.Fatalf("headers = %v, want %v", headers, want)
	}
	for i := range want {
		if headers[i] != want[i] {
			t.Errorf("header %d = %q, want %q", i, headers[i], want[i])
		}
	}
	if res.Table.Summary.Values["total"] != "40" {
		t.Errorf("grand total = %q, want 40", res.Table.Summary.Values["total"])
	}
}

func TestExecuteFunnel(t *testing.T) {
	events := []Event{ev("u1", "a", 0), ev("u2", "a", 0), ev("u1", "b", 0)}
	res, err := Execute(ViewFunnel, Input{Events: events}, WithStages("a", "b"))
	if err != nil {
		t.Fatal(err)
	}
	if got := res.Table.Rows[1][2]; got != "50.0%" {
		t.Errorf("step conversion cell = %q, want 50.0%%", got)
	}
	if res.Chart == nil || res.Chart.ChartType != "funnel" {
		t.Errorf("chart = %+v", res.Chart)
	}
}

func TestParsePair(t *testing.T) {
	p, err := ParsePair(" done1 > start2 ")
	if err != nil || p.From != "done1" || p.To != "start2" {
		t.Errorf("ParsePair = %+v, %v", p, err)
	}
	for _, bad := range []string{"", "a>", ">b", "ab"} {
		if _, err := ParsePair(bad); err == nil {
			t.Errorf("ParsePair(%q) should fail", bad)
		}
	}
}
