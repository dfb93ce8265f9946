package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func runCLI(t *testing.T, args ...string) error {
	t.Helper()
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(new(strings.Builder))
	root.SetErr(new(strings.Builder))
	return root.Execute()
}

func TestViewWritesJSON(t *testing.T) {
	dir := t.TempDir()
	march := writeFile(t, dir, "3월.csv", "커리큘럼,8,9\nA과정 1단계,10,5\nA과정 4단계,2,3\n")
	april := writeFile(t, dir, "4월.csv", "커리큘럼,8,9\nA과정 1단계,8,4\nA과정 4단계,1,7\n")
	out := filepath.Join(dir, "retention.json")

	err := runCLI(t, "view", "retention", march, april,
		"--periods", "3", "--format", "json", "--out", out, "--log-level", "off")
	if err != nil {
		t.Fatalf("view: %v", err)
	}

	raw, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	var result struct {
		View string `json:"view"`
		Data struct {
			FirstStageTotal float64 `json:"firstStageTotal"`
			LastStageTotal  float64 `json:"lastStageTotal"`
			Percent         float64 `json:"percent"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, raw)
	}
	if result.View != "retention" {
		t.Errorf("view = %q", result.View)
	}
	if result.Data.FirstStageTotal != 15 || result.Data.LastStageTotal != 5 {
		t.Errorf("totals = %v / %v, want 15 / 5", result.Data.FirstStageTotal, result.Data.LastStageTotal)
	}
}

func TestViewRejectsBehavioralView(t *testing.T) {
	err := runCLI(t, "view", "funnel", "whatever.csv", "--log-level", "off")
	if err == nil || !strings.Contains(err.Error(), "enrollstat events") {
		t.Fatalf("expected a hint to use events, got %v", err)
	}
}

func TestEventsRejectsEnrollmentView(t *testing.T) {
	err := runCLI(t, "events", "heatmap", "whatever.csv", "--log-level", "off")
	if err == nil || !strings.Contains(err.Error(), "enrollstat view") {
		t.Fatalf("expected a hint to use view, got %v", err)
	}
}

func TestViewFlagsFilter(t *testing.T) {
	vf := &viewFlags{periods: []string{"3-5"}, from: 2, ages: []string{"8"}}
	f, err := vf.filter()
	if err != nil {
		t.Fatal(err)
	}
	if len(f.Periods) != 3 || f.Periods[0] != 3 || f.Periods[2] != 5 {
		t.Errorf("periods = %v", f.Periods)
	}
	if f.PeriodFrom != 2 || len(f.AgeBrackets) != 1 {
		t.Errorf("filter = %+v", f)
	}

	vf.periods = []string{"x"}
	if _, err := vf.filter(); err == nil {
		t.Error("expected error for bad periods")
	}
}

func TestBadFormatFails(t *testing.T) {
	dir := t.TempDir()
	march := writeFile(t, dir, "3월.csv", "커리큘럼,8\nA과정 1단계,1\n")
	if err := runCLI(t, "load", march, "--format", "xml", "--log-level", "off"); err == nil {
		t.Fatal("expected error for unknown format")
	}
}
