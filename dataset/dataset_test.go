package dataset

import (
	"testing"

	"github.com/pkg/errors"

	"github.com/spektr-org/enrollstat/schema"
)

// ============================================================================
// FIXTURES
// ============================================================================

func sampleWide() WideTable {
	return WideTable{
		Source:      "2025년_3월_회원수.xlsx",
		Sheet:       "Sheet1",
		AgeBrackets: []string{"미취학", "8", "9", "성인"},
		Rows: []WideRow{
			{Curriculum: "A과정 1단계", Counts: map[string]float64{"미취학": 4, "8": 10, "성인": 1}},
			{Curriculum: "B과정 2단계", Counts: map[string]float64{"9": 7}},
			{Curriculum: "특강", Counts: map[string]float64{}},
		},
	}
}

// ============================================================================
// NORMALIZER
// ============================================================================

func TestNormalizeOneRecordPerPresentCell(t *testing.T) {
	f := Normalize(sampleWide(), 3)

	if f.Len() != 4 {
		t.Fatalf("expected 4 records (absent cells dropped), got %d", f.Len())
	}
	first := f.Records[0]
	if first.Curriculum != "A과정 1단계" || first.AgeBracket != "미취학" || first.Headcount != 4 || first.Period != 3 {
		t.Errorf("unexpected first record: %+v", first)
	}
	for _, r := range f.Records {
		if r.Period != 3 {
			t.Errorf("record period = %d, want 3", r.Period)
		}
	}
	if f.Records[3].CourseGroup != "B과정" {
		t.Errorf("course group = %q, want B과정", f.Records[3].CourseGroup)
	}
}

func TestNormalizeKeepsCellsOutsideHeaderList(t *testing.T) {
	w := WideTable{
		AgeBrackets: []string{"8"},
		Rows:        []WideRow{{Curriculum: "C과정 1단계", Counts: map[string]float64{"8": 1, "20": 2}}},
	}
	f := Normalize(w, 1)
	if f.Len() != 2 {
		t.Fatalf("expected 2 records, got %d", f.Len())
	}
	if f.Records[1].AgeBracket != "20" {
		t.Errorf("unlisted bracket should follow listed ones: %+v", f.Records)
	}
}

func TestNormalizeThenPivotRoundTrip(t *testing.T) {
	in := sampleWide()
	out := Pivot(Normalize(in, 5))

	want := map[string]map[string]float64{}
	for _, r := range in.Rows {
		if len(r.Counts) > 0 {
			want[r.Curriculum] = r.Counts
		}
	}

	if len(out.Rows) != len(want) {
		t.Fatalf("round trip rows = %d, want %d", len(out.Rows), len(want))
	}
	for _, row := range out.Rows {
		exp, ok := want[row.Curriculum]
		if !ok {
			t.Fatalf("unexpected curriculum %q", row.Curriculum)
		}
		if len(row.Counts) != len(exp) {
			t.Errorf("%s: %d cells, want %d", row.Curriculum, len(row.Counts), len(exp))
		}
		for age, v := range exp {
			if row.Counts[age] != v {
				t.Errorf("%s/%s = %v, want %v", row.Curriculum, age, row.Counts[age], v)
			}
		}
	}
}

func TestNewRecordWithoutSeparator(t *testing.T) {
	r := NewRecord("특강", "8", 1, 2)
	if r.CourseGroup != "특강" {
		t.Errorf("CourseGroup = %q, want 특강", r.CourseGroup)
	}
}

// ============================================================================
// ASSEMBLER
// ============================================================================

func TestAssembleEmptyIsTerminal(t *testing.T) {
	table, err := Assemble(nil)
	if table != nil {
		t.Error("expected nil table")
	}
	if !errors.Is(err, ErrNoUsableData) {
		t.Fatalf("err = %v, want ErrNoUsableData", err)
	}
}

func TestAssembleSortsAndKeepsDuplicates(t *testing.T) {
	f1 := Fragment{Period: 2, Records: []Record{
		NewRecord("B과정 1단계", "성인", 2, 1),
		NewRecord("A과정 1단계", "8.0", 2, 3),
	}}
	f2 := Fragment{Period: 1, Records: []Record{
		NewRecord("Z과정 9단계", "8", 1, 1),
		NewRecord("A과정 1단계", "10", 1, 5),
		NewRecord("A과정 1단계", "8", 1, 10),
		NewRecord("A과정 1단계", "8", 1, 5),
	}}

	table, err := Assemble([]Fragment{f1, f2})
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}
	if table.Len() != 6 {
		t.Fatalf("expected 6 records, got %d", table.Len())
	}
	if table.ID == "" || table.Fragments != 2 {
		t.Errorf("unexpected table metadata: id=%q fragments=%d", table.ID, table.Fragments)
	}

	type key struct {
		period int
		cur    string
		age    string
	}
	want := []key{
		{1, "A과정 1단계", "8"},
		{1, "A과정 1단계", "8"},
		{1, "A과정 1단계", "10"},
		{1, "Z과정 9단계", "8"},
		{2, "A과정 1단계", "8"},
		{2, "B과정 1단계", "성인"},
	}
	for i, w := range want {
		r := table.Records[i]
		if r.Period != w.period || r.Curriculum != w.cur || r.AgeBracket != w.age {
			t.Errorf("row %d = (%d, %s, %s), want %+v", i, r.Period, r.Curriculum, r.AgeBracket, w)
		}
	}
	// Stable: the 10 row came before the 5 row in the fragment.
	if table.Records[0].Headcount != 10 || table.Records[1].Headcount != 5 {
		t.Errorf("duplicates should keep input order: %v, %v", table.Records[0], table.Records[1])
	}

	periods := table.Periods()
	if len(periods) != 2 || periods[0] != 1 || periods[1] != 2 {
		t.Errorf("Periods() = %v", periods)
	}
}

func TestAssembleCustomOrdering(t *testing.T) {
	order := schema.NewOrdering("D과정 1단계", "A과정 1단계")
	f := Fragment{Period: 1, Records: []Record{
		NewRecord("A과정 1단계", "8", 1, 1),
		NewRecord("D과정 1단계", "8", 1, 1),
	}}

	table, err := Assemble([]Fragment{f}, WithCurriculumOrder(order))
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}
	if table.Records[0].Curriculum != "D과정 1단계" {
		t.Errorf("custom ordering ignored: %+v", table.Records)
	}
}
