package engine

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/spektr-org/enrollstat/schema"
)

// ============================================================================
// FILTERS: Generic Dimension-Based Filtering via RecordView
// ============================================================================
// Single-pass filter: checks ALL dimension constraints per record in one loop.
// Returns a SubView (index list into parent), zero data copy.
// ============================================================================

// Filter restricts an enrollment view. Fields AND-combine; values within a
// field OR-combine. A zero Filter keeps every record.
type Filter struct {
	Periods      []int    `json:"periods,omitempty"`
	PeriodFrom   int      `json:"periodFrom,omitempty"` // inclusive, 0 = open
	PeriodTo     int      `json:"periodTo,omitempty"`   // inclusive, 0 = open
	AgeBrackets  []string `json:"ageBrackets,omitempty"`
	Curricula    []string `json:"curricula,omitempty"`
	CourseGroups []string `json:"courseGroups,omitempty"`
}

// IsEmpty reports whether the filter keeps every record.
func (f Filter) IsEmpty() bool {
	return len(f.Periods) == 0 && f.PeriodFrom == 0 && f.PeriodTo == 0 &&
		len(f.AgeBrackets) == 0 && len(f.Curricula) == 0 && len(f.CourseGroups) == 0
}

// dimensionSets translates the categorical fields to per-key value sets.
// Age labels are canonicalized so "8세" matches the stored "8".
func (f Filter) dimensionSets() map[string]map[string]bool {
	sets := make(map[string]map[string]bool)
	if len(f.Periods) > 0 {
		vals := make([]string, len(f.Periods))
		for i, p := range f.Periods {
			vals[i] = strconv.Itoa(p)
		}
		sets[schema.KeyPeriod] = toLowerSet(vals)
	}
	if len(f.AgeBrackets) > 0 {
		vals := make([]string, len(f.AgeBrackets))
		for i, a := range f.AgeBrackets {
			vals[i], _ = schema.NormalizeAge(a, schema.AgeOrder)
		}
		sets[schema.KeyAgeBracket] = toLowerSet(vals)
	}
	if len(f.Curricula) > 0 {
		sets[schema.KeyCurriculum] = toLowerSet(f.Curricula)
	}
	if len(f.CourseGroups) > 0 {
		sets[schema.KeyCourseGroup] = toLowerSet(f.CourseGroups)
	}
	return sets
}

// ApplyFilter returns a view of records matching every constraint of f.
// Empty filter = no restriction (returns original view).
func ApplyFilter(view RecordView, f Filter) RecordView {
	if f.IsEmpty() {
		return view
	}

	sets := f.dimensionSets()
	ranged := f.PeriodFrom > 0 || f.PeriodTo > 0

	// Single pass: a record passes if it matches ALL constraints
	n := view.Len()
	indices := make([]int, 0, n)
	for i := 0; i < n; i++ {
		pass := true
		for dim, set := range sets {
			val := strings.ToLower(strings.TrimSpace(view.Dimension(i, dim)))
			if !set[val] {
				pass = false
				break
			}
		}
		if pass && ranged {
			p, err := strconv.Atoi(view.Dimension(i, schema.KeyPeriod))
			if err != nil ||
				(f.PeriodFrom > 0 && p < f.PeriodFrom) ||
				(f.PeriodTo > 0 && p > f.PeriodTo) {
				pass = false
			}
		}
		if pass {
			indices = append(indices, i)
		}
	}

	return newSubView(view, indices)
}

// toLowerSet converts a string slice to a trimmed lowercase lookup set.
func toLowerSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[strings.ToLower(strings.TrimSpace(item))] = true
	}
	return set
}

// ParsePeriods parses period lists such as "3", "3,4" or "3-5". Each
// value may itself be comma-separated.
func ParsePeriods(values ...string) ([]int, error) {
	var out []int
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			lo, hi, isRange := strings.Cut(part, "-")
			if !isRange {
				hi = lo
			}
			from, err1 := strconv.Atoi(strings.TrimSpace(lo))
			to, err2 := strconv.Atoi(strings.TrimSpace(hi))
			if err1 != nil || err2 != nil || from > to {
				return nil, errors.Errorf("invalid period %q", part)
			}
			for p := from; p <= to; p++ {
				out = append(out, p)
			}
		}
	}
	return out, nil
}
