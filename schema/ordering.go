package schema

import (
	"fmt"
	"strconv"
)

// ============================================================================
// ORDERINGS: Explicit enumerations for display/sort order
// ============================================================================
// An Ordering is a value, never a mutable global: callers pass the one they
// want to the assembler and the views. Values outside the enumeration are
// kept in the data and rank after every known value.
// ============================================================================

// Ordering is an immutable enumerated order over string values.
type Ordering struct {
	values []string
	rank   map[string]int
}

// NewOrdering builds an ordering from values in display order.
// Duplicates keep their first position.
func NewOrdering(values ...string) Ordering {
	o := Ordering{
		values: make([]string, 0, len(values)),
		rank:   make(map[string]int, len(values)),
	}
	for _, v := range values {
		if _, dup := o.rank[v]; dup {
			continue
		}
		o.rank[v] = len(o.values)
		o.values = append(o.values, v)
	}
	return o
}

// Values returns a copy of the enumerated values in order.
func (o Ordering) Values() []string {
	return append([]string(nil), o.values...)
}

// Len returns the number of enumerated values.
func (o Ordering) Len() int { return len(o.values) }

// Rank returns the position of v, and false when v is not enumerated.
func (o Ordering) Rank(v string) (int, bool) {
	r, ok := o.rank[v]
	return r, ok
}

// Contains reports whether v is enumerated.
func (o Ordering) Contains(v string) bool {
	_, ok := o.rank[v]
	return ok
}

// Less orders a before b. Enumerated values come first in enumeration
// order; the rest follow in lexicographic order.
func (o Ordering) Less(a, b string) bool {
	ra, oka := o.rank[a]
	rb, okb := o.rank[b]
	switch {
	case oka && okb:
		return ra < rb
	case oka:
		return true
	case okb:
		return false
	default:
		return a < b
	}
}

// Compare returns -1, 0 or +1 following Less.
func (o Ordering) Compare(a, b string) int {
	switch {
	case a == b:
		return 0
	case o.Less(a, b):
		return -1
	default:
		return 1
	}
}

// ============================================================================
// DEFAULT ENUMERATIONS
// ============================================================================

// Age bracket labels outside the integer range.
const (
	AgePreschool = "미취학"
	AgeAdult     = "성인"
)

// Youngest and oldest integer age brackets.
const (
	MinAge = 8
	MaxAge = 19
)

// CourseLetters and Stages span the curriculum grid.
var (
	CourseLetters = []string{"A", "B", "C", "D"}
	Stages        = []int{1, 2, 3, 4}
)

// CurriculumOrder is A과정 1단계 … D과정 4단계.
var CurriculumOrder = buildCurriculumOrder()

// AgeOrder is 미취학, 8 … 19, 성인.
var AgeOrder = buildAgeOrder()

// CourseGroupOrder is A과정 … D과정.
var CourseGroupOrder = buildCourseGroupOrder()

func buildCurriculumOrder() Ordering {
	values := make([]string, 0, len(CourseLetters)*len(Stages))
	for _, letter := range CourseLetters {
		for _, stage := range Stages {
			values = append(values, Curriculum(letter, stage))
		}
	}
	return NewOrdering(values...)
}

func buildAgeOrder() Ordering {
	values := []string{AgePreschool}
	for age := MinAge; age <= MaxAge; age++ {
		values = append(values, strconv.Itoa(age))
	}
	values = append(values, AgeAdult)
	return NewOrdering(values...)
}

func buildCourseGroupOrder() Ordering {
	values := make([]string, 0, len(CourseLetters))
	for _, letter := range CourseLetters {
		values = append(values, letter+CourseMarker)
	}
	return NewOrdering(values...)
}

// Curriculum formats a curriculum identifier, e.g. Curriculum("A", 1) → "A과정 1단계".
func Curriculum(letter string, stage int) string {
	return fmt.Sprintf("%s%s %d%s", letter, CourseMarker, stage, StageMarker)
}
