package schema

import (
	"strconv"
	"strings"
	"unicode"
)

// Markers inside a curriculum identifier such as "B과정 2단계".
const (
	CourseMarker = "과정"
	StageMarker  = "단계"
)

// CourseGroup returns the course prefix of a curriculum re-suffixed with the
// course marker: "B과정 2단계" → "B과정". A value without the marker is its
// own group.
func CourseGroup(curriculum string) string {
	c := strings.TrimSpace(curriculum)
	idx := strings.Index(c, CourseMarker)
	if idx < 0 {
		return c
	}
	prefix := strings.TrimSpace(c[:idx])
	if prefix == "" {
		return c
	}
	return prefix + CourseMarker
}

// Stage extracts the stage number of a curriculum: "A과정 3단계" → 3.
// Returns false when no "<digits>단계" token is present.
func Stage(curriculum string) (int, bool) {
	c := strings.TrimSpace(curriculum)
	idx := strings.Index(c, StageMarker)
	if idx <= 0 {
		return 0, false
	}
	end := idx
	start := end
	for start > 0 {
		r := rune(c[start-1])
		if r > unicode.MaxASCII || !unicode.IsDigit(r) {
			break
		}
		start--
	}
	if start == end {
		return 0, false
	}
	n, err := strconv.Atoi(c[start:end])
	if err != nil {
		return 0, false
	}
	return n, true
}
