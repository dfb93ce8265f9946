package schema

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// ============================================================================
// WIDE-SHEET DISCOVERY: Header classification for per-age-bracket sheets
// ============================================================================
// A wide sheet has one curriculum column and one column per age bracket.
// Classification pipeline per header:
//   1. Match the curriculum header (exact after trimming)
//   2. Blank / "Unnamed" headers → skipped
//   3. Coerce to an age bracket ("8", "8.0", "8세" → "8"; 미취학; 성인)
//   4. Anything else is kept as an out-of-enumeration bracket
// ============================================================================

// DiscoverOptions controls wide-header discovery.
type DiscoverOptions struct {
	CurriculumHeader string   // header of the curriculum column (default 커리큘럼)
	Ages             Ordering // enumeration used to flag known brackets
	DropUnknownAges  bool     // skip headers that are not in Ages
}

// DefaultDiscoverOptions returns the canonical header settings.
func DefaultDiscoverOptions() DiscoverOptions {
	return DiscoverOptions{
		CurriculumHeader: DefaultCurriculumHeader,
		Ages:             AgeOrder,
	}
}

// WideLayout is the classified header row of a wide sheet.
type WideLayout struct {
	CurriculumIndex int             `json:"curriculumIndex"` // -1 when missing
	AgeColumns      []AgeColumn     `json:"ageColumns"`
	SkippedColumns  []SkippedColumn `json:"skippedColumns,omitempty"`
}

// AgeColumn maps one wide column onto an age bracket.
type AgeColumn struct {
	Index      int    `json:"index"`
	Header     string `json:"header"`
	Bracket    string `json:"bracket"`
	Enumerated bool   `json:"enumerated"`
}

// HasCurriculum reports whether the curriculum column was found.
func (l WideLayout) HasCurriculum() bool { return l.CurriculumIndex >= 0 }

// Brackets returns the distinct brackets in column order.
func (l WideLayout) Brackets() []string {
	seen := make(map[string]bool, len(l.AgeColumns))
	out := make([]string, 0, len(l.AgeColumns))
	for _, c := range l.AgeColumns {
		if seen[c.Bracket] {
			continue
		}
		seen[c.Bracket] = true
		out = append(out, c.Bracket)
	}
	return out
}

// DiscoverWide classifies a header row.
func DiscoverWide(headers []string, opts ...DiscoverOptions) WideLayout {
	opt := DefaultDiscoverOptions()
	if len(opts) > 0 {
		opt = opts[0]
		if opt.CurriculumHeader == "" {
			opt.CurriculumHeader = DefaultCurriculumHeader
		}
		if opt.Ages.Len() == 0 {
			opt.Ages = AgeOrder
		}
	}

	layout := WideLayout{CurriculumIndex: -1}
	want := strings.TrimSpace(opt.CurriculumHeader)

	for i, raw := range headers {
		h := strings.TrimSpace(raw)

		if layout.CurriculumIndex < 0 && h == want {
			layout.CurriculumIndex = i
			continue
		}
		if h == "" || strings.HasPrefix(strings.ToLower(h), "unnamed") {
			layout.SkippedColumns = append(layout.SkippedColumns, SkippedColumn{
				Column: raw,
				Index:  i,
				Reason: "Blank header",
			})
			continue
		}
		if h == want {
			layout.SkippedColumns = append(layout.SkippedColumns, SkippedColumn{
				Column: raw,
				Index:  i,
				Reason: fmt.Sprintf("Duplicate %s column", want),
			})
			continue
		}

		bracket, known := NormalizeAge(h, opt.Ages)
		if !known && opt.DropUnknownAges {
			layout.SkippedColumns = append(layout.SkippedColumns, SkippedColumn{
				Column: raw,
				Index:  i,
				Reason: "Not an age bracket",
			})
			continue
		}
		layout.AgeColumns = append(layout.AgeColumns, AgeColumn{
			Index:      i,
			Header:     raw,
			Bracket:    bracket,
			Enumerated: known,
		})
	}

	return layout
}

// ============================================================================
// VALUE COERCION
// ============================================================================

var ageAliases = map[string]string{
	"미취학":       AgePreschool,
	"preschool": AgePreschool,
	"pre-school": AgePreschool,
	"성인":        AgeAdult,
	"adult":     AgeAdult,
	"adults":    AgeAdult,
}

// NormalizeAge coerces an age header or cell to its canonical string form
// and reports whether it belongs to ages. Numeric labels lose any decimal
// tail and unit suffix ("8.0", "8세" → "8"). Labels that cannot be coerced
// come back trimmed with false.
func NormalizeAge(label string, ages Ordering) (string, bool) {
	s := strings.TrimSpace(label)
	if alias, ok := ageAliases[strings.ToLower(s)]; ok {
		s = alias
	} else {
		num := strings.TrimSpace(strings.TrimSuffix(strings.TrimSuffix(s, "세"), "살"))
		if f, err := strconv.ParseFloat(num, 64); err == nil && f == math.Trunc(f) && !math.IsInf(f, 0) {
			s = strconv.Itoa(int(f))
		}
	}
	return s, ages.Contains(s)
}

// ParseCount parses a headcount cell. Thousands separators and surrounding
// spaces are tolerated; blanks, text, NaN and Inf are not.
func ParseCount(s string) (float64, bool) {
	clean := strings.Map(func(r rune) rune {
		if r == ',' || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	if clean == "" || clean == "-" {
		return 0, false
	}
	f, err := strconv.ParseFloat(clean, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// ============================================================================
// STRING UTILITIES
// ============================================================================

// NormalizeHeader converts "Event Name" or "eventName" → "event_name".
func NormalizeHeader(s string) string {
	s = strings.TrimSpace(s)
	var result strings.Builder
	prev := rune(0)
	for i, r := range s {
		if unicode.IsUpper(r) && i > 0 && (unicode.IsLower(prev) || unicode.IsDigit(prev)) {
			result.WriteRune('_')
		}
		result.WriteRune(r)
		prev = r
	}

	s = result.String()
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "__", "_")
	s = strings.Trim(s, "_")
	return s
}
