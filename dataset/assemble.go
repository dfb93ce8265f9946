package dataset

import (
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/spektr-org/enrollstat/schema"
)

// ============================================================================
// DATASET ASSEMBLER: fragments → canonical table
// ============================================================================
// Concatenate, coerce age brackets to canonical strings, attach orderings,
// stable-sort by (period, curriculum, age). Orderings are metadata, not
// filters: out-of-enumeration values stay and sort last.
// ============================================================================

// ErrNoUsableData means a run produced no fragment to assemble.
var ErrNoUsableData = errors.New("no usable data: every source was empty or failed to load")

// Table is the canonical long-form dataset.
type Table struct {
	ID          string          `json:"id"`
	Records     []Record        `json:"records"`
	Curricula   schema.Ordering `json:"-"`
	AgeBrackets schema.Ordering `json:"-"`
	Fragments   int             `json:"fragments"`
}

// Len returns the number of records.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Records)
}

// Periods returns the distinct periods present, ascending.
func (t *Table) Periods() []int {
	seen := make(map[int]bool)
	var out []int
	for _, r := range t.Records {
		if !seen[r.Period] {
			seen[r.Period] = true
			out = append(out, r.Period)
		}
	}
	sort.Ints(out)
	return out
}

// AssembleOption configures Assemble.
type AssembleOption func(*assembleConfig)

type assembleConfig struct {
	curricula schema.Ordering
	ages      schema.Ordering
}

// WithCurriculumOrder replaces the default curriculum ordering.
func WithCurriculumOrder(o schema.Ordering) AssembleOption {
	return func(c *assembleConfig) { c.curricula = o }
}

// WithAgeOrder replaces the default age-bracket ordering.
func WithAgeOrder(o schema.Ordering) AssembleOption {
	return func(c *assembleConfig) { c.ages = o }
}

// Assemble concatenates fragments into one sorted table. Fragment order
// only affects the relative order of rows that tie on every sort key.
// An empty fragment list is terminal and returns ErrNoUsableData.
func Assemble(fragments []Fragment, opts ...AssembleOption) (*Table, error) {
	if len(fragments) == 0 {
		return nil, ErrNoUsableData
	}

	cfg := assembleConfig{
		curricula: schema.CurriculumOrder,
		ages:      schema.AgeOrder,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	total := 0
	for _, f := range fragments {
		total += f.Len()
	}

	records := make([]Record, 0, total)
	for _, f := range fragments {
		for _, r := range f.Records {
			r.Curriculum = strings.TrimSpace(r.Curriculum)
			r.AgeBracket, _ = schema.NormalizeAge(r.AgeBracket, cfg.ages)
			r.CourseGroup = schema.CourseGroup(r.Curriculum)
			records = append(records, r)
		}
	}

	SortRecords(records, cfg.curricula, cfg.ages)

	return &Table{
		ID:          uuid.NewString(),
		Records:     records,
		Curricula:   cfg.curricula,
		AgeBrackets: cfg.ages,
		Fragments:   len(fragments),
	}, nil
}

// SortRecords stable-sorts records by (period, curriculum, age bracket)
// following the given orderings.
func SortRecords(records []Record, curricula, ages schema.Ordering) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.Period != b.Period {
			return a.Period < b.Period
		}
		if c := curricula.Compare(a.Curriculum, b.Curriculum); c != 0 {
			return c < 0
		}
		return ages.Less(a.AgeBracket, b.AgeBracket)
	})
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
