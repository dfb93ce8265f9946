package ingest

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/spektr-org/enrollstat/dataset"
	"github.com/spektr-org/enrollstat/schema"
)

// ============================================================================
// SHEET LOADER: grid → WideTable
// ============================================================================
// Validation happens here, once. Pipeline per sheet:
//   1. Header row = first row with any non-blank cell
//   2. Locate the curriculum column, classify the rest as age brackets
//   3. Rows with a blank curriculum are skipped
//   4. Blank cells are absent; unparseable or negative cells are absent and
//      counted as invalid
// ============================================================================

// ErrMissingCurriculumColumn means the header row lacks the curriculum header.
var ErrMissingCurriculumColumn = errors.New("missing curriculum column")

// LoadOptions controls sheet loading.
type LoadOptions struct {
	CurriculumHeader string
	Ages             schema.Ordering
	DropUnknownAges  bool
}

// DefaultLoadOptions returns the canonical header settings.
func DefaultLoadOptions() LoadOptions {
	return LoadOptions{
		CurriculumHeader: schema.DefaultCurriculumHeader,
		Ages:             schema.AgeOrder,
	}
}

// LoadSheet reads one sheet of a workbook into a wide table.
func LoadSheet(wb Workbook, sheet string, opts LoadOptions) (dataset.WideTable, error) {
	rows, err := wb.Rows(sheet)
	if err != nil {
		return dataset.WideTable{Sheet: sheet}, err
	}
	w, _, err := ParseWide(rows, opts)
	w.Sheet = sheet
	return w, err
}

// ParseWide converts a raw grid into a wide table. A grid without any
// non-blank row gives an empty table and no error. The returned columns
// are the headers that were not read.
func ParseWide(rows [][]string, opts LoadOptions) (dataset.WideTable, []schema.SkippedColumn, error) {
	var w dataset.WideTable

	headerAt := -1
	for i, row := range rows {
		if !blankRow(row) {
			headerAt = i
			break
		}
	}
	if headerAt < 0 {
		return w, nil, nil
	}

	layout := schema.DiscoverWide(rows[headerAt], schema.DiscoverOptions{
		CurriculumHeader: opts.CurriculumHeader,
		Ages:             opts.Ages,
		DropUnknownAges:  opts.DropUnknownAges,
	})
	if !layout.HasCurriculum() {
		header := opts.CurriculumHeader
		if header == "" {
			header = schema.DefaultCurriculumHeader
		}
		return w, layout.SkippedColumns, errors.Wrapf(ErrMissingCurriculumColumn,
			"no %q header in [%s]", header, strings.Join(trimAll(rows[headerAt]), ", "))
	}

	w.AgeBrackets = layout.Brackets()
	for _, row := range rows[headerAt+1:] {
		curriculum := strings.TrimSpace(cell(row, layout.CurriculumIndex))
		if curriculum == "" {
			continue
		}

		counts := make(map[string]float64, len(layout.AgeColumns))
		for _, col := range layout.AgeColumns {
			raw := strings.TrimSpace(cell(row, col.Index))
			if raw == "" {
				continue
			}
			v, ok := schema.ParseCount(raw)
			if !ok || v < 0 {
				w.InvalidCells++
				continue
			}
			// Two headers coercing to one bracket add up.
			counts[col.Bracket] += v
		}
		w.Rows = append(w.Rows, dataset.WideRow{Curriculum: curriculum, Counts: counts})
	}

	return w, layout.SkippedColumns, nil
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func trimAll(row []string) []string {
	out := make([]string, 0, len(row))
	for _, c := range row {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}
