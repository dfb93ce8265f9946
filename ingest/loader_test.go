package ingest

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spektr-org/enrollstat/schema"
)

func TestLoadSheetXLSX(t *testing.T) {
	src := xlsxSource(t, "3월.xlsx", sheetData{name: "Sheet1", rows: [][]interface{}{
		{nil},
		{"커리큘럼", "8", "9세", "성인", "", "8.0"},
		{"A과정 1단계", 10, "", 3, "x", 2},
		{"", 99, 99},
		{" B과정 2단계 ", "n/a", -4, "1,200"},
	}})

	wb, err := OpenWorkbook(src)
	require.NoError(t, err)
	defer wb.Close()

	w, err := LoadSheet(wb, "Sheet1", DefaultLoadOptions())
	require.NoError(t, err)

	assert.Equal(t, "Sheet1", w.Sheet)
	assert.Equal(t, []string{"8", "9", "성인"}, w.AgeBrackets)
	require.Len(t, w.Rows, 2)

	a := w.Rows[0]
	assert.Equal(t, "A과정 1단계", a.Curriculum)
	assert.Equal(t, map[string]float64{"8": 12, "성인": 3}, a.Counts, "duplicate 8 columns add up, blank 9 is absent")

	b := w.Rows[1]
	assert.Equal(t, "B과정 2단계", b.Curriculum)
	assert.Equal(t, map[string]float64{"성인": 1200}, b.Counts)
	assert.Equal(t, 2, w.InvalidCells, "n/a and the negative count")
}

func TestParseWideMissingCurriculum(t *testing.T) {
	_, _, err := ParseWide([][]string{{"Course", "8"}, {"A과정 1단계", "1"}}, DefaultLoadOptions())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingCurriculumColumn))
	assert.Contains(t, err.Error(), "Course")
}

func TestParseWideCustomHeader(t *testing.T) {
	opts := DefaultLoadOptions()
	opts.CurriculumHeader = "Curriculum"
	w, _, err := ParseWide([][]string{{"Curriculum", "8"}, {"A과정 1단계", "4"}}, opts)
	require.NoError(t, err)
	require.Len(t, w.Rows, 1)
	assert.Equal(t, 4.0, w.Rows[0].Counts["8"])
}

func TestParseWideEmptyGrid(t *testing.T) {
	w, _, err := ParseWide([][]string{{"", " "}, {}}, DefaultLoadOptions())
	require.NoError(t, err)
	assert.True(t, w.Empty())
}

func TestParseWideSkipsBlankHeaders(t *testing.T) {
	_, skipped, err := ParseWide([][]string{{"커리큘럼", "", "Unnamed: 2", "8"}}, DefaultLoadOptions())
	require.NoError(t, err)
	require.Len(t, skipped, 2)
	assert.Equal(t, "Blank header", skipped[0].Reason)
}

func TestParseWideDropUnknownAges(t *testing.T) {
	opts := DefaultLoadOptions()
	opts.DropUnknownAges = true
	w, skipped, err := ParseWide([][]string{{"커리큘럼", "8", "비고"}, {"A과정 1단계", "1", "2"}}, opts)
	require.NoError(t, err)
	assert.Equal(t, []string{"8"}, w.AgeBrackets)
	require.Len(t, skipped, 1)
	assert.Equal(t, "비고", skipped[0].Column)

	kept, _, err := ParseWide([][]string{{"커리큘럼", "8", "비고"}, {"A과정 1단계", "1", "2"}}, DefaultLoadOptions())
	require.NoError(t, err)
	assert.Equal(t, []string{"8", "비고"}, kept.AgeBrackets, "unknown brackets are kept by default")
	assert.False(t, schema.AgeOrder.Contains("비고"))
}

func TestOpenWorkbookErrors(t *testing.T) {
	_, err := OpenWorkbook(Source{Name: "a.xlsx"})
	assert.True(t, errors.Is(err, ErrEmptySource))

	_, err = OpenWorkbook(Source{Name: "a.txt", Data: []byte("x")})
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))

	_, err = OpenWorkbook(Source{Name: "a.xlsx", Data: []byte("not a zip")})
	assert.Error(t, err)
}

func TestOpenWorkbookCSV(t *testing.T) {
	wb, err := OpenWorkbook(Source{Name: "dir/2025_4월.CSV", Data: []byte("커리큘럼,8\nA과정 1단계,3\n")})
	require.NoError(t, err)
	assert.Equal(t, []string{"2025_4월"}, wb.Sheets())

	rows, err := wb.Rows("2025_4월")
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	_, err = wb.Rows("other")
	assert.Error(t, err)
}
