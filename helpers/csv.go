package helpers

import (
	"bytes"
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/spektr-org/enrollstat/engine"
)

// ============================================================================
// CSV HELPER: Raw rows in, Sheets-ready rows out
// ============================================================================
// Reading stays format-agnostic: ReadCSVRows returns the grid exactly like
// a spreadsheet sheet so the loader treats CSV and xlsx the same way.
// ============================================================================

// utf8BOM is stripped from the first header cell; Excel writes it on
// "CSV UTF-8" exports.
const utf8BOM = "\ufeff"

// ReadCSVRows parses CSV bytes into a grid of trimmed cells. Rows may be
// ragged, as in a spreadsheet export.
func ReadCSVRows(data []byte) ([][]string, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read CSV row %d", len(rows)+1)
		}
		for i := range row {
			row[i] = strings.TrimSpace(row[i])
		}
		rows = append(rows, row)
	}

	if len(rows) > 0 && len(rows[0]) > 0 {
		rows[0][0] = strings.TrimPrefix(rows[0][0], utf8BOM)
	}
	return rows, nil
}

// ============================================================================
// CSV OUTPUT: Result → Sheets-ready CSV
// ============================================================================

// WriteCSV writes a result as CSV. Table data is preferred; a result
// without a table falls back to its chart series.
func WriteCSV(w io.Writer, result *engine.Result) error {
	cw := csv.NewWriter(w)

	switch {
	case result == nil:
		_ = cw.Write([]string{"Result", "No data"})
	case result.Table != nil && len(result.Table.Columns) > 0:
		writeTableCSV(cw, result.Table)
	case result.Chart != nil && len(result.Chart.Series) > 0:
		writeChartCSV(cw, result.Chart)
	default:
		_ = cw.Write([]string{"Result", "No data"})
	}

	cw.Flush()
	return errors.Wrap(cw.Error(), "failed to write CSV")
}

func writeTableCSV(cw *csv.Writer, table *engine.TableData) {
	_ = cw.Write(table.Headers())
	for _, row := range table.Rows {
		_ = cw.Write(row)
	}
	if table.Summary != nil {
		row := make([]string, len(table.Columns))
		row[0] = table.Summary.Label
		for i, c := range table.Columns {
			if i == 0 {
				continue
			}
			row[i] = table.Summary.Values[c.Key]
		}
		_ = cw.Write(row)
	}
}

func writeChartCSV(cw *csv.Writer, chart *engine.ChartConfig) {
	xLabel := chart.XAxis
	if xLabel == "" {
		xLabel = "Label"
	}

	// Single series → two columns
	if len(chart.Series) == 1 {
		yLabel := chart.YAxis
		if yLabel == "" {
			yLabel = "Value"
		}
		_ = cw.Write([]string{xLabel, yLabel})
		for _, d := range chart.Series[0].Data {
			_ = cw.Write([]string{d.Label, fmtNum(d.Value)})
		}
		return
	}

	// Multi-series → label + one column per series, rows keyed by label
	headers := []string{xLabel}
	var labels []string
	seen := make(map[string]bool)
	values := make([]map[string]float64, len(chart.Series))
	for i, s := range chart.Series {
		headers = append(headers, s.Name)
		values[i] = make(map[string]float64, len(s.Data))
		for _, d := range s.Data {
			values[i][d.Label] = d.Value
			if !seen[d.Label] {
				seen[d.Label] = true
				labels = append(labels, d.Label)
			}
		}
	}
	_ = cw.Write(headers)

	for _, label := range labels {
		row := []string{label}
		for i := range chart.Series {
			if v, ok := values[i][label]; ok {
				row = append(row, fmtNum(v))
			} else {
				row = append(row, "")
			}
		}
		_ = cw.Write(row)
	}
}

// fmtNum prints whole numbers without decimals, fractions with two.
func fmtNum(v float64) string {
	if v == float64(int64(v)) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}
