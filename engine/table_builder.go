package engine

import (
	"fmt"
	"strconv"

	"github.com/spektr-org/enrollstat/schema"
)

// ============================================================================
// TABLE BUILDER: Produces TableData from typed view results
// ============================================================================
// Cells are display strings: counts through FormatCount, shares through
// FormatPercent. Column types tell a renderer how to align them.
// ============================================================================

func textColumn(key, label string) Column {
	return Column{Key: key, Label: label, Type: "text", Align: "left"}
}

func numberColumn(key, label string) Column {
	return Column{Key: key, Label: label, Type: "number", Align: "right"}
}

func percentColumn(key, label string) Column {
	return Column{Key: key, Label: label, Type: "percent", Align: "right"}
}

// ============================================================================
// ENROLLMENT TABLES
// ============================================================================

// BuildMatrixTable lays a Matrix out as one row per row label. Absent
// cells render empty.
func BuildMatrixTable(title string, m Matrix) *TableData {
	columns := []Column{textColumn(m.RowKey, LabelForDimension(m.RowKey))}
	for _, c := range m.Columns {
		columns = append(columns, numberColumn(c, c))
	}
	columns = append(columns, numberColumn("total", "Total"))

	rows := make([][]string, 0, len(m.Rows))
	colTotals := make(map[string]float64, len(m.Columns))
	var grand float64
	for _, r := range m.Rows {
		row := []string{r}
		var rowTotal float64
		for _, c := range m.Columns {
			v, ok := m.Value(r, c)
			if !ok {
				row = append(row, "")
				continue
			}
			row = append(row, FormatCount(v))
			rowTotal += v
			colTotals[c] += v
		}
		grand += rowTotal
		rows = append(rows, append(row, FormatCount(rowTotal)))
	}

	values := map[string]string{"total": FormatCount(grand)}
	for c, v := range colTotals {
		values[c] = FormatCount(v)
	}
	return &TableData{
		Title:   title,
		Columns: columns,
		Rows:    rows,
		Summary: &RowSummary{Label: "Total", Values: values},
	}
}

// BuildSeriesTable lists series points in long form.
func BuildSeriesTable(title, seriesKey, xKey string, points []SeriesPoint) *TableData {
	rows := make([][]string, 0, len(points))
	var total float64
	for _, p := range points {
		rows = append(rows, []string{p.Series, p.X, FormatCount(p.Value)})
		total += p.Value
	}
	return &TableData{
		Title: title,
		Columns: []Column{
			textColumn(seriesKey, LabelForDimension(seriesKey)),
			textColumn(xKey, LabelForDimension(xKey)),
			numberColumn(schema.KeyHeadcount, LabelForDimension(schema.KeyHeadcount)),
		},
		Rows: rows,
		Summary: &RowSummary{
			Label:  fmt.Sprintf("Total (%d points)", len(points)),
			Values: map[string]string{schema.KeyHeadcount: FormatCount(total)},
		},
	}
}

// BuildCompositionTable lists each period's age-bracket shares.
func BuildCompositionTable(title string, rows []CompositionRow) *TableData {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, []string{
			strconv.Itoa(r.Period),
			r.AgeBracket,
			FormatCount(r.Headcount),
			FormatPercent(r.Percent),
		})
	}
	return &TableData{
		Title: title,
		Columns: []Column{
			textColumn(schema.KeyPeriod, LabelForDimension(schema.KeyPeriod)),
			textColumn(schema.KeyAgeBracket, LabelForDimension(schema.KeyAgeBracket)),
			numberColumn(schema.KeyHeadcount, LabelForDimension(schema.KeyHeadcount)),
			percentColumn("percent", "Share"),
		},
		Rows: out,
	}
}

// BuildRetentionTable renders the stage comparison as a two-row table.
func BuildRetentionTable(title string, r RetentionResult) *TableData {
	return &TableData{
		Title: title,
		Columns: []Column{
			textColumn("stage", "Stage"),
			numberColumn(schema.KeyHeadcount, LabelForDimension(schema.KeyHeadcount)),
		},
		Rows: [][]string{
			{fmt.Sprintf("%d%s", r.FirstStage, schema.StageMarker), FormatCount(r.FirstStageTotal)},
			{fmt.Sprintf("%d%s", r.LastStage, schema.StageMarker), FormatCount(r.LastStageTotal)},
		},
		Summary: &RowSummary{
			Label:  "Retention",
			Values: map[string]string{schema.KeyHeadcount: FormatPercent(r.Percent)},
		},
	}
}

// BuildChangeTable lists period-over-period movement.
func BuildChangeTable(title string, changes []PeriodChange) *TableData {
	rows := make([][]string, 0, len(changes))
	for _, c := range changes {
		rows = append(rows, []string{
			c.CourseGroup,
			fmt.Sprintf("%d → %d", c.FromPeriod, c.ToPeriod),
			FormatCount(c.FromTotal),
			FormatCount(c.ToTotal),
			FormatCount(c.ChangeAmount),
			FormatPercent(c.ChangePercent),
		})
	}
	return &TableData{
		Title: title,
		Columns: []Column{
			textColumn(schema.KeyCourseGroup, LabelForDimension(schema.KeyCourseGroup)),
			textColumn("periods", "Months"),
			numberColumn("from", "From"),
			numberColumn("to", "To"),
			numberColumn("change", "Change"),
			percentColumn("percent", "Change %"),
		},
		Rows: rows,
	}
}

// BuildSummaryTable renders per-period totals with the growth line.
func BuildSummaryTable(title string, s Summary) *TableData {
	rows := make([][]string, 0, len(s.Periods))
	for _, p := range s.Periods {
		rows = append(rows, []string{strconv.Itoa(p), FormatCount(s.PeriodTotals[p])})
	}
	values := map[string]string{
		schema.KeyHeadcount: FormatCount(s.Total),
		"records":           FormatInt(s.Records),
	}
	if s.Growth != nil {
		values["growth"] = fmt.Sprintf("%s (%s)", s.Growth.Direction, FormatPercent(s.Growth.ChangePercent))
	}
	return &TableData{
		Title: title,
		Columns: []Column{
			textColumn(schema.KeyPeriod, LabelForDimension(schema.KeyPeriod)),
			numberColumn(schema.KeyHeadcount, LabelForDimension(schema.KeyHeadcount)),
		},
		Rows:    rows,
		Summary: &RowSummary{Label: fmt.Sprintf("Total (%d records)", s.Records), Values: values},
	}
}

// ============================================================================
// BEHAVIORAL TABLES
// ============================================================================

// BuildFunnelTable lists stage counts and conversions.
func BuildFunnelTable(title string, f Funnel) *TableData {
	rows := make([][]string, 0, len(f.Stages))
	for _, s := range f.Stages {
		rows = append(rows, []string{
			s.Name,
			FormatInt(s.Users),
			FormatPercent(s.StepConversion),
			FormatPercent(s.CumulativeConv),
		})
	}
	t := &TableData{
		Title: title,
		Columns: []Column{
			textColumn("stage", "Stage"),
			numberColumn("users", "Users"),
			percentColumn("step", "Step %"),
			percentColumn("cumulative", "Cumulative %"),
		},
		Rows: rows,
	}
	if f.Bottleneck != "" {
		t.Summary = &RowSummary{Label: "Bottleneck", Values: map[string]string{"stage": f.Bottleneck}}
	}
	return t
}

// BuildGapTable lists per-pair gap medians.
func BuildGapTable(title string, gaps []GapStats) *TableData {
	rows := make([][]string, 0, len(gaps))
	for _, g := range gaps {
		rows = append(rows, []string{
			g.Pair.From + " → " + g.Pair.To,
			FormatInt(g.Users),
			FormatCount(RoundTo2(g.MedianSeconds)),
			FormatCount(RoundTo2(g.MedianSeconds / 3600)),
		})
	}
	return &TableData{
		Title: title,
		Columns: []Column{
			textColumn("pair", "Stage Pair"),
			numberColumn("users", "Users"),
			numberColumn("median_seconds", "Median (s)"),
			numberColumn("median_hours", "Median (h)"),
		},
		Rows: rows,
	}
}

// BuildDensityTable lays the grid out one row per weekday.
func BuildDensityTable(title string, g DensityGrid) *TableData {
	columns := []Column{textColumn("weekday", "Weekday")}
	for h := 0; h < 24; h++ {
		columns = append(columns, numberColumn(strconv.Itoa(h), fmt.Sprintf("%02d", h)))
	}
	rows := make([][]string, 0, len(g.Weekdays))
	for d, name := range g.Weekdays {
		row := []string{name}
		for h := 0; h < 24; h++ {
			row = append(row, strconv.Itoa(g.Counts[d][h]))
		}
		rows = append(rows, row)
	}
	return &TableData{Title: title, Columns: columns, Rows: rows}
}

// BuildCohortTable lists day-N retention.
func BuildCohortTable(title string, days []CohortDay) *TableData {
	rows := make([][]string, 0, len(days))
	for _, d := range days {
		rows = append(rows, []string{
			strconv.Itoa(d.Day),
			FormatInt(d.Users),
			FormatPercent(d.Percent),
		})
	}
	return &TableData{
		Title: title,
		Columns: []Column{
			numberColumn("day", "Day"),
			numberColumn("users", "Users"),
			percentColumn("percent", "Retention"),
		},
		Rows: rows,
	}
}
