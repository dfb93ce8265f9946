package engine

import (
	"strconv"

	"github.com/spektr-org/enrollstat/schema"
)

// ============================================================================
// CHART BUILDER: Produces ChartConfig from typed view results
// ============================================================================
// A ChartConfig only describes the chart. Rendering stays with the caller.
// ============================================================================

// Default color palette for chart series.
var defaultColors = []string{
	"#4F46E5", "#10B981", "#F59E0B", "#EF4444", "#8B5CF6",
	"#06B6D4", "#EC4899", "#84CC16", "#F97316", "#6366F1",
}

func newChart(chartType, title, xAxis, yAxis string, series []ChartSeries, palette []string) *ChartConfig {
	if len(series) == 0 {
		return nil
	}
	if len(palette) == 0 {
		palette = defaultColors
	}
	for i := range series {
		series[i].Color = palette[i%len(palette)]
	}
	return &ChartConfig{
		ChartType:  chartType,
		Title:      title,
		XAxis:      xAxis,
		YAxis:      yAxis,
		Series:     series,
		Colors:     assignColors(len(series), palette),
		ShowLegend: len(series) > 1,
		ShowGrid:   chartType != "pie" && chartType != "funnel",
	}
}

// ============================================================================
// SERIES BUILDERS
// ============================================================================

// matrixSeries emits one series per matrix column over the row labels.
func matrixSeries(m Matrix) []ChartSeries {
	series := make([]ChartSeries, 0, len(m.Columns))
	for _, c := range m.Columns {
		points := make([]ChartPoint, 0, len(m.Rows))
		for _, r := range m.Rows {
			if v, ok := m.Value(r, c); ok {
				points = append(points, ChartPoint{Label: r, Value: RoundTo2(v)})
			}
		}
		series = append(series, ChartSeries{Name: c, Data: points})
	}
	return series
}

// pointSeries groups long-form points by series, keeping first-seen order.
func pointSeries(points []SeriesPoint) []ChartSeries {
	index := make(map[string]int)
	var series []ChartSeries
	for _, p := range points {
		i, ok := index[p.Series]
		if !ok {
			i = len(series)
			index[p.Series] = i
			series = append(series, ChartSeries{Name: p.Series})
		}
		series[i].Data = append(series[i].Data, ChartPoint{Label: p.X, Value: RoundTo2(p.Value)})
	}
	return series
}

func compositionSeries(rows []CompositionRow) []ChartSeries {
	points := make([]SeriesPoint, 0, len(rows))
	for _, r := range rows {
		points = append(points, SeriesPoint{Series: r.AgeBracket, X: strconv.Itoa(r.Period), Value: r.Percent})
	}
	return pointSeries(points)
}

func singleSeries(name string, labels []string, values []float64) []ChartSeries {
	points := make([]ChartPoint, len(labels))
	for i := range labels {
		points[i] = ChartPoint{Label: labels[i], Value: RoundTo2(values[i])}
	}
	return []ChartSeries{{Name: name, Data: points}}
}

// ============================================================================
// PER-VIEW CHARTS
// ============================================================================

func heatmapChart(title string, m Matrix, palette []string) *ChartConfig {
	return newChart("heatmap", title, LabelForDimension(m.RowKey), LabelForDimension(m.ColumnKey), matrixSeries(m), palette)
}

func attritionChart(title string, r AttritionResult, palette []string) *ChartConfig {
	return newChart("line", title, LabelForDimension(schema.KeyCurriculum), LabelForDimension(schema.KeyHeadcount), pointSeries(r.Points), palette)
}

func seasonalityChart(title string, points []SeriesPoint, palette []string) *ChartConfig {
	return newChart("line", title, LabelForDimension(schema.KeyPeriod), LabelForDimension(schema.KeyHeadcount), pointSeries(points), palette)
}

func compositionChart(title string, rows []CompositionRow, palette []string) *ChartConfig {
	return newChart("stacked_bar", title, LabelForDimension(schema.KeyPeriod), "Share %", compositionSeries(rows), palette)
}

func retentionChart(title string, r RetentionResult, palette []string) *ChartConfig {
	labels := []string{strconv.Itoa(r.FirstStage) + schema.StageMarker, strconv.Itoa(r.LastStage) + schema.StageMarker}
	return newChart("bar", title, "Stage", LabelForDimension(schema.KeyHeadcount),
		singleSeries(LabelForDimension(schema.KeyHeadcount), labels, []float64{r.FirstStageTotal, r.LastStageTotal}), palette)
}

func summaryChart(title string, s Summary, palette []string) *ChartConfig {
	labels := make([]string, len(s.Periods))
	values := make([]float64, len(s.Periods))
	for i, p := range s.Periods {
		labels[i] = strconv.Itoa(p)
		values[i] = s.PeriodTotals[p]
	}
	if len(labels) == 0 {
		return nil
	}
	return newChart("bar", title, LabelForDimension(schema.KeyPeriod), LabelForDimension(schema.KeyHeadcount),
		singleSeries(LabelForDimension(schema.KeyHeadcount), labels, values), palette)
}

func changeChart(title string, changes []PeriodChange, palette []string) *ChartConfig {
	points := make([]SeriesPoint, 0, len(changes))
	for _, c := range changes {
		points = append(points, SeriesPoint{Series: c.CourseGroup, X: strconv.Itoa(c.ToPeriod), Value: c.ChangeAmount})
	}
	return newChart("bar", title, LabelForDimension(schema.KeyPeriod), "Change", pointSeries(points), palette)
}

func funnelChart(title string, f Funnel, palette []string) *ChartConfig {
	labels := make([]string, len(f.Stages))
	values := make([]float64, len(f.Stages))
	for i, s := range f.Stages {
		labels[i] = s.Name
		values[i] = float64(s.Users)
	}
	if len(labels) == 0 {
		return nil
	}
	return newChart("funnel", title, "Stage", "Users", singleSeries("Users", labels, values), palette)
}

func gapChart(title string, gaps []GapStats, palette []string) *ChartConfig {
	series := make([]ChartSeries, 0, len(gaps))
	for _, g := range gaps {
		points := make([]ChartPoint, len(g.Seconds))
		for i, s := range g.Seconds {
			points[i] = ChartPoint{Label: strconv.Itoa(i + 1), Value: RoundTo2(s / 3600)}
		}
		series = append(series, ChartSeries{Name: g.Pair.From + " → " + g.Pair.To, Data: points})
	}
	return newChart("box", title, "Stage Pair", "Hours", series, palette)
}

func densityChart(title string, g DensityGrid, palette []string) *ChartConfig {
	series := make([]ChartSeries, 0, len(g.Weekdays))
	for d, name := range g.Weekdays {
		points := make([]ChartPoint, 24)
		for h := 0; h < 24; h++ {
			points[h] = ChartPoint{Label: strconv.Itoa(h), Value: float64(g.Counts[d][h])}
		}
		series = append(series, ChartSeries{Name: name, Data: points})
	}
	return newChart("heatmap", title, "Hour", "Weekday", series, palette)
}

func cohortChart(title string, days []CohortDay, palette []string) *ChartConfig {
	labels := make([]string, len(days))
	values := make([]float64, len(days))
	for i, d := range days {
		labels[i] = strconv.Itoa(d.Day)
		values[i] = d.Percent
	}
	if len(labels) == 0 {
		return nil
	}
	return newChart("line", title, "Day", "Retention %", singleSeries("Retention", labels, values), palette)
}

func assignColors(count int, palette []string) []string {
	colors := make([]string, count)
	for i := 0; i < count; i++ {
		colors[i] = palette[i%len(palette)]
	}
	return colors
}
