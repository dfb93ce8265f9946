package engine

import (
	"sort"
	"strconv"

	"github.com/spektr-org/enrollstat/dataset"
	"github.com/spektr-org/enrollstat/schema"
)

// ============================================================================
// ENROLLMENT VIEWS: Pure aggregates over the canonical table
// ============================================================================
// Every view: filter → group/sum → order by the table's enumerations.
// Results are sparse (absent combinations omitted) unless zero-fill is
// requested. Empty subsets give empty results, zero denominators give 0.
// ============================================================================

const headcount = schema.KeyHeadcount

// PreferenceHeatmap sums headcount by (age bracket, course group).
func PreferenceHeatmap(t *dataset.Table, f Filter, opts ...Option) Matrix {
	cfg := applyOptions(opts)
	view := ApplyFilter(TableView(t), f)

	sums := SumBy(view, schema.KeyAgeBracket, schema.KeyCourseGroup, headcount)
	m := Matrix{
		RowKey:    schema.KeyAgeBracket,
		ColumnKey: schema.KeyCourseGroup,
		Rows:      OrderedKeys(sums, ageOrdering(t)),
		Columns:   innerKeys(sums, schema.CourseGroupOrder),
		Cells:     make(map[string]float64),
	}
	fillMatrix(&m, sums, cfg.ZeroFill)
	return m
}

// AttritionSeries sums headcount by (curriculum, age bracket), one series
// per age bracket across the curriculum stages.
func AttritionSeries(t *dataset.Table, f Filter, opts ...Option) AttritionResult {
	cfg := applyOptions(opts)
	view := ApplyFilter(TableView(t), f)
	if len(cfg.AgeSubset) > 0 {
		view = ApplyFilter(view, Filter{AgeBrackets: cfg.AgeSubset})
	}

	ages := ageOrdering(t)
	byAge := SumBy(view, schema.KeyAgeBracket, schema.KeyCurriculum, headcount)

	res := AttritionResult{
		Curricula: innerKeys(byAge, curriculumOrdering(t)),
	}

	// Requested brackets with no rows at all are zero series too.
	totals := make(map[string]float64, len(byAge))
	for age, row := range byAge {
		for _, v := range row {
			totals[age] += v
		}
	}
	for _, a := range cfg.AgeSubset {
		age, _ := schema.NormalizeAge(a, ages)
		if _, ok := totals[age]; !ok {
			totals[age] = 0
		}
	}

	for _, age := range OrderedKeys(totals, ages) {
		if totals[age] == 0 && !cfg.KeepZero {
			res.Excluded = append(res.Excluded, age)
			continue
		}
		res.Series = append(res.Series, age)
		for _, cur := range res.Curricula {
			v, ok := byAge[age][cur]
			if !ok && !cfg.ZeroFill {
				continue
			}
			res.Points = append(res.Points, SeriesPoint{Series: age, X: cur, Value: v})
		}
	}
	return res
}

// Seasonality sums headcount by (period, course group), one series per
// course group across periods.
func Seasonality(t *dataset.Table, f Filter, opts ...Option) []SeriesPoint {
	cfg := applyOptions(opts)
	view := ApplyFilter(TableView(t), f)

	byGroup := SumBy(view, schema.KeyCourseGroup, schema.KeyPeriod, headcount)
	periods := periodsOf(view)

	var out []SeriesPoint
	for _, group := range OrderedKeys(byGroup, schema.CourseGroupOrder) {
		for _, p := range periods {
			x := strconv.Itoa(p)
			v, ok := byGroup[group][x]
			if !ok && !cfg.ZeroFill {
				continue
			}
			out = append(out, SeriesPoint{Series: group, X: x, Value: v})
		}
	}
	return out
}

// Composition sums headcount by (period, age bracket) and expresses each
// cell as a percentage of its period total.
func Composition(t *dataset.Table, f Filter) []CompositionRow {
	view := ApplyFilter(TableView(t), f)
	byPeriod := SumBy(view, schema.KeyPeriod, schema.KeyAgeBracket, headcount)
	ages := ageOrdering(t)

	var out []CompositionRow
	for _, p := range periodsOf(view) {
		row := byPeriod[strconv.Itoa(p)]
		var total float64
		for _, v := range row {
			total += v
		}
		for _, age := range OrderedKeys(row, ages) {
			out = append(out, CompositionRow{
				Period:     p,
				AgeBracket: age,
				Headcount:  row[age],
				Percent:    Percent(row[age], total),
			})
		}
	}
	return out
}

// RetentionRate relates the last curriculum stage's headcount to the first
// stage's. A first-stage total of 0 gives 0%.
func RetentionRate(t *dataset.Table, f Filter) RetentionResult {
	view := ApplyFilter(TableView(t), f)
	res := RetentionResult{
		FirstStage: schema.Stages[0],
		LastStage:  schema.Stages[len(schema.Stages)-1],
	}
	for i := 0; i < view.Len(); i++ {
		stage, ok := schema.Stage(view.Dimension(i, schema.KeyCurriculum))
		if !ok {
			continue
		}
		switch stage {
		case res.FirstStage:
			res.FirstStageTotal += view.Measure(i, headcount)
		case res.LastStage:
			res.LastStageTotal += view.Measure(i, headcount)
		}
	}
	res.Percent = Percent(res.LastStageTotal, res.FirstStageTotal)
	return res
}

// PeriodOverPeriod reports each course group's movement between
// consecutive periods present in the filtered table.
func PeriodOverPeriod(t *dataset.Table, f Filter) []PeriodChange {
	view := ApplyFilter(TableView(t), f)
	periods := periodsOf(view)
	if len(periods) < 2 {
		return nil
	}
	byGroup := SumBy(view, schema.KeyCourseGroup, schema.KeyPeriod, headcount)

	var out []PeriodChange
	for _, group := range OrderedKeys(byGroup, schema.CourseGroupOrder) {
		row := byGroup[group]
		for i := 1; i < len(periods); i++ {
			from, to := row[strconv.Itoa(periods[i-1])], row[strconv.Itoa(periods[i])]
			out = append(out, PeriodChange{
				CourseGroup:   group,
				FromPeriod:    periods[i-1],
				ToPeriod:      periods[i],
				FromTotal:     from,
				ToTotal:       to,
				ChangeAmount:  to - from,
				ChangePercent: Percent(to-from, from),
			})
		}
	}
	return out
}

// ============================================================================
// SUMMARY
// ============================================================================

// Summarize describes a whole table: size, periods, totals and the growth
// between its first and last period.
func Summarize(t *dataset.Table) Summary {
	view := TableView(t)
	s := Summary{
		Records:      view.Len(),
		PeriodTotals: make(map[int]float64),
		Curricula:    len(UniqueValues(view, schema.KeyCurriculum)),
		AgeBrackets:  len(UniqueValues(view, schema.KeyAgeBracket)),
	}
	if t != nil {
		s.Fragments = t.Fragments
	}
	for _, g := range GroupAndAggregate(view, []string{schema.KeyPeriod}, headcount, "sum", "period_asc", 0) {
		p, err := strconv.Atoi(g.Key)
		if err != nil {
			continue
		}
		s.Periods = append(s.Periods, p)
		s.PeriodTotals[p] = g.Value
		s.Total += g.Value
	}
	s.Growth = buildGrowth(s.Periods, s.PeriodTotals)
	return s
}

// buildGrowth compares the earliest and latest period totals.
func buildGrowth(periods []int, totals map[int]float64) *GrowthData {
	if len(periods) == 0 {
		return nil
	}
	if len(periods) < 2 {
		return &GrowthData{
			EarliestValue:  totals[periods[0]],
			LatestValue:    totals[periods[0]],
			EarliestPeriod: periods[0],
			LatestPeriod:   periods[0],
			Direction:      "insufficient data",
		}
	}

	first, last := periods[0], periods[len(periods)-1]
	g := &GrowthData{
		EarliestValue:  totals[first],
		LatestValue:    totals[last],
		EarliestPeriod: first,
		LatestPeriod:   last,
		ChangeAmount:   totals[last] - totals[first],
	}
	g.ChangePercent = RoundTo2(Percent(g.ChangeAmount, g.EarliestValue))

	switch {
	case g.ChangeAmount > 0:
		g.Direction = "increased"
	case g.ChangeAmount < 0:
		g.Direction = "decreased"
	default:
		g.Direction = "unchanged"
	}
	return g
}

// ============================================================================
// INTERNAL HELPERS
// ============================================================================

func ageOrdering(t *dataset.Table) schema.Ordering {
	if t == nil || t.AgeBrackets.Len() == 0 {
		return schema.AgeOrder
	}
	return t.AgeBrackets
}

func curriculumOrdering(t *dataset.Table) schema.Ordering {
	if t == nil || t.Curricula.Len() == 0 {
		return schema.CurriculumOrder
	}
	return t.Curricula
}

// periodsOf returns the distinct numeric periods of a view, ascending.
func periodsOf(view RecordView) []int {
	seen := make(map[int]bool)
	var out []int
	for _, v := range UniqueValues(view, schema.KeyPeriod) {
		p, err := strconv.Atoi(v)
		if err != nil || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	sort.Ints(out)
	return out
}

// innerKeys returns the distinct inner keys of a nested sum map.
func innerKeys(m map[string]map[string]float64, ordering schema.Ordering) []string {
	set := make(map[string]bool)
	for _, row := range m {
		for k := range row {
			set[k] = true
		}
	}
	return OrderedKeys(set, ordering)
}

func fillMatrix(m *Matrix, sums map[string]map[string]float64, zeroFill bool) {
	for _, r := range m.Rows {
		for _, c := range m.Columns {
			v, ok := sums[r][c]
			if !ok && !zeroFill {
				continue
			}
			m.Cells[CellKey(r, c)] = v
		}
	}
}
