package engine

import "time"

// ============================================================================
// ENGINE TYPES: View outputs and render-ready tables
// ============================================================================
// Views return typed results (Matrix, series points, funnel stages …).
// Execute turns any of them into TableData / ChartConfig, the plain
// row-oriented shapes a presentation layer charts without further work.
// ============================================================================

// ============================================================================
// GROUP: Intermediate computation result
// ============================================================================

// Group represents a grouped/aggregated slice of a view.
type Group struct {
	Key       string     `json:"key"`
	Label     string     `json:"label"`
	Value     float64    `json:"value"`
	Count     int        `json:"count"`
	SubGroups []Group    `json:"subGroups,omitempty"`
	View      RecordView `json:"-"` // records in this group (zero-copy)
}

// ============================================================================
// ENROLLMENT VIEW RESULTS
// ============================================================================

// Matrix is a two-dimensional sum pivot. Cells is sparse unless the view
// was asked to zero-fill: a missing (row, column) pair means no data.
type Matrix struct {
	RowKey    string             `json:"rowKey"`
	ColumnKey string             `json:"columnKey"`
	Rows      []string           `json:"rows"`
	Columns   []string           `json:"columns"`
	Cells     map[string]float64 `json:"cells"` // keyed by CellKey(row, col)
}

// CellKey joins a row and column label into a Matrix cell key.
func CellKey(row, col string) string { return row + "\x1f" + col }

// Value returns a cell and whether it is present.
func (m Matrix) Value(row, col string) (float64, bool) {
	v, ok := m.Cells[CellKey(row, col)]
	return v, ok
}

// SeriesPoint is one (series, x) value of a line chart.
type SeriesPoint struct {
	Series string  `json:"series"`
	X      string  `json:"x"`
	Value  float64 `json:"value"`
}

// AttritionResult is headcount per curriculum stage for each age bracket.
type AttritionResult struct {
	Curricula []string      `json:"curricula"`
	Series    []string      `json:"series"` // age brackets kept
	Points    []SeriesPoint `json:"points"`
	Excluded  []string      `json:"excluded,omitempty"` // all-zero brackets dropped
}

// CompositionRow is one age bracket's share of a period.
type CompositionRow struct {
	Period     int     `json:"period"`
	AgeBracket string  `json:"ageBracket"`
	Headcount  float64 `json:"headcount"`
	Percent    float64 `json:"percent"`
}

// RetentionResult compares the last curriculum stage against the first.
type RetentionResult struct {
	FirstStage      int     `json:"firstStage"`
	LastStage       int     `json:"lastStage"`
	FirstStageTotal float64 `json:"firstStageTotal"`
	LastStageTotal  float64 `json:"lastStageTotal"`
	Percent         float64 `json:"percent"`
}

// PeriodChange is a course group's movement between consecutive periods.
type PeriodChange struct {
	CourseGroup   string  `json:"courseGroup"`
	FromPeriod    int     `json:"fromPeriod"`
	ToPeriod      int     `json:"toPeriod"`
	FromTotal     float64 `json:"fromTotal"`
	ToTotal       float64 `json:"toTotal"`
	ChangeAmount  float64 `json:"changeAmount"`
	ChangePercent float64 `json:"changePercent"`
}

// Summary describes a whole table.
type Summary struct {
	Records      int             `json:"records"`
	Fragments    int             `json:"fragments"`
	Periods      []int           `json:"periods"`
	Total        float64         `json:"total"`
	PeriodTotals map[int]float64 `json:"periodTotals"`
	Curricula    int             `json:"curricula"`
	AgeBrackets  int             `json:"ageBrackets"`
	Growth       *GrowthData     `json:"growth,omitempty"`
}

// GrowthData contains change-over-time metrics.
type GrowthData struct {
	EarliestValue  float64 `json:"earliestValue"`
	LatestValue    float64 `json:"latestValue"`
	EarliestPeriod int     `json:"earliestPeriod"`
	LatestPeriod   int     `json:"latestPeriod"`
	ChangeAmount   float64 `json:"changeAmount"`
	ChangePercent  float64 `json:"changePercent"`
	Direction      string  `json:"direction"` // "increased", "decreased", "unchanged", "insufficient data"
}

// ============================================================================
// BEHAVIORAL VIEW RESULTS
// ============================================================================

// Event is one behavioral log entry.
type Event struct {
	UserID string    `json:"userId"`
	Name   string    `json:"name"`
	At     time.Time `json:"at"`
}

// FunnelStage is the distinct-user count reaching one milestone.
type FunnelStage struct {
	Name           string  `json:"name"`
	Users          int     `json:"users"`
	StepConversion float64 `json:"stepConversion"`       // percent of previous stage
	CumulativeConv float64 `json:"cumulativeConversion"` // percent of first stage
}

// Funnel is the ordered stage breakdown.
type Funnel struct {
	Stages     []FunnelStage `json:"stages"`
	Bottleneck string        `json:"bottleneck,omitempty"`
}

// StagePair names a completion event and the next stage's start event.
type StagePair struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// GapStats is the completion → next-start delay distribution for one pair.
type GapStats struct {
	Pair          StagePair `json:"pair"`
	Seconds       []float64 `json:"seconds"`
	MedianSeconds float64   `json:"medianSeconds"`
	Users         int       `json:"users"`
}

// DensityGrid is event counts by weekday (Monday first) and hour.
type DensityGrid struct {
	Weekdays []string  `json:"weekdays"`
	Counts   [7][24]int `json:"counts"`
}

// CohortDay is day-N activity relative to each user's first event.
type CohortDay struct {
	Day     int     `json:"day"`
	Users   int     `json:"users"`
	Percent float64 `json:"percent"`
}

// ============================================================================
// RESULT: Render-ready output
// ============================================================================

// Result is a view's render-ready output.
type Result struct {
	View     ViewName     `json:"view"`
	Title    string       `json:"title"`
	Table    *TableData   `json:"table"`
	Chart    *ChartConfig `json:"chart,omitempty"`
	Excluded []string     `json:"excluded,omitempty"`
	Data     interface{}  `json:"data,omitempty"` // the typed view result
}

// ChartConfig describes a chart without rendering it.
type ChartConfig struct {
	ChartType  string        `json:"chartType"`
	Title      string        `json:"title"`
	XAxis      string        `json:"xAxis,omitempty"`
	YAxis      string        `json:"yAxis,omitempty"`
	Series     []ChartSeries `json:"series"`
	Colors     []string      `json:"colors,omitempty"`
	ShowLegend bool          `json:"showLegend"`
	ShowGrid   bool          `json:"showGrid"`
}

// ChartSeries represents a data series in a chart.
type ChartSeries struct {
	Name  string       `json:"name"`
	Data  []ChartPoint `json:"data"`
	Color string       `json:"color,omitempty"`
}

// ChartPoint represents a single data point.
type ChartPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// TableData is a row-oriented table.
type TableData struct {
	Title   string      `json:"title"`
	Columns []Column    `json:"columns"`
	Rows    [][]string  `json:"rows"`
	Summary *RowSummary `json:"summary,omitempty"`
}

// Column defines a table column.
type Column struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Type  string `json:"type"`  // "text", "number", "percent"
	Align string `json:"align"` // "left", "center", "right"
}

// RowSummary provides totals for a table.
type RowSummary struct {
	Label  string            `json:"label"`
	Values map[string]string `json:"values"`
}

// Headers returns column labels in order.
func (t *TableData) Headers() []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Label
	}
	return out
}
