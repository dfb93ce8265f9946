package engine

import (
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/spektr-org/enrollstat/dataset"
	"github.com/spektr-org/enrollstat/logging"
)

// ============================================================================
// EXECUTOR: View dispatcher
// ============================================================================
// Entry point: Execute(name, input, opts...)
//
// Pipeline:
//   1. Look up the view by name
//   2. Check the input it needs (table or events, stages, pairs)
//   3. Run the typed view
//   4. Build TableData + ChartConfig
//   5. Return Result
//
// All computation is local and reads the table through RecordView.
// ============================================================================

// ViewName selects an aggregate view.
type ViewName string

// Enrollment and behavioral views.
const (
	ViewHeatmap     ViewName = "heatmap"
	ViewAttrition   ViewName = "attrition"
	ViewSeasonality ViewName = "seasonality"
	ViewComposition ViewName = "composition"
	ViewRetention   ViewName = "retention"
	ViewSummary     ViewName = "summary"
	ViewChange      ViewName = "change"
	ViewFunnel      ViewName = "funnel"
	ViewGaps        ViewName = "gaps"
	ViewDensity     ViewName = "density"
	ViewCohort      ViewName = "cohort"
)

var (
	// ErrUnknownView is returned for a view name Execute does not know.
	ErrUnknownView = errors.New("unknown view")
	// ErrMissingInput is returned when a view lacks the input it needs.
	ErrMissingInput = errors.New("missing view input")
)

// Input carries everything a view may read.
type Input struct {
	Table  *dataset.Table
	Events []Event
	Filter Filter
}

type viewFunc func(in Input, cfg *config) (*Result, error)

type viewEntry struct {
	title    string
	behavior bool
	run      viewFunc
}

var registry = map[ViewName]viewEntry{
	ViewHeatmap:     {"Course Preference by Age", false, runHeatmap},
	ViewAttrition:   {"Headcount by Curriculum Stage", false, runAttrition},
	ViewSeasonality: {"Monthly Headcount by Course", false, runSeasonality},
	ViewComposition: {"Age Composition by Month", false, runComposition},
	ViewRetention:   {"Stage Retention", false, runRetention},
	ViewSummary:     {"Enrollment Summary", false, runSummary},
	ViewChange:      {"Month-over-Month Change", false, runChange},
	ViewFunnel:      {"Stage Funnel", true, runFunnel},
	ViewGaps:        {"Stage Transition Gaps", true, runGaps},
	ViewDensity:     {"Activity by Weekday and Hour", true, runDensity},
	ViewCohort:      {"Day-N Retention", true, runCohort},
}

// Views returns every view name, sorted.
func Views() []ViewName {
	out := make([]ViewName, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ParseView resolves a case-insensitive view name.
func ParseView(s string) (ViewName, error) {
	name := ViewName(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := registry[name]; !ok {
		return "", errors.Wrapf(ErrUnknownView, "%q", s)
	}
	return name, nil
}

// IsBehavioral reports whether a view reads events instead of the table.
func IsBehavioral(name ViewName) bool {
	return registry[name].behavior
}

// Execute runs a named view and returns a render-ready Result.
func Execute(name ViewName, in Input, opts ...Option) (*Result, error) {
	entry, ok := registry[name]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownView, "%q", name)
	}
	if !entry.behavior && in.Table == nil {
		return nil, errors.Wrapf(ErrMissingInput, "view %s needs an enrollment table", name)
	}

	cfg := applyOptions(opts)
	if cfg.Title == "" {
		cfg.Title = entry.title
	}

	log := logging.For("engine")
	if entry.behavior {
		log.Debugf("🔧 Running %s over %d events", name, len(in.Events))
	} else {
		log.Debugf("🔧 Running %s over %d records", name, in.Table.Len())
	}

	res, err := entry.run(in, cfg)
	if err != nil {
		return nil, err
	}
	res.View = name
	res.Title = cfg.Title
	if res.Table != nil {
		res.Table.Title = cfg.Title
		log.Debugf("📊 %s: %d rows", name, len(res.Table.Rows))
	}
	return res, nil
}

// ============================================================================
// VIEW RUNNERS
// ============================================================================

func runHeatmap(in Input, cfg *config) (*Result, error) {
	m := PreferenceHeatmap(in.Table, in.Filter, optsOf(cfg)...)
	return &Result{
		Table: BuildMatrixTable(cfg.Title, m),
		Chart: heatmapChart(cfg.Title, m, cfg.ChartColor),
		Data:  m,
	}, nil
}

func runAttrition(in Input, cfg *config) (*Result, error) {
	r := AttritionSeries(in.Table, in.Filter, optsOf(cfg)...)
	if len(r.Excluded) > 0 {
		logging.For("engine").Infof("⚠️ Attrition excluded all-zero brackets: %s", strings.Join(r.Excluded, ", "))
	}
	return &Result{
		Table:    BuildSeriesTable(cfg.Title, "age_bracket", "curriculum", r.Points),
		Chart:    attritionChart(cfg.Title, r, cfg.ChartColor),
		Excluded: r.Excluded,
		Data:     r,
	}, nil
}

func runSeasonality(in Input, cfg *config) (*Result, error) {
	points := Seasonality(in.Table, in.Filter, optsOf(cfg)...)
	return &Result{
		Table: BuildSeriesTable(cfg.Title, "course_group", "period", points),
		Chart: seasonalityChart(cfg.Title, points, cfg.ChartColor),
		Data:  points,
	}, nil
}

func runComposition(in Input, cfg *config) (*Result, error) {
	rows := Composition(in.Table, in.Filter)
	return &Result{
		Table: BuildCompositionTable(cfg.Title, rows),
		Chart: compositionChart(cfg.Title, rows, cfg.ChartColor),
		Data:  rows,
	}, nil
}

func runRetention(in Input, cfg *config) (*Result, error) {
	r := RetentionRate(in.Table, in.Filter)
	return &Result{
		Table: BuildRetentionTable(cfg.Title, r),
		Chart: retentionChart(cfg.Title, r, cfg.ChartColor),
		Data:  r,
	}, nil
}

func runSummary(in Input, cfg *config) (*Result, error) {
	s := Summarize(in.Table)
	return &Result{
		Table: BuildSummaryTable(cfg.Title, s),
		Chart: summaryChart(cfg.Title, s, cfg.ChartColor),
		Data:  s,
	}, nil
}

func runChange(in Input, cfg *config) (*Result, error) {
	changes := PeriodOverPeriod(in.Table, in.Filter)
	return &Result{
		Table: BuildChangeTable(cfg.Title, changes),
		Chart: changeChart(cfg.Title, changes, cfg.ChartColor),
		Data:  changes,
	}, nil
}

func runFunnel(in Input, cfg *config) (*Result, error) {
	if len(cfg.Stages) == 0 {
		return nil, errors.Wrap(ErrMissingInput, "funnel needs at least one stage")
	}
	f := FunnelCounts(in.Events, cfg.Stages)
	return &Result{
		Table: BuildFunnelTable(cfg.Title, f),
		Chart: funnelChart(cfg.Title, f, cfg.ChartColor),
		Data:  f,
	}, nil
}

func runGaps(in Input, cfg *config) (*Result, error) {
	if len(cfg.Pairs) == 0 {
		return nil, errors.Wrap(ErrMissingInput, "gaps needs at least one stage pair")
	}
	gaps := StageGaps(in.Events, cfg.Pairs)
	return &Result{
		Table: BuildGapTable(cfg.Title, gaps),
		Chart: gapChart(cfg.Title, gaps, cfg.ChartColor),
		Data:  gaps,
	}, nil
}

func runDensity(in Input, cfg *config) (*Result, error) {
	g := Density(in.Events)
	return &Result{
		Table: BuildDensityTable(cfg.Title, g),
		Chart: densityChart(cfg.Title, g, cfg.ChartColor),
		Data:  g,
	}, nil
}

func runCohort(in Input, cfg *config) (*Result, error) {
	days := CohortRetention(in.Events)
	return &Result{
		Table: BuildCohortTable(cfg.Title, days),
		Chart: cohortChart(cfg.Title, days, cfg.ChartColor),
		Data:  days,
	}, nil
}

// optsOf turns a resolved config back into view options.
func optsOf(cfg *config) []Option {
	var opts []Option
	if cfg.ZeroFill {
		opts = append(opts, WithZeroFill())
	}
	if cfg.KeepZero {
		opts = append(opts, KeepZeroSeries())
	}
	if len(cfg.AgeSubset) > 0 {
		opts = append(opts, WithAgeSubset(cfg.AgeSubset...))
	}
	return opts
}

// ParsePair parses "from>to" into a StagePair.
func ParsePair(s string) (StagePair, error) {
	from, to, ok := strings.Cut(s, ">")
	from, to = strings.TrimSpace(from), strings.TrimSpace(to)
	if !ok || from == "" || to == "" {
		return StagePair{}, errors.Errorf("invalid stage pair %q, want from>to", s)
	}
	return StagePair{From: from, To: to}, nil
}
