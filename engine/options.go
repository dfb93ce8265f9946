package engine

// ============================================================================
// ENGINE OPTIONS: Functional options for views and Execute()
// ============================================================================

// Option configures engine behavior via functional options pattern.
type Option func(*config)

type config struct {
	ZeroFill   bool        // fill absent matrix cells with 0
	KeepZero   bool        // keep all-zero attrition series
	AgeSubset  []string    // attrition series restriction
	Stages     []string    // funnel milestone events, in order
	Pairs      []StagePair // gap view completion → start pairs
	Title      string      // overrides the default result title
	ChartColor []string    // overrides the default palette
}

// WithZeroFill makes matrix views report 0 for absent combinations instead
// of omitting them.
func WithZeroFill() Option {
	return func(c *config) { c.ZeroFill = true }
}

// KeepZeroSeries disables dropping attrition series whose total is 0.
func KeepZeroSeries() Option {
	return func(c *config) { c.KeepZero = true }
}

// WithAgeSubset restricts the attrition view to the given age brackets.
func WithAgeSubset(ages ...string) Option {
	return func(c *config) { c.AgeSubset = append(c.AgeSubset, ages...) }
}

// WithStages sets the ordered funnel milestones.
func WithStages(stages ...string) Option {
	return func(c *config) { c.Stages = append(c.Stages, stages...) }
}

// WithPairs sets the stage pairs measured by the gap view.
func WithPairs(pairs ...StagePair) Option {
	return func(c *config) { c.Pairs = append(c.Pairs, pairs...) }
}

// WithTitle overrides the result title.
func WithTitle(title string) Option {
	return func(c *config) { c.Title = title }
}

// WithColors overrides the chart palette.
func WithColors(colors ...string) Option {
	return func(c *config) { c.ChartColor = colors }
}

// applyOptions creates a config from functional options.
func applyOptions(opts []Option) *config {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}
