package main

import (
	"os"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/spektr-org/enrollstat/config"
	"github.com/spektr-org/enrollstat/engine"
	"github.com/spektr-org/enrollstat/ingest"
	"github.com/spektr-org/enrollstat/logging"
	"github.com/spektr-org/enrollstat/server"
)

var (
	okColor   = color.New(color.FgGreen)
	warnColor = color.New(color.FgYellow)
	errColor  = color.New(color.FgRed)
)

// ============================================================================
// LOAD: run the batch and report per-source outcomes
// ============================================================================

func newLoadCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "load FILE...",
		Short: "Load workbooks and print the batch summary",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, g)
			if err != nil {
				return err
			}
			batch, err := runBatch(cmd, cfg, args)
			if err != nil {
				return err
			}
			reportBatch(batch)

			result, err := engine.Execute(engine.ViewSummary, engine.Input{Table: batch.Table})
			if err != nil {
				return err
			}
			return writeResult(g, cfg, result)
		},
	}
}

// ============================================================================
// VIEW: enrollment views
// ============================================================================

type viewFlags struct {
	periods   []string
	from, to  int
	ages      []string
	curricula []string
	courses   []string
	subset    []string
	zeroFill  bool
	keepZero  bool
}

func newViewCmd(g *globalFlags) *cobra.Command {
	vf := &viewFlags{}
	cmd := &cobra.Command{
		Use:   "view NAME FILE...",
		Short: "Compute an enrollment view: heatmap, attrition, seasonality, composition, retention, summary, change",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := engine.ParseView(args[0])
			if err != nil {
				return err
			}
			if engine.IsBehavioral(name) {
				return errors.Errorf("%s reads an event log, use: enrollstat events %s FILE", name, name)
			}
			filter, err := vf.filter()
			if err != nil {
				return err
			}

			cfg, err := resolveConfig(cmd, g)
			if err != nil {
				return err
			}
			batch, err := runBatch(cmd, cfg, args[1:])
			if err != nil {
				return err
			}
			reportBatch(batch)

			result, err := engine.Execute(name, engine.Input{Table: batch.Table, Filter: filter}, vf.options()...)
			if err != nil {
				return err
			}
			return writeResult(g, cfg, result)
		},
	}

	f := cmd.Flags()
	f.StringSliceVar(&vf.periods, "periods", nil, "Periods to keep, e.g. 3,4 or 3-6")
	f.IntVar(&vf.from, "from", 0, "First period to keep")
	f.IntVar(&vf.to, "to", 0, "Last period to keep")
	f.StringSliceVar(&vf.ages, "ages", nil, "Age brackets to keep")
	f.StringSliceVar(&vf.curricula, "curricula", nil, "Curricula to keep")
	f.StringSliceVar(&vf.courses, "courses", nil, "Course groups to keep, e.g. A과정")
	f.StringSliceVar(&vf.subset, "subset", nil, "Age brackets plotted by attrition")
	f.BoolVar(&vf.zeroFill, "zero-fill", false, "Emit zero cells for absent combinations")
	f.BoolVar(&vf.keepZero, "keep-zero", false, "Keep all-zero attrition series")
	return cmd
}

func (vf *viewFlags) filter() (engine.Filter, error) {
	periods, err := engine.ParsePeriods(vf.periods...)
	if err != nil {
		return engine.Filter{}, err
	}
	return engine.Filter{
		Periods:      periods,
		PeriodFrom:   vf.from,
		PeriodTo:     vf.to,
		AgeBrackets:  vf.ages,
		Curricula:    vf.curricula,
		CourseGroups: vf.courses,
	}, nil
}

func (vf *viewFlags) options() []engine.Option {
	var opts []engine.Option
	if vf.zeroFill {
		opts = append(opts, engine.WithZeroFill())
	}
	if vf.keepZero {
		opts = append(opts, engine.KeepZeroSeries())
	}
	if len(vf.subset) > 0 {
		opts = append(opts, engine.WithAgeSubset(vf.subset...))
	}
	return opts
}

// ============================================================================
// EVENTS: behavioral views
// ============================================================================

func newEventsCmd(g *globalFlags) *cobra.Command {
	var stages, pairs []string
	cmd := &cobra.Command{
		Use:   "events NAME FILE",
		Short: "Compute a behavioral view over an event log: funnel, gaps, density, cohort",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := engine.ParseView(args[0])
			if err != nil {
				return err
			}
			if !engine.IsBehavioral(name) {
				return errors.Errorf("%s reads enrollment workbooks, use: enrollstat view %s FILE...", name, name)
			}

			cfg, err := resolveConfig(cmd, g)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("stages") {
				cfg.FunnelStages = stages
			}
			if cmd.Flags().Changed("pairs") {
				cfg.GapPairs = pairs
			}
			opts, err := eventOptions(cfg)
			if err != nil {
				return err
			}

			src, err := ingest.ReadFile(args[1])
			if err != nil {
				return err
			}
			loc, err := cfg.Location()
			if err != nil {
				return err
			}
			evlog, err := ingest.LoadEvents(src, loc)
			if err != nil {
				return err
			}
			if evlog.InvalidRows > 0 {
				warnColor.Fprintf(os.Stderr, "⚠️  %s invalid rows skipped\n", humanize.Comma(int64(evlog.InvalidRows)))
			}

			result, err := engine.Execute(name, engine.Input{Events: evlog.Events}, opts...)
			if err != nil {
				return err
			}
			return writeResult(g, cfg, result)
		},
	}
	cmd.Flags().StringSliceVar(&stages, "stages", nil, "Funnel stages in order")
	cmd.Flags().StringSliceVar(&pairs, "pairs", nil, "Stage pairs for gaps, e.g. visit>signup")
	return cmd
}

func eventOptions(cfg *config.Config) ([]engine.Option, error) {
	pairs, err := cfg.Pairs()
	if err != nil {
		return nil, err
	}
	var opts []engine.Option
	if len(cfg.FunnelStages) > 0 {
		opts = append(opts, engine.WithStages(cfg.FunnelStages...))
	}
	if len(pairs) > 0 {
		opts = append(opts, engine.WithPairs(pairs...))
	}
	return opts, nil
}

// ============================================================================
// SERVE: HTTP API
// ============================================================================

func newServeCmd(g *globalFlags) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the upload-and-analyse HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, g)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.Addr = addr
			}
			return server.New(cfg).Run(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default :8080)")
	return cmd
}

// ============================================================================
// BATCH HELPERS
// ============================================================================

func runBatch(cmd *cobra.Command, cfg *config.Config, paths []string) (*ingest.Batch, error) {
	sources := make([]ingest.Source, 0, len(paths))
	for _, p := range paths {
		src, err := ingest.ReadFile(p)
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}
	logging.For("cli").Debugf("📂 Read %d files", len(sources))

	batch, err := ingest.Run(cmd.Context(), sources, cfg.RunOptions()...)
	if err != nil {
		var noData *ingest.NoDataError
		if errors.As(err, &noData) {
			for _, se := range noData.Errors {
				errColor.Fprintf(os.Stderr, "❌ %s\n", se.Error())
			}
		}
		return nil, err
	}
	return batch, nil
}

// reportBatch prints one line per unit on stderr so stdout stays clean
// for the view output.
func reportBatch(batch *ingest.Batch) {
	for _, r := range batch.Results {
		if !r.OK() {
			continue
		}
		label := r.Source
		if r.Sheet != "" {
			label += " [" + r.Sheet + "]"
		}
		okColor.Fprintf(os.Stderr, "✅ %s → period %d (%s), %s records\n",
			label, r.Period, r.PeriodSource, humanize.Comma(int64(r.Records)))
		if r.InvalidCells > 0 {
			warnColor.Fprintf(os.Stderr, "   ⚠️  %d invalid cells\n", r.InvalidCells)
		}
	}
	for _, se := range batch.Errors {
		errColor.Fprintf(os.Stderr, "❌ %s\n", se.Error())
	}
}
