package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/spektr-org/enrollstat"
	"github.com/spektr-org/enrollstat/config"
	"github.com/spektr-org/enrollstat/engine"
	"github.com/spektr-org/enrollstat/helpers"
	"github.com/spektr-org/enrollstat/logging"
)

// ============================================================================
// ENROLLSTAT CLI: Monthly enrollment workbooks → views
// ============================================================================

type globalFlags struct {
	configPath string
	mode       string
	workers    int
	format     string
	outFile    string
	logLevel   string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fatalf("%v", err)
	}
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:           "enrollstat",
		Short:         "Enrollment analytics over monthly tutoring spreadsheets",
		Version:       enrollstat.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Example: `  # Load a year of monthly workbooks and print the summary
  enrollstat load 2025년_3월_회원수.xlsx 2025년_4월_회원수.xlsx

  # Heatmap of ages 8-10 for March to June, as CSV for Sheets
  enrollstat view heatmap data/*.xlsx --from 3 --to 6 --ages 8,9,10 --format csv --out heatmap.csv

  # Attrition lines with zero-filled periods
  enrollstat view attrition members.xlsx --zero-fill

  # Funnel over an event log
  enrollstat events funnel events.csv --stages visit,signup,purchase

  # Serve the HTTP API
  enrollstat serve --config enrollstat.yaml`,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&g.configPath, "config", "", "Config file (yaml, json, toml)")
	pf.StringVar(&g.mode, "mode", "", "Batch mode: multi-file, multi-sheet, hybrid")
	pf.IntVar(&g.workers, "workers", 0, "Parallel sheet loads (0 = one per CPU)")
	pf.StringVar(&g.format, "format", "", "Output format: table, json, pretty, csv, yaml")
	pf.StringVar(&g.outFile, "out", "", "Write output to file instead of stdout")
	pf.StringVar(&g.logLevel, "log-level", "", "Log level: debug, info, warn, error, off")

	root.AddCommand(
		newLoadCmd(g),
		newViewCmd(g),
		newEventsCmd(g),
		newServeCmd(g),
	)
	return root
}

// resolveConfig loads the config file and lets explicitly set flags win.
func resolveConfig(cmd *cobra.Command, g *globalFlags) (*config.Config, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("mode") {
		cfg.Mode = g.mode
	}
	if flags.Changed("workers") {
		cfg.Workers = g.workers
	}
	if flags.Changed("format") {
		cfg.Format = g.format
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = g.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := logging.SetLevel(cfg.LogLevel); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openOutput returns stdout or the --out file.
func openOutput(g *globalFlags) (io.Writer, func(), error) {
	if g.outFile == "" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(g.outFile)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to create output file")
	}
	return f, func() {
		f.Close()
		logging.For("cli").Infof("📄 Output written to %s", g.outFile)
	}, nil
}

// useColor disables color when writing to a file.
func useColor(g *globalFlags) {
	if g.outFile != "" {
		color.NoColor = true
	}
}

// writeResult renders one view result in the configured format.
func writeResult(g *globalFlags, cfg *config.Config, result *engine.Result) error {
	useColor(g)
	w, done, err := openOutput(g)
	if err != nil {
		return err
	}
	defer done()
	return helpers.WriteResult(w, result, cfg.Format)
}

func fatalf(format string, args ...interface{}) {
	color.New(color.FgRed, color.Bold).Fprintf(os.Stderr, "Error: ")
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
