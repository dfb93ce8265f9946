package ingest

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/spektr-org/enrollstat/dataset"
	"github.com/spektr-org/enrollstat/logging"
	"github.com/spektr-org/enrollstat/period"
	"github.com/spektr-org/enrollstat/schema"
)

// ============================================================================
// BATCH RUNNER: sources → units → fragments → canonical table
// ============================================================================
// Units are (file, sheet) pairs, numbered 1..n in input order; that
// number is the period fallback. Units may load concurrently, but every
// result lands in its own slot and one goroutine merges the slots in
// order, so the table is identical to a sequential run.
// ============================================================================

// Mode selects which sheets of which files become units.
type Mode string

// Input modes.
const (
	MultiFile  Mode = "multi-file"  // first sheet of every file
	MultiSheet Mode = "multi-sheet" // every sheet of the first file
	Hybrid     Mode = "hybrid"      // every sheet of every file
)

// ParseMode resolves a mode name; "" is Hybrid.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return Hybrid, nil
	case MultiFile, MultiSheet, Hybrid:
		return m, nil
	default:
		return "", errors.Errorf("unknown input mode %q (want multi-file, multi-sheet or hybrid)", s)
	}
}

// Option configures Run.
type Option func(*runConfig)

type runConfig struct {
	mode      Mode
	workers   int
	load      LoadOptions
	curricula schema.Ordering
}

// WithMode sets the input mode.
func WithMode(m Mode) Option {
	return func(c *runConfig) { c.mode = m }
}

// WithWorkers loads up to n units concurrently. n < 1 means 1.
func WithWorkers(n int) Option {
	return func(c *runConfig) { c.workers = n }
}

// WithCurriculumHeader overrides the curriculum column header.
func WithCurriculumHeader(h string) Option {
	return func(c *runConfig) { c.load.CurriculumHeader = h }
}

// WithAgeOrder overrides the age-bracket enumeration.
func WithAgeOrder(o schema.Ordering) Option {
	return func(c *runConfig) { c.load.Ages = o }
}

// WithCurriculumOrder overrides the curriculum enumeration.
func WithCurriculumOrder(o schema.Ordering) Option {
	return func(c *runConfig) { c.curricula = o }
}

// WithDropUnknownAges skips age headers outside the enumeration.
func WithDropUnknownAges() Option {
	return func(c *runConfig) { c.load.DropUnknownAges = true }
}

// Batch is a completed run.
type Batch struct {
	ID        string         `json:"batchId"`
	Table     *dataset.Table `json:"-"`
	Results   []SourceResult `json:"results"`
	Errors    []SourceError  `json:"errors"`
	Fragments int            `json:"fragments"`
	StartedAt time.Time      `json:"startedAt"`
	Duration  time.Duration  `json:"duration"`
}

// unit is one (file, sheet) load.
type unit struct {
	source  Source
	sheet   string
	ordinal int
	wb      Workbook
	openErr error
}

// Run loads every unit and assembles the canonical table. Per-unit
// failures are collected in the batch; no usable fragment at all is a
// *NoDataError. A cancelled ctx stops the run and returns ctx.Err().
func Run(ctx context.Context, sources []Source, opts ...Option) (*Batch, error) {
	cfg := runConfig{
		mode:      Hybrid,
		workers:   1,
		load:      DefaultLoadOptions(),
		curricula: schema.CurriculumOrder,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.workers < 1 {
		cfg.workers = 1
	}

	log := logging.For("ingest")
	started := time.Now()

	units, closeAll := plan(sources, cfg.mode)
	defer closeAll()
	log.Debugf("📋 Planned %d units from %d sources (mode=%s, workers=%d)", len(units), len(sources), cfg.mode, cfg.workers)

	results := make([]SourceResult, len(units))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.workers)
	for i := range units {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = loadUnit(units[i], cfg.load)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Single-writer merge in unit order.
	batch := &Batch{
		ID:        uuid.NewString(),
		Results:   results,
		Errors:    []SourceError{},
		StartedAt: started,
	}
	var fragments []dataset.Fragment
	for _, r := range results {
		if r.OK() {
			fragments = append(fragments, *r.Fragment)
			log.Debugf("📄 %s [%s] → period %d (%s), %d records", r.Source, r.Sheet, r.Period, r.PeriodSource, r.Records)
			continue
		}
		se := SourceError{Source: r.Source, Sheet: r.Sheet, Message: r.Err.Error()}
		batch.Errors = append(batch.Errors, se)
		log.Warnf("⚠️ Skipped %s", se.Error())
	}
	batch.Fragments = len(fragments)

	if len(fragments) == 0 {
		err := &NoDataError{Sources: len(sources), Errors: batch.Errors}
		log.Errorf("❌ %v", err)
		return nil, err
	}

	table, err := dataset.Assemble(fragments,
		dataset.WithCurriculumOrder(cfg.curricula),
		dataset.WithAgeOrder(cfg.load.Ages),
	)
	if err != nil {
		return nil, err
	}
	batch.Table = table
	batch.Duration = time.Since(started)

	log.Infof("📂 Loaded %d fragments (%d records) from %d sources, %d failed, in %s",
		batch.Fragments, table.Len(), len(sources), len(batch.Errors), batch.Duration.Round(time.Millisecond))
	return batch, nil
}

// plan opens the sources and flattens them into ordered units. A source
// that cannot be opened still takes one unit slot and fails there.
func plan(sources []Source, mode Mode) ([]unit, func()) {
	if mode == MultiSheet && len(sources) > 1 {
		sources = sources[:1]
	}

	var units []unit
	var opened []Workbook
	for _, src := range sources {
		wb, err := OpenWorkbook(src)
		if err != nil {
			units = append(units, unit{source: src, openErr: err})
			continue
		}
		opened = append(opened, wb)

		sheets := wb.Sheets()
		if len(sheets) == 0 {
			units = append(units, unit{source: src, openErr: errors.Wrapf(ErrEmptySource, "%s has no sheets", src.Name)})
			continue
		}
		if mode == MultiFile {
			sheets = sheets[:1]
		}
		for _, sheet := range sheets {
			units = append(units, unit{source: src, sheet: sheet, wb: wb})
		}
	}

	for i := range units {
		units[i].ordinal = i + 1
	}

	return units, func() {
		for _, wb := range opened {
			_ = wb.Close()
		}
	}
}

// loadUnit reads, validates, resolves and normalizes one unit.
func loadUnit(u unit, opts LoadOptions) SourceResult {
	res := SourceResult{Source: u.source.Name, Sheet: u.sheet, Ordinal: u.ordinal}
	if u.openErr != nil {
		res.Err = u.openErr
		return res
	}

	rows, err := u.wb.Rows(u.sheet)
	if err != nil {
		res.Err = err
		return res
	}
	wide, skipped, err := ParseWide(rows, opts)
	res.SkippedColumns = skipped
	res.InvalidCells = wide.InvalidCells
	if err != nil {
		res.Err = err
		return res
	}
	if wide.Empty() {
		res.Err = errors.Wrap(ErrEmptySource, "sheet has no usable cells")
		return res
	}
	wide.Source, wide.Sheet = u.source.Name, u.sheet

	resolved := period.Resolve(u.source.Name, u.sheet, u.ordinal)
	res.Period, res.PeriodSource = resolved.Period, resolved.Source

	frag := dataset.Normalize(wide, resolved.Period)
	res.Fragment = &frag
	res.Records = frag.Len()
	return res
}
