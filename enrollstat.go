// Package enrollstat turns tutoring-program enrollment spreadsheets into one
// canonical long-form table and computes the aggregate views dashboards chart.
//
// Usage:
//
//	import "github.com/spektr-org/enrollstat/ingest"
//
//	batch, err := ingest.Run(ctx, sources,
//	    ingest.WithMode(ingest.Hybrid),
//	    ingest.WithWorkers(4),
//	)
//	result, err := engine.Execute(engine.ViewHeatmap, engine.Input{Table: batch.Table})
//
// The pipeline is resolver → loader → normalizer → assembler → views.
// Nothing is persisted: each run builds a fresh table from its sources.
// Rendering is left to the caller; views return row-oriented tables and
// series descriptions ready for charting.
package enrollstat

// Version is the release reported by the CLI and the HTTP API.
const Version = "0.3.0"
