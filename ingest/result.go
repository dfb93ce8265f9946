package ingest

import (
	"fmt"
	"strings"

	"github.com/spektr-org/enrollstat/dataset"
	"github.com/spektr-org/enrollstat/period"
	"github.com/spektr-org/enrollstat/schema"
)

// SourceResult is the outcome of loading one (file, sheet) unit: either a
// fragment or a failure reason, never both.
type SourceResult struct {
	Source         string                 `json:"source"`
	Sheet          string                 `json:"sheet,omitempty"`
	Ordinal        int                    `json:"ordinal"`
	Period         int                    `json:"period"`
	PeriodSource   period.Source          `json:"periodSource"`
	Fragment       *dataset.Fragment      `json:"-"`
	Records        int                    `json:"records"`
	InvalidCells   int                    `json:"invalidCells,omitempty"`
	SkippedColumns []schema.SkippedColumn `json:"skippedColumns,omitempty"`
	Err            error                  `json:"-"`
}

// OK reports whether the unit produced a fragment.
func (r SourceResult) OK() bool { return r.Err == nil && r.Fragment != nil }

// SourceError pairs a failed source with its reason.
type SourceError struct {
	Source  string `json:"source"`
	Sheet   string `json:"sheet,omitempty"`
	Message string `json:"message"`
}

func (e SourceError) Error() string {
	if e.Sheet == "" {
		return fmt.Sprintf("%s: %s", e.Source, e.Message)
	}
	return fmt.Sprintf("%s [%s]: %s", e.Source, e.Sheet, e.Message)
}

// NoDataError is the terminal batch failure: no unit produced a fragment.
// It unwraps to dataset.ErrNoUsableData.
type NoDataError struct {
	Sources int
	Errors  []SourceError
}

func (e *NoDataError) Error() string {
	if len(e.Errors) == 0 {
		return fmt.Sprintf("%s (%d sources)", dataset.ErrNoUsableData, e.Sources)
	}
	msgs := make([]string, len(e.Errors))
	for i, se := range e.Errors {
		msgs[i] = se.Error()
	}
	return fmt.Sprintf("%s (%d sources): %s", dataset.ErrNoUsableData, e.Sources, strings.Join(msgs, "; "))
}

func (e *NoDataError) Unwrap() error { return dataset.ErrNoUsableData }

// Cause lets errors.Cause reach the sentinel.
func (e *NoDataError) Cause() error { return dataset.ErrNoUsableData }
