package ingest

import (
	"bytes"
	"sync"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/spektr-org/enrollstat/helpers"
)

// ============================================================================
// WORKBOOK: One sheet-oriented view over xlsx and csv sources
// ============================================================================
// A CSV file is a workbook with a single sheet named after the file stem,
// so every loader downstream sees the same grid shape.
// ============================================================================

// Workbook exposes the sheets of an opened source as string grids.
type Workbook interface {
	Sheets() []string
	Rows(sheet string) ([][]string, error)
	Close() error
}

// OpenWorkbook opens a source by extension: .xlsx/.xlsm through excelize,
// .csv as a single-sheet grid.
func OpenWorkbook(src Source) (Workbook, error) {
	if len(src.Data) == 0 {
		return nil, errors.Wrapf(ErrEmptySource, "%s has no content", src.Name)
	}

	switch src.Ext() {
	case ".xlsx", ".xlsm":
		f, err := excelize.OpenReader(bytes.NewReader(src.Data))
		if err != nil {
			return nil, errors.Wrapf(err, "failed to open workbook %s", src.Name)
		}
		return &xlsxWorkbook{file: f}, nil
	case ".csv":
		rows, err := helpers.ReadCSVRows(src.Data)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse %s", src.Name)
		}
		return &csvWorkbook{sheet: src.Stem(), rows: rows}, nil
	default:
		return nil, errors.Wrapf(ErrUnsupportedFormat, "%s (want .xlsx, .xlsm or .csv)", src.Name)
	}
}

// ============================================================================
// XLSX
// ============================================================================

type xlsxWorkbook struct {
	mu   sync.Mutex // excelize.File is read from several loader goroutines
	file *excelize.File
}

func (w *xlsxWorkbook) Sheets() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.GetSheetList()
}

func (w *xlsxWorkbook) Rows(sheet string) ([][]string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	rows, err := w.file.GetRows(sheet)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read sheet %s", sheet)
	}
	return rows, nil
}

func (w *xlsxWorkbook) Close() error {
	return w.file.Close()
}

// ============================================================================
// CSV
// ============================================================================

type csvWorkbook struct {
	sheet string
	rows  [][]string
}

func (w *csvWorkbook) Sheets() []string { return []string{w.sheet} }

func (w *csvWorkbook) Rows(sheet string) ([][]string, error) {
	if sheet != w.sheet {
		return nil, errors.Errorf("sheet %s does not exist", sheet)
	}
	return w.rows, nil
}

func (w *csvWorkbook) Close() error { return nil }
