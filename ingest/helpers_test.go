package ingest

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type sheetData struct {
	name string
	rows [][]interface{}
}

// xlsxSource builds an in-memory workbook with the given sheets in order.
func xlsxSource(t *testing.T, name string, sheets ...sheetData) Source {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for i, sh := range sheets {
		if i == 0 {
			require.NoError(t, f.SetSheetName("Sheet1", sh.name))
		} else {
			_, err := f.NewSheet(sh.name)
			require.NoError(t, err)
		}
		for r, row := range sh.rows {
			for c, v := range row {
				if v == nil {
					continue
				}
				ref, err := excelize.CoordinatesToCellName(c+1, r+1)
				require.NoError(t, err)
				require.NoError(t, f.SetCellValue(sh.name, ref, v))
			}
		}
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return Source{Name: name, Data: buf.Bytes()}
}

// wide builds a small enrollment sheet: curriculum rows × ages 8, 9.
func wide(name string, rows ...[]interface{}) sheetData {
	grid := [][]interface{}{{"커리큘럼", "8", "9"}}
	return sheetData{name: name, rows: append(grid, rows...)}
}
