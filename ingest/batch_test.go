package ingest

import (
	"context"
	"fmt"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spektr-org/enrollstat/dataset"
	"github.com/spektr-org/enrollstat/engine"
	"github.com/spektr-org/enrollstat/period"
)

func TestRunHybridResolvesPeriods(t *testing.T) {
	sources := []Source{
		xlsxSource(t, "2025_3월.xlsx", wide("Sheet1", []interface{}{"A과정 1단계", 10, 4})),
		xlsxSource(t, "data.xlsx",
			wide("5월", []interface{}{"A과정 1단계", 7, nil}),
			wide("memo", []interface{}{"B과정 1단계", 1, 1}),
		),
	}

	batch, err := Run(context.Background(), sources)
	require.NoError(t, err)

	require.Len(t, batch.Results, 3)
	got := make([]int, len(batch.Results))
	for i, r := range batch.Results {
		got[i] = r.Period
	}
	assert.Equal(t, []int{3, 5, 3}, got)
	assert.Equal(t, period.FileMarker, batch.Results[0].PeriodSource)
	assert.Equal(t, period.SheetMarker, batch.Results[1].PeriodSource)
	assert.Equal(t, period.Ordinal, batch.Results[2].PeriodSource)

	assert.Equal(t, 3, batch.Fragments)
	assert.Empty(t, batch.Errors)
	assert.NotEmpty(t, batch.ID)
	assert.Equal(t, 5, batch.Table.Len())
	assert.Equal(t, []int{3, 5}, batch.Table.Periods())
}

func TestRunModes(t *testing.T) {
	sources := []Source{
		xlsxSource(t, "a.xlsx",
			wide("1월", []interface{}{"A과정 1단계", 1, 1}),
			wide("2월", []interface{}{"A과정 1단계", 2, 2}),
		),
		xlsxSource(t, "b.xlsx",
			wide("3월", []interface{}{"A과정 1단계", 3, 3}),
			wide("4월", []interface{}{"A과정 1단계", 4, 4}),
		),
	}

	tests := []struct {
		mode    Mode
		periods []int
	}{
		{MultiFile, []int{1, 3}},
		{MultiSheet, []int{1, 2}},
		{Hybrid, []int{1, 2, 3, 4}},
	}
	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			batch, err := Run(context.Background(), sources, WithMode(tt.mode))
			require.NoError(t, err)
			assert.Equal(t, tt.periods, batch.Table.Periods())
		})
	}
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, Hybrid, m)

	m, err = ParseMode(" Multi-File ")
	require.NoError(t, err)
	assert.Equal(t, MultiFile, m)

	_, err = ParseMode("zip")
	assert.Error(t, err)
}

func TestRunDuplicateKeysSum(t *testing.T) {
	sources := []Source{
		xlsxSource(t, "a.xlsx", wide("1월", []interface{}{"A과정 1단계", 10, nil})),
		xlsxSource(t, "b.xlsx", wide("1월", []interface{}{"A과정 1단계", 5, nil})),
	}
	batch, err := Run(context.Background(), sources)
	require.NoError(t, err)
	assert.Equal(t, 2, batch.Table.Len(), "duplicates are retained")

	r := engine.AttritionSeries(batch.Table, engine.Filter{Periods: []int{1}}, engine.WithAgeSubset("8"))
	require.Len(t, r.Points, 1)
	assert.Equal(t, engine.SeriesPoint{Series: "8", X: "A과정 1단계", Value: 15}, r.Points[0])
}

func TestRunParallelMatchesSequential(t *testing.T) {
	var sources []Source
	for i := 1; i <= 8; i++ {
		sources = append(sources, xlsxSource(t, fmt.Sprintf("%d월.xlsx", i),
			wide("Sheet1",
				[]interface{}{"A과정 1단계", i, i * 2},
				[]interface{}{"B과정 2단계", i * 3, nil},
			),
			wide("extra", []interface{}{"C과정 1단계", 1, 1}),
		))
	}
	sources = append(sources, Source{Name: "broken.xlsx", Data: []byte("nope")})

	seq, err := Run(context.Background(), sources, WithWorkers(1))
	require.NoError(t, err)
	par, err := Run(context.Background(), sources, WithWorkers(4))
	require.NoError(t, err)

	assert.Equal(t, seq.Table.Records, par.Table.Records)
	assert.Equal(t, seq.Errors, par.Errors)
	require.Len(t, par.Results, len(seq.Results))
	for i := range seq.Results {
		assert.Equal(t, seq.Results[i].Ordinal, par.Results[i].Ordinal)
		assert.Equal(t, seq.Results[i].Period, par.Results[i].Period)
	}
}

func TestRunCSVMatchesXLSX(t *testing.T) {
	csv := Source{Name: "3월.csv", Data: []byte("커리큘럼,8,9\nA과정 1단계,10,4\nB과정 1단계,,2\n")}
	xlsx := xlsxSource(t, "3월.xlsx", wide("Sheet1",
		[]interface{}{"A과정 1단계", 10, 4},
		[]interface{}{"B과정 1단계", nil, 2},
	))

	fromCSV, err := Run(context.Background(), []Source{csv})
	require.NoError(t, err)
	fromXLSX, err := Run(context.Background(), []Source{xlsx})
	require.NoError(t, err)

	assert.Equal(t, fromXLSX.Table.Records, fromCSV.Table.Records)
	assert.Equal(t, 3, fromCSV.Table.Len())
}

func TestRunPartialFailure(t *testing.T) {
	sources := []Source{
		{Name: "notes.txt", Data: []byte("hello")},
		xlsxSource(t, "2월.xlsx", sheetData{name: "Sheet1", rows: [][]interface{}{{"Course", "8"}, {"A과정 1단계", 1}}}),
		xlsxSource(t, "3월.xlsx", wide("Sheet1", []interface{}{"A과정 1단계", 2, nil})),
	}
	batch, err := Run(context.Background(), sources)
	require.NoError(t, err)

	assert.Equal(t, 1, batch.Fragments)
	require.Len(t, batch.Errors, 2)
	assert.Equal(t, "notes.txt", batch.Errors[0].Source)
	assert.Contains(t, batch.Errors[0].Message, "unsupported")
	assert.Equal(t, "2월.xlsx", batch.Errors[1].Source)
	assert.Contains(t, batch.Errors[1].Message, "missing curriculum column")
	assert.Equal(t, []int{3}, batch.Table.Periods())
}

func TestRunNoUsableData(t *testing.T) {
	sources := []Source{
		{Name: "empty.csv"},
		{Name: "blank.csv", Data: []byte("커리큘럼,8\nA과정 1단계,\n")},
	}
	batch, err := Run(context.Background(), sources)
	require.Error(t, err)
	assert.Nil(t, batch)

	assert.True(t, errors.Is(err, dataset.ErrNoUsableData))
	assert.Equal(t, dataset.ErrNoUsableData, errors.Cause(err))

	var noData *NoDataError
	require.True(t, errors.As(err, &noData))
	assert.Len(t, noData.Errors, 2)
	assert.Equal(t, 2, noData.Sources)

	_, err = Run(context.Background(), nil)
	assert.True(t, errors.Is(err, dataset.ErrNoUsableData))
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	batch, err := Run(ctx, []Source{xlsxSource(t, "1월.xlsx", wide("Sheet1", []interface{}{"A과정 1단계", 1, 1}))}, WithWorkers(2))
	assert.Nil(t, batch)
	assert.True(t, errors.Is(err, context.Canceled))
}
