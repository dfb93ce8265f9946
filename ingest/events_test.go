package ingest

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEventsAliases(t *testing.T) {
	rows := [][]string{
		{"Member ID", "Action", "createdAt", "extra"},
		{"u1", "a_complete", "2025-03-03 09:00:00", "x"},
		{"u2", "b_start", "2025-03-03T10:30:00Z"},
		{"", "a_complete", "2025-03-03 09:00:00"},
		{"u3", "", "2025-03-03 09:00:00"},
		{"u4", "a_complete", "yesterday"},
		{},
	}
	log, err := ParseEvents(rows, time.UTC)
	require.NoError(t, err)

	require.Len(t, log.Events, 2)
	assert.Equal(t, 3, log.InvalidRows)
	assert.Equal(t, "u1", log.Events[0].UserID)
	assert.Equal(t, "a_complete", log.Events[0].Name)
	assert.Equal(t, time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC), log.Events[0].At)
	assert.Equal(t, 10, log.Events[1].At.Hour())
}

func TestParseEventsMissingColumn(t *testing.T) {
	_, err := ParseEvents([][]string{{"user_id", "when"}}, time.UTC)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingEventColumn))
	assert.Contains(t, err.Error(), "event")
	assert.Contains(t, err.Error(), "timestamp")
}

func TestParseTime(t *testing.T) {
	seoul := time.FixedZone("KST", 9*3600)

	got, ok := ParseTime("2025-03-03 09:15", seoul)
	require.True(t, ok)
	assert.Equal(t, seoul, got.Location())
	assert.Equal(t, 15, got.Minute())

	// 45658.5 is 2025-01-01 12:00 in the 1900 date system.
	got, ok = ParseTime("45658.5", time.UTC)
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC), got)

	_, ok = ParseTime("", time.UTC)
	assert.False(t, ok)
}

func TestLoadEventsCSV(t *testing.T) {
	src := Source{Name: "events.csv", Data: []byte("user_id,event,timestamp\nu1,open,2025-03-03 09:00:00\nu1,open,bad\n")}
	log, err := LoadEvents(src, nil)
	require.NoError(t, err)
	assert.Equal(t, "events.csv", log.Source)
	assert.Len(t, log.Events, 1)
	assert.Equal(t, 1, log.InvalidRows)
}
