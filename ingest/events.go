package ingest

import (
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/spektr-org/enrollstat/engine"
	"github.com/spektr-org/enrollstat/logging"
	"github.com/spektr-org/enrollstat/schema"
)

// ============================================================================
// EVENT LOADER: behavioral log → []engine.Event
// ============================================================================
// First sheet only. Columns are found by alias after header normalization;
// rows missing a user, an event name or a readable time are counted and
// skipped.
// ============================================================================

// ErrMissingEventColumn means a required event-log column was not found.
var ErrMissingEventColumn = errors.New("missing event column")

var (
	userAliases  = []string{"user_id", "user", "uid", "member_id"}
	eventAliases = []string{"event", "event_name", "name", "action"}
	timeAliases  = []string{"timestamp", "time", "ts", "created_at", "event_time"}
)

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006/01/02 15:04:05",
	"2006/01/02 15:04",
	"01/02/2006 15:04:05",
	"1/2/06 15:04",
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"1/2/06",
	"01-02-06",
}

// EventLog is a loaded behavioral log.
type EventLog struct {
	Source      string         `json:"source"`
	Events      []engine.Event `json:"events"`
	InvalidRows int            `json:"invalidRows"`
}

// LoadEvents reads the first sheet of a source as an event log. Times
// without a zone are read in loc (UTC when nil).
func LoadEvents(src Source, loc *time.Location) (*EventLog, error) {
	if loc == nil {
		loc = time.UTC
	}

	wb, err := OpenWorkbook(src)
	if err != nil {
		return nil, err
	}
	defer wb.Close()

	sheets := wb.Sheets()
	if len(sheets) == 0 {
		return nil, errors.Wrapf(ErrEmptySource, "%s has no sheets", src.Name)
	}
	rows, err := wb.Rows(sheets[0])
	if err != nil {
		return nil, err
	}

	out, err := ParseEvents(rows, loc)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", src.Name)
	}
	out.Source = src.Name

	log := logging.For("ingest")
	if out.InvalidRows > 0 {
		log.Warnf("⚠️ %s: skipped %d invalid event rows", src.Name, out.InvalidRows)
	}
	log.Infof("📂 Loaded %d events from %s", len(out.Events), src.Name)
	return out, nil
}

// ParseEvents converts a raw grid into events.
func ParseEvents(rows [][]string, loc *time.Location) (*EventLog, error) {
	headerAt := -1
	for i, row := range rows {
		if !blankRow(row) {
			headerAt = i
			break
		}
	}
	if headerAt < 0 {
		return nil, errors.Wrap(ErrEmptySource, "event log has no rows")
	}

	header := rows[headerAt]
	userCol := findColumn(header, userAliases)
	eventCol := findColumn(header, eventAliases)
	timeCol := findColumn(header, timeAliases)

	var missing []string
	if userCol < 0 {
		missing = append(missing, "user")
	}
	if eventCol < 0 {
		missing = append(missing, "event")
	}
	if timeCol < 0 {
		missing = append(missing, "timestamp")
	}
	if len(missing) > 0 {
		return nil, errors.Wrapf(ErrMissingEventColumn, "%s not found in [%s]",
			strings.Join(missing, ", "), strings.Join(trimAll(header), ", "))
	}

	out := &EventLog{Events: []engine.Event{}}
	for _, row := range rows[headerAt+1:] {
		if blankRow(row) {
			continue
		}
		user := strings.TrimSpace(cell(row, userCol))
		name := strings.TrimSpace(cell(row, eventCol))
		at, ok := ParseTime(cell(row, timeCol), loc)
		if user == "" || name == "" || !ok {
			out.InvalidRows++
			continue
		}
		out.Events = append(out.Events, engine.Event{UserID: user, Name: name, At: at})
	}
	return out, nil
}

// ParseTime reads a timestamp in one of the common spreadsheet layouts,
// or as an Excel serial date number.
func ParseTime(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, l := range timeLayouts {
		if t, err := time.ParseInLocation(l, s, loc); err == nil {
			return t, true
		}
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial > 0 {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return time.Time{}, false
		}
		// Serials carry no zone: re-read the wall clock in loc.
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc), true
	}
	return time.Time{}, false
}

func findColumn(header []string, aliases []string) int {
	for _, alias := range aliases {
		for i, h := range header {
			if schema.NormalizeHeader(h) == alias {
				return i
			}
		}
	}
	return -1
}
