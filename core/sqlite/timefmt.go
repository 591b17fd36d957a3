package sqlite

import (
	"strconv"
	"strings"
	"time"
)

// TimeFormat is the layout used to store timestamps as text: ISO-8601 with
// milliseconds, always written in UTC.
const TimeFormat = "2006-01-02T15:04:05.000Z07:00"

// parseFormats are tried in order by ParseTime. The later entries are the
// forms the engine's own date functions produce.
var parseFormats = []string{
	TimeFormat,
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// FormatTime renders t in TimeFormat. The zone is normalised to UTC, so the
// output always ends in "Z".
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeFormat)
}

// ParseTime parses s written by FormatTime or by the engine's date
// functions. The result is in UTC. Text that matches no known layout fails
// with CodeMismatch.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range parseFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, &Error{Code: CodeMismatch, Op: "time", Detail: "cannot parse " + strconv.Quote(s) + " as time"}
}

