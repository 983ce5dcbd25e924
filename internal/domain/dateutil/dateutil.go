// Package dateutil formats dates the way HTML date inputs expect them.
package dateutil

import (
	"errors"
	"strings"
	"time"
)

// InputLayout is the YYYY-MM-DD layout used by <input type="date">.
const InputLayout = "2006-01-02"

// ErrUnparsable is returned when a date string matches no accepted layout.
var ErrUnparsable = errors.New("unparsable date")

// accepted layouts, most specific first. Numeric short dates are read
// month first, as browsers do.
var layouts = []string{ //nolint:gochecknoglobals // read-only table
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	InputLayout,
	"2006/1/2",
	"1/2/2006",
	"1-2-2006",
	"1/2/06",
	"1-2-06", // spreadsheet default short date
}

// FormatForInput formats t in local time as YYYY-MM-DD.
func FormatForInput(t time.Time) string {
	return t.In(time.Local).Format(InputLayout)
}

// Normalize parses s and returns its local calendar date as YYYY-MM-DD. An empty s yields
// today's date according to now.
func Normalize(s string, now func() time.Time) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return FormatForInput(now()), nil
	}
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return FormatForInput(t), nil
		}
	}
	return "", ErrUnparsable
}
