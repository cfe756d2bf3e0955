package domain

import (
	"fmt"
	"regexp"
	"time"
)

// DateFormat is the stored token describing how much precision a display
// date carried. Tokens use strftime notation so that rows written by
// other tools sharing the bookmarks table stay readable.
type DateFormat string

const (
	FormatMinute DateFormat = "%Y.%m.%d %H:%M"
	FormatHour   DateFormat = "%Y.%m.%d %H"
	FormatDay    DateFormat = "%Y.%m.%d"
	FormatMonth  DateFormat = "%Y.%m"
	FormatYear   DateFormat = "%Y"

	// DefaultDateFormat is the column default for rows that predate the token.
	DefaultDateFormat = FormatDay
)

// minDisplayYear is the first year strptime accepts; "0000" is out of range.
const minDisplayYear = 1

type dateLayout struct {
	format DateFormat
	shape  *regexp.Regexp
	parse  string // time layout accepting unpadded fields, like strptime
	render string // time layout producing zero-padded output
}

// Ordered from most to least precise; the first match wins.
var dateLayouts = []dateLayout{
	{FormatMinute, regexp.MustCompile(`^\d{4}\.\d{1,2}\.\d{1,2} \d{1,2}:\d{1,2}$`), "2006.1.2 15:4", "2006.01.02 15:04"},
	{FormatHour, regexp.MustCompile(`^\d{4}\.\d{1,2}\.\d{1,2} \d{1,2}$`), "2006.1.2 15", "2006.01.02 15"},
	{FormatDay, regexp.MustCompile(`^\d{4}\.\d{1,2}\.\d{1,2}$`), "2006.1.2", "2006.01.02"},
	{FormatMonth, regexp.MustCompile(`^\d{4}\.\d{1,2}$`), "2006.1", "2006.01"},
	{FormatYear, regexp.MustCompile(`^\d{4}$`), "2006", "2006"},
}

// ParseDisplayDate converts a human-entered partial date into a UTC
// timestamp and the format token needed to render it back.
// Missing components default to the start of the period.
func ParseDisplayDate(displayDate string) (time.Time, DateFormat, error) {
	for _, l := range dateLayouts {
		if !l.shape.MatchString(displayDate) {
			continue
		}
		t, err := time.Parse(l.parse, displayDate)
		if err != nil || t.Year() < minDisplayYear {
			// Right shape, out-of-range field: try the looser patterns.
			continue
		}
		return t.UTC(), l.format, nil
	}
	return time.Time{}, "", &DateParseError{Input: displayDate}
}

// FormatDisplayDate renders t with a token previously returned by ParseDisplayDate.
func FormatDisplayDate(t time.Time, format DateFormat) (string, error) {
	for _, l := range dateLayouts {
		if l.format == format {
			return t.UTC().Format(l.render), nil
		}
	}
	return "", fmt.Errorf("unknown display date format %q", string(format))
}

// Valid reports whether f is one of the known tokens.
func (f DateFormat) Valid() bool {
	for _, l := range dateLayouts {
		if l.format == f {
			return true
		}
	}
	return false
}
