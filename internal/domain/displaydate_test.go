package domain

import (
	"errors"
	"testing"
	"time"
)

func TestParseDisplayDate(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantTime   time.Time
		wantFormat DateFormat
	}{
		{"minute", "2017.04.09 18:30", time.Date(2017, 4, 9, 18, 30, 0, 0, time.UTC), FormatMinute},
		{"hour", "2001.12.23 07", time.Date(2001, 12, 23, 7, 0, 0, 0, time.UTC), FormatHour},
		{"day", "2017.02.07", time.Date(2017, 2, 7, 0, 0, 0, 0, time.UTC), FormatDay},
		{"month", "2017.04", time.Date(2017, 4, 1, 0, 0, 0, 0, time.UTC), FormatMonth},
		{"year", "1975", time.Date(1975, 1, 1, 0, 0, 0, 0, time.UTC), FormatYear},
		{"unpadded month", "2017.4", time.Date(2017, 4, 1, 0, 0, 0, 0, time.UTC), FormatMonth},
		{"unpadded day and hour", "2017.4.9 7", time.Date(2017, 4, 9, 7, 0, 0, 0, time.UTC), FormatHour},
		{"leap day", "2016.02.29", time.Date(2016, 2, 29, 0, 0, 0, 0, time.UTC), FormatDay},
		{"first year", "0001", time.Date(1, 1, 1, 0, 0, 0, 0, time.UTC), FormatYear},
		{"first month", "0001.01", time.Date(1, 1, 1, 0, 0, 0, 0, time.UTC), FormatMonth},
		{"last year", "9999.12.31 23:59", time.Date(9999, 12, 31, 23, 59, 0, 0, time.UTC), FormatMinute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, format, err := ParseDisplayDate(tt.input)
			if err != nil {
				t.Fatalf("ParseDisplayDate(%q) error = %v", tt.input, err)
			}
			if !got.Equal(tt.wantTime) {
				t.Errorf("ParseDisplayDate(%q) time = %v, want %v", tt.input, got, tt.wantTime)
			}
			if format != tt.wantFormat {
				t.Errorf("ParseDisplayDate(%q) format = %q, want %q", tt.input, format, tt.wantFormat)
			}
			if got.Location() != time.UTC {
				t.Errorf("ParseDisplayDate(%q) location = %v, want UTC", tt.input, got.Location())
			}
		})
	}
}

func TestParseDisplayDateRejects(t *testing.T) {
	inputs := []string{
		"",
		"blarg",
		" 2017",
		"2017 ",
		"2017.04.09 18:30:15",
		"2017-04-09",
		"2017.13",
		"2017.02.30",
		"2017.04.09 24",
		"2017.04.09 12:60",
		"17.04",
		"2017..04",
		"2017.04.",
		"2017.04.09  18",
		"２０１７",
		"0000",
		"0000.01",
		"0000.01.01 00:00",
	}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			_, _, err := ParseDisplayDate(input)
			if err == nil {
				t.Fatalf("ParseDisplayDate(%q) should fail", input)
			}
			if !errors.Is(err, ErrDateParse) {
				t.Errorf("ParseDisplayDate(%q) error = %v, want ErrDateParse", input, err)
			}
			var pe *DateParseError
			if !errors.As(err, &pe) || pe.Input != input {
				t.Errorf("ParseDisplayDate(%q) should carry the input, got %v", input, err)
			}
		})
	}
}

func TestDisplayDateRoundTrip(t *testing.T) {
	for _, s := range []string{"2017.04.09 18:30", "2001.12.23 07", "2017.02.07", "2017.04", "1975"} {
		t.Run(s, func(t *testing.T) {
			ts, format, err := ParseDisplayDate(s)
			if err != nil {
				t.Fatalf("ParseDisplayDate(%q) error = %v", s, err)
			}
			got, err := FormatDisplayDate(ts, format)
			if err != nil {
				t.Fatalf("FormatDisplayDate() error = %v", err)
			}
			if got != s {
				t.Errorf("round trip = %q, want %q", got, s)
			}
		})
	}
}

func TestFormatDisplayDateUnknownFormat(t *testing.T) {
	if _, err := FormatDisplayDate(time.Now(), "%d/%m/%Y"); err == nil {
		t.Error("FormatDisplayDate() with unknown format should return error")
	}
}

func TestFormatDisplayDateConvertsToUTC(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	ts := time.Date(2017, 4, 9, 2, 0, 0, 0, loc)
	got, err := FormatDisplayDate(ts, FormatHour)
	if err != nil {
		t.Fatalf("FormatDisplayDate() error = %v", err)
	}
	if got != "2017.04.09 00" {
		t.Errorf("FormatDisplayDate() = %q, want %q", got, "2017.04.09 00")
	}
}
