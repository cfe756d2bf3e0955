package domain

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultMaxResults is the page size used when the caller gives none.
	DefaultMaxResults = 500

	cursorDelimiter  = "|"
	cursorTimeLayout = "2006-01-02T15:04:05"
)

// Cursor is the sort key of the last row of a page. The next page starts
// strictly after it in (SortDate, ID) order.
type Cursor struct {
	SortDate time.Time
	ID       uuid.UUID
}

// CursorFor returns the cursor positioned on b.
func CursorFor(b *Bookmark) Cursor {
	return Cursor{SortDate: b.SortDate, ID: b.ID}
}

// Encode renders the cursor as "<sort date to the second>|<id>".
// Sub-second precision is dropped.
func (c Cursor) Encode() string {
	return c.SortDate.UTC().Truncate(time.Second).Format(cursorTimeLayout) + cursorDelimiter + c.ID.String()
}

// DecodeCursor parses a string produced by Cursor.Encode.
func DecodeCursor(s string) (Cursor, error) {
	toks := strings.Split(s, cursorDelimiter)
	if len(toks) != 2 {
		return Cursor{}, fmt.Errorf("%w: expected 'sort_date|bookmark_id', got %q", ErrInvalidCursor, s)
	}
	sortDate, err := time.ParseInLocation(cursorTimeLayout, toks[0], time.UTC)
	if err != nil {
		return Cursor{}, fmt.Errorf("%w: sort_date %q not in format YYYY-MM-DDTHH:MM:SS", ErrInvalidCursor, toks[0])
	}
	id, err := uuid.Parse(toks[1])
	if err != nil {
		return Cursor{}, fmt.Errorf("%w: bookmark_id %q is not a uuid", ErrInvalidCursor, toks[1])
	}
	return Cursor{SortDate: sortDate, ID: id}, nil
}

// Precedes reports whether a row keyed (sortDate, id) belongs after the cursor:
// sortDate > c.SortDate OR (sortDate == c.SortDate AND id > c.ID).
func (c Cursor) Precedes(sortDate time.Time, id uuid.UUID) bool {
	if sortDate.After(c.SortDate) {
		return true
	}
	return sortDate.Equal(c.SortDate) && CompareIDs(id, c.ID) > 0
}

// CompareIDs orders identifiers the way PostgreSQL orders uuid columns.
func CompareIDs(a, b uuid.UUID) int {
	return bytes.Compare(a[:], b[:])
}

// NormalizeMaxResults applies the default page size to unset or non-positive limits.
func NormalizeMaxResults(n int) int {
	if n <= 0 {
		return DefaultMaxResults
	}
	return n
}
