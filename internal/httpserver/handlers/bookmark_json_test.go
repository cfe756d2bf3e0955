package handlers

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/MrSnakeDoc/anansi/internal/domain"
)

func TestCursorTokenRoundTrip(t *testing.T) {
	c := domain.Cursor{
		SortDate: time.Date(2017, 4, 1, 0, 0, 0, 0, time.UTC),
		ID:       uuid.MustParse("fbffbfff-ffff-4fff-bfff-ffffffffffff"),
	}
	raw := c.Encode()

	token := encodeCursor(raw)
	if strings.ContainsAny(token, "+/") {
		t.Errorf("token %q is not query-safe", token)
	}

	got, err := decodeCursor(token)
	if err != nil {
		t.Fatalf("decodeCursor() error = %v", err)
	}
	if got != raw {
		t.Errorf("decodeCursor() = %q, want %q", got, raw)
	}
}

func TestDecodeCursor_Invalid(t *testing.T) {
	for _, token := range []string{"!!!", "abc", "bW9ja19jdXJzb3I"} {
		if _, err := decodeCursor(token); !errors.Is(err, domain.ErrInvalidCursor) {
			t.Errorf("decodeCursor(%q) error = %v, want ErrInvalidCursor", token, err)
		}
	}
}

func TestFormatBookmark(t *testing.T) {
	desc := "desc"
	submitted := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	b := &domain.Bookmark{
		ID:                uuid.MustParse("7c4a4bd2-0d47-4f0c-9a7f-5a1b1c2d3e4f"),
		URL:               "https://docs.example.org/a",
		Summary:           "s",
		Description:       &desc,
		SortDate:          time.Date(2001, 12, 23, 7, 0, 0, 0, time.UTC),
		DisplayDateFormat: domain.FormatHour,
		Status:            domain.StatusSubmitted,
		SubmittedOn:       &submitted,
		Topics:            []string{"b", "a"},
		CreatedOn:         submitted,
	}

	got, err := formatBookmark(b)
	if err != nil {
		t.Fatalf("formatBookmark() error = %v", err)
	}
	if got.DisplayDate != "2001.12.23 07" {
		t.Errorf("DisplayDate = %q", got.DisplayDate)
	}
	if got.SortDate != "2001-12-23T07:00:00Z" {
		t.Errorf("SortDate = %q", got.SortDate)
	}
	if got.TLD != "example.org" {
		t.Errorf("TLD = %q", got.TLD)
	}
	if len(got.Topics) != 2 || got.Topics[0] != "a" {
		t.Errorf("Topics = %v, want sorted", got.Topics)
	}
	if got.SubmittedOn == nil || *got.SubmittedOn != "2024-01-02T03:04:05Z" {
		t.Errorf("SubmittedOn = %v", got.SubmittedOn)
	}
	if got.Notes != nil {
		t.Errorf("Notes = %v, want nil", got.Notes)
	}

	b.DisplayDateFormat = "%Q"
	if _, err := formatBookmark(b); err == nil {
		t.Error("formatBookmark() should fail on an unknown format token")
	}
}
