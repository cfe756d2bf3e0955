package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	MaxURLLength    = 2000
	MaxTopicLength  = 100
	MaxAuthorLength = 100
)

// Bookmark is a cataloged URL with a normalized date and topic tags.
type Bookmark struct {
	// ─────────────────────────────
	// Identity (immutable)
	// ─────────────────────────────

	// ID is assigned on creation when the client does not supply one.
	ID uuid.UUID

	// ─────────────────────────────
	// Content
	// ─────────────────────────────

	// URL is the bookmarked address (required, at most MaxURLLength chars).
	URL string

	// Summary is a one-line human description (required).
	Summary string

	// Description is optional free text.
	Description *string

	// ─────────────────────────────
	// Dating
	// ─────────────────────────────

	// SortDate and DisplayDateFormat are derived together from a display
	// date and are never set independently.
	SortDate          time.Time
	DisplayDateFormat DateFormat

	// ─────────────────────────────
	// Review workflow
	// ─────────────────────────────

	Status      Status
	SubmitterID *string

	// SubmittedOn is stamped the first time Status becomes submitted
	// and never changes afterwards.
	SubmittedOn *time.Time

	// ─────────────────────────────
	// Provenance (opaque)
	// ─────────────────────────────

	Source            *string
	SourceItemID      *string
	SourceLastUpdated *time.Time

	// ─────────────────────────────
	// Owned collections
	// ─────────────────────────────

	// Topics is a case-sensitive set, always kept sorted.
	Topics []string

	// Notes are append-only, ordered by creation time.
	Notes []Note

	// CreatedOn is set once at creation.
	CreatedOn time.Time
}

// Note is a free-text annotation attached to a bookmark.
type Note struct {
	ID        uuid.UUID
	Text      string
	Author    string
	CreatedOn time.Time
}

// DisplayDate renders SortDate with the stored format token.
func (b *Bookmark) DisplayDate() (string, error) {
	return FormatDisplayDate(b.SortDate, b.DisplayDateFormat)
}

// SetDisplayDate parses displayDate and updates SortDate and
// DisplayDateFormat as a pair. On error the bookmark is unchanged.
func (b *Bookmark) SetDisplayDate(displayDate string) error {
	sortDate, format, err := ParseDisplayDate(displayDate)
	if err != nil {
		return err
	}
	b.SortDate = sortDate
	b.DisplayDateFormat = format
	return nil
}

// HasTopic reports whether topic is in the set.
func (b *Bookmark) HasTopic(topic string) bool {
	i := sort.SearchStrings(b.Topics, topic)
	return i < len(b.Topics) && b.Topics[i] == topic
}

// AddTopic inserts topic, keeping the set sorted. It returns false if the
// topic was already present.
func (b *Bookmark) AddTopic(topic string) bool {
	i := sort.SearchStrings(b.Topics, topic)
	if i < len(b.Topics) && b.Topics[i] == topic {
		return false
	}
	b.Topics = append(b.Topics, "")
	copy(b.Topics[i+1:], b.Topics[i:])
	b.Topics[i] = topic
	return true
}

// RemoveTopic deletes topic. It returns false if the topic was absent.
func (b *Bookmark) RemoveTopic(topic string) bool {
	i := sort.SearchStrings(b.Topics, topic)
	if i >= len(b.Topics) || b.Topics[i] != topic {
		return false
	}
	b.Topics = append(b.Topics[:i], b.Topics[i+1:]...)
	return true
}

// SetTopics replaces the set with the de-duplicated, sorted topics.
func (b *Bookmark) SetTopics(topics []string) {
	b.Topics = NormalizeTopics(topics)
}

// NormalizeTopics returns a sorted copy of topics without duplicates.
func NormalizeTopics(topics []string) []string {
	out := make([]string, 0, len(topics))
	seen := make(map[string]struct{}, len(topics))
	for _, t := range topics {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Validate checks the field constraints that the store relies on.
func (b *Bookmark) Validate() error {
	switch {
	case strings.TrimSpace(b.URL) == "":
		return fmt.Errorf("%w: url is required", ErrInvalidBookmark)
	case len(b.URL) > MaxURLLength:
		return fmt.Errorf("%w: url longer than %d characters", ErrInvalidBookmark, MaxURLLength)
	case strings.TrimSpace(b.Summary) == "":
		return fmt.Errorf("%w: summary is required", ErrInvalidBookmark)
	case b.DisplayDateFormat == "":
		return fmt.Errorf("%w: display date is required", ErrInvalidBookmark)
	case !b.DisplayDateFormat.Valid():
		return fmt.Errorf("%w: unknown display date format %q", ErrInvalidBookmark, string(b.DisplayDateFormat))
	}
	if err := AssertValidStatus(b.Status); err != nil {
		return err
	}
	if b.Status == StatusNew && b.SubmittedOn != nil {
		return fmt.Errorf("%w: submitted_on set on a bookmark that was never submitted", ErrInvalidBookmark)
	}
	for _, t := range b.Topics {
		if err := validateTopic(t); err != nil {
			return err
		}
	}
	return nil
}

func validateTopic(t string) error {
	if strings.TrimSpace(t) == "" {
		return fmt.Errorf("%w: topic must not be empty", ErrInvalidBookmark)
	}
	if len(t) > MaxTopicLength {
		return fmt.Errorf("%w: topic %q longer than %d characters", ErrInvalidBookmark, t, MaxTopicLength)
	}
	return nil
}
