package postgres

import (
	"time"

	"github.com/google/uuid"

	"github.com/MrSnakeDoc/anansi/internal/domain"
)

const bookmarkColumns = `bookmark_id, url, summary, sort_date, description, display_date_format,
	status, source, source_item_id, source_last_updated, submitter_id, created_on, submitted_on`

type bookmarkRow struct {
	BookmarkID        uuid.UUID  `db:"bookmark_id"`
	URL               string     `db:"url"`
	Summary           string     `db:"summary"`
	SortDate          time.Time  `db:"sort_date"`
	Description       *string    `db:"description"`
	DisplayDateFormat string     `db:"display_date_format"`
	Status            string     `db:"status"`
	Source            *string    `db:"source"`
	SourceItemID      *string    `db:"source_item_id"`
	SourceLastUpdated *time.Time `db:"source_last_updated"`
	SubmitterID       *string    `db:"submitter_id"`
	CreatedOn         time.Time  `db:"created_on"`
	SubmittedOn       *time.Time `db:"submitted_on"`
}

type topicRow struct {
	BookmarkID uuid.UUID `db:"bookmark_id"`
	Topic      string    `db:"topic"`
}

type noteRow struct {
	NoteID     uuid.UUID `db:"note_id"`
	BookmarkID uuid.UUID `db:"bookmark_id"`
	Text       string    `db:"text"`
	Author     string    `db:"author"`
	CreatedOn  time.Time `db:"created_on"`
}

func (r bookmarkRow) toDomain() *domain.Bookmark {
	return &domain.Bookmark{
		ID:                r.BookmarkID,
		URL:               r.URL,
		Summary:           r.Summary,
		Description:       r.Description,
		SortDate:          r.SortDate.UTC(),
		DisplayDateFormat: dateFormat(r.DisplayDateFormat),
		Status:            domain.Status(r.Status),
		SubmitterID:       r.SubmitterID,
		SubmittedOn:       utcPtr(r.SubmittedOn),
		Source:            r.Source,
		SourceItemID:      r.SourceItemID,
		SourceLastUpdated: utcPtr(r.SourceLastUpdated),
		Topics:            []string{},
		CreatedOn:         r.CreatedOn.UTC(),
	}
}

func (r noteRow) toDomain() domain.Note {
	return domain.Note{
		ID:        r.NoteID,
		Text:      r.Text,
		Author:    r.Author,
		CreatedOn: r.CreatedOn.UTC(),
	}
}

// dateFormat maps rows written before the column was populated to the column default.
func dateFormat(s string) domain.DateFormat {
	if s == "" {
		return domain.DefaultDateFormat
	}
	return domain.DateFormat(s)
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
