package handlers

import (
	"encoding/base64"
	"fmt"
	"time"

	"github.com/MrSnakeDoc/anansi/internal/domain"
)

// cursorEncoding is standard base64 with '+' and '/' replaced by '$' and '@'
// so tokens survive in query strings.
var cursorEncoding = base64.NewEncoding("ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789$@")

type bookmarkJSON struct {
	BookmarkID  string     `json:"bookmark_id"`
	Description *string    `json:"description"`
	Summary     string     `json:"summary"`
	Status      string     `json:"status"`
	URL         string     `json:"url"`
	SortDate    string     `json:"sort_date"`
	DisplayDate string     `json:"display_date"`
	TLD         string     `json:"tld"`
	Topics      []string   `json:"topics"`
	SubmitterID *string    `json:"submitter_id,omitempty"`
	SubmittedOn *string    `json:"submitted_on,omitempty"`
	CreatedOn   string     `json:"created_on"`
	Notes       []noteJSON `json:"notes,omitempty"`
}

type noteJSON struct {
	NoteID    string `json:"note_id"`
	Text      string `json:"text"`
	Author    string `json:"author"`
	CreatedOn string `json:"created_on"`
}

type bookmarksResponse struct {
	Bookmarks  []bookmarkJSON `json:"bookmarks"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

// bookmarkRequest is the body of POST and PUT. A null field is treated
// the same as an absent one.
type bookmarkRequest struct {
	BookmarkID  *string   `json:"bookmark_id"`
	URL         *string   `json:"url"`
	Summary     *string   `json:"summary"`
	DisplayDate *string   `json:"display_date"`
	Description *string   `json:"description"`
	Topics      *[]string `json:"topics"`
	Status      *string   `json:"status"`
	SubmitterID *string   `json:"submitter_id"`
}

type noteRequest struct {
	Text   string `json:"text"`
	Author string `json:"author"`
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func formatBookmark(b *domain.Bookmark) (bookmarkJSON, error) {
	display, err := b.DisplayDate()
	if err != nil {
		return bookmarkJSON{}, fmt.Errorf("bookmark %s: %w", b.ID, err)
	}

	out := bookmarkJSON{
		BookmarkID:  b.ID.String(),
		Description: b.Description,
		Summary:     b.Summary,
		Status:      string(b.Status),
		URL:         b.URL,
		SortDate:    formatTime(b.SortDate),
		DisplayDate: display,
		TLD:         domain.RegisteredDomain(b.URL),
		Topics:      domain.NormalizeTopics(b.Topics),
		SubmitterID: b.SubmitterID,
		CreatedOn:   formatTime(b.CreatedOn),
	}
	if b.SubmittedOn != nil {
		s := formatTime(*b.SubmittedOn)
		out.SubmittedOn = &s
	}
	for _, n := range b.Notes {
		out.Notes = append(out.Notes, noteJSON{
			NoteID:    n.ID.String(),
			Text:      n.Text,
			Author:    n.Author,
			CreatedOn: formatTime(n.CreatedOn),
		})
	}
	return out, nil
}

func formatBookmarks(bookmarks []*domain.Bookmark) ([]bookmarkJSON, error) {
	out := make([]bookmarkJSON, 0, len(bookmarks))
	for _, b := range bookmarks {
		j, err := formatBookmark(b)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, nil
}

func encodeCursor(cursor string) string {
	return cursorEncoding.EncodeToString([]byte(cursor))
}

func decodeCursor(token string) (string, error) {
	raw, err := cursorEncoding.DecodeString(token)
	if err != nil {
		return "", fmt.Errorf("%w: not a valid cursor", domain.ErrInvalidCursor)
	}
	return string(raw), nil
}

func (req bookmarkRequest) toCreate() domain.CreateRequest {
	out := domain.CreateRequest{
		Description: req.Description,
		SubmitterID: req.SubmitterID,
	}
	if req.URL != nil {
		out.URL = *req.URL
	}
	if req.Summary != nil {
		out.Summary = *req.Summary
	}
	if req.DisplayDate != nil {
		out.DisplayDate = *req.DisplayDate
	}
	if req.Topics != nil {
		out.Topics = *req.Topics
	}
	if req.Status != nil {
		out.Status = *req.Status
	}
	return out
}

func (req bookmarkRequest) toUpdate() domain.UpdateRequest {
	return domain.UpdateRequest{
		URL:         req.URL,
		Summary:     req.Summary,
		DisplayDate: req.DisplayDate,
		Description: req.Description,
		Topics:      req.Topics,
		Status:      req.Status,
		SubmitterID: req.SubmitterID,
	}
}
