package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Store is the record store collaborator. Implementations must provide one
// transaction per call, cascade deletes to topics and notes, and honour the
// (SortDate, ID) ordering and keyset predicate of Query.
type Store interface {
	// Insert persists a new bookmark. It fails with ErrDuplicateRecord on
	// an identifier or (source, source item id) collision.
	Insert(ctx context.Context, b *Bookmark) (*Bookmark, error)

	// FindByID fails with ErrRecordNotFound when no bookmark has the id.
	FindByID(ctx context.Context, id uuid.UUID) (*Bookmark, error)

	// FindBySource looks a bookmark up by its provenance key.
	FindBySource(ctx context.Context, source, itemID string) (*Bookmark, error)

	// Update loads the bookmark, applies mutate and writes the result back
	// atomically. If mutate fails nothing is written.
	Update(ctx context.Context, id uuid.UUID, mutate func(*Bookmark) error) (*Bookmark, error)

	// Delete removes the bookmark and everything it owns. Deleting an
	// absent bookmark is not an error.
	Delete(ctx context.Context, id uuid.UUID) error

	// Query returns at most q.Limit bookmarks ordered by (SortDate, ID).
	Query(ctx context.Context, q Query) ([]*Bookmark, error)

	// AppendNote adds a note to an existing bookmark.
	AppendNote(ctx context.Context, bookmarkID uuid.UUID, note Note) (*Note, error)

	Ping(ctx context.Context) error
}

// Query selects a page of bookmarks.
type Query struct {
	// Topics, when non-empty, keeps bookmarks tagged with at least one of them.
	Topics []string
	// After, when set, keeps only rows strictly after the cursor.
	After *Cursor
	Limit int
}

// Matches reports whether b satisfies the topic filter and keyset predicate.
func (q Query) Matches(b *Bookmark) bool {
	if q.After != nil && !q.After.Precedes(b.SortDate, b.ID) {
		return false
	}
	if len(q.Topics) == 0 {
		return true
	}
	for _, t := range q.Topics {
		if b.HasTopic(t) {
			return true
		}
	}
	return false
}

// CreateRequest carries the fields accepted when creating a bookmark.
// Empty strings count as missing.
type CreateRequest struct {
	ID                *uuid.UUID
	URL               string
	Summary           string
	DisplayDate       string
	Description       *string
	Topics            []string
	Status            string
	SubmitterID       *string
	Source            *string
	SourceItemID      *string
	SourceLastUpdated *time.Time
}

// UpdateRequest carries a partial update. Nil fields are left untouched.
type UpdateRequest struct {
	URL               *string
	Summary           *string
	DisplayDate       *string
	Description       *string // "" clears
	Topics            *[]string
	Status            *string
	SubmitterID       *string
	SourceLastUpdated *time.Time
}

// ListRequest selects a page of bookmarks.
type ListRequest struct {
	Topics     []string
	Cursor     string
	MaxResults int
}

// Page is one page of List results. NextCursor is empty only when the page
// is empty, i.e. the end of the result set was reached.
type Page struct {
	Bookmarks  []*Bookmark
	NextCursor string
}

// BookmarkService applies the bookmark rules on top of a Store.
type BookmarkService struct {
	store Store
	now   func() time.Time
}

// Option configures a BookmarkService.
type Option func(*BookmarkService)

// WithClock overrides the time source used for created_on / submitted_on.
func WithClock(now func() time.Time) Option {
	return func(s *BookmarkService) { s.now = now }
}

// NewBookmarkService creates a service backed by store.
func NewBookmarkService(store Store, opts ...Option) *BookmarkService {
	s := &BookmarkService{store: store, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create validates req and inserts a new bookmark.
func (s *BookmarkService) Create(ctx context.Context, req CreateRequest) (*Bookmark, error) {
	b, err := s.newBookmark(req)
	if err != nil {
		return nil, err
	}
	return s.store.Insert(ctx, b)
}

// Update applies a partial update to an existing bookmark.
func (s *BookmarkService) Update(ctx context.Context, id uuid.UUID, req UpdateRequest) (*Bookmark, error) {
	if err := req.checkRequired(); err != nil {
		return nil, err
	}
	return s.store.Update(ctx, id, func(b *Bookmark) error {
		return s.applyUpdate(b, req)
	})
}

// Upsert updates the bookmark, or creates it with the given id when absent.
func (s *BookmarkService) Upsert(ctx context.Context, id uuid.UUID, req UpdateRequest) (*Bookmark, error) {
	b, err := s.Update(ctx, id, req)
	if !errors.Is(err, ErrRecordNotFound) {
		return b, err
	}
	b, err = s.Create(ctx, req.toCreate(id))
	if errors.Is(err, ErrDuplicateRecord) {
		// Created concurrently between our update and insert.
		return s.Update(ctx, id, req)
	}
	return b, err
}

// Get returns a bookmark by id.
func (s *BookmarkService) Get(ctx context.Context, id uuid.UUID) (*Bookmark, error) {
	return s.store.FindByID(ctx, id)
}

// FindBySource returns the bookmark imported from source with itemID.
func (s *BookmarkService) FindBySource(ctx context.Context, source, itemID string) (*Bookmark, error) {
	return s.store.FindBySource(ctx, source, itemID)
}

// Delete removes a bookmark; absent ids are ignored.
func (s *BookmarkService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.store.Delete(ctx, id)
}

// List returns one page of bookmarks ordered by (sort date, id).
func (s *BookmarkService) List(ctx context.Context, req ListRequest) (*Page, error) {
	q := Query{
		Topics: NormalizeTopics(req.Topics),
		Limit:  NormalizeMaxResults(req.MaxResults),
	}
	if req.Cursor != "" {
		c, err := DecodeCursor(req.Cursor)
		if err != nil {
			return nil, err
		}
		q.After = &c
	}

	rows, err := s.store.Query(ctx, q)
	if err != nil {
		return nil, err
	}

	page := &Page{Bookmarks: rows}
	if len(rows) > 0 {
		page.NextCursor = CursorFor(rows[len(rows)-1]).Encode()
	}
	return page, nil
}

// AddNote appends a note and returns the refreshed bookmark.
func (s *BookmarkService) AddNote(ctx context.Context, id uuid.UUID, text, author string) (*Bookmark, error) {
	switch {
	case strings.TrimSpace(text) == "":
		return nil, fmt.Errorf("%w: note text is required", ErrInvalidBookmark)
	case strings.TrimSpace(author) == "":
		return nil, fmt.Errorf("%w: note author is required", ErrInvalidBookmark)
	case len(author) > MaxAuthorLength:
		return nil, fmt.Errorf("%w: note author longer than %d characters", ErrInvalidBookmark, MaxAuthorLength)
	}

	note := Note{
		ID:        uuid.New(),
		Text:      text,
		Author:    author,
		CreatedOn: s.now().UTC(),
	}
	if _, err := s.store.AppendNote(ctx, id, note); err != nil {
		return nil, err
	}
	return s.store.FindByID(ctx, id)
}

// Ping checks the underlying store.
func (s *BookmarkService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *BookmarkService) newBookmark(req CreateRequest) (*Bookmark, error) {
	for _, f := range []struct{ name, value string }{
		{"summary", req.Summary},
		{"url", req.URL},
		{"display_date", req.DisplayDate},
	} {
		if f.value == "" {
			return nil, fmt.Errorf("%w: missing required field '%s'", ErrInvalidBookmark, f.name)
		}
	}

	now := s.now().UTC()
	b := &Bookmark{
		ID:                uuid.New(),
		URL:               req.URL,
		Summary:           req.Summary,
		Status:            StatusNew,
		SubmitterID:       req.SubmitterID,
		Source:            req.Source,
		SourceItemID:      req.SourceItemID,
		SourceLastUpdated: req.SourceLastUpdated,
		CreatedOn:         now,
	}
	if req.ID != nil {
		b.ID = *req.ID
	}
	if req.Description != nil && *req.Description != "" {
		desc := *req.Description
		b.Description = &desc
	}
	if err := b.SetDisplayDate(req.DisplayDate); err != nil {
		return nil, err
	}

	if req.Status != "" {
		status := NormalizeStatus(req.Status)
		if err := AssertValidOriginalStatus(status); err != nil {
			return nil, err
		}
		b.Status = status
	}
	if b.Status == StatusSubmitted {
		b.SubmittedOn = &now
	}

	b.SetTopics(req.Topics)
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *BookmarkService) applyUpdate(b *Bookmark, req UpdateRequest) error {
	if req.URL != nil {
		b.URL = *req.URL
	}
	if req.Summary != nil {
		b.Summary = *req.Summary
	}
	if req.Description != nil {
		if *req.Description == "" {
			b.Description = nil
		} else {
			desc := *req.Description
			b.Description = &desc
		}
	}
	if req.DisplayDate != nil {
		if err := b.SetDisplayDate(*req.DisplayDate); err != nil {
			return err
		}
	}
	if req.Status != nil {
		if err := s.transition(b, NormalizeStatus(*req.Status)); err != nil {
			return err
		}
	}
	if req.Topics != nil {
		b.SetTopics(*req.Topics)
	}
	if req.SubmitterID != nil {
		b.SubmitterID = req.SubmitterID
	}
	if req.SourceLastUpdated != nil {
		b.SourceLastUpdated = req.SourceLastUpdated
	}
	return b.Validate()
}

// transition moves b to status, stamping SubmittedOn only the first time
// the bookmark becomes submitted.
func (s *BookmarkService) transition(b *Bookmark, to Status) error {
	if err := AssertValidTransition(b.Status, to); err != nil {
		return err
	}
	b.Status = to
	if to == StatusSubmitted && b.SubmittedOn == nil {
		now := s.now().UTC()
		b.SubmittedOn = &now
	}
	return nil
}

func (r UpdateRequest) checkRequired() error {
	for _, f := range []struct {
		name  string
		value *string
	}{
		{"url", r.URL},
		{"summary", r.Summary},
		{"display_date", r.DisplayDate},
		{"status", r.Status},
	} {
		if f.value != nil && strings.TrimSpace(*f.value) == "" {
			return fmt.Errorf("%w: cannot clear required field '%s'", ErrInvalidBookmark, f.name)
		}
	}
	return nil
}

func (r UpdateRequest) toCreate(id uuid.UUID) CreateRequest {
	req := CreateRequest{
		ID:                &id,
		Description:       r.Description,
		SubmitterID:       r.SubmitterID,
		SourceLastUpdated: r.SourceLastUpdated,
	}
	if r.URL != nil {
		req.URL = *r.URL
	}
	if r.Summary != nil {
		req.Summary = *r.Summary
	}
	if r.DisplayDate != nil {
		req.DisplayDate = *r.DisplayDate
	}
	if r.Status != nil {
		req.Status = *r.Status
	}
	if r.Topics != nil {
		req.Topics = *r.Topics
	}
	return req
}
