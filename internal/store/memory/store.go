package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/MrSnakeDoc/anansi/internal/domain"
)

// Store keeps bookmarks in process memory. It implements domain.Store and
// is used for local development and tests; contents are lost on restart.
type Store struct {
	mu        sync.RWMutex
	bookmarks map[uuid.UUID]*domain.Bookmark // ID -> Bookmark
	sources   map[sourceKey]uuid.UUID        // provenance -> ID
}

type sourceKey struct {
	source string
	itemID string
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		bookmarks: make(map[uuid.UUID]*domain.Bookmark),
		sources:   make(map[sourceKey]uuid.UUID),
	}
}

// Insert stores a copy of b.
func (s *Store) Insert(_ context.Context, b *domain.Bookmark) (*domain.Bookmark, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.bookmarks[b.ID]; exists {
		return nil, fmt.Errorf("%w: bookmark %s already exists", domain.ErrDuplicateRecord, b.ID)
	}
	if key, ok := keyOf(b); ok {
		if _, exists := s.sources[key]; exists {
			return nil, fmt.Errorf("%w: source %s/%s already imported", domain.ErrDuplicateRecord, key.source, key.itemID)
		}
		s.sources[key] = b.ID
	}

	stored := clone(b)
	s.bookmarks[b.ID] = stored
	return clone(stored), nil
}

// FindByID returns a copy of the bookmark with id.
func (s *Store) FindByID(_ context.Context, id uuid.UUID) (*domain.Bookmark, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.bookmarks[id]
	if !ok {
		return nil, fmt.Errorf("%w: bookmark %s", domain.ErrRecordNotFound, id)
	}
	return clone(b), nil
}

// FindBySource returns a copy of the bookmark imported as (source, itemID).
func (s *Store) FindBySource(_ context.Context, source, itemID string) (*domain.Bookmark, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.sources[sourceKey{source: source, itemID: itemID}]
	if !ok {
		return nil, fmt.Errorf("%w: source %s/%s", domain.ErrRecordNotFound, source, itemID)
	}
	return clone(s.bookmarks[id]), nil
}

// Update applies mutate to a copy and swaps it in only on success.
func (s *Store) Update(_ context.Context, id uuid.UUID, mutate func(*domain.Bookmark) error) (*domain.Bookmark, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.bookmarks[id]
	if !ok {
		return nil, fmt.Errorf("%w: bookmark %s", domain.ErrRecordNotFound, id)
	}

	next := clone(current)
	if err := mutate(next); err != nil {
		return nil, err
	}
	// Identity and creation stamp are immutable.
	next.ID = current.ID
	next.CreatedOn = current.CreatedOn
	next.Notes = current.Notes

	s.bookmarks[id] = next
	return clone(next), nil
}

// Delete removes the bookmark with its topics and notes.
func (s *Store) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bookmarks[id]
	if !ok {
		return nil
	}
	if key, ok := keyOf(b); ok {
		delete(s.sources, key)
	}
	delete(s.bookmarks, id)
	return nil
}

// Query scans all bookmarks; fine for the sizes this store is meant for.
func (s *Store) Query(_ context.Context, q domain.Query) ([]*domain.Bookmark, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]*domain.Bookmark, 0, len(s.bookmarks))
	for _, b := range s.bookmarks {
		if q.Matches(b) {
			matched = append(matched, b)
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !a.SortDate.Equal(b.SortDate) {
			return a.SortDate.Before(b.SortDate)
		}
		return domain.CompareIDs(a.ID, b.ID) < 0
	})

	limit := domain.NormalizeMaxResults(q.Limit)
	if len(matched) > limit {
		matched = matched[:limit]
	}

	out := make([]*domain.Bookmark, 0, len(matched))
	for _, b := range matched {
		out = append(out, clone(b))
	}
	return out, nil
}

// AppendNote adds note to the bookmark's notes.
func (s *Store) AppendNote(_ context.Context, bookmarkID uuid.UUID, note domain.Note) (*domain.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bookmarks[bookmarkID]
	if !ok {
		return nil, fmt.Errorf("%w: bookmark %s", domain.ErrRecordNotFound, bookmarkID)
	}
	next := clone(b)
	next.Notes = append(next.Notes, note)
	sort.SliceStable(next.Notes, func(i, j int) bool {
		return next.Notes[i].CreatedOn.Before(next.Notes[j].CreatedOn)
	})
	s.bookmarks[bookmarkID] = next
	return &note, nil
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// Count returns the number of stored bookmarks.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.bookmarks)
}

func keyOf(b *domain.Bookmark) (sourceKey, bool) {
	if b.Source == nil || b.SourceItemID == nil {
		return sourceKey{}, false
	}
	return sourceKey{source: *b.Source, itemID: *b.SourceItemID}, true
}

// clone copies b deeply enough that callers can never alias stored state.
func clone(b *domain.Bookmark) *domain.Bookmark {
	c := *b
	c.Topics = append([]string(nil), b.Topics...)
	c.Notes = append([]domain.Note(nil), b.Notes...)
	c.Description = cloneString(b.Description)
	c.SubmitterID = cloneString(b.SubmitterID)
	c.Source = cloneString(b.Source)
	c.SourceItemID = cloneString(b.SourceItemID)
	if b.SubmittedOn != nil {
		t := *b.SubmittedOn
		c.SubmittedOn = &t
	}
	if b.SourceLastUpdated != nil {
		t := *b.SourceLastUpdated
		c.SourceLastUpdated = &t
	}
	return &c
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
