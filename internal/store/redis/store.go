package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/anansi/internal/domain"
	"github.com/MrSnakeDoc/anansi/internal/logger"
)

// DefaultCacheTTL is the default TTL for cached bookmarks (1 hour)
const DefaultCacheTTL = time.Hour

// CachedStore is a read-through cache in front of another domain.Store.
// Single-bookmark reads are served from Redis. Writes go to the wrapped
// store first, then bump the bookmark's version key and drop its cached
// entry. Fills WATCH the version key, so a fill that raced a write is
// discarded instead of caching the old row.
// Cache failures are logged and never fail the call.
type CachedStore struct {
	next   domain.Store
	client *redis.Client
	log    logger.Logger
	ttl    time.Duration
}

// NewCachedStore wraps next with a Redis cache. A non-positive ttl uses DefaultCacheTTL.
func NewCachedStore(next domain.Store, client *redis.Client, log logger.Logger, ttl time.Duration) *CachedStore {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedStore{
		next:   next,
		client: client,
		log:    log,
		ttl:    ttl,
	}
}

// Insert writes through to the wrapped store. The row is cached on first read.
func (s *CachedStore) Insert(ctx context.Context, b *domain.Bookmark) (*domain.Bookmark, error) {
	return s.next.Insert(ctx, b)
}

// FindByID serves from cache, falling back to the wrapped store on a miss.
func (s *CachedStore) FindByID(ctx context.Context, id uuid.UUID) (*domain.Bookmark, error) {
	if b, ok := s.load(ctx, id); ok {
		return b, nil
	}

	var (
		b       *domain.Bookmark
		readErr error
		read    bool
	)
	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		b, readErr = s.next.FindByID(ctx, id)
		read = true
		if readErr != nil {
			return nil
		}
		data, err := json.Marshal(b)
		if err != nil {
			return fmt.Errorf("failed to marshal bookmark %s: %w", id, err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, BookmarkKey(id), data, s.ttl)
			return nil
		})
		return err
	}, VersionKey(id))

	switch {
	case errors.Is(err, redis.TxFailedErr):
		s.log.Debug("bookmark cache fill discarded after concurrent write", logger.BookmarkID(id))
	case err != nil:
		s.warn("fill", err)
	}

	if !read {
		return s.next.FindByID(ctx, id)
	}
	if readErr != nil {
		return nil, readErr
	}
	return b, nil
}

// FindBySource resolves the provenance key to an id through the cache when
// possible. The mapping is checked against the bookmark it points at, so a
// stale mapping only costs a store read.
func (s *CachedStore) FindBySource(ctx context.Context, source, itemID string) (*domain.Bookmark, error) {
	raw, err := s.client.Get(ctx, SourceKey(source, itemID)).Result()
	switch {
	case err == nil:
		if id, perr := uuid.Parse(raw); perr == nil {
			b, ferr := s.FindByID(ctx, id)
			if ferr == nil && sameSource(b, source, itemID) {
				return b, nil
			}
			if ferr != nil && !errors.Is(ferr, domain.ErrRecordNotFound) {
				return nil, ferr
			}
		}
	case !errors.Is(err, redis.Nil):
		s.warn("source lookup", err)
	}

	b, err := s.next.FindBySource(ctx, source, itemID)
	if err != nil {
		return nil, err
	}
	if err := s.client.Set(ctx, SourceKey(source, itemID), b.ID.String(), s.ttl).Err(); err != nil {
		s.warn("source set", err)
	}
	return b, nil
}

// Update writes through and drops the cached entry.
func (s *CachedStore) Update(ctx context.Context, id uuid.UUID, mutate func(*domain.Bookmark) error) (*domain.Bookmark, error) {
	b, err := s.next.Update(ctx, id, mutate)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, id)
	return b, nil
}

// Delete removes the bookmark from the wrapped store, then from the cache.
func (s *CachedStore) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.next.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	return nil
}

// Query always hits the wrapped store and never fills the cache.
func (s *CachedStore) Query(ctx context.Context, q domain.Query) ([]*domain.Bookmark, error) {
	return s.next.Query(ctx, q)
}

// AppendNote writes through and drops the cached entry so the next read
// picks up the new note.
func (s *CachedStore) AppendNote(ctx context.Context, bookmarkID uuid.UUID, note domain.Note) (*domain.Note, error) {
	n, err := s.next.AppendNote(ctx, bookmarkID, note)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, bookmarkID)
	return n, nil
}

// Ping checks the wrapped store only; the cache is optional.
func (s *CachedStore) Ping(ctx context.Context) error {
	return s.next.Ping(ctx)
}

func (s *CachedStore) load(ctx context.Context, id uuid.UUID) (*domain.Bookmark, bool) {
	data, err := s.client.Get(ctx, BookmarkKey(id)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.warn("get", err)
		}
		return nil, false
	}

	var b domain.Bookmark
	if err := json.Unmarshal(data, &b); err != nil {
		s.warn("unmarshal", err)
		return nil, false
	}
	return &b, true
}

// invalidate bumps the version first so in-flight fills abort, then drops the entry.
func (s *CachedStore) invalidate(ctx context.Context, id uuid.UUID) {
	pipe := s.client.TxPipeline()
	pipe.Incr(ctx, VersionKey(id))
	pipe.Expire(ctx, VersionKey(id), s.ttl)
	pipe.Del(ctx, BookmarkKey(id))
	if _, err := pipe.Exec(ctx); err != nil {
		s.warn("invalidate", err)
	}
}

func (s *CachedStore) warn(op string, err error) {
	s.log.Warn("bookmark cache "+op+" failed", logger.Error(err))
}

func sameSource(b *domain.Bookmark, source, itemID string) bool {
	return b.Source != nil && b.SourceItemID != nil &&
		*b.Source == source && *b.SourceItemID == itemID
}
