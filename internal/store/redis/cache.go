package redis

import (
	"context"
	"fmt"
)

// FlushCache removes every cached bookmark, provenance and version key. Used after a
// bulk import or migration so readers never see stale rows.
func (s *CachedStore) FlushCache(ctx context.Context) (int, error) {
	removed := 0
	for _, prefix := range []string{KeyPrefixBookmark, KeyPrefixSource, KeyPrefixVersion} {
		iter := s.client.Scan(ctx, 0, prefix+"*", 0).Iterator()
		for iter.Next(ctx) {
			if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
				return removed, fmt.Errorf("failed to delete cache key: %w", err)
			}
			removed++
		}
		if err := iter.Err(); err != nil {
			return removed, fmt.Errorf("failed to flush cache: %w", err)
		}
	}
	return removed, nil
}

// PingCache checks the Redis connection backing the cache.
func (s *CachedStore) PingCache(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
