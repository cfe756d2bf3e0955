package redis

import (
	"github.com/google/uuid"
)

const (
	// KeyPrefixBookmark is the prefix for cached bookmark records
	KeyPrefixBookmark = "anansi:bookmark:"
	// KeyPrefixSource is the prefix for provenance -> bookmark id lookups
	KeyPrefixSource = "anansi:source:"
	// KeyPrefixVersion is the prefix for per-bookmark write counters
	KeyPrefixVersion = "anansi:version:"
)

// BookmarkKey returns the Redis key for a bookmark by ID
func BookmarkKey(id uuid.UUID) string {
	return KeyPrefixBookmark + id.String()
}

// SourceKey returns the Redis key holding the bookmark id imported as (source, itemID)
func SourceKey(source, itemID string) string {
	return KeyPrefixSource + source + ":" + itemID
}

// VersionKey returns the key bumped on every write to the bookmark. Cache
// fills WATCH it so a fill racing a write is discarded.
func VersionKey(id uuid.UUID) string {
	return KeyPrefixVersion + id.String()
}
