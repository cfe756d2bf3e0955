package deps

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/anansi/internal/domain"
	"github.com/MrSnakeDoc/anansi/internal/logger"
	"github.com/MrSnakeDoc/anansi/internal/metrics"
)

// Pinger checks an optional backend for /readyz.
type Pinger interface {
	PingCache(ctx context.Context) error
}

type Deps struct {
	Logger             logger.Logger
	StartTime          time.Time
	Version            string
	Commit             string
	BuildDate          string
	GoVersion          string
	TimeNow            func() time.Time         // for testing, defaults to time.Now
	AllowedHosts       []string                 // Host headers allowed to access the ops endpoints
	AllowedCIDRS       []string                 // IPs allowed to access healthz/readyz/metrics/import endpoints
	TrustProxy         bool                     // true if running behind a trusted reverse proxy (e.g., cloudflared)
	Bookmarks          *domain.BookmarkService  // bookmark rules on top of the record store
	Metrics            *metrics.Metrics         // nil disables /metrics and request metrics
	Cache              Pinger                   // Redis read cache (nil if disabled)
	ImportTrigger      func() bool              // triggers a YAML import (nil if import is disabled)
	DefaultPageSize    int                      // page size when the client sends no count; 0 means domain.DefaultMaxResults
	RateLimitBurst     int                      // write requests allowed in a burst per client IP
	RateLimitPerMinute int                      // write tokens refilled per client IP per minute
}
