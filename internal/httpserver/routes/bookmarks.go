package routes

import (
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/anansi/internal/httpserver/deps"
	"github.com/MrSnakeDoc/anansi/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/anansi/internal/httpserver/mw"
)

// bookmarkPrefixes lists the mount points of the bookmark API. The
// versioned path and the bare one serve the same handlers.
var bookmarkPrefixes = []string{"/api/v1/bookmarks", "/bookmarks"}

func init() { Register("bookmarks", registerBookmarks) }

func registerBookmarks(r chi.Router, d deps.Deps) {
	// One limiter shared by every write route and prefix.
	limitWrites := mw.RateLimit(mw.RateLimitConfig{
		Burst:             d.RateLimitBurst,
		RefillPerIPPerMin: d.RateLimitPerMinute,
		MaxEntries:        10000,
		SweepInterval:     time.Minute,
		IdleTTL:           15 * time.Minute,
		TrustProxy:        d.TrustProxy,
		Logger:            d.Logger,
		Metrics:           d.Metrics,
	})

	for _, prefix := range bookmarkPrefixes {
		r.Route(prefix, func(r chi.Router) {
			r.Get("/", handlers.ListBookmarks(d))
			r.Get("/{id}", handlers.GetBookmark(d))

			r.Group(func(r chi.Router) {
				r.Use(limitWrites)
				r.Post("/", handlers.CreateBookmark(d))
				r.Put("/{id}", handlers.PutBookmark(d))
				r.Delete("/{id}", handlers.DeleteBookmark(d))
				r.Post("/{id}/notes", handlers.AddNote(d))
			})
		})
	}
}
