package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/anansi/internal/httpserver/deps"
	"github.com/MrSnakeDoc/anansi/internal/httpserver/respond"
	"github.com/MrSnakeDoc/anansi/internal/logger"
)

const readyzTimeout = 2 * time.Second

type componentStatus struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

type readyzResponse struct {
	Ready      bool                       `json:"ready"`
	Components map[string]componentStatus `json:"components"`
}

// Readyz reports 200 when the record store answers. The cache is reported
// but never makes the service unready, since reads fall back to the store.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readyzTimeout)
		defer cancel()

		resp := readyzResponse{Ready: true, Components: map[string]componentStatus{}}

		store := componentStatus{OK: true}
		if err := d.Bookmarks.Ping(ctx); err != nil {
			d.Logger.Warn("readyz: store ping failed", logger.Error(err))
			store = componentStatus{OK: false, Error: err.Error()}
			resp.Ready = false
		}
		resp.Components["store"] = store

		if d.Cache != nil {
			cache := componentStatus{OK: true}
			if err := d.Cache.PingCache(ctx); err != nil {
				d.Logger.Warn("readyz: cache ping failed", logger.Error(err))
				cache = componentStatus{OK: false, Error: err.Error()}
			}
			resp.Components["cache"] = cache
		}

		status := http.StatusOK
		if !resp.Ready {
			status = http.StatusServiceUnavailable
		}
		w.Header().Set("Cache-Control", "no-store")
		respond.JSON(w, d.Logger, status, resp)
	}
}
