package handlers

import (
	"net/http"
	"time"

	"github.com/MrSnakeDoc/anansi/internal/httpserver/deps"
	"github.com/MrSnakeDoc/anansi/internal/httpserver/respond"
)

type buildInfo struct {
	Version   string `json:"version,omitempty"`
	Commit    string `json:"commit,omitempty"`
	BuildDate string `json:"build_date,omitempty"`
	GoVersion string `json:"go_version,omitempty"`
}

// features reports which optional components this process runs with.
type features struct {
	Cache   bool `json:"cache"`
	Import  bool `json:"import"`
	Metrics bool `json:"metrics"`
}

type healthzResponse struct {
	Status        string    `json:"status"`
	UptimeSeconds float64   `json:"uptime_seconds"`
	Build         buildInfo `json:"build"`
	Features      features  `json:"features"`
}

// Healthz is the liveness check. It never touches the store; see Readyz.
func Healthz(d deps.Deps) http.HandlerFunc {
	now := d.TimeNow
	if now == nil {
		now = time.Now
	}
	build := buildInfo{Version: d.Version, Commit: d.Commit, BuildDate: d.BuildDate, GoVersion: d.GoVersion}
	enabled := features{Cache: d.Cache != nil, Import: d.ImportTrigger != nil, Metrics: d.Metrics != nil}

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		respond.JSON(w, d.Logger, http.StatusOK, healthzResponse{
			Status:        "ok",
			UptimeSeconds: now().Sub(d.StartTime).Seconds(),
			Build:         build,
			Features:      enabled,
		})
	}
}
