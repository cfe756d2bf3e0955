package handlers

import (
	"fmt"
	"net/http"

	"github.com/MrSnakeDoc/anansi/internal/httpserver/deps"
	"github.com/MrSnakeDoc/anansi/internal/httpserver/respond"
	"github.com/MrSnakeDoc/anansi/internal/logger"
)

type importResponse struct {
	Status string `json:"status"`
}

// Import queues a run of the bookmarks file importer. Only one run can be
// pending at a time.
func Import(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !d.ImportTrigger() {
			d.Logger.Warn("bookmark import already pending", logger.String("remote_ip", r.RemoteAddr))
			respond.Error(w, d.Logger, fmt.Errorf("%w: import already pending", respond.ErrTooManyRequests))
			return
		}

		d.Logger.Info("manual bookmark import triggered via endpoint", logger.String("remote_ip", r.RemoteAddr))
		respond.JSON(w, d.Logger, http.StatusAccepted, importResponse{Status: "import triggered"})
	}
}
