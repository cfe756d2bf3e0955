package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/anansi/internal/httpserver/deps"
)

func init() {
	Register("metrics", registerMetrics,
		OnlyIf(func(d deps.Deps) bool { return d.Metrics != nil }),
		With(cidrGuard))
}

func registerMetrics(r chi.Router, d deps.Deps) {
	r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())
}
