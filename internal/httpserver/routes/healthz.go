package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/anansi/internal/httpserver/deps"
	"github.com/MrSnakeDoc/anansi/internal/httpserver/handlers"
)

func init() { Register("healthz", registerHealthz, With(cidrGuard)) }

func registerHealthz(r chi.Router, d deps.Deps) {
	r.Get("/healthz", handlers.Healthz(d))
}
