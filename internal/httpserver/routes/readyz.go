package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/anansi/internal/httpserver/deps"
	"github.com/MrSnakeDoc/anansi/internal/httpserver/handlers"
)

func init() { Register("readyz", registerReadyz, With(cidrGuard)) }

func registerReadyz(r chi.Router, d deps.Deps) {
	r.Get("/readyz", handlers.Readyz(d))
}
