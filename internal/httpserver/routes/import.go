package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/anansi/internal/httpserver/deps"
	"github.com/MrSnakeDoc/anansi/internal/httpserver/handlers"
)

func init() {
	Register("import", registerImport,
		OnlyIf(func(d deps.Deps) bool { return d.ImportTrigger != nil }),
		With(cidrGuard, hostGuard))
}

func registerImport(r chi.Router, d deps.Deps) {
	r.Post("/import", handlers.Import(d))
}
