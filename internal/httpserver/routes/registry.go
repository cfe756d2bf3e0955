package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/anansi/internal/httpserver/deps"
	"github.com/MrSnakeDoc/anansi/internal/httpserver/mw"
)

type (
	// Registrar mounts one group of routes.
	Registrar  func(r chi.Router, d deps.Deps)
	Middleware = func(http.Handler) http.Handler
	// MiddlewareFactory builds a middleware from the server dependencies.
	MiddlewareFactory func(d deps.Deps) Middleware
	// Option customizes a registered group.
	Option func(*group)
)

type group struct {
	name    string
	reg     Registrar
	enabled func(deps.Deps) bool
	mws     []MiddlewareFactory
}

var registry []group

// OnlyIf mounts the group only when enabled reports true, e.g. when the
// optional component it exposes is configured.
func OnlyIf(enabled func(deps.Deps) bool) Option {
	return func(g *group) { g.enabled = enabled }
}

// With wraps every route of the group in the built middlewares.
func With(mws ...MiddlewareFactory) Option {
	return func(g *group) { g.mws = append(g.mws, mws...) }
}

// Register adds a named route group. Names must be unique.
func Register(name string, reg Registrar, opts ...Option) {
	for _, g := range registry {
		if g.name == name {
			panic("routes: duplicate registration of " + name)
		}
	}
	g := group{name: name, reg: reg}
	for _, opt := range opts {
		opt(&g)
	}
	registry = append(registry, g)
}

// RegisterAll mounts every enabled group on r and returns their names in
// mount order. Called once from server.NewRouter().
func RegisterAll(r chi.Router, d deps.Deps) []string {
	mounted := make([]string, 0, len(registry))
	for _, g := range registry {
		if g.enabled != nil && !g.enabled(d) {
			continue
		}
		sub := r
		if len(g.mws) > 0 {
			mws := make([]Middleware, 0, len(g.mws))
			for _, build := range g.mws {
				mws = append(mws, build(d))
			}
			sub = r.With(mws...)
		}
		g.reg(sub, d)
		mounted = append(mounted, g.name)
	}
	return mounted
}

// guard describes the access rules for the operational endpoints.
func guard(d deps.Deps) mw.Guard {
	return mw.Guard{
		AllowedCIDRS: d.AllowedCIDRS,
		AllowedHosts: d.AllowedHosts,
		TrustProxy:   d.TrustProxy,
		Logger:       d.Logger,
		Metrics:      d.Metrics,
	}
}

func cidrGuard(d deps.Deps) Middleware { return guard(d).AllowOnlyCIDRS() }
func hostGuard(d deps.Deps) Middleware { return guard(d).EnforceHost() }
