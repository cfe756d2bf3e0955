package mw

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/MrSnakeDoc/anansi/internal/httpserver/respond"
	"github.com/MrSnakeDoc/anansi/internal/logger"
	"github.com/MrSnakeDoc/anansi/internal/metrics"
)

// Rejection reasons, used as the metrics label.
const (
	ReasonRateLimited = "rate_limited"
	ReasonIPDenied    = "ip_denied"
	ReasonHostDenied  = "host_denied"
)

// Guard restricts the operational endpoints (healthz, readyz, metrics,
// import) by client network and Host header.
type Guard struct {
	AllowedCIDRS []string
	AllowedHosts []string
	TrustProxy   bool // resolve the client from proxy headers
	Logger       logger.Logger
	Metrics      *metrics.Metrics
}

func passthrough(next http.Handler) http.Handler { return next }

// AllowOnlyCIDRS admits only clients inside AllowedCIDRS. An empty list
// admits everyone; a list where nothing parses admits no one.
func (g Guard) AllowOnlyCIDRS() func(http.Handler) http.Handler {
	log := orNop(g.Logger)
	if len(g.AllowedCIDRS) == 0 {
		log.Debug("no allowed networks configured, ops routes are open")
		return passthrough
	}
	set := parsePrefixes(g.AllowedCIDRS, log)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			addr := clientAddr(r, g.TrustProxy)
			if !set.contains(addr) {
				reject(w, r, log, g.Metrics, ReasonIPDenied,
					fmt.Errorf("%w: client %s outside allowed networks", respond.ErrForbidden, addr))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// EnforceHost admits only requests whose Host (port ignored) matches one of
// AllowedHosts. Patterns like "*.example.com" match any subdomain. An empty
// list admits everyone.
func (g Guard) EnforceHost() func(http.Handler) http.Handler {
	log := orNop(g.Logger)
	if len(g.AllowedHosts) == 0 {
		return passthrough
	}
	patterns := make([]string, 0, len(g.AllowedHosts))
	for _, h := range g.AllowedHosts {
		patterns = append(patterns, hostOnly(h))
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			host := hostOnly(r.Host)
			for _, p := range patterns {
				if matchHost(host, p) {
					next.ServeHTTP(w, r)
					return
				}
			}
			reject(w, r, log, g.Metrics, ReasonHostDenied,
				fmt.Errorf("%w: host %q not allowed", respond.ErrForbidden, host))
		})
	}
}

// matchHost reports whether host equals pattern, or sits below it when
// pattern is a "*." wildcard.
func matchHost(host, pattern string) bool {
	if host == pattern {
		return true
	}
	if suffix, ok := strings.CutPrefix(pattern, "*"); ok && strings.HasPrefix(suffix, ".") {
		return strings.HasSuffix(host, suffix)
	}
	return false
}

// reject counts the rejection and answers with the API error body.
func reject(w http.ResponseWriter, r *http.Request, log logger.Logger, m *metrics.Metrics, reason string, err error) {
	m.Reject(reason)
	log.Debug("request rejected",
		logger.String("reason", reason),
		logger.String("path", r.URL.Path),
		logger.RequestID(middleware.GetReqID(r.Context())),
		logger.Error(err))
	respond.Error(w, log, err)
}

func orNop(log logger.Logger) logger.Logger {
	if log == nil {
		return logger.NewNop()
	}
	return log
}
