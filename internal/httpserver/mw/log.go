package mw

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/MrSnakeDoc/anansi/internal/logger"
)

// statusWriter captures status code and bytes written.
type statusWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

// code is the status sent to the client; handlers that write nothing get 200.
func (w *statusWriter) code() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

// routePattern is the matched chi pattern, or "" when nothing matched.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		return rctx.RoutePattern()
	}
	return ""
}

// pollRoutes are hit by orchestrators and scrapers; successful hits log at debug.
var pollRoutes = map[string]bool{"/healthz": true, "/readyz": true, "/metrics": true}

// Log returns a middleware that logs one "http_request" line per request.
// Server errors log at error, client errors at warn, health and scrape hits at debug.
func Log(log logger.Logger, trustProxy bool) func(http.Handler) http.Handler {
	log = orNop(log).Named("http")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &statusWriter{ResponseWriter: w}

			next.ServeHTTP(ww, r)

			route := routePattern(r)
			status := ww.code()
			entry := log.With(
				logger.RequestID(middleware.GetReqID(r.Context())),
				logger.String("method", r.Method),
				logger.String("route", route),
			)
			fields := []logger.Field{
				logger.String("path", r.URL.Path),
				logger.Int("status", status),
				logger.Int("bytes", ww.bytes),
				logger.Duration("duration", time.Since(start)),
				logger.String("client", clientKey(r, trustProxy)),
				logger.String("user_agent", r.UserAgent()),
			}

			switch {
			case status >= http.StatusInternalServerError:
				entry.Error("http_request", fields...)
			case status >= http.StatusBadRequest:
				entry.Warn("http_request", fields...)
			case pollRoutes[route]:
				entry.Debug("http_request", fields...)
			default:
				entry.Info("http_request", fields...)
			}
		})
	}
}
