package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Middleware returns HTTP middleware for request metrics.
func Middleware(next http.Handler) http.Handler {
	if !enabled {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Wrap response writer to capture status code
		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}

		defer func() {
			duration := time.Since(start).Seconds()

			path := normalizePath(r.URL.Path)

			httpRequestsTotal.WithLabelValues(
				r.Method,
				path,
				strconv.Itoa(rw.status),
			).Inc()

			httpDuration.WithLabelValues(
				r.Method,
				path,
			).Observe(duration)
		}()

		next.ServeHTTP(rw, r)
	})
}

// responseWriter wraps http.ResponseWriter to capture status code.
type responseWriter struct {
	http.ResponseWriter
	status int
}

// WriteHeader captures status code.
func (rw *responseWriter) WriteHeader(status int) {
	rw.status = status
	rw.ResponseWriter.WriteHeader(status)
}

// normalizePath replaces the network segment with a placeholder so that
// unknown names requested by clients cannot grow label cardinality:
//
//	/api/v1/networks/baseSepolia          -> /api/v1/networks/{name}
//	/api/v1/networks/baseSepolia/explorer -> /api/v1/networks/{name}/explorer
func normalizePath(path string) string {
	const prefix = "/api/v1/networks/"
	if !strings.HasPrefix(path, prefix) {
		return path
	}

	parts := strings.Split(strings.Trim(path[len(prefix):], "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		return path
	}
	parts[0] = "{name}"
	return prefix + strings.Join(parts, "/")
}
