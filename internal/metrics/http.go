package metrics

import (
	"net/http"
	"regexp"
	"strconv"
	"time"
)

// HTTPMiddleware wraps an HTTP handler to collect metrics: request
// count, duration, request size, and the in-flight gauge.
//
// Usage:
//
//	handler := metrics.HTTPMiddleware(m, http.HandlerFunc(myHandler))
//	http.Handle("/api/", handler)
func HTTPMiddleware(m *Metrics, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		m.HTTPRequestsInFlight.Inc()
		defer m.HTTPRequestsInFlight.Dec()

		wrapped := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK, // Default to 200
		}

		next.ServeHTTP(wrapped, r)

		size := r.ContentLength
		if size < 0 {
			size = 0
		}
		m.RecordHTTP(r.Method, r.URL.Path, wrapped.statusCode, time.Since(start).Seconds(), size)
	})
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func (w *responseWriter) WriteHeader(code int) {
	if !w.written {
		w.statusCode = code
		w.written = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *responseWriter) Write(b []byte) (int, error) {
	if !w.written {
		w.WriteHeader(w.statusCode)
	}
	return w.ResponseWriter.Write(b)
}

// Flush implements http.Flusher when the underlying writer supports it.
func (w *responseWriter) Flush() {
	if flusher, ok := w.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

// pathPatterns collapse parameterized routes so label cardinality stays
// bounded.
var pathPatterns = []struct {
	re   *regexp.Regexp
	repl string
}{
	{regexp.MustCompile(`^/api/annotations/[^/]+$`), "/api/annotations/{annotator}"},
	{regexp.MustCompile(`^/static/.+`), "/static/{path}"},
}

// normalizePath maps a request path to its route shape for metric
// labels. Paths that match no known route collapse to "/other".
func normalizePath(path string) string {
	switch path {
	case "/", "/health", "/metrics":
		return path
	case "/api/config", "/api/problems", "/api/standards",
		"/api/annotations", "/api/annotate", "/api/metrics":
		return path
	}

	for _, p := range pathPatterns {
		if p.re.MatchString(path) {
			return p.re.ReplaceAllString(path, p.repl)
		}
	}
	return "/other"
}

// statusCode converts an HTTP status code to a metric label. Uncommon
// codes are grouped by class to reduce cardinality.
func statusCode(code int) string {
	switch code {
	case 200:
		return "200"
	case 201:
		return "201"
	case 204:
		return "204"
	case 400:
		return "400"
	case 401:
		return "401"
	case 403:
		return "403"
	case 404:
		return "404"
	case 405:
		return "405"
	case 500:
		return "500"
	case 502:
		return "502"
	case 503:
		return "503"
	}

	switch {
	case code >= 100 && code < 200:
		return "1xx"
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500 && code < 600:
		return "5xx"
	}
	return strconv.Itoa(code)
}
