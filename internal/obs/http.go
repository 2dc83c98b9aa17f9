package obs

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// ScenarioHeader names the fixture scenario behind a browser request.
	ScenarioHeader = "X-Login-Scenario"
	// RequestIDHeader is echoed back on every response.
	RequestIDHeader = "X-Request-Id"
)

type statusWriter struct {
	http.ResponseWriter
	status int
	bytes  int64
}

func (w *statusWriter) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
		w.ResponseWriter.WriteHeader(code)
	}
}

func (w *statusWriter) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(p)
	w.bytes += int64(n)
	return n, err
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// RequestContextMiddleware stores the request ID and the suite's scenario tag
// in the request context. A caller-supplied X-Request-Id is kept.
func RequestContextMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(RequestIDHeader))
		if id == "" {
			id = "req-" + uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)

		ctx := WithFields(r.Context(), Fields{
			RequestID: id,
			Scenario:  r.Header.Get(ScenarioHeader),
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// AccessLogMiddleware emits one http_access event per request.
func AccessLogMiddleware(pkg string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w}
		next.ServeHTTP(sw, r)
		if sw.status == 0 {
			sw.status = http.StatusOK
		}

		From(r.Context()).With("pkg", pkg).Debug("http_access",
			"method", r.Method,
			"path", r.URL.Path,
			"status", sw.status,
			"dur_ms", float64(time.Since(start).Microseconds())/1000.0,
			"resp_bytes", sw.bytes,
		)
	})
}
