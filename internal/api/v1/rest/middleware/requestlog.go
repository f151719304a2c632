package middleware

import (
	"net/http"
	"time"

	"catchall-api/internal/metrics"

	"github.com/rs/zerolog"
)

// Type statusWriter redefines http.ResponseWriter remembering the written status.
type statusWriter struct {
	http.ResponseWriter
	status int
}

// WriteHeader method redefines default http.ResponseWriter WriteHeader method.
func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// RequestLogHandle logs every handled request and feeds the request counters.
func RequestLogHandle(logger *zerolog.Logger, mtr *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)
			duration := time.Since(start)

			mtr.IncrementRequest(r.Method, ww.status)
			mtr.RecordLatency(r.Method, duration.Seconds())

			logger.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.status).
				Dur("duration", duration).
				Str("remote", r.RemoteAddr).
				Msg("HTTP: request handled")
		})
	}
}
