package router

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/handlers"
)

// responseWriter wraps http.ResponseWriter to capture status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// requestIDHeader carries the request ID; an incoming value is kept.
const requestIDHeader = "X-Request-ID"

// loggingMiddleware tags each request with an ID and logs it at debug level, and failed
// requests at warn.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := r.Header.Get(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, requestID)
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		attrs := []any{
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapped.statusCode,
			"remote_addr", r.RemoteAddr,
			"duration", time.Since(start),
		}
		if wrapped.statusCode >= http.StatusInternalServerError {
			slog.Warn("HTTP request failed", attrs...)
			return
		}
		slog.Debug("HTTP request", attrs...)
	})
}

// metricsMiddleware tracks HTTP request metrics.
func metricsMiddleware(recorder handlers.MetricsRecorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if recorder == nil {
				next.ServeHTTP(w, r)
				return
			}

			// Skip metrics endpoints to avoid recursion
			if r.URL.Path == "/api/v1/services/metrics" || r.URL.Path == "/health" {
				next.ServeHTTP(w, r)
				return
			}

			recorder.RecordReceived()
			start := time.Now()

			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(wrapped, r)

			if wrapped.statusCode >= 400 {
				recorder.RecordError()
			} else {
				recorder.RecordProcessed(time.Since(start))
			}

			recorder.IncrementCustom("http_" + r.Method)
		})
	}
}
