package middleware

import (
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"staff-portal/internal/logging"
	"staff-portal/internal/metrics"
)

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

// Flush keeps server-sent event streams working through the wrapper.
func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (rw *responseWriter) Unwrap() http.ResponseWriter { return rw.ResponseWriter }

// Instrument records request counts and latency under name and logs the outcome.
func Instrument(reg *metrics.Registry, name string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next(rw, r)
		elapsed := time.Since(start)

		if reg != nil {
			reg.HTTPRequests.WithLabelValues(name, r.Method, strconv.Itoa(rw.status)).Inc()
			reg.HTTPDuration.WithLabelValues(name, r.Method).Observe(elapsed.Seconds())
		}

		log := logging.FromContext(r.Context(), nil)
		fields := []zap.Field{
			zap.String("handler", name),
			zap.String("method", r.Method),
			zap.Int("status", rw.status),
			zap.Duration("duration", elapsed),
		}
		switch {
		case rw.status >= 500:
			log.Error("request failed", fields...)
		case rw.status >= 400:
			log.Warn("request rejected", fields...)
		default:
			log.Debug("request served", fields...)
		}
	}
}
