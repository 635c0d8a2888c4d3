package api

import (
	"net"
	"net/http"
	"time"

	"github.com/fd1az/rangebet/internal/apperror"
	"github.com/fd1az/rangebet/internal/logger"
	"github.com/fd1az/rangebet/internal/ratelimit"
)

// rateLimit rejects clients that exceed their per-address token bucket.
func rateLimit(limiter *ratelimit.Keyed) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow(r.Context(), clientIP(r)) {
				writeError(w, r, apperror.New(apperror.CodeRateLimitExceeded, apperror.WithContext(clientIP(r))))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// accessLog logs each request at debug, server errors at error.
func accessLog(log logger.LoggerInterface) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			args := []any{"method", r.Method, "path", r.URL.Path, "status", rec.status, "duration_ms", time.Since(start).Milliseconds()}
			if rec.status >= http.StatusInternalServerError {
				log.Error(r.Context(), "request failed", args...)
				return
			}
			log.Debug(r.Context(), "request served", args...)
		})
	}
}
