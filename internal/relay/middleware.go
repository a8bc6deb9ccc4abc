package relay

import (
	"net/http"
	"strconv"
	"time"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// instrument counts requests per route and status and times them
func (s *Server) instrument(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		s.deps.Metrics.Inc("http_requests_total", "route", route, "code", strconv.Itoa(rec.status))
		s.deps.Metrics.Since("http_"+route, start)
		s.deps.Logger.Debug("Request served",
			"route", route,
			"status", rec.status,
			"duration", time.Since(start))
	})
}

// rateLimit rejects clients over their window with 429 and Retry-After
func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := ClientIP(r)
		ok, retryAfter := s.deps.Limiter.Allow(ip)
		if !ok {
			s.deps.Metrics.Inc("ratelimit_rejections_total")
			w.Header().Set("Retry-After", retryAfterSeconds(retryAfter))
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}
