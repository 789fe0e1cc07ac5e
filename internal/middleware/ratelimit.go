package middleware

import (
	"log"
	"net"
	"net/http"
	"time"

	"github.com/zuai/sample-paper-api/internal/ratelimit"
)

// RateLimit returns middleware that gates the wrapped handler behind a
// sliding-window limit. The window is scoped to the route name and the
// client IP, so each protected endpoint declares its own budget. Runs
// before the handler body; a limiter store failure answers 500.
func RateLimit(limiter *ratelimit.Limiter, name string, limit int, window time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := name + ":" + clientIP(r)
			allowed, err := limiter.Allow(r.Context(), key, limit, window)
			if err != nil {
				log.Printf("rate limiter error: %v", err)
				http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
				return
			}
			if !allowed {
				http.Error(w, `{"error":"Too many requests. Try again later."}`, http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP strips the port from RemoteAddr. chi's RealIP middleware has
// already rewritten RemoteAddr from forwarding headers when present.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
