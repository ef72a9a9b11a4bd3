package router

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/productivefire/server/internal/pkg/goerror"
	"github.com/productivefire/server/internal/pkg/ratelimit"
)

// RateLimit limits requests per client IP. A limiter failure lets the request
// through so a Redis outage does not take the API down.
func RateLimit(l ratelimit.Limiter, msg string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res, err := l.Allow(r.Context(), ClientIP(r))
			if err != nil {
				slog.WarnContext(r.Context(), "rate limiter unavailable", "error", err)
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("RateLimit-Limit", strconv.Itoa(res.Limit))
			w.Header().Set("RateLimit-Remaining", strconv.Itoa(res.Remaining))

			if !res.Allowed {
				slog.WarnContext(r.Context(), "rate limit exceeded", "ip", ClientIP(r), "path", matchedRoutePath(r))
				writeError(r.Context(), w, goerror.NewTooManyRequest(msg, res.RetryAfter))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
