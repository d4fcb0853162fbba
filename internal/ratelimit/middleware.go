package ratelimit

import (
	"encoding/json"
	"net/http"
	"strconv"
)

// IdentityFunc extracts an authenticated user id from a request.
// Returning "" falls back to network-address identity.
type IdentityFunc func(*http.Request) string

// Middleware enforces the category's limit per client, keyed by the
// request path. Limit metadata headers are set on every response so
// clients can self-throttle; rejections get 429 with Retry-After.
func Middleware(l *Limiter, cat Category, identity IdentityFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rc := RequestContext{
				NetworkAddress:  r.RemoteAddr,
				ForwardedHeader: r.Header.Get("X-Forwarded-For"),
			}
			if identity != nil {
				rc.Identity = identity(r)
			}

			d := l.Allow(r.Context(), r.URL.Path, rc.ClientKey(), cat)

			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
			h.Set("X-RateLimit-Window", strconv.Itoa(int(d.Window.Seconds())))
			h.Set("X-RateLimit-Reset", strconv.Itoa(int(d.RetryAfter.Seconds())))

			if !d.Allowed {
				retry := int(d.RetryAfter.Seconds())
				if retry < 1 {
					retry = 1
				}
				h.Set("Retry-After", strconv.Itoa(retry))
				h.Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				json.NewEncoder(w).Encode(map[string]any{
					"error":       "rate limit exceeded",
					"limit":       d.Limit,
					"remaining":   0,
					"retry_after": retry,
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
