package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/HammerMeetNail/birthdaysurprise/internal/logging"
)

// fixedWindowScript increments the counter and starts its window on first hit.
var fixedWindowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
	redis.call("EXPIRE", KEYS[1], ARGV[1])
end
return current
`)

// RateLimiter is a fixed-window limiter backed by Redis.
type RateLimiter struct {
	redis  redis.Scripter
	limit  int64
	window time.Duration
	prefix string
	keyFn  func(r *http.Request) string
	// failOpen lets requests through when Redis is unavailable.
	failOpen bool
}

func NewRateLimiter(client redis.Scripter, limit int64, window time.Duration, prefix string, keyFn func(r *http.Request) string, failOpen bool) *RateLimiter {
	if keyFn == nil {
		keyFn = GetClientIP
	}
	return &RateLimiter{
		redis:    client,
		limit:    limit,
		window:   window,
		prefix:   prefix,
		keyFn:    keyFn,
		failOpen: failOpen,
	}
}

func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rl.redis == nil || rl.limit <= 0 {
			next.ServeHTTP(w, r)
			return
		}

		keySuffix := rl.keyFn(r)
		if keySuffix == "" {
			keySuffix = GetClientIP(r)
		}
		key := rl.prefix + keySuffix

		count, err := fixedWindowScript.Run(r.Context(), rl.redis, []string{key}, int64(rl.window.Seconds())).Int64()
		if err != nil {
			logging.Error("Rate limit Redis error", map[string]interface{}{
				"key":   key,
				"error": err.Error(),
			})
			if rl.failOpen {
				next.ServeHTTP(w, r)
				return
			}
			writeError(w, http.StatusServiceUnavailable, "Rate limiting temporarily unavailable")
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(rl.limit, 10))
		if count > rl.limit {
			w.Header().Set("Retry-After", strconv.Itoa(int(rl.window.Seconds())))
			writeError(w, http.StatusTooManyRequests, "Too many messages, please try again later")
			return
		}
		w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(rl.limit-count, 10))

		next.ServeHTTP(w, r)
	})
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// GetClientIP returns the first X-Forwarded-For hop, then X-Real-IP, then the
// remote address host.
func GetClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
