package middleware

import (
	"net/http"
	"strconv"

	"github.com/phrazzld/bizops-api/internal/api/shared"
	"golang.org/x/time/rate"
)

// RateLimit admits requests through a token bucket refilled at rps tokens per
// second holding at most burst tokens. Requests that find the bucket empty get
// 429 Too Many Requests. The limit is shared by all callers of the wrapped
// handler.
func RateLimit(rps float64, burst int) func(http.Handler) http.Handler {
	limiter := rate.NewLimiter(rate.Limit(rps), burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(rps)))
				shared.RespondWithErrorAndLog(w, r, http.StatusTooManyRequests, "Too many requests", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func retryAfterSeconds(rps float64) int {
	if rps <= 0 || rps >= 1 {
		return 1
	}
	return int(1/rps + 0.5)
}
