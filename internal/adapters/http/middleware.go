package http

import (
	"net"
	"net/http"
	"sync"

	"github.com/dalton-cole/primeta/pkg/response"
	"golang.org/x/time/rate"
)

// ipThrottle is a per-client-IP token bucket guarding the AI endpoints.
type ipThrottle struct {
	mu      sync.Mutex
	buckets map[string]*rate.Limiter
	limit   rate.Limit
	burst   int
}

func newIPThrottle(perSecond float64, burst int) *ipThrottle {
	return &ipThrottle{
		buckets: make(map[string]*rate.Limiter),
		limit:   rate.Limit(perSecond),
		burst:   burst,
	}
}

func (t *ipThrottle) limiter(ip string) *rate.Limiter {
	t.mu.Lock()
	defer t.mu.Unlock()
	l, ok := t.buckets[ip]
	if !ok {
		l = rate.NewLimiter(t.limit, t.burst)
		t.buckets[ip] = l
	}
	return l
}

// Middleware rejects requests exceeding the per-IP budget with 429.
func (t *ipThrottle) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}
		if !t.limiter(ip).Allow() {
			response.ErrorResponse(w, http.StatusTooManyRequests, "Too many requests. Please slow down.")
			return
		}
		next.ServeHTTP(w, r)
	})
}
