package middleware

import (
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const bucketTTL = 5 * time.Minute

// RateLimiter applies a token bucket per client IP. Buckets idle for five
// minutes are evicted by a background sweep; Close stops the sweeper. A
// non-positive rate disables limiting and the middleware passes through.
type RateLimiter struct {
	perSecond int
	burst     int

	mu      sync.Mutex
	buckets map[string]*bucket
	stop    chan struct{}
	once    sync.Once
}

type bucket struct {
	lim *rate.Limiter
	ts  time.Time
}

func NewRateLimiter(perSecond, burst int) *RateLimiter {
	l := &RateLimiter{
		perSecond: perSecond,
		burst:     burst,
		buckets:   make(map[string]*bucket),
		stop:      make(chan struct{}),
	}
	if perSecond > 0 {
		go l.sweep()
	}
	return l
}

func (l *RateLimiter) Close() {
	l.once.Do(func() { close(l.stop) })
}

func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	if l.perSecond <= 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.allow(GetClientIP(r)) {
			w.Header().Set("Retry-After", "1")
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (l *RateLimiter) allow(ip string) bool {
	if ip == "" {
		ip = "unknown"
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.buckets[ip]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(rate.Limit(l.perSecond), l.burst)}
		l.buckets[ip] = b
	}
	b.ts = time.Now()
	return b.lim.Allow()
}

func (l *RateLimiter) sweep() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			l.evictIdle(time.Now())
		}
	}
}

func (l *RateLimiter) evictIdle(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for ip, b := range l.buckets {
		if now.Sub(b.ts) > bucketTTL {
			delete(l.buckets, ip)
		}
	}
}
