package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter hands out one token bucket per key (client address, series id).
// Buckets idle for longer than the configured ttl are pruned lazily.
type Limiter struct {
	mu     sync.Mutex
	m      map[string]*entry
	limit  rate.Limit
	burst  int
	ttl    time.Duration
	now    func() time.Time
	lastGC time.Time
}

type entry struct {
	lim  *rate.Limiter
	seen time.Time
}

// New creates a limiter allowing perSec events per key with the given burst.
func New(perSec float64, burst int) *Limiter {
	if burst < 1 {
		burst = 1
	}
	return &Limiter{
		m:     make(map[string]*entry),
		limit: rate.Limit(perSec),
		burst: burst,
		ttl:   10 * time.Minute,
		now:   time.Now,
	}
}

// Allow returns true if one token can be consumed for key.
func (l *Limiter) Allow(key string) bool {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.m[key]
	if !ok {
		e = &entry{lim: rate.NewLimiter(l.limit, l.burst)}
		l.m[key] = e
	}
	e.seen = now
	if now.Sub(l.lastGC) > l.ttl {
		l.gc(now)
	}
	return e.lim.AllowN(now, 1)
}

// Len returns the number of tracked keys.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.m)
}

func (l *Limiter) gc(now time.Time) {
	for k, e := range l.m {
		if now.Sub(e.seen) > l.ttl {
			delete(l.m, k)
		}
	}
	l.lastGC = now
}
