package services

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	LoginAttemptLimit = 5
	AdminRequestLimit = 50
	RateLimitWindow   = 15 * time.Minute

	maxTrackedClients = 10000
)

// RateDecision is the outcome of one Allow call.
type RateDecision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration
}

type rateWindow struct {
	start time.Time
	count int
}

// RateLimiter is a fixed-window counter per key (client address).
type RateLimiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	now     func() time.Time
	windows *expirable.LRU[string, *rateWindow]
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:   limit,
		window:  window,
		now:     time.Now,
		windows: expirable.NewLRU[string, *rateWindow](maxTrackedClients, nil, window),
	}
}

// WithClock replaces the limiter's time source.
func (l *RateLimiter) WithClock(now func() time.Time) *RateLimiter {
	l.now = now
	return l
}

// Allow counts an attempt for key and reports whether it is within the limit.
func (l *RateLimiter) Allow(key string) RateDecision {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.windows.Get(key)
	if !ok || now.Sub(w.start) >= l.window {
		w = &rateWindow{start: now}
		l.windows.Add(key, w)
	}
	w.count++

	d := RateDecision{Limit: l.limit, ResetAt: w.start.Add(l.window)}
	if w.count > l.limit {
		d.RetryAfter = d.ResetAt.Sub(now)
		return d
	}
	d.Allowed = true
	d.Remaining = l.limit - w.count
	return d
}
