package ratelimit

import (
	"strings"
	"sync"
	"time"
)

// Limiter decides whether the caller identified by key may proceed.
type Limiter interface {
	Allow(key string) bool
}

// Clock provides current time.
type Clock interface {
	Now() time.Time
}

// RealClock is the wall clock.
type RealClock struct{}

// Now returns current time.
func (RealClock) Now() time.Time { return time.Now() }

// NopLimiter allows everything.
type NopLimiter struct{}

// Allow always returns true
func (NopLimiter) Allow(string) bool { return true }

// Quota is a token bucket refill rate (tokens per second) and capacity.
type Quota struct {
	Rate  float64
	Burst int
}

func (q Quota) normalized() Quota {
	if q.Rate <= 0 {
		q.Rate = 1
	}
	if q.Burst <= 0 {
		q.Burst = 1
	}
	return q
}

// Config stores Buckets settings.
//
// Keys have the form "<class>:<id>"; Classes overrides Default per class,
// e.g. a larger quota for "driver" keys that stream location updates.
type Config struct {
	Default Quota
	Classes map[string]Quota
	IdleTTL time.Duration // 0 keeps idle buckets forever
	MaxKeys int           // 0 is unbounded
}

// Buckets is a per-key token bucket limiter.
// Once MaxKeys buckets exist, unseen keys are denied until idle ones are swept.
type Buckets struct {
	cfg   Config
	clock Clock

	mu        sync.Mutex
	buckets   map[string]*bucket
	lastSweep time.Time
}

type bucket struct {
	quota  Quota
	tokens float64
	seen   time.Time
}

// NewBuckets creates the limiter. A nil clock means the wall clock.
func NewBuckets(clock Clock, cfg Config) *Buckets {
	if clock == nil {
		clock = RealClock{}
	}
	cfg.Default = cfg.Default.normalized()
	classes := make(map[string]Quota, len(cfg.Classes))
	for name, q := range cfg.Classes {
		classes[name] = q.normalized()
	}
	cfg.Classes = classes
	if cfg.MaxKeys < 0 {
		cfg.MaxKeys = 0
	}
	return &Buckets{
		cfg:     cfg,
		clock:   clock,
		buckets: make(map[string]*bucket),
	}
}

// Allow takes one token from the bucket of key.
func (l *Buckets) Allow(key string) bool {
	now := l.clock.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.sweep(now)

	b, ok := l.buckets[key]
	if !ok {
		if l.cfg.MaxKeys > 0 && len(l.buckets) >= l.cfg.MaxKeys {
			return false
		}
		q := l.quotaFor(key)
		b = &bucket{quota: q, tokens: float64(q.Burst), seen: now}
		l.buckets[key] = b
	}
	return b.take(now)
}

func (l *Buckets) quotaFor(key string) Quota {
	class, _, found := strings.Cut(key, ":")
	if !found {
		return l.cfg.Default
	}
	if q, ok := l.cfg.Classes[class]; ok {
		return q
	}
	return l.cfg.Default
}

func (b *bucket) take(now time.Time) bool {
	if dt := now.Sub(b.seen); dt > 0 {
		b.tokens = min(b.tokens+dt.Seconds()*b.quota.Rate, float64(b.quota.Burst))
	}
	b.seen = now
	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// sweep drops buckets idle for longer than IdleTTL, at most once per max(IdleTTL/2, 1m).
// A dropped bucket was full anyway, so forgetting it changes no decision.
func (l *Buckets) sweep(now time.Time) {
	if l.cfg.IdleTTL <= 0 {
		return
	}
	every := max(l.cfg.IdleTTL/2, time.Minute)
	if !l.lastSweep.IsZero() && now.Sub(l.lastSweep) < every {
		return
	}
	l.lastSweep = now
	for k, b := range l.buckets {
		if now.Sub(b.seen) > l.cfg.IdleTTL {
			delete(l.buckets, k)
		}
	}
}

// Len returns the number of live buckets.
func (l *Buckets) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}
