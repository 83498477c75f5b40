package memorylimiter

import (
	"fmt"
	"sync"
	"time"
)

// Limit defines window and max count for a bucket.
type Limit struct {
	Limit  int
	Window time.Duration
}

// Limiter is an in-memory sliding-window rate limiter, the single-node
// fallback used when Redis is not configured.
type Limiter struct {
	mu      sync.Mutex
	limits  map[string]Limit
	buckets map[string][]int64 // request times in Unix ms, newest last
}

// New constructs an in-memory limiter with the provided per-bucket limits.
// A "default" entry applies to buckets without their own limit.
func New(limits map[string]Limit) *Limiter {
	if limits == nil {
		limits = map[string]Limit{}
	}
	return &Limiter{limits: limits, buckets: make(map[string][]int64)}
}

func (l *Limiter) limitFor(bucket string) Limit {
	if v, ok := l.limits[bucket]; ok {
		return v
	}
	if v, ok := l.limits["default"]; ok {
		return v
	}
	return Limit{Limit: 100, Window: time.Minute}
}

// AllowNamed reports whether key may perform another request in bucket.
// Expired entries are pruned on each call; empty buckets are removed so the
// map cannot grow without bound.
func (l *Limiter) AllowNamed(bucket, key string) (bool, error) {
	if l == nil {
		return true, nil
	}
	if bucket == "" || key == "" {
		return false, fmt.Errorf("bucket and key required")
	}

	lim := l.limitFor(bucket)
	nowMs := time.Now().UnixMilli()
	windowStart := nowMs - lim.Window.Milliseconds()
	mapKey := key + ":" + bucket

	l.mu.Lock()
	defer l.mu.Unlock()

	ts := l.buckets[mapKey]
	keep := 0
	for keep < len(ts) && ts[keep] < windowStart {
		keep++
	}
	ts = ts[keep:]

	if len(ts) >= lim.Limit {
		// Deny without recording the attempt.
		if len(ts) == 0 {
			delete(l.buckets, mapKey)
		} else {
			l.buckets[mapKey] = ts
		}
		return false, nil
	}

	l.buckets[mapKey] = append(ts, nowMs)
	return true, nil
}
