package ratelimit

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// MemoryLimiter is an in-process sliding-window Limiter.
type MemoryLimiter struct {
	mu      sync.Mutex
	buckets map[string][]time.Time
	log     *slog.Logger
	now     func() time.Time
}

var _ Limiter = (*MemoryLimiter)(nil)

func NewMemoryLimiter(log *slog.Logger) *MemoryLimiter {
	if log == nil {
		log = slog.Default()
	}

	return &MemoryLimiter{
		buckets: make(map[string][]time.Time),
		log:     log,
		now:     time.Now,
	}
}

// Check enforces a sliding-window limit for key.
func (m *MemoryLimiter) Check(_ context.Context, key string, limit int, window time.Duration) (*Result, error) {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	hits := keepRecent(m.buckets[key], now.Add(-window))

	resetAt := now.Add(window)
	if len(hits) > 0 {
		resetAt = hits[0].Add(window)
	}

	if len(hits) >= limit {
		m.store(key, hits)
		return &Result{Allowed: false, Remaining: 0, ResetAt: resetAt}, ErrLimitExceeded
	}

	hits = append(hits, now)
	m.store(key, hits)

	return &Result{Allowed: true, Remaining: limit - len(hits), ResetAt: resetAt}, nil
}

func (m *MemoryLimiter) store(key string, hits []time.Time) {
	if len(hits) == 0 {
		delete(m.buckets, key)
		return
	}
	m.buckets[key] = hits
}

func keepRecent(hits []time.Time, windowStart time.Time) []time.Time {
	first := 0
	for first < len(hits) && !hits[first].After(windowStart) {
		first++
	}

	if first == 0 {
		return hits
	}

	copy(hits, hits[first:])
	return hits[:len(hits)-first]
}
