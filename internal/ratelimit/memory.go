package ratelimit

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Memory is a process-local Limiter. State is lost on restart and is not
// shared between instances; use DynamoLimiter when running more than one.
type Memory struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu      sync.Mutex
	records map[string]*record
}

type record struct {
	count       int
	windowStart time.Time
}

// NewMemory creates a Memory limiter. A nil now uses time.Now.
func NewMemory(limit int, window time.Duration, now func() time.Time) *Memory {
	if now == nil {
		now = time.Now
	}
	return &Memory{
		limit:   limit,
		window:  window,
		now:     now,
		records: make(map[string]*record),
	}
}

var _ Limiter = (*Memory)(nil)

// Allow records a request for key. It never returns an error.
func (m *Memory) Allow(_ context.Context, key string) (Decision, error) {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[key]
	if !ok {
		m.records[key] = &record{count: 1, windowStart: now}
		return Decision{Count: 1}, nil
	}

	if now.Sub(rec.windowStart) > m.window {
		rec.count = 1
		rec.windowStart = now
		return Decision{Count: 1}, nil
	}

	if rec.count >= m.limit {
		return Decision{
			Limited:    true,
			Count:      rec.count,
			RetryAfter: rec.windowStart.Add(m.window).Sub(now),
		}, nil
	}

	rec.count++
	return Decision{Count: rec.count}, nil
}

// Sweep drops records whose window has elapsed and returns how many were
// removed. A swept key behaves exactly like an expired one on its next request.
func (m *Memory) Sweep() int {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for key, rec := range m.records {
		if now.Sub(rec.windowStart) > m.window {
			delete(m.records, key)
			removed++
		}
	}
	return removed
}

// Run sweeps every interval until ctx is done.
func (m *Memory) Run(ctx context.Context, every time.Duration) error {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := m.Sweep(); n > 0 {
				slog.Debug("rate limit records swept", "removed", n)
			}
		}
	}
}
