// internal/common/ratelimit/memory.go
package ratelimit

import (
	"context"
	"sync"
	"time"
)

type window struct {
	count   int
	resetAt time.Time
}

// MemoryLimiter keeps counters in process. Limits are not shared between
// replicas; use RedisLimiter when running more than one instance.
type MemoryLimiter struct {
	policy Policy
	now    func() time.Time

	mu       sync.Mutex
	windows  map[string]*window
	sweeping bool

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

type MemoryOption func(*MemoryLimiter)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *MemoryLimiter) { m.now = now }
}

func NewMemoryLimiter(policy Policy, opts ...MemoryOption) *MemoryLimiter {
	m := &MemoryLimiter{
		policy:  policy,
		now:     time.Now,
		windows: make(map[string]*window),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *MemoryLimiter) Check(_ context.Context, key string) (Result, error) {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	w, ok := m.windows[key]
	if !ok || !now.Before(w.resetAt) {
		w = &window{resetAt: now.Add(m.policy.Window)}
		m.windows[key] = w
	}
	w.count++

	return newResult(m.policy, w.count, w.resetAt), nil
}

// Sweep drops expired windows and returns how many were removed.
func (m *MemoryLimiter) Sweep() int {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for key, w := range m.windows {
		if !now.Before(w.resetAt) {
			delete(m.windows, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked identifiers.
func (m *MemoryLimiter) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.windows)
}

// StartSweeper runs Sweep every interval until Stop is called.
func (m *MemoryLimiter) StartSweeper(interval time.Duration) {
	m.mu.Lock()
	if m.sweeping {
		m.mu.Unlock()
		return
	}
	m.sweeping = true
	m.mu.Unlock()

	go func() {
		defer close(m.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.Sweep()
			case <-m.stop:
				return
			}
		}
	}()
}

// Stop ends the sweeper and waits for it to exit.
func (m *MemoryLimiter) Stop() {
	m.stopOnce.Do(func() { close(m.stop) })

	m.mu.Lock()
	sweeping := m.sweeping
	m.mu.Unlock()
	if sweeping {
		<-m.done
	}
}
