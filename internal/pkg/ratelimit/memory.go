package ratelimit

import (
	"context"
	"sync"
	"time"

	"go.uber.org/atomic"

	"github.com/productivefire/server/internal/pkg/clock"
)

// Memory is a single-process fixed-window Limiter.
type Memory struct {
	rule  Rule
	clock clock.Clocker

	mu      sync.Mutex
	windows map[string]*window

	allowed  atomic.Int64
	rejected atomic.Int64
}

type window struct {
	start time.Time
	count int
}

// NewMemory returns a Memory limiter for rule.
func NewMemory(rule Rule, c clock.Clocker) (*Memory, error) {
	if err := rule.validate(); err != nil {
		return nil, err
	}

	return &Memory{rule: rule, clock: c, windows: make(map[string]*window)}, nil
}

// Allow counts one request for key.
func (m *Memory) Allow(_ context.Context, key string) (Result, error) {
	now := m.clock.Now()

	m.mu.Lock()
	w, ok := m.windows[key]
	if !ok || !now.Before(w.start.Add(m.rule.Window)) {
		w = &window{start: now}
		m.windows[key] = w
	}
	w.count++
	count := w.count
	reset := w.start.Add(m.rule.Window).Sub(now)
	m.mu.Unlock()

	res := Result{
		Allowed:    count <= m.rule.Limit,
		Limit:      m.rule.Limit,
		Remaining:  max(m.rule.Limit-count, 0),
		RetryAfter: reset,
	}
	if res.Allowed {
		m.allowed.Inc()
	} else {
		m.rejected.Inc()
	}

	return res, nil
}

// Sweep drops windows that ended before now. It returns how many were dropped.
func (m *Memory) Sweep(_ context.Context) (int, error) {
	now := m.clock.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for k, w := range m.windows {
		if !now.Before(w.start.Add(m.rule.Window)) {
			delete(m.windows, k)
			n++
		}
	}

	return n, nil
}

// Stats returns how many requests were allowed and rejected so far.
func (m *Memory) Stats() (allowed, rejected int64) {
	return m.allowed.Load(), m.rejected.Load()
}
