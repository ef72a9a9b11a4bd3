package idempotency

import (
	"context"
	"sync"
	"time"

	"github.com/productivefire/server/internal/pkg/clock"
)

// Memory is a single-process Store.
type Memory struct {
	mu      sync.Mutex
	clock   clock.Clocker
	entries map[string]memoryEntry
}

type memoryEntry struct {
	state     State
	expiresAt time.Time
}

// NewMemory returns an empty Store.
func NewMemory(c clock.Clocker) *Memory {
	return &Memory{clock: c, entries: make(map[string]memoryEntry)}
}

func (s *Memory) Acquire(_ context.Context, key string, lock time.Duration) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	if e, ok := s.entries[key]; ok && now.Before(e.expiresAt) {
		return e.state, nil
	}

	s.entries[key] = memoryEntry{state: StateInProgress, expiresAt: now.Add(lock)}

	return StateNone, nil
}

func (s *Memory) MarkCompleted(_ context.Context, key string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = memoryEntry{state: StateCompleted, expiresAt: s.clock.Now().Add(ttl)}

	return nil
}

func (s *Memory) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, key)

	return nil
}
