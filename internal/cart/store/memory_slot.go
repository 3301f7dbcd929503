package store

import (
	"context"
	"sync"
)

var _ Slot = (*MemorySlot)(nil)

// MemorySlot keeps values in process memory. Values do not survive a restart.
type MemorySlot struct {
	mu     sync.RWMutex
	values map[string][]byte
	writes int
}

// NewMemorySlot creates an empty MemorySlot.
func NewMemorySlot() *MemorySlot {
	return &MemorySlot{values: make(map[string][]byte)}
}

func (s *MemorySlot) Read(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	if !ok {
		return nil, ErrSlotEmpty
	}
	return append([]byte(nil), v...), nil
}

func (s *MemorySlot) Write(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = append([]byte(nil), value...)
	s.writes++
	return nil
}

// Writes reports how many writes the slot has accepted.
func (s *MemorySlot) Writes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writes
}
