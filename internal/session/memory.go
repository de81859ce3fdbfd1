package session

import (
	"context"
	"sync"
	"time"
)

// MemoryBackend keeps slots in process memory. Contents are lost on restart.
type MemoryBackend struct {
	mu      sync.RWMutex
	entries map[string]map[Slot]Entry
}

// NewMemoryBackend creates an empty MemoryBackend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{entries: make(map[string]map[Slot]Entry)}
}

func (b *MemoryBackend) Get(_ context.Context, key string, slot Slot, now time.Time) (string, bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	e, ok := b.entries[key][slot]
	if !ok || !now.Before(e.ExpiresAt) {
		return "", false, nil
	}
	return e.Value, true, nil
}

func (b *MemoryBackend) Put(_ context.Context, e Entry) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	slots, ok := b.entries[e.Key]
	if !ok {
		slots = make(map[Slot]Entry)
		b.entries[e.Key] = slots
	}
	slots[e.Slot] = e
	return nil
}

func (b *MemoryBackend) Delete(_ context.Context, key string, slots ...Slot) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, slot := range slots {
		delete(b.entries[key], slot)
	}
	if len(b.entries[key]) == 0 {
		delete(b.entries, key)
	}
	return nil
}

func (b *MemoryBackend) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var n int64
	for key, slots := range b.entries {
		for slot, e := range slots {
			if !now.Before(e.ExpiresAt) {
				delete(slots, slot)
				n++
			}
		}
		if len(slots) == 0 {
			delete(b.entries, key)
		}
	}
	return n, nil
}

// Len returns the number of stored slots, expired or not.
func (b *MemoryBackend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	n := 0
	for _, slots := range b.entries {
		n += len(slots)
	}
	return n
}
