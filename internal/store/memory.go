package store

import (
	"context"
	"sync"
	"time"
)

// MemoryBackend is a concurrency-safe in-process backend. Data is lost on restart.
type MemoryBackend struct {
	mu sync.RWMutex

	data      []byte
	expiresAt time.Time
}

// NewMemoryBackend creates an empty MemoryBackend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{}
}

// Save replaces the stored blob.
func (m *MemoryBackend) Save(_ context.Context, data []byte, expiresAt time.Time) error {
	buf := make([]byte, len(data))
	copy(buf, data)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.data = buf
	m.expiresAt = expiresAt
	return nil
}

// Load returns a copy of the stored blob.
func (m *MemoryBackend) Load(_ context.Context) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.data == nil {
		return nil, ErrNotFound
	}
	out := make([]byte, len(m.data))
	copy(out, m.data)
	return out, nil
}

func (m *MemoryBackend) Close() error { return nil }
