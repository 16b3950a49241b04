package storage

import (
	"context"
	"sync"
)

// Memory keeps values in process memory. A positive quota bounds the summed
// length of keys and values, the way browser storage rejects oversized writes.
type Memory struct {
	mu     sync.RWMutex
	values map[string]string
	quota  int
}

// NewMemory returns an empty store. quota <= 0 disables the limit.
func NewMemory(quota int) *Memory {
	return &Memory{values: make(map[string]string), quota: quota}
}

func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *Memory) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.quota > 0 {
		size := len(key) + len(value)
		for k, v := range m.values {
			if k != key {
				size += len(k) + len(v)
			}
		}
		if size > m.quota {
			return ErrQuotaExceeded
		}
	}

	m.values[key] = value
	return nil
}

func (m *Memory) Close() error { return nil }

var _ Store = (*Memory)(nil)
