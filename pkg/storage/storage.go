// Package storage provides the durable key-value backends the document store
// persists into.
package storage

import (
	"errors"
	"sync"
)

// ErrQuotaExceeded is returned by Set when the write would exceed the
// backend's capacity.
var ErrQuotaExceeded = errors.New("storage quota exceeded")

// IsQuotaExceeded reports whether err is a capacity failure.
func IsQuotaExceeded(err error) bool {
	return errors.Is(err, ErrQuotaExceeded)
}

// Backend is a durable string key-value store.
type Backend interface {
	// Get returns the value under key and whether it exists.
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Delete(key string) error
	Close() error
}

// MemoryBackend keeps values in a map. A non-zero quota caps the total number
// of value bytes held.
type MemoryBackend struct {
	mu     sync.Mutex
	values map[string]string
	quota  int64
}

// NewMemoryBackend creates an empty in-memory backend. A quota of zero means
// unlimited.
func NewMemoryBackend(quota int64) *MemoryBackend {
	return &MemoryBackend{
		values: make(map[string]string),
		quota:  quota,
	}
}

func (m *MemoryBackend) Get(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryBackend) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.quota > 0 {
		var used int64
		for k, v := range m.values {
			if k != key {
				used += int64(len(v))
			}
		}
		if used+int64(len(value)) > m.quota {
			return ErrQuotaExceeded
		}
	}
	m.values[key] = value
	return nil
}

func (m *MemoryBackend) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

func (m *MemoryBackend) Close() error {
	return nil
}
