package repo

import (
	"context"
	"sync"
)

// MemoryBlobs is a process-local BlobStore. Fail, when set, is returned from
// every write so callers can exercise persistence failures.
type MemoryBlobs struct {
	mu   sync.Mutex
	data map[string]string
	Fail error
}

func NewMemoryBlobs() *MemoryBlobs {
	return &MemoryBlobs{data: map[string]string{}}
}

func (m *MemoryBlobs) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (m *MemoryBlobs) Put(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return m.Fail
	}
	if m.data == nil {
		m.data = map[string]string{}
	}
	m.data[key] = value
	return nil
}

func (m *MemoryBlobs) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return m.Fail
	}
	delete(m.data, key)
	return nil
}

// Keys lists stored keys in no particular order.
func (m *MemoryBlobs) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	return keys
}
