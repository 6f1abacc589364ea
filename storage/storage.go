package storage

import (
	"context"
	"errors"
	"maps"
	"sync"
)

// ErrNotFound is returned by Load when no document exists under the key.
var ErrNotFound = errors.New("document not found")

// Store persists opaque JSON documents by key. Keys are slash-separated
// paths such as "users/42/schedule.json".
type Store interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
}

// Memory is an in-process Store used by tests and local runs.
type Memory struct {
	mu   sync.RWMutex
	docs map[string][]byte
	err  error
}

func NewMemory(docs map[string][]byte) *Memory {
	m := &Memory{docs: make(map[string][]byte, len(docs))}
	maps.Copy(m.docs, docs)
	return m
}

// NewMemoryWithError returns a store whose every call fails with err.
func NewMemoryWithError(err error) *Memory {
	return &Memory{docs: map[string][]byte{}, err: err}
}

func (m *Memory) Load(_ context.Context, key string) ([]byte, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.docs[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

func (m *Memory) Save(_ context.Context, key string, data []byte) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.docs[key] = append([]byte(nil), data...)
	return nil
}
