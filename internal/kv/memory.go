package kv

import (
	"context"
	"errors"
	"sync"
)

var (
	errQuota  = errors.New("quota exceeded")
	errClosed = errors.New("store closed")
)

// Memory is a mutex-guarded in-process Store. A positive quota caps the total
// size of keys and values in bytes; writes past it fail as storage unavailable.
type Memory struct {
	mu     sync.RWMutex
	data   map[string]string
	used   int
	quota  int
	closed bool
}

// NewMemory returns an empty store. quota <= 0 means unlimited.
func NewMemory(quota int) *Memory {
	return &Memory{data: make(map[string]string), quota: quota}
}

// Get implements Store.
func (m *Memory) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, Unavailable("get", key, err)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return "", false, Unavailable("get", key, errClosed)
	}
	v, ok := m.data[key]
	return v, ok, nil
}

// Set implements Store.
func (m *Memory) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return Unavailable("set", key, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return Unavailable("set", key, errClosed)
	}
	next := m.used + len(value)
	if old, ok := m.data[key]; ok {
		next -= len(old)
	} else {
		next += len(key)
	}
	if m.quota > 0 && next > m.quota {
		return Unavailable("set", key, errQuota)
	}
	m.data[key] = value
	m.used = next
	return nil
}

// Remove implements Store.
func (m *Memory) Remove(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return Unavailable("remove", key, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return Unavailable("remove", key, errClosed)
	}
	if old, ok := m.data[key]; ok {
		m.used -= len(key) + len(old)
		delete(m.data, key)
	}
	return nil
}

// Close implements Store. Later calls fail as storage unavailable.
func (m *Memory) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}

// Used returns the number of bytes currently held.
func (m *Memory) Used() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.used
}
