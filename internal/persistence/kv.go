// Package persistence saves and restores the social graph through a
// key-value backend.
package persistence

import (
	"context"
	"errors"
	"sync"
)

// ErrKeyNotFound is returned by KV.Get when the key has never been written or
// was deleted.
var ErrKeyNotFound = errors.New("persistence: key not found")

// KV is the minimal contract a storage backend has to meet.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	// Write applies every set and delete in b as one unit.
	Write(ctx context.Context, b *Batch) error
	Close() error
}

// Batch collects writes that must land together.
type Batch struct {
	Sets    map[string][]byte
	Deletes []string
}

func NewBatch() *Batch {
	return &Batch{Sets: make(map[string][]byte)}
}

func (b *Batch) Set(key string, value []byte) {
	b.Sets[key] = value
}

func (b *Batch) Delete(key string) {
	delete(b.Sets, key)
	b.Deletes = append(b.Deletes, key)
}

// MemoryKV keeps values in process memory. State is lost on exit.
type MemoryKV struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string][]byte)}
}

func (m *MemoryKV) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, ErrKeyNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *MemoryKV) Write(ctx context.Context, b *Batch) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range b.Deletes {
		delete(m.data, k)
	}
	for k, v := range b.Sets {
		m.data[k] = append([]byte(nil), v...)
	}
	return nil
}

func (m *MemoryKV) Close() error { return nil }
