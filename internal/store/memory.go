package store

import (
	"context"
	"sync"
)

// MemoryStore keeps a store's encoded content in memory.
//
// Every Set bumps a version. ClearDirty only clears the flag when the
// version has not moved since the last Serialize, so edits made while a
// save is in flight stay dirty.
type MemoryStore struct {
	mu         sync.Mutex
	name       string
	data       []byte
	dirty      bool
	version    uint64
	serialized uint64
}

// NewMemoryStore returns a clean store holding data.
func NewMemoryStore(name string, data []byte) *MemoryStore {
	return &MemoryStore{
		name: name,
		data: append([]byte(nil), data...),
	}
}

// Name implements Adapter.
func (s *MemoryStore) Name() string {
	return s.name
}

// Set replaces the content and marks the store dirty.
func (s *MemoryStore) Set(data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = append([]byte(nil), data...)
	s.version++
	s.dirty = true
}

// Bytes returns a copy of the current content.
func (s *MemoryStore) Bytes() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.data...)
}

// Serialize implements Adapter.
func (s *MemoryStore) Serialize(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.serialized = s.version
	return append([]byte(nil), s.data...), nil
}

// IsDirty implements Adapter.
func (s *MemoryStore) IsDirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// ClearDirty implements Adapter.
func (s *MemoryStore) ClearDirty() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.version == s.serialized {
		s.dirty = false
	}
}
