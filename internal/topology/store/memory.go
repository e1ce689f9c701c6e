package store

import (
	"context"
	"sync"

	"cord/internal/domain"
)

// MemoryStore is an in-memory RecordStore for tests and dry runs.
type MemoryStore struct {
	mu     sync.Mutex
	record *Record
}

// NewMemory creates an empty in-memory record store.
func NewMemory() *MemoryStore {
	return &MemoryStore{}
}

// Load returns a copy of the record, or (nil, nil) if nothing was saved.
func (s *MemoryStore) Load(_ context.Context) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.record == nil {
		return nil, nil
	}
	return s.snapshot(), nil
}

// SetCategoryID persists the canonical category id.
func (s *MemoryStore) SetCategoryID(_ context.Context, id domain.ChannelID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensure()
	s.record.CategoryID = id
	return nil
}

// SetChannelID persists the channel id for one logical key.
func (s *MemoryStore) SetChannelID(_ context.Context, key string, id domain.ChannelID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensure()
	s.record.Channels[key] = id
	return nil
}

func (s *MemoryStore) ensure() {
	if s.record == nil {
		s.record = NewRecord()
	}
}

func (s *MemoryStore) snapshot() *Record {
	out := NewRecord()
	out.CategoryID = s.record.CategoryID
	for k, v := range s.record.Channels {
		out.Channels[k] = v
	}
	return out
}

var _ RecordStore = (*MemoryStore)(nil)
