package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/taxadvisor/internal/adapters/driven/storage/vecmath"
	"github.com/custodia-labs/taxadvisor/internal/core/domain"
	"github.com/custodia-labs/taxadvisor/internal/core/ports/driven"
)

// Ensure VectorStore implements the interface.
var _ driven.VectorStore = (*VectorStore)(nil)

// VectorStore is an in-memory implementation of driven.VectorStore.
// Nearest is a linear scan. Contents are lost when the process exits.
type VectorStore struct {
	mu       sync.RWMutex
	entries  map[string]domain.IndexEntry
	metadata *domain.IndexMetadata
}

// NewVectorStore creates a new in-memory vector store.
func NewVectorStore() *VectorStore {
	return &VectorStore{
		entries: make(map[string]domain.IndexEntry),
	}
}

// Upsert stores entries, replacing any with the same key.
func (s *VectorStore) Upsert(_ context.Context, entries []domain.IndexEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range entries {
		e.Vector = append([]float32(nil), e.Vector...)
		s.entries[e.Key] = e
	}
	return nil
}

// Nearest returns the k entries most similar to vector.
func (s *VectorStore) Nearest(_ context.Context, vector []float32, k int) ([]domain.ScoredEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]domain.IndexEntry, 0, len(s.entries))
	for _, e := range s.entries {
		all = append(all, e)
	}
	return vecmath.TopK(vector, all, k), nil
}

// DeleteSource removes every entry owned by source.
func (s *VectorStore) DeleteSource(_ context.Context, source string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, e := range s.entries {
		if e.Source == source {
			delete(s.entries, key)
		}
	}
	return nil
}

// Sources summarises stored entries per source.
func (s *VectorStore) Sources(_ context.Context) (map[string]domain.SourceInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sources := make(map[string]domain.SourceInfo)
	for _, e := range s.entries {
		info := sources[e.Source]
		info.Source = e.Source
		info.ContentHash = e.ContentHash
		info.Chunks++
		sources[e.Source] = info
	}
	return sources, nil
}

// Metadata returns the index metadata, or domain.ErrNotFound if none was written.
func (s *VectorStore) Metadata(_ context.Context) (*domain.IndexMetadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.metadata == nil {
		return nil, domain.ErrNotFound
	}
	meta := *s.metadata
	return &meta, nil
}

// SetMetadata records the index metadata.
func (s *VectorStore) SetMetadata(_ context.Context, meta domain.IndexMetadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metadata = &meta
	return nil
}

// Reset removes all entries and metadata.
func (s *VectorStore) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]domain.IndexEntry)
	s.metadata = nil
	return nil
}

// Name returns the backend name.
func (s *VectorStore) Name() string {
	return string(domain.VectorBackendMemory)
}

// Close is a no-op.
func (s *VectorStore) Close() error {
	return nil
}

// Keys returns every stored key in sorted order.
func (s *VectorStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of stored entries.
func (s *VectorStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
