package docstore

import (
	"context"
	"sync"

	"github.com/moonmehedi/A-Rag-System-to-Read-Books/internal/domain/commonModels"
)

// Index is one uploaded document's searchable content. An index is built once
// during ingestion and never mutated afterwards.
type Index interface {
	Search(ctx context.Context, vector []float32, topK int) ([]string, error)
}

// Builder turns a document's embedded chunks into a searchable Index.
type Builder interface {
	Build(ctx context.Context, docId string, chunks []commonModels.DocChunk, vectors [][]float32) (Index, error)
}

// Store is the process-wide docId -> Index registry. Entries live until the
// process restarts; there is no eviction. A retrieval racing a still-running
// ingestion of the same id simply misses.
type Store struct {
	mu      sync.RWMutex
	indexes map[string]Index
}

func NewStore() *Store {
	return &Store{
		indexes: make(map[string]Index),
	}
}

func (s *Store) Save(docId string, idx Index) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.indexes[docId] = idx
}

func (s *Store) Get(docId string) (Index, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx, ok := s.indexes[docId]
	return idx, ok
}

func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.indexes)
}
