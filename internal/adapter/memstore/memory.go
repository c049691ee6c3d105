package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"captionrag/internal/adapter/store"
	"captionrag/internal/domain"
	"captionrag/internal/port"
)

// MemoryStore is a non-persistent vector store and ingest ledger.
type MemoryStore struct {
	mu         sync.RWMutex
	id         string
	generation uint64
	vectors    map[string]port.VectorItem
	videos     map[string]domain.VideoRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		id:      uuid.NewString(),
		vectors: make(map[string]port.VectorItem),
		videos:  make(map[string]domain.VideoRecord),
	}
}

// Upsert adds all items or, if any id is empty, none of them.
func (s *MemoryStore) Upsert(ctx context.Context, items []port.VectorItem) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, item := range items {
		if item.ID == "" {
			return fmt.Errorf("vector item without id")
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range items {
		s.vectors[item.ID] = item
	}
	s.generation++
	return nil
}

func (s *MemoryStore) Search(ctx context.Context, query []float32, k int) ([]port.VectorResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]port.VectorResult, 0, len(s.vectors))
	for id, item := range s.vectors {
		results = append(results, port.VectorResult{
			ID:       id,
			Score:    store.CosineSimilarity(query, item.Vector),
			Document: item.Document,
			Metadata: item.Metadata,
		})
	}
	return store.TopK(results, k), nil
}

func (s *MemoryStore) Count() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.vectors), nil
}

// IndexVersion changes on every upsert and is unique to this store.
func (s *MemoryStore) IndexVersion() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fmt.Sprintf("%s:%d", s.id, s.generation), nil
}

func (s *MemoryStore) RecordIngest(rec domain.VideoRecord) error {
	if rec.VideoID == "" {
		return fmt.Errorf("video record without id")
	}
	if rec.LastIngested.IsZero() {
		rec.LastIngested = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.videos[rec.VideoID]; ok {
		rec.Ingests += prev.Ingests
	}
	rec.Ingests++
	s.videos[rec.VideoID] = rec
	return nil
}

func (s *MemoryStore) ListVideos() ([]domain.VideoRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	videos := make([]domain.VideoRecord, 0, len(s.videos))
	for _, v := range s.videos {
		videos = append(videos, v)
	}
	sort.Slice(videos, func(i, j int) bool { return videos[i].VideoID < videos[j].VideoID })
	return videos, nil
}

func (s *MemoryStore) GetStats() (domain.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.Stats{Records: len(s.vectors), Videos: len(s.videos)}, nil
}

func (s *MemoryStore) Close() error {
	return nil
}
