package store

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore keeps documents in process memory. Used for development and tests.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]map[string]any
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: make(map[string]map[string]map[string]any),
	}
}

func copyData(data map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	for k, v := range data {
		out[k] = v
	}
	return out
}

func (s *MemoryStore) collection(name string) map[string]map[string]any {
	coll, ok := s.collections[name]
	if !ok {
		coll = make(map[string]map[string]any)
		s.collections[name] = coll
	}
	return coll
}

func (s *MemoryStore) Create(ctx context.Context, collection string, data map[string]any) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	id := uuid.New().String()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.collection(collection)[id] = copyData(data)
	return id, nil
}

func (s *MemoryStore) Put(ctx context.Context, collection, id string, data map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collection(collection)[id] = copyData(data)
	return nil
}

func (s *MemoryStore) Update(ctx context.Context, collection, id string, data map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	coll := s.collection(collection)
	if _, ok := coll[id]; !ok {
		return ErrNotFound
	}
	coll[id] = copyData(data)
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, collection, id string) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.collections[collection][id]
	if !ok {
		return nil, ErrNotFound
	}
	return &Document{ID: id, Data: copyData(data)}, nil
}

func (s *MemoryStore) Find(ctx context.Context, collection string, q Query) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	var docs []Document
	for id, data := range s.collections[collection] {
		if q.matches(data) {
			docs = append(docs, Document{ID: id, Data: copyData(data)})
		}
	}
	s.mu.RUnlock()

	sortNewestFirst(docs)
	if q.Limit > 0 && len(docs) > q.Limit {
		docs = docs[:q.Limit]
	}
	return docs, nil
}

func (s *MemoryStore) Delete(ctx context.Context, collection, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	coll := s.collections[collection]
	if _, ok := coll[id]; !ok {
		return ErrNotFound
	}
	delete(coll, id)
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}
