package registry

import (
	"context"

	"github.com/Sendient/ai-detector-sub000/internal/model"
)

// MemoryStore is the default store: a plain in-process map. It is the
// canonical single-process deployment of the engine.
type MemoryStore struct {
	docs map[string]model.Document
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]model.Document)}
}

func (s *MemoryStore) List(ctx context.Context) ([]model.Document, error) {
	out := make([]model.Document, 0, len(s.docs))
	for _, doc := range s.docs {
		out = append(out, doc)
	}
	return out, nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*model.Document, error) {
	doc, ok := s.docs[id]
	if !ok {
		return nil, nil
	}
	return &doc, nil
}

func (s *MemoryStore) Put(ctx context.Context, doc model.Document) error {
	s.docs[doc.ID] = doc
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	delete(s.docs, id)
	return nil
}
