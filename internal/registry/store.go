package registry

import (
	"context"

	"github.com/Sendient/ai-detector-sub000/internal/model"
)

// Store is the persistence primitive beneath the Registry. The Registry
// serializes all access, so implementations do not need their own
// locking for correctness, only for internal consistency.
type Store interface {
	List(ctx context.Context) ([]model.Document, error)
	Get(ctx context.Context, id string) (*model.Document, error)
	Put(ctx context.Context, doc model.Document) error
	Delete(ctx context.Context, id string) error
}
