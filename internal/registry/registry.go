package registry

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/Sendient/ai-detector-sub000/internal/logger"
	"github.com/Sendient/ai-detector-sub000/internal/model"
	"github.com/Sendient/ai-detector-sub000/pkg/errors"
)

// Registry is the single source of truth for document state on the
// client side. All writers, optimistic patches from the assessment
// controller and snapshot replacements from the poller alike, go through
// its merge primitives under one lock, so concurrent updates cannot lose
// each other: last write wins by receipt order.
type Registry struct {
	mu          sync.Mutex
	store       Store
	lastApplied uint64
	log         zerolog.Logger
}

func New(store Store) *Registry {
	return &Registry{
		store: store,
		log:   logger.Component("registry"),
	}
}

// Patch is a shallow merge applied to a single document. Nil fields are
// left untouched; ClearScore removes a cached score outright.
type Patch struct {
	Status         *model.DocumentStatus
	Score          *float64
	ClearScore     bool
	StudentID      *string
	StudentDetails *model.StudentDetails
}

func (r *Registry) GetAll(ctx context.Context) ([]model.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.store.List(ctx)
}

func (r *Registry) Get(ctx context.Context, id string) (*model.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.store.Get(ctx, id)
}

// UpsertMany replaces matching documents and inserts unknown ones. It
// never deletes entries absent from a partial update; removal happens
// only through an explicit Remove after a confirmed server-side delete.
//
// generation orders poll snapshots: a snapshot older than the latest
// applied one is discarded wholesale and UpsertMany reports false, so a
// slow-returning refresh can never overwrite fresher state.
func (r *Registry) UpsertMany(ctx context.Context, docs []model.Document, generation uint64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if generation <= r.lastApplied {
		r.log.Debug().
			Uint64("generation", generation).
			Uint64("last_applied", r.lastApplied).
			Msg("Discarding stale snapshot")
		return false, nil
	}

	for _, doc := range docs {
		if doc.Status != model.StatusCompleted && doc.Score != nil {
			doc.Score = nil
		}
		if err := r.store.Put(ctx, doc); err != nil {
			return false, err
		}
	}

	r.lastApplied = generation
	r.log.Debug().Int("count", len(docs)).Uint64("generation", generation).Msg("Snapshot applied")
	return true, nil
}

// Patch applies a shallow merge for optimistic updates. Patches are not
// generation-guarded: they reflect a user action taken now, and the next
// authoritative poll snapshot will reconcile them.
func (r *Registry) Patch(ctx context.Context, id string, p Patch) (*model.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, errors.ErrDocumentNotFound
	}

	if p.Status != nil {
		doc.Status = *p.Status
	}
	if p.ClearScore {
		doc.Score = nil
	} else if p.Score != nil {
		doc.Score = p.Score
	}
	if p.StudentID != nil {
		doc.StudentID = p.StudentID
	}
	if p.StudentDetails != nil {
		doc.StudentDetails = p.StudentDetails
	}

	// A score may only be shown for a completed document.
	if doc.Status != model.StatusCompleted {
		doc.Score = nil
	}

	if err := r.store.Put(ctx, *doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (r *Registry) Remove(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.store.Delete(ctx, id)
}

// HasActive reports whether any document is still being worked on by the
// upstream pipeline. The poller uses it to decide whether to keep its
// timer armed.
func (r *Registry) HasActive(ctx context.Context) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	docs, err := r.store.List(ctx)
	if err != nil {
		return false, err
	}
	for _, doc := range docs {
		if doc.Status.Active() {
			return true, nil
		}
	}
	return false, nil
}
