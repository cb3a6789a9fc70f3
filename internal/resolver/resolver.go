package resolver

import (
	"context"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/Sendient/ai-detector-sub000/internal/logger"
	"github.com/Sendient/ai-detector-sub000/internal/model"
	"github.com/Sendient/ai-detector-sub000/internal/registry"
)

// ResultFetcher is the slice of the backend client the resolver needs.
type ResultFetcher interface {
	GetResult(ctx context.Context, id string) (*model.ResultDetail, error)
}

// Resolver backfills assessment scores for documents that have reached
// COMPLETED. Each id is fetched independently: one failed or slow fetch
// never blocks the others.
type Resolver struct {
	fetcher  ResultFetcher
	registry *registry.Registry
	log      zerolog.Logger
}

func New(fetcher ResultFetcher, reg *registry.Registry) *Resolver {
	return &Resolver{
		fetcher:  fetcher,
		registry: reg,
		log:      logger.Component("resolver"),
	}
}

const maxConcurrentFetches = 8

// Resolve fetches the result detail for each id concurrently and merges
// accepted scores into the registry. A result is accepted only when the
// remote status is COMPLETED with a numeric score; anything else clears a
// previously cached score so a stale value cannot outlive an errored or
// reprocessed document.
func (r *Resolver) Resolve(ctx context.Context, ids []string) {
	if len(ids) == 0 {
		return
	}

	var g errgroup.Group
	g.SetLimit(maxConcurrentFetches)

	for _, id := range ids {
		id := id
		g.Go(func() error {
			r.resolveOne(ctx, id)
			return nil
		})
	}

	// Workers settle independently and never return errors.
	_ = g.Wait()
}

func (r *Resolver) resolveOne(ctx context.Context, id string) {
	detail, err := r.fetcher.GetResult(ctx, id)
	if err != nil {
		r.log.Warn().Err(err).Str("document_id", id).Msg("Result fetch failed")
		return
	}

	if detail.Status != model.StatusCompleted || detail.Score == nil {
		if _, err := r.registry.Patch(ctx, id, registry.Patch{ClearScore: true}); err != nil {
			r.log.Warn().Err(err).Str("document_id", id).Msg("Failed to clear stale score")
		}
		return
	}

	score := Normalize(*detail.Score)
	status := model.StatusCompleted
	if _, err := r.registry.Patch(ctx, id, registry.Patch{Status: &status, Score: &score}); err != nil {
		r.log.Warn().Err(err).Str("document_id", id).Msg("Failed to merge resolved score")
		return
	}

	r.log.Debug().Str("document_id", id).Float64("score", score).Msg("Score resolved")
}

// Normalize maps a backend score onto the canonical 0-1 fraction. Some
// backend paths report a 0-100 percentage instead; anything above 1 is
// treated as such.
func Normalize(score float64) float64 {
	if score > 1 {
		return score / 100
	}
	return score
}
