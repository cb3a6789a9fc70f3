package poller

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/Sendient/ai-detector-sub000/internal/config"
	"github.com/Sendient/ai-detector-sub000/internal/logger"
	"github.com/Sendient/ai-detector-sub000/internal/model"
	"github.com/Sendient/ai-detector-sub000/internal/registry"
	"github.com/Sendient/ai-detector-sub000/pkg/errors"
)

// DocumentLister is the slice of the backend client the poller needs.
type DocumentLister interface {
	ListDocuments(ctx context.Context) ([]model.Document, error)
}

// ScoreResolver backfills scores for newly completed documents.
type ScoreResolver interface {
	Resolve(ctx context.Context, ids []string)
}

// OperationSweeper destroys settled per-document operations once an
// applied snapshot has confirmed server state for their documents.
type OperationSweeper interface {
	ConfirmSettled(ids []string)
}

// Poller keeps the registry eventually consistent with server-side job
// state without a push channel. While any document is active it re-arms a
// fixed-interval timer; once every document is terminal the timer is
// disarmed until the next user action kicks it.
type Poller struct {
	cfg      *config.Config
	lister   DocumentLister
	registry *registry.Registry
	resolver ScoreResolver

	generation uint64
	inFlight   atomic.Bool

	mu      sync.Mutex
	timer   *time.Timer
	stopped bool
	runCtx  context.Context
	sweeper OperationSweeper

	log zerolog.Logger
}

func New(cfg *config.Config, lister DocumentLister, reg *registry.Registry, res ScoreResolver) *Poller {
	return &Poller{
		cfg:      cfg,
		lister:   lister,
		registry: reg,
		resolver: res,
		runCtx:   context.Background(),
		log:      logger.Component("poller"),
	}
}

// SetOperationSweeper attaches the component whose settled operations are
// destroyed after each applied snapshot. The sweeper is built after the
// poller because it also issues commands through it.
func (p *Poller) SetOperationSweeper(s OperationSweeper) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sweeper = s
}

// Start records the lifetime context for background ticks and optionally
// performs the initial interactive refresh.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	p.runCtx = ctx
	p.stopped = false
	p.mu.Unlock()

	p.log.Info().Dur("interval", p.cfg.Poller.Interval).Msg("Starting status poller")

	if p.cfg.Poller.RefreshOnStart {
		if err := p.Refresh(ctx, false); err != nil {
			return err
		}
	}
	return nil
}

func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopped = true
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	p.log.Info().Msg("Status poller stopped")
}

// Refresh re-fetches the full document list and merges it into the
// registry. Interactive refreshes (background == false) report errors;
// background ticks swallow them, since the next tick naturally retries.
//
// Only one refresh is ever in flight: a call arriving while one is
// outstanding is dropped, not queued.
func (p *Poller) Refresh(ctx context.Context, background bool) error {
	if !p.inFlight.CompareAndSwap(false, true) {
		p.log.Debug().Msg("Refresh already in flight, dropping")
		return nil
	}
	defer p.inFlight.Store(false)

	generation := atomic.AddUint64(&p.generation, 1)

	docs, err := p.lister.ListDocuments(ctx)
	if err != nil {
		if background {
			p.backgroundFailure(err, "Background refresh failed")
			p.schedule()
			return nil
		}
		return err
	}

	// Snapshot prior scores before the merge so that only documents that
	// became COMPLETED without a cached score get a result fetch.
	prior, err := p.registry.GetAll(ctx)
	if err != nil {
		if background {
			p.backgroundFailure(err, "Background refresh failed reading registry")
			p.schedule()
			return nil
		}
		return err
	}
	priorScores := make(map[string]bool, len(prior))
	for _, doc := range prior {
		priorScores[doc.ID] = doc.Score != nil
	}

	applied, err := p.registry.UpsertMany(ctx, docs, generation)
	if err != nil {
		if background {
			p.backgroundFailure(err, "Background refresh failed applying snapshot")
			p.schedule()
			return nil
		}
		return err
	}

	if applied {
		var pending []string
		for _, doc := range docs {
			if doc.Status == model.StatusCompleted && !priorScores[doc.ID] {
				pending = append(pending, doc.ID)
			}
		}
		// The snapshot is fully applied before any result fetch starts;
		// resolution never races ahead of the status that justified it.
		if len(pending) > 0 {
			p.resolver.Resolve(ctx, pending)
		}

		// Server state is now confirmed for every document in the
		// snapshot, so their settled operations have served their purpose.
		p.mu.Lock()
		sweeper := p.sweeper
		p.mu.Unlock()
		if sweeper != nil {
			ids := make([]string, 0, len(docs))
			for _, doc := range docs {
				ids = append(ids, doc.ID)
			}
			sweeper.ConfirmSettled(ids)
		}
	}

	p.schedule()
	return nil
}

// backgroundFailure logs a swallowed refresh error. Retryable faults stay
// at warn because the next tick retries them; anything else is louder.
func (p *Poller) backgroundFailure(err error, msg string) {
	evt := p.log.Warn()
	if !errors.IsRetryable(err) {
		evt = p.log.Error()
	}
	evt.Err(err).Msg(msg)
}

// Kick re-evaluates the timer against the current registry state. Called
// after optimistic transitions into an active status.
func (p *Poller) Kick() {
	p.schedule()
}

// schedule arms the timer iff at least one document is active, replacing
// any previously armed timer so two ticks can never run concurrently.
func (p *Poller) schedule() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return
	}

	active, err := p.registry.HasActive(p.runCtx)
	if err != nil {
		p.log.Warn().Err(err).Msg("Failed to inspect registry for active documents")
		return
	}

	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}

	if !active {
		p.log.Debug().Msg("No active documents, timer disarmed")
		return
	}

	p.timer = time.AfterFunc(p.cfg.Poller.Interval, func() {
		p.mu.Lock()
		ctx := p.runCtx
		stopped := p.stopped
		p.mu.Unlock()
		if stopped || ctx.Err() != nil {
			return
		}
		_ = p.Refresh(ctx, true)
	})
	p.log.Debug().Dur("interval", p.cfg.Poller.Interval).Msg("Timer armed")
}

// TimerArmed reports whether a background tick is currently scheduled.
func (p *Poller) TimerArmed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.timer != nil
}
