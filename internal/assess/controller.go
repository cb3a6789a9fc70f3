package assess

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Sendient/ai-detector-sub000/internal/config"
	"github.com/Sendient/ai-detector-sub000/internal/logger"
	"github.com/Sendient/ai-detector-sub000/internal/model"
	"github.com/Sendient/ai-detector-sub000/internal/registry"
	"github.com/Sendient/ai-detector-sub000/pkg/errors"
)

// CommandClient is the slice of the backend client the controller needs.
type CommandClient interface {
	Assess(ctx context.Context, id string) (*model.AssessResponse, error)
	CancelAssessment(ctx context.Context, id string) error
	Reprocess(ctx context.Context, id string) error
}

// Refresher lets the controller force a reconciliation or re-arm the
// polling timer after an optimistic transition.
type Refresher interface {
	Refresh(ctx context.Context, background bool) error
	Kick()
}

// Controller issues lifecycle commands against individual documents and
// tracks one ephemeral operation per document. Commands are idempotent at
// this layer: re-invoking after a failure starts a fresh attempt, which
// replaces the previous operation outright.
type Controller struct {
	cfg      *config.Config
	client   CommandClient
	registry *registry.Registry
	poller   Refresher

	mu  sync.Mutex
	ops map[string]*model.Operation

	log zerolog.Logger
}

func NewController(cfg *config.Config, client CommandClient, reg *registry.Registry, poller Refresher) *Controller {
	return &Controller{
		cfg:      cfg,
		client:   client,
		registry: reg,
		poller:   poller,
		ops:      make(map[string]*model.Operation),
		log:      logger.Component("assess"),
	}
}

// Operation returns the current operation for a document, or an idle
// placeholder when none is in flight.
func (c *Controller) Operation(id string) model.Operation {
	c.mu.Lock()
	defer c.mu.Unlock()

	if op, ok := c.ops[id]; ok {
		return *op
	}
	return model.Operation{DocumentID: id, State: model.OpIdle}
}

func (c *Controller) begin(id string, kind model.OperationKind) *model.Operation {
	c.mu.Lock()
	defer c.mu.Unlock()

	op := &model.Operation{DocumentID: id, Kind: kind, State: model.OpLoading}
	c.ops[id] = op
	return op
}

func (c *Controller) settle(op *model.Operation, state model.OperationState, message string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	op.State = state
	op.Message = message
}

// Assess submits a document for assessment. Allowed only from a terminal,
// non-active status (UPLOADED, ERROR, LIMIT_EXCEEDED).
func (c *Controller) Assess(ctx context.Context, id string) error {
	doc, err := c.registry.Get(ctx, id)
	if err != nil {
		return err
	}
	if doc == nil {
		return errors.ErrDocumentNotFound
	}
	if !doc.Status.Retryable() {
		return errors.ErrNotAssessable
	}

	op := c.begin(id, model.OpAssess)

	resp, err := c.client.Assess(ctx, id)
	if err != nil {
		c.settle(op, model.OpError, errors.Detail(err))
		c.log.Error().Err(err).Str("document_id", id).Msg("Assess failed")
		return err
	}

	// A synchronously returned score is only a hint; the registry drops
	// it unless the document is already COMPLETED, and the forced refresh
	// plus result resolution below establish the authoritative value.
	if resp.Score != nil {
		if _, err := c.registry.Patch(ctx, id, registry.Patch{Score: resp.Score}); err != nil {
			c.log.Warn().Err(err).Str("document_id", id).Msg("Failed to merge score hint")
		}
	}

	c.settle(op, model.OpSuccess, "")
	c.log.Info().Str("document_id", id).Msg("Assessment submitted")

	if err := c.poller.Refresh(ctx, false); err != nil {
		c.log.Warn().Err(err).Str("document_id", id).Msg("Post-assess refresh failed")
	}
	return nil
}

// Cancel asks the backend to stop an active assessment. On success the
// local status flips to ERROR immediately; cancellation is advisory
// upstream and the worker may run on for a while, so waiting for the next
// poll would leave the UI claiming the document is still processing. The
// optimistic value is never rolled back; the next successful poll is
// authoritative either way.
func (c *Controller) Cancel(ctx context.Context, id string) error {
	doc, err := c.registry.Get(ctx, id)
	if err != nil {
		return err
	}
	if doc == nil {
		return errors.ErrDocumentNotFound
	}
	if !doc.Status.Active() {
		return errors.ErrNotCancellable
	}

	op := c.begin(id, model.OpCancel)

	if err := c.client.CancelAssessment(ctx, id); err != nil {
		c.settle(op, model.OpError, errors.Detail(err))
		c.log.Error().Err(err).Str("document_id", id).Msg("Cancel failed")
		return err
	}

	status := model.StatusError
	if _, err := c.registry.Patch(ctx, id, registry.Patch{Status: &status}); err != nil {
		c.log.Warn().Err(err).Str("document_id", id).Msg("Failed to apply optimistic cancel")
	}

	c.settle(op, model.OpSuccess, "")
	c.log.Info().Str("document_id", id).Msg("Assessment cancelled")
	return nil
}

// Reprocess re-submits an errored document. It is a destructive
// re-submission, so the caller must pass explicit confirmation. A failed
// attempt keeps its error visible for the configured display window, then
// clears itself so it cannot permanently block a retry.
func (c *Controller) Reprocess(ctx context.Context, id string, confirmed bool) error {
	if !confirmed {
		return errors.ErrConfirmationNeeded
	}

	doc, err := c.registry.Get(ctx, id)
	if err != nil {
		return err
	}
	if doc == nil {
		return errors.ErrDocumentNotFound
	}

	op := c.begin(id, model.OpReprocess)

	if err := c.client.Reprocess(ctx, id); err != nil {
		c.settle(op, model.OpError, errors.Detail(err))
		c.log.Error().Err(err).Str("document_id", id).Msg("Reprocess failed")
		c.scheduleErrorClear(id, op)
		return err
	}

	status := model.StatusQueued
	if _, err := c.registry.Patch(ctx, id, registry.Patch{Status: &status}); err != nil {
		c.log.Warn().Err(err).Str("document_id", id).Msg("Failed to apply optimistic requeue")
	}

	c.settle(op, model.OpSuccess, "")
	c.log.Info().Str("document_id", id).Msg("Reprocess submitted")

	c.poller.Kick()
	return nil
}

// scheduleErrorClear drops a settled error operation after the display
// window, unless a fresh attempt has already replaced it.
func (c *Controller) scheduleErrorClear(id string, op *model.Operation) {
	time.AfterFunc(c.cfg.Assess.ErrorDisplayWindow, func() {
		c.mu.Lock()
		defer c.mu.Unlock()

		if current, ok := c.ops[id]; ok && current == op && current.State == model.OpError {
			delete(c.ops, id)
		}
	})
}

// ConfirmSettled destroys settled operations for the documents an applied
// poll snapshot just confirmed. Once the registry reflects server state
// the operation has nothing left to report; in-flight operations survive
// until they settle.
func (c *Controller) ConfirmSettled(ids []string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, id := range ids {
		if op, ok := c.ops[id]; ok && op.State != model.OpLoading {
			delete(c.ops, id)
		}
	}
}
