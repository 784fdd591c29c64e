package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"kanban-board-api/internal/domain"
	"kanban-board-api/internal/dto"
	"kanban-board-api/internal/metrics"
	"kanban-board-api/internal/ordering"
	"kanban-board-api/internal/response"
)

var tracer = otel.Tracer("kanban-board-api/internal/service")

// EventPublisher receives one event per committed mutation.
// Publish must not block the caller on delivery.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.DomainEvent)
}

// BlobStore resolves and removes attachment objects
type BlobStore interface {
	PresignGetURL(ctx context.Context, key string) (string, error)
	DeleteObjects(ctx context.Context, keys []string) error
}

// coordinator holds what every mutation path shares
type coordinator struct {
	allocator *ordering.Allocator
	publisher EventPublisher
	blobs     BlobStore
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

func newCoordinator(alloc *ordering.Allocator, publisher EventPublisher, blobs BlobStore, m *metrics.Metrics, logger *zap.Logger) *coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &coordinator{
		allocator: alloc,
		publisher: publisher,
		blobs:     blobs,
		metrics:   m,
		logger:    logger,
	}
}

func (c *coordinator) startSpan(ctx context.Context, name string, id uuid.UUID) (context.Context, trace.Span) {
	ctx, span := tracer.Start(ctx, name)
	if id != uuid.Nil {
		span.SetAttributes(attribute.String("entity.id", id.String()))
	}
	return ctx, span
}

// finish records the outcome of one coordinator call and returns err unchanged
func (c *coordinator) finish(span trace.Span, kind domain.EntityKind, op string, err error) error {
	outcome := outcomeOf(err)
	if c.metrics != nil {
		c.metrics.RecordMutation(string(kind), op, outcome)
		if outcome == metrics.OutcomeConflict {
			c.metrics.IncrementVersionConflict(string(kind))
		}
	}

	if outcome == metrics.OutcomeError {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.logger.Error("Mutation failed",
			zap.String("entity", string(kind)),
			zap.String("operation", op),
			zap.Error(err))
	} else if err != nil {
		span.SetAttributes(attribute.String("mutation.outcome", outcome))
	}
	span.End()
	return err
}

// publish hands a committed event to the dispatcher. Cancellation of the
// request no longer matters once the change is durable.
func (c *coordinator) publish(ctx context.Context, event domain.DomainEvent) {
	if c.publisher == nil {
		return
	}
	c.publisher.Publish(context.WithoutCancel(ctx), event)
}

// compacted records a sibling key rewrite
func (c *coordinator) compacted(kind domain.EntityKind, parentID uuid.UUID, rewritten int) {
	if c.metrics != nil {
		c.metrics.IncrementCompaction(string(kind))
	}
	c.logger.Info("Compacted order keys",
		zap.String("entity", string(kind)),
		zap.String("parent_id", parentID.String()),
		zap.Int("rewritten", rewritten))
}

// resolver returns a URL resolver bound to ctx, or nil without a blob store
func (c *coordinator) resolver(ctx context.Context) dto.URLResolver {
	if c.blobs == nil {
		return nil
	}
	return func(ref string) string {
		url, err := c.blobs.PresignGetURL(ctx, ref)
		if err != nil {
			c.logger.Warn("Failed to presign attachment URL", zap.String("blob_ref", ref), zap.Error(err))
			return ""
		}
		return url
	}
}

// removeBlobs deletes orphaned attachment objects. Failures only leak storage.
func (c *coordinator) removeBlobs(ctx context.Context, refs []string) {
	if c.blobs == nil || len(refs) == 0 {
		return
	}
	if err := c.blobs.DeleteObjects(context.WithoutCancel(ctx), refs); err != nil {
		c.logger.Warn("Failed to delete attachment objects",
			zap.Strings("blob_refs", refs),
			zap.Error(err))
	}
}

func outcomeOf(err error) string {
	var appErr *response.AppError
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.Is(err, domain.ErrVersionConflict):
		return metrics.OutcomeConflict
	case errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrInvalidReference),
		errors.Is(err, domain.ErrVersionRequired),
		errors.Is(err, domain.ErrCompactionRequired),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded),
		errors.As(err, &appErr):
		return metrics.OutcomeRejected
	}
	return metrics.OutcomeError
}

// requireVersion rejects version-checked mutations that omit the expected version
func requireVersion(expected *int64) error {
	if expected == nil {
		return domain.ErrVersionRequired
	}
	return nil
}

func placementOf(p dto.Placement, parentID uuid.UUID, self *selfPosition) placementRequest {
	return placementRequest{
		parentID: parentID,
		self:     self,
		beforeID: p.BeforeID,
		afterID:  p.AfterID,
	}
}
