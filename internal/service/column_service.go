package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"kanban-board-api/internal/domain"
	"kanban-board-api/internal/dto"
	"kanban-board-api/internal/metrics"
	"kanban-board-api/internal/ordering"
	"kanban-board-api/internal/repository"
	"kanban-board-api/internal/response"
)

// ColumnService defines the interface for column business logic
type ColumnService interface {
	CreateColumn(ctx context.Context, actorID, boardID uuid.UUID, req *dto.CreateColumnRequest) (*dto.ColumnResponse, error)
	UpdateColumn(ctx context.Context, actorID, columnID uuid.UUID, req *dto.UpdateColumnRequest) (*dto.ColumnResponse, error)
	MoveColumn(ctx context.Context, actorID, columnID uuid.UUID, req *dto.MoveColumnRequest) (*dto.ColumnResponse, error)
	DeleteColumn(ctx context.Context, actorID, columnID uuid.UUID, expectedVersion *int64) error
	CompactBoard(ctx context.Context, boardID uuid.UUID) (*dto.CompactionResponse, error)
}

// columnServiceImpl is the implementation of ColumnService
type columnServiceImpl struct {
	*coordinator
	boardRepo  repository.BoardRepository
	columnRepo repository.ColumnRepository
	cardRepo   repository.CardRepository
	guard      *VersionGuard[domain.Column, *domain.Column]
}

// NewColumnService creates a new instance of ColumnService
func NewColumnService(
	boardRepo repository.BoardRepository,
	columnRepo repository.ColumnRepository,
	cardRepo repository.CardRepository,
	alloc *ordering.Allocator,
	publisher EventPublisher,
	blobs BlobStore,
	m *metrics.Metrics,
	logger *zap.Logger,
) ColumnService {
	return &columnServiceImpl{
		coordinator: newCoordinator(alloc, publisher, blobs, m, logger),
		boardRepo:   boardRepo,
		columnRepo:  columnRepo,
		cardRepo:    cardRepo,
		guard:       NewVersionGuard[domain.Column](domain.EntityKindColumn, columnRepo),
	}
}

// CreateColumn adds a column to a board at the requested position
func (s *columnServiceImpl) CreateColumn(ctx context.Context, actorID, boardID uuid.UUID, req *dto.CreateColumnRequest) (result *dto.ColumnResponse, err error) {
	ctx, span := s.startSpan(ctx, "ColumnService.CreateColumn", boardID)
	defer func() { err = s.finish(span, domain.EntityKindColumn, "create", err) }()

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, response.NewValidationError("Column name is required", "")
	}
	if _, err := s.boardRepo.FindByID(ctx, boardID); err != nil {
		return nil, err
	}

	column := &domain.Column{
		BoardID:   boardID,
		Name:      name,
		Icon:      strings.TrimSpace(req.Icon),
		Versioned: domain.Versioned{Version: 1},
	}

	err = retryPlacement(ctx, s.compactFn(boardID), func(ctx context.Context) error {
		placed, err := resolvePlacement[domain.Column](ctx, s.columnRepo, s.allocator, placementOf(req.Placement, boardID, nil))
		if err != nil {
			return err
		}
		column.ID = uuid.Nil
		column.OrderKey = placed.key
		return s.columnRepo.Create(ctx, column)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, domain.NewDomainEvent(domain.EntityKindColumn, column.ID, boardID, column.Version,
		domain.EventTypeCreated, actorID, domain.ChangeSummary{Title: column.Name}))

	return dto.NewColumnResponse(column), nil
}

// UpdateColumn patches name and icon
func (s *columnServiceImpl) UpdateColumn(ctx context.Context, actorID, columnID uuid.UUID, req *dto.UpdateColumnRequest) (result *dto.ColumnResponse, err error) {
	ctx, span := s.startSpan(ctx, "ColumnService.UpdateColumn", columnID)
	defer func() { err = s.finish(span, domain.EntityKindColumn, "update", err) }()

	if err := requireVersion(req.ExpectedVersion); err != nil {
		return nil, err
	}
	if req.Name == nil && req.Icon == nil {
		return nil, response.NewValidationError("No fields to update", "")
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return nil, response.NewValidationError("Column name cannot be empty", "")
	}

	var fields []string
	column, err := s.guard.Apply(ctx, columnID, req.ExpectedVersion, func(c *domain.Column) (map[string]interface{}, error) {
		changes := map[string]interface{}{}
		fields = fields[:0]
		if req.Name != nil {
			c.Name = strings.TrimSpace(*req.Name)
			changes["name"] = c.Name
			fields = append(fields, "name")
		}
		if req.Icon != nil {
			c.Icon = strings.TrimSpace(*req.Icon)
			changes["icon"] = c.Icon
			fields = append(fields, "icon")
		}
		return changes, nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, domain.NewDomainEvent(domain.EntityKindColumn, column.ID, column.BoardID, column.Version,
		domain.EventTypeUpdated, actorID, domain.ChangeSummary{Title: column.Name, Fields: fields}))

	return dto.NewColumnResponse(column), nil
}

// MoveColumn reorders a column within its board.
// Naming the column's current neighbors still bumps the version and emits a move
// event with PositionChanged unset.
func (s *columnServiceImpl) MoveColumn(ctx context.Context, actorID, columnID uuid.UUID, req *dto.MoveColumnRequest) (result *dto.ColumnResponse, err error) {
	ctx, span := s.startSpan(ctx, "ColumnService.MoveColumn", columnID)
	defer func() { err = s.finish(span, domain.EntityKindColumn, "move", err) }()

	if err := requireVersion(req.ExpectedVersion); err != nil {
		return nil, err
	}

	var (
		column    *domain.Column
		unchanged bool
		boardID   uuid.UUID
	)
	compact := func(ctx context.Context) error {
		return s.compactFn(boardID)(ctx)
	}
	err = retryPlacement(ctx, compact, func(ctx context.Context) error {
		var applyErr error
		column, applyErr = s.guard.Apply(ctx, columnID, req.ExpectedVersion, func(c *domain.Column) (map[string]interface{}, error) {
			boardID = c.BoardID
			self := &selfPosition{id: c.ID, parentID: c.BoardID, key: c.OrderKey}
			placed, err := resolvePlacement[domain.Column](ctx, s.columnRepo, s.allocator, placementOf(req.Placement, c.BoardID, self))
			if err != nil {
				return nil, err
			}
			unchanged = placed.unchanged
			if unchanged {
				return map[string]interface{}{}, nil
			}
			c.OrderKey = placed.key
			return map[string]interface{}{"order_key": placed.key}, nil
		})
		return applyErr
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, domain.NewDomainEvent(domain.EntityKindColumn, column.ID, column.BoardID, column.Version,
		domain.EventTypeMoved, actorID, domain.ChangeSummary{
			Title:           column.Name,
			FromParentID:    &column.BoardID,
			ToParentID:      &column.BoardID,
			PositionChanged: !unchanged,
		}))

	return dto.NewColumnResponse(column), nil
}

// DeleteColumn removes a column and every card in it.
// One event is emitted for the column; its cards go silently.
func (s *columnServiceImpl) DeleteColumn(ctx context.Context, actorID, columnID uuid.UUID, expectedVersion *int64) (err error) {
	ctx, span := s.startSpan(ctx, "ColumnService.DeleteColumn", columnID)
	defer func() { err = s.finish(span, domain.EntityKindColumn, "delete", err) }()

	if err := requireVersion(expectedVersion); err != nil {
		return err
	}

	refs, err := s.cardRepo.ListBlobRefsByColumn(ctx, columnID)
	if err != nil {
		return err
	}

	column, err := s.guard.Delete(ctx, columnID, *expectedVersion)
	if err != nil {
		return err
	}

	s.removeBlobs(ctx, refs)
	s.publish(ctx, domain.NewDomainEvent(domain.EntityKindColumn, column.ID, column.BoardID, column.Version,
		domain.EventTypeDeleted, actorID, domain.ChangeSummary{Title: column.Name}))
	return nil
}

// CompactBoard rewrites the order keys of every column on a board.
// Relative order and versions are preserved.
func (s *columnServiceImpl) CompactBoard(ctx context.Context, boardID uuid.UUID) (result *dto.CompactionResponse, err error) {
	ctx, span := s.startSpan(ctx, "ColumnService.CompactBoard", boardID)
	defer func() { err = s.finish(span, domain.EntityKindColumn, "compact", err) }()

	if _, err := s.boardRepo.FindByID(ctx, boardID); err != nil {
		return nil, err
	}
	n, err := compactSiblings[domain.Column](ctx, boardID, s.columnRepo.ListByBoard, s.columnRepo.RewriteKeys)
	if err != nil {
		return nil, err
	}
	s.compacted(domain.EntityKindColumn, boardID, n)
	return &dto.CompactionResponse{ParentID: boardID, Rewritten: n}, nil
}

func (s *columnServiceImpl) compactFn(boardID uuid.UUID) func(context.Context) error {
	return func(ctx context.Context) error {
		n, err := compactSiblings[domain.Column](ctx, boardID, s.columnRepo.ListByBoard, s.columnRepo.RewriteKeys)
		if err != nil {
			return err
		}
		s.compacted(domain.EntityKindColumn, boardID, n)
		return nil
	}
}
