package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"kanban-board-api/internal/domain"
	"kanban-board-api/internal/dto"
	"kanban-board-api/internal/metrics"
	"kanban-board-api/internal/repository"
	"kanban-board-api/internal/response"
)

// BoardService defines the interface for board business logic
type BoardService interface {
	CreateBoard(ctx context.Context, actorID uuid.UUID, req *dto.CreateBoardRequest) (*dto.BoardResponse, error)
	GetBoard(ctx context.Context, boardID uuid.UUID) (*dto.BoardDetailResponse, error)
	UpdateBoard(ctx context.Context, actorID, boardID uuid.UUID, req *dto.UpdateBoardRequest) (*dto.BoardResponse, error)
	DeleteBoard(ctx context.Context, actorID, boardID uuid.UUID, expectedVersion *int64) error
}

// boardServiceImpl is the implementation of BoardService
type boardServiceImpl struct {
	*coordinator
	boardRepo repository.BoardRepository
	cardRepo  repository.CardRepository
	guard     *VersionGuard[domain.Board, *domain.Board]
}

// NewBoardService creates a new instance of BoardService
func NewBoardService(
	boardRepo repository.BoardRepository,
	cardRepo repository.CardRepository,
	publisher EventPublisher,
	blobs BlobStore,
	m *metrics.Metrics,
	logger *zap.Logger,
) BoardService {
	return &boardServiceImpl{
		coordinator: newCoordinator(nil, publisher, blobs, m, logger),
		boardRepo:   boardRepo,
		cardRepo:    cardRepo,
		guard:       NewVersionGuard[domain.Board](domain.EntityKindBoard, boardRepo),
	}
}

// CreateBoard creates an empty board owned by the actor
func (s *boardServiceImpl) CreateBoard(ctx context.Context, actorID uuid.UUID, req *dto.CreateBoardRequest) (result *dto.BoardResponse, err error) {
	ctx, span := s.startSpan(ctx, "BoardService.CreateBoard", uuid.Nil)
	defer func() { err = s.finish(span, domain.EntityKindBoard, "create", err) }()

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, response.NewValidationError("Board name is required", "")
	}

	board := &domain.Board{
		Name:      name,
		OwnerID:   actorID,
		Versioned: domain.Versioned{Version: 1},
	}
	if err := s.boardRepo.Create(ctx, board); err != nil {
		return nil, err
	}

	s.publish(ctx, domain.NewDomainEvent(domain.EntityKindBoard, board.ID, board.ID, board.Version,
		domain.EventTypeCreated, actorID, domain.ChangeSummary{Title: board.Name}))

	return dto.NewBoardResponse(board), nil
}

// GetBoard returns a board with its columns and cards in display order
func (s *boardServiceImpl) GetBoard(ctx context.Context, boardID uuid.UUID) (*dto.BoardDetailResponse, error) {
	ctx, span := s.startSpan(ctx, "BoardService.GetBoard", boardID)
	defer span.End()

	board, err := s.boardRepo.FindTree(ctx, boardID)
	if err != nil {
		return nil, err
	}
	return dto.NewBoardDetailResponse(board, s.resolver(ctx)), nil
}

// UpdateBoard renames a board
func (s *boardServiceImpl) UpdateBoard(ctx context.Context, actorID, boardID uuid.UUID, req *dto.UpdateBoardRequest) (result *dto.BoardResponse, err error) {
	ctx, span := s.startSpan(ctx, "BoardService.UpdateBoard", boardID)
	defer func() { err = s.finish(span, domain.EntityKindBoard, "update", err) }()

	if err := requireVersion(req.ExpectedVersion); err != nil {
		return nil, err
	}
	if req.Name == nil {
		return nil, response.NewValidationError("No fields to update", "")
	}
	name := strings.TrimSpace(*req.Name)
	if name == "" {
		return nil, response.NewValidationError("Board name cannot be empty", "")
	}

	board, err := s.guard.Apply(ctx, boardID, req.ExpectedVersion, func(b *domain.Board) (map[string]interface{}, error) {
		b.Name = name
		return map[string]interface{}{"name": name}, nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, domain.NewDomainEvent(domain.EntityKindBoard, board.ID, board.ID, board.Version,
		domain.EventTypeUpdated, actorID, domain.ChangeSummary{Title: board.Name, Fields: []string{"name"}}))

	return dto.NewBoardResponse(board), nil
}

// DeleteBoard removes a board with all of its columns and cards.
// One event is emitted for the board; children go silently.
func (s *boardServiceImpl) DeleteBoard(ctx context.Context, actorID, boardID uuid.UUID, expectedVersion *int64) (err error) {
	ctx, span := s.startSpan(ctx, "BoardService.DeleteBoard", boardID)
	defer func() { err = s.finish(span, domain.EntityKindBoard, "delete", err) }()

	if err := requireVersion(expectedVersion); err != nil {
		return err
	}

	refs, err := s.cardRepo.ListBlobRefsByBoard(ctx, boardID)
	if err != nil {
		return err
	}

	board, err := s.guard.Delete(ctx, boardID, *expectedVersion)
	if err != nil {
		return err
	}

	s.removeBlobs(ctx, refs)
	s.publish(ctx, domain.NewDomainEvent(domain.EntityKindBoard, board.ID, board.ID, board.Version,
		domain.EventTypeDeleted, actorID, domain.ChangeSummary{Title: board.Name}))
	return nil
}
