package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"kanban-board-api/internal/dto"
	"kanban-board-api/internal/util"
)

// MockBoardService is a mock implementation of BoardService
type MockBoardService struct {
	CreateBoardFunc func(ctx context.Context, actorID uuid.UUID, req *dto.CreateBoardRequest) (*dto.BoardResponse, error)
	GetBoardFunc    func(ctx context.Context, boardID uuid.UUID) (*dto.BoardDetailResponse, error)
	UpdateBoardFunc func(ctx context.Context, actorID, boardID uuid.UUID, req *dto.UpdateBoardRequest) (*dto.BoardResponse, error)
	DeleteBoardFunc func(ctx context.Context, actorID, boardID uuid.UUID, expectedVersion *int64) error
}

func (m *MockBoardService) CreateBoard(ctx context.Context, actorID uuid.UUID, req *dto.CreateBoardRequest) (*dto.BoardResponse, error) {
	if m.CreateBoardFunc != nil {
		return m.CreateBoardFunc(ctx, actorID, req)
	}
	return nil, nil
}

func (m *MockBoardService) GetBoard(ctx context.Context, boardID uuid.UUID) (*dto.BoardDetailResponse, error) {
	if m.GetBoardFunc != nil {
		return m.GetBoardFunc(ctx, boardID)
	}
	return nil, nil
}

func (m *MockBoardService) UpdateBoard(ctx context.Context, actorID, boardID uuid.UUID, req *dto.UpdateBoardRequest) (*dto.BoardResponse, error) {
	if m.UpdateBoardFunc != nil {
		return m.UpdateBoardFunc(ctx, actorID, boardID, req)
	}
	return nil, nil
}

func (m *MockBoardService) DeleteBoard(ctx context.Context, actorID, boardID uuid.UUID, expectedVersion *int64) error {
	if m.DeleteBoardFunc != nil {
		return m.DeleteBoardFunc(ctx, actorID, boardID, expectedVersion)
	}
	return nil
}

// MockColumnService is a mock implementation of ColumnService
type MockColumnService struct {
	CreateColumnFunc func(ctx context.Context, actorID, boardID uuid.UUID, req *dto.CreateColumnRequest) (*dto.ColumnResponse, error)
	UpdateColumnFunc func(ctx context.Context, actorID, columnID uuid.UUID, req *dto.UpdateColumnRequest) (*dto.ColumnResponse, error)
	MoveColumnFunc   func(ctx context.Context, actorID, columnID uuid.UUID, req *dto.MoveColumnRequest) (*dto.ColumnResponse, error)
	DeleteColumnFunc func(ctx context.Context, actorID, columnID uuid.UUID, expectedVersion *int64) error
	CompactBoardFunc func(ctx context.Context, boardID uuid.UUID) (*dto.CompactionResponse, error)
}

func (m *MockColumnService) CreateColumn(ctx context.Context, actorID, boardID uuid.UUID, req *dto.CreateColumnRequest) (*dto.ColumnResponse, error) {
	if m.CreateColumnFunc != nil {
		return m.CreateColumnFunc(ctx, actorID, boardID, req)
	}
	return nil, nil
}

func (m *MockColumnService) UpdateColumn(ctx context.Context, actorID, columnID uuid.UUID, req *dto.UpdateColumnRequest) (*dto.ColumnResponse, error) {
	if m.UpdateColumnFunc != nil {
		return m.UpdateColumnFunc(ctx, actorID, columnID, req)
	}
	return nil, nil
}

func (m *MockColumnService) MoveColumn(ctx context.Context, actorID, columnID uuid.UUID, req *dto.MoveColumnRequest) (*dto.ColumnResponse, error) {
	if m.MoveColumnFunc != nil {
		return m.MoveColumnFunc(ctx, actorID, columnID, req)
	}
	return nil, nil
}

func (m *MockColumnService) DeleteColumn(ctx context.Context, actorID, columnID uuid.UUID, expectedVersion *int64) error {
	if m.DeleteColumnFunc != nil {
		return m.DeleteColumnFunc(ctx, actorID, columnID, expectedVersion)
	}
	return nil
}

func (m *MockColumnService) CompactBoard(ctx context.Context, boardID uuid.UUID) (*dto.CompactionResponse, error) {
	if m.CompactBoardFunc != nil {
		return m.CompactBoardFunc(ctx, boardID)
	}
	return nil, nil
}

// MockCardService is a mock implementation of CardService
type MockCardService struct {
	CreateCardFunc          func(ctx context.Context, actorID uuid.UUID, req *dto.CreateCardRequest) (*dto.CardResponse, error)
	GetCardFunc             func(ctx context.Context, cardID uuid.UUID) (*dto.CardResponse, error)
	UpdateCardFunc          func(ctx context.Context, actorID, cardID uuid.UUID, req *dto.UpdateCardRequest) (*dto.CardResponse, error)
	MoveCardFunc            func(ctx context.Context, actorID, cardID uuid.UUID, req *dto.MoveCardRequest) (*dto.CardResponse, error)
	DeleteCardFunc          func(ctx context.Context, actorID, cardID uuid.UUID, expectedVersion *int64) error
	ToggleChecklistItemFunc func(ctx context.Context, actorID, cardID, itemID uuid.UUID, done bool) (*dto.CardResponse, error)
	CompactColumnFunc       func(ctx context.Context, columnID uuid.UUID) (*dto.CompactionResponse, error)
}

func (m *MockCardService) CreateCard(ctx context.Context, actorID uuid.UUID, req *dto.CreateCardRequest) (*dto.CardResponse, error) {
	if m.CreateCardFunc != nil {
		return m.CreateCardFunc(ctx, actorID, req)
	}
	return nil, nil
}

func (m *MockCardService) GetCard(ctx context.Context, cardID uuid.UUID) (*dto.CardResponse, error) {
	if m.GetCardFunc != nil {
		return m.GetCardFunc(ctx, cardID)
	}
	return nil, nil
}

func (m *MockCardService) UpdateCard(ctx context.Context, actorID, cardID uuid.UUID, req *dto.UpdateCardRequest) (*dto.CardResponse, error) {
	if m.UpdateCardFunc != nil {
		return m.UpdateCardFunc(ctx, actorID, cardID, req)
	}
	return nil, nil
}

func (m *MockCardService) MoveCard(ctx context.Context, actorID, cardID uuid.UUID, req *dto.MoveCardRequest) (*dto.CardResponse, error) {
	if m.MoveCardFunc != nil {
		return m.MoveCardFunc(ctx, actorID, cardID, req)
	}
	return nil, nil
}

func (m *MockCardService) DeleteCard(ctx context.Context, actorID, cardID uuid.UUID, expectedVersion *int64) error {
	if m.DeleteCardFunc != nil {
		return m.DeleteCardFunc(ctx, actorID, cardID, expectedVersion)
	}
	return nil
}

func (m *MockCardService) ToggleChecklistItem(ctx context.Context, actorID, cardID, itemID uuid.UUID, done bool) (*dto.CardResponse, error) {
	if m.ToggleChecklistItemFunc != nil {
		return m.ToggleChecklistItemFunc(ctx, actorID, cardID, itemID, done)
	}
	return nil, nil
}

func (m *MockCardService) CompactColumn(ctx context.Context, columnID uuid.UUID) (*dto.CompactionResponse, error) {
	if m.CompactColumnFunc != nil {
		return m.CompactColumnFunc(ctx, columnID)
	}
	return nil, nil
}

// setupTestRouter returns a test-mode engine that authenticates every request as actor
func setupTestRouter(actor uuid.UUID) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if actor != uuid.Nil {
			c.Set(util.ActorKey, actor)
		}
		c.Next()
	})
	return r
}
