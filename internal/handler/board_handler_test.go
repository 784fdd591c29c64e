package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"kanban-board-api/internal/domain"
	"kanban-board-api/internal/dto"
	"kanban-board-api/internal/response"
)

func TestBoardHandler_CreateBoard(t *testing.T) {
	actor := uuid.New()
	boardID := uuid.New()

	tests := []struct {
		name           string
		body           interface{}
		expectedStatus int
	}{
		{name: "creates the board", body: dto.CreateBoardRequest{Name: "Roadmap"}, expectedStatus: http.StatusCreated},
		{name: "missing name", body: map[string]string{}, expectedStatus: http.StatusBadRequest},
		{name: "invalid json", body: "invalid json", expectedStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &MockBoardService{
				CreateBoardFunc: func(ctx context.Context, actorID uuid.UUID, req *dto.CreateBoardRequest) (*dto.BoardResponse, error) {
					return &dto.BoardResponse{BoardID: boardID, Name: req.Name, OwnerID: actorID, Version: 1}, nil
				},
			}
			h := NewBoardHandler(svc, &MockColumnService{}, zap.NewNop())
			router := setupTestRouter(actor)
			router.POST("/boards", h.CreateBoard)

			w := doJSON(t, router, http.MethodPost, "/boards", tt.body)
			require.Equal(t, tt.expectedStatus, w.Code)
			if w.Code != http.StatusCreated {
				return
			}

			var resp struct {
				Data dto.BoardResponse `json:"data"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, boardID, resp.Data.BoardID)
			assert.Equal(t, actor, resp.Data.OwnerID)
			assert.Equal(t, "Roadmap", resp.Data.Name)
		})
	}
}

func TestBoardHandler_GetBoard(t *testing.T) {
	boardID := uuid.New()
	svc := &MockBoardService{
		GetBoardFunc: func(ctx context.Context, id uuid.UUID) (*dto.BoardDetailResponse, error) {
			if id != boardID {
				return nil, domain.ErrNotFound
			}
			return &dto.BoardDetailResponse{
				BoardResponse: dto.BoardResponse{BoardID: id, Name: "Roadmap"},
				Columns:       []dto.ColumnDetailResponse{},
			}, nil
		},
	}
	h := NewBoardHandler(svc, &MockColumnService{}, zap.NewNop())
	router := setupTestRouter(uuid.New())
	router.GET("/boards/:boardId", h.GetBoard)

	w := doJSON(t, router, http.MethodGet, "/boards/"+boardID.String(), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, "/boards/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, router, http.MethodGet, "/boards/invalid-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid boardId", decodeError(t, w)["message"])
}

func TestBoardHandler_DeleteAndCompact(t *testing.T) {
	boardID := uuid.New()
	var deletedWith *int64
	boards := &MockBoardService{
		DeleteBoardFunc: func(ctx context.Context, actorID, id uuid.UUID, expectedVersion *int64) error {
			deletedWith = expectedVersion
			return nil
		},
	}
	columns := &MockColumnService{
		CompactBoardFunc: func(ctx context.Context, id uuid.UUID) (*dto.CompactionResponse, error) {
			return &dto.CompactionResponse{ParentID: id, Rewritten: 4}, nil
		},
	}
	h := NewBoardHandler(boards, columns, zap.NewNop())
	router := setupTestRouter(uuid.New())
	router.DELETE("/boards/:boardId", h.DeleteBoard)
	router.POST("/boards/:boardId/compact", h.CompactBoard)

	w := doJSON(t, router, http.MethodDelete, "/boards/"+boardID.String()+"?expectedVersion=2", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	require.NotNil(t, deletedWith)
	assert.Equal(t, int64(2), *deletedWith)

	w = doJSON(t, router, http.MethodPost, "/boards/"+boardID.String()+"/compact", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"rewritten":4`)
}

func TestColumnHandler_MoveAndUpdate(t *testing.T) {
	columnID := uuid.New()
	before := uuid.New()
	svc := &MockColumnService{
		MoveColumnFunc: func(ctx context.Context, actorID, id uuid.UUID, req *dto.MoveColumnRequest) (*dto.ColumnResponse, error) {
			require.NotNil(t, req.BeforeID)
			assert.Equal(t, before, *req.BeforeID)
			return &dto.ColumnResponse{ColumnID: id, Version: *req.ExpectedVersion + 1}, nil
		},
		UpdateColumnFunc: func(ctx context.Context, actorID, id uuid.UUID, req *dto.UpdateColumnRequest) (*dto.ColumnResponse, error) {
			return nil, response.NewValidationError("Column name cannot be blank", "")
		},
	}
	h := NewColumnHandler(svc, &MockCardService{}, zap.NewNop())
	router := setupTestRouter(uuid.New())
	router.PUT("/columns/:columnId/move", h.MoveColumn)
	router.PUT("/columns/:columnId", h.UpdateColumn)

	w := doJSON(t, router, http.MethodPut, "/columns/"+columnID.String()+"/move", dto.MoveColumnRequest{
		Placement:       dto.Placement{BeforeID: &before},
		ExpectedVersion: int64Ptr(1),
	})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"version":2`)

	blank := " "
	w = doJSON(t, router, http.MethodPut, "/columns/"+columnID.String(), dto.UpdateColumnRequest{
		Name: &blank, ExpectedVersion: int64Ptr(2),
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, response.ErrCodeValidation, decodeError(t, w)["code"])
}
