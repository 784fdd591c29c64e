package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kanban-board-api/internal/domain"
	"kanban-board-api/internal/dto"
	"kanban-board-api/internal/ordering"
	"kanban-board-api/internal/response"
)

func columnNames(t *testing.T, e *testEngine, boardID uuid.UUID) []string {
	t.Helper()
	cols, err := e.colRepo.ListByBoard(context.Background(), boardID)
	require.NoError(t, err)
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	return names
}

func TestBoardService_CreateGetUpdate(t *testing.T) {
	e := newTestEngine(t, ordering.Config{})
	ctx := context.Background()

	_, err := e.boards.CreateBoard(ctx, actor, &dto.CreateBoardRequest{Name: "   "})
	var appErr *response.AppError
	require.ErrorAs(t, err, &appErr)

	f := newBoardFixture(t, e, "Todo", "Done")
	createCard(t, e, f.columns[1].ColumnID, "Shipped", dto.Placement{})
	createCard(t, e, f.columns[0].ColumnID, "Next", dto.Placement{})

	detail, err := e.boards.GetBoard(ctx, f.board.BoardID)
	require.NoError(t, err)
	assert.Equal(t, actor, detail.OwnerID)
	require.Len(t, detail.Columns, 2)
	assert.Equal(t, "Todo", detail.Columns[0].Name)
	assert.Equal(t, "Next", detail.Columns[0].Cards[0].Title)
	assert.Equal(t, "Shipped", detail.Columns[1].Cards[0].Title)

	renamed, err := e.boards.UpdateBoard(ctx, actor, f.board.BoardID, &dto.UpdateBoardRequest{
		Name: strPtr("Q3 Roadmap"), ExpectedVersion: int64Ptr(1),
	})
	require.NoError(t, err)
	assert.Equal(t, "Q3 Roadmap", renamed.Name)
	assert.Equal(t, int64(2), renamed.Version)

	_, err = e.boards.UpdateBoard(ctx, actor, f.board.BoardID, &dto.UpdateBoardRequest{
		Name: strPtr("Stale"), ExpectedVersion: int64Ptr(1),
	})
	assert.ErrorIs(t, err, domain.ErrVersionConflict)

	_, err = e.boards.GetBoard(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// Deleting a board removes its subtree and announces only the board.
func TestBoardService_DeleteCascades(t *testing.T) {
	e := newTestEngine(t, ordering.Config{})
	ctx := context.Background()

	f := newBoardFixture(t, e, "Todo")
	card, err := e.cards.CreateCard(ctx, actor, &dto.CreateCardRequest{
		ColumnID: f.columns[0].ColumnID,
		Title:    "With file",
		Attachments: []dto.AttachmentRequest{
			{Kind: "file", Name: "plan.pdf", BlobRef: "cards/plan.pdf"},
		},
	})
	require.NoError(t, err)
	before := len(e.publisher.Events())

	assert.ErrorIs(t, e.boards.DeleteBoard(ctx, actor, f.board.BoardID, nil), domain.ErrVersionRequired)
	require.NoError(t, e.boards.DeleteBoard(ctx, actor, f.board.BoardID, int64Ptr(1)))

	_, err = e.cards.GetCard(ctx, card.CardID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = e.colRepo.FindByID(ctx, f.columns[0].ColumnID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, []string{"cards/plan.pdf"}, e.blobs.Deleted())

	events := e.publisher.Events()[before:]
	require.Len(t, events, 1)
	assert.Equal(t, domain.EntityKindBoard, events[0].EntityKind)
	assert.Equal(t, domain.EventTypeDeleted, events[0].Type)
}

func TestColumnService_CreateMoveUpdate(t *testing.T) {
	e := newTestEngine(t, ordering.Config{})
	ctx := context.Background()
	f := newBoardFixture(t, e, "Todo", "Doing", "Done")
	todo, doing, done := f.columns[0], f.columns[1], f.columns[2]

	_, err := e.columns.CreateColumn(ctx, actor, uuid.New(), &dto.CreateColumnRequest{Name: "Lost"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = e.columns.CreateColumn(ctx, actor, f.board.BoardID, &dto.CreateColumnRequest{
		Name: "Backlog", Placement: dto.Placement{AfterID: &todo.ColumnID},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Backlog", "Todo", "Doing", "Done"}, columnNames(t, e, f.board.BoardID))

	moved, err := e.columns.MoveColumn(ctx, actor, done.ColumnID, &dto.MoveColumnRequest{
		Placement:       dto.Placement{BeforeID: &todo.ColumnID, AfterID: &doing.ColumnID},
		ExpectedVersion: int64Ptr(1),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), moved.Version)
	assert.Equal(t, []string{"Backlog", "Todo", "Done", "Doing"}, columnNames(t, e, f.board.BoardID))

	ev := e.publisher.Last()
	assert.Equal(t, domain.EntityKindColumn, ev.EntityKind)
	assert.Equal(t, domain.EventTypeMoved, ev.Type)
	assert.True(t, ev.Summary.PositionChanged)

	updated, err := e.columns.UpdateColumn(ctx, actor, doing.ColumnID, &dto.UpdateColumnRequest{
		Icon: strPtr("rocket"), ExpectedVersion: int64Ptr(1),
	})
	require.NoError(t, err)
	assert.Equal(t, "rocket", updated.Icon)
	assert.Equal(t, "Doing", updated.Name)
	assert.Equal(t, []string{"icon"}, e.publisher.Last().Summary.Fields)

	_, err = e.columns.UpdateColumn(ctx, actor, doing.ColumnID, &dto.UpdateColumnRequest{
		Name: strPtr("Renamed"), ExpectedVersion: int64Ptr(1),
	})
	var conflict *domain.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "rocket", conflict.Snapshot.(*domain.Column).Icon)
}

func TestColumnService_MoveRejectsForeignSibling(t *testing.T) {
	e := newTestEngine(t, ordering.Config{})
	ctx := context.Background()
	first := newBoardFixture(t, e, "A", "B")
	second := newBoardFixture(t, e, "C")

	_, err := e.columns.MoveColumn(ctx, actor, first.columns[0].ColumnID, &dto.MoveColumnRequest{
		Placement:       dto.Placement{BeforeID: &second.columns[0].ColumnID},
		ExpectedVersion: int64Ptr(1),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidReference)
	assert.Equal(t, []string{"A", "B"}, columnNames(t, e, first.board.BoardID))
}

func TestColumnService_DeleteCascadesCards(t *testing.T) {
	e := newTestEngine(t, ordering.Config{})
	ctx := context.Background()
	f := newBoardFixture(t, e, "Todo", "Done")
	card := createCard(t, e, f.columns[0].ColumnID, "Gone", dto.Placement{})
	kept := createCard(t, e, f.columns[1].ColumnID, "Kept", dto.Placement{})
	before := len(e.publisher.Events())

	require.NoError(t, e.columns.DeleteColumn(ctx, actor, f.columns[0].ColumnID, int64Ptr(1)))

	_, err := e.cards.GetCard(ctx, card.CardID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = e.cards.GetCard(ctx, kept.CardID)
	assert.NoError(t, err)

	events := e.publisher.Events()[before:]
	require.Len(t, events, 1)
	assert.Equal(t, domain.EntityKindColumn, events[0].EntityKind)
	assert.Equal(t, domain.EventTypeDeleted, events[0].Type)
}

func TestColumnService_CompactBoard(t *testing.T) {
	e := newTestEngine(t, ordering.Config{})
	ctx := context.Background()
	f := newBoardFixture(t, e, "A", "B", "C")

	res, err := e.columns.CompactBoard(ctx, f.board.BoardID)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Rewritten)
	assert.Equal(t, []string{"A", "B", "C"}, columnNames(t, e, f.board.BoardID))

	cols, err := e.colRepo.ListByBoard(ctx, f.board.BoardID)
	require.NoError(t, err)
	for _, c := range cols {
		assert.Equal(t, int64(1), c.Version)
	}
}
