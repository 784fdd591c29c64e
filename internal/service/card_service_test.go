package service

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kanban-board-api/internal/domain"
	"kanban-board-api/internal/dto"
	"kanban-board-api/internal/ordering"
	"kanban-board-api/internal/response"
)

var actor = uuid.MustParse("7b0c2a8e-4c1e-4f59-9d4a-2f0d7b1e9a11")

type boardFixture struct {
	board   *dto.BoardResponse
	columns []*dto.ColumnResponse
}

func newBoardFixture(t *testing.T, e *testEngine, columns ...string) boardFixture {
	t.Helper()
	ctx := context.Background()
	board, err := e.boards.CreateBoard(ctx, actor, &dto.CreateBoardRequest{Name: "Roadmap"})
	require.NoError(t, err)

	f := boardFixture{board: board}
	for _, name := range columns {
		col, err := e.columns.CreateColumn(ctx, actor, board.BoardID, &dto.CreateColumnRequest{Name: name})
		require.NoError(t, err)
		f.columns = append(f.columns, col)
	}
	return f
}

func createCard(t *testing.T, e *testEngine, columnID uuid.UUID, title string, p dto.Placement) *dto.CardResponse {
	t.Helper()
	card, err := e.cards.CreateCard(context.Background(), actor, &dto.CreateCardRequest{
		ColumnID:  columnID,
		Title:     title,
		Placement: p,
	})
	require.NoError(t, err)
	return card
}

func cardTitles(t *testing.T, e *testEngine, columnID uuid.UUID) []string {
	t.Helper()
	cards, err := e.cardRepo.ListByColumn(context.Background(), columnID)
	require.NoError(t, err)
	titles := make([]string, len(cards))
	for i, c := range cards {
		titles[i] = c.Title
	}
	return titles
}

func TestCardService_CreateAppendsAndPlaces(t *testing.T) {
	e := newTestEngine(t, ordering.Config{})
	f := newBoardFixture(t, e, "Todo")
	col := f.columns[0].ColumnID

	a := createCard(t, e, col, "A", dto.Placement{})
	c := createCard(t, e, col, "C", dto.Placement{})
	createCard(t, e, col, "B", dto.Placement{BeforeID: &a.CardID, AfterID: &c.CardID})
	createCard(t, e, col, "Start", dto.Placement{AfterID: &a.CardID})

	assert.Equal(t, []string{"Start", "A", "B", "C"}, cardTitles(t, e, col))

	last := e.publisher.Last()
	assert.Equal(t, domain.EventTypeCreated, last.Type)
	assert.Equal(t, domain.EntityKindCard, last.EntityKind)
	assert.Equal(t, int64(1), last.Version)
	assert.Equal(t, f.board.BoardID, last.BoardID)
}

func TestCardService_CreateValidation(t *testing.T) {
	e := newTestEngine(t, ordering.Config{})
	f := newBoardFixture(t, e, "Todo")
	col := f.columns[0].ColumnID
	ctx := context.Background()

	tests := []struct {
		name string
		req  dto.CreateCardRequest
	}{
		{"blank title", dto.CreateCardRequest{ColumnID: col, Title: "  "}},
		{"bad priority", dto.CreateCardRequest{ColumnID: col, Title: "x", Priority: "urgent"}},
		{"link without url", dto.CreateCardRequest{ColumnID: col, Title: "x",
			Attachments: []dto.AttachmentRequest{{Kind: "link", Name: "brief"}}}},
		{"file without blob", dto.CreateCardRequest{ColumnID: col, Title: "x",
			Attachments: []dto.AttachmentRequest{{Kind: "file", Name: "a.pdf"}}}},
		{"empty checklist text", dto.CreateCardRequest{ColumnID: col, Title: "x",
			Checklist: []dto.ChecklistItemRequest{{Text: ""}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			_, err := e.cards.CreateCard(ctx, actor, &req)
			var appErr *response.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, response.ErrCodeValidation, appErr.Code)
		})
	}

	_, err := e.cards.CreateCard(ctx, actor, &dto.CreateCardRequest{ColumnID: uuid.New(), Title: "x"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCardService_CreateNormalizesFields(t *testing.T) {
	e := newTestEngine(t, ordering.Config{})
	f := newBoardFixture(t, e, "Todo")

	card, err := e.cards.CreateCard(context.Background(), actor, &dto.CreateCardRequest{
		ColumnID:   f.columns[0].ColumnID,
		Title:      " Ship it ",
		Priority:   "HIGH",
		Tags:       []string{"b", " a", "b", ""},
		Categories: nil,
		Attachments: []dto.AttachmentRequest{
			{Kind: "photo", Name: "shot.png", BlobRef: "cards/shot.png"},
			{Kind: "link", Name: "doc", URL: "https://example.com/doc"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "Ship it", card.Title)
	assert.Equal(t, "high", card.Priority)
	assert.Equal(t, []string{"a", "b"}, card.Tags)
	assert.Equal(t, []string{}, card.Categories)
	require.Len(t, card.Attachments, 2)
	assert.Equal(t, "https://blobs.test/cards/shot.png", card.Attachments[0].URL)
	assert.Equal(t, "https://example.com/doc", card.Attachments[1].URL)
}

// Moving Y between X and Z yields X, Y, Z and bumps only Y.
func TestCardService_MoveBetweenNeighbors(t *testing.T) {
	e := newTestEngine(t, ordering.Config{})
	f := newBoardFixture(t, e, "Todo")
	col := f.columns[0].ColumnID

	x := createCard(t, e, col, "X", dto.Placement{})
	y := createCard(t, e, col, "Y", dto.Placement{})
	z := createCard(t, e, col, "Z", dto.Placement{BeforeID: &x.CardID})
	require.Equal(t, []string{"X", "Z", "Y"}, cardTitles(t, e, col))

	moved, err := e.cards.MoveCard(context.Background(), actor, y.CardID, &dto.MoveCardRequest{
		Placement:       dto.Placement{BeforeID: &x.CardID, AfterID: &z.CardID},
		ExpectedVersion: int64Ptr(y.Version),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"X", "Y", "Z"}, cardTitles(t, e, col))
	assert.Equal(t, y.Version+1, moved.Version)

	stored, err := e.cardRepo.FindByID(context.Background(), z.CardID)
	require.NoError(t, err)
	assert.Equal(t, z.Version, stored.Version, "neighbors keep their version")

	ev := e.publisher.Last()
	assert.Equal(t, domain.EventTypeMoved, ev.Type)
	assert.True(t, ev.Summary.PositionChanged)
	assert.Equal(t, moved.Version, ev.Version)
}

func TestCardService_MoveAcrossColumns(t *testing.T) {
	e := newTestEngine(t, ordering.Config{})
	f := newBoardFixture(t, e, "Todo", "Done")
	todo, done := f.columns[0].ColumnID, f.columns[1].ColumnID

	a := createCard(t, e, todo, "A", dto.Placement{})
	b := createCard(t, e, done, "B", dto.Placement{})

	moved, err := e.cards.MoveCard(context.Background(), actor, a.CardID, &dto.MoveCardRequest{
		TargetColumnID:  &done,
		Placement:       dto.Placement{AfterID: &b.CardID},
		ExpectedVersion: int64Ptr(1),
	})
	require.NoError(t, err)

	assert.Equal(t, done, moved.ColumnID)
	assert.Empty(t, cardTitles(t, e, todo))
	assert.Equal(t, []string{"A", "B"}, cardTitles(t, e, done))

	ev := e.publisher.Last()
	require.NotNil(t, ev.Summary.FromParentID)
	assert.Equal(t, todo, *ev.Summary.FromParentID)
	assert.Equal(t, done, *ev.Summary.ToParentID)
}

// Naming the current neighbors keeps the key but still commits a version.
func TestCardService_MoveToCurrentPosition(t *testing.T) {
	e := newTestEngine(t, ordering.Config{})
	f := newBoardFixture(t, e, "Todo")
	col := f.columns[0].ColumnID

	a := createCard(t, e, col, "A", dto.Placement{})
	b := createCard(t, e, col, "B", dto.Placement{})
	c := createCard(t, e, col, "C", dto.Placement{})

	moved, err := e.cards.MoveCard(context.Background(), actor, b.CardID, &dto.MoveCardRequest{
		Placement:       dto.Placement{BeforeID: &a.CardID, AfterID: &c.CardID},
		ExpectedVersion: int64Ptr(1),
	})
	require.NoError(t, err)

	assert.Equal(t, b.OrderKey, moved.OrderKey)
	assert.Equal(t, int64(2), moved.Version)
	ev := e.publisher.Last()
	assert.Equal(t, domain.EventTypeMoved, ev.Type)
	assert.False(t, ev.Summary.PositionChanged)
}

func TestCardService_MoveRejectsBadReferences(t *testing.T) {
	e := newTestEngine(t, ordering.Config{})
	f := newBoardFixture(t, e, "Todo", "Doing")
	todo, doing := f.columns[0].ColumnID, f.columns[1].ColumnID
	ctx := context.Background()

	a := createCard(t, e, todo, "A", dto.Placement{})
	b := createCard(t, e, todo, "B", dto.Placement{})
	c := createCard(t, e, todo, "C", dto.Placement{})
	createCard(t, e, todo, "D", dto.Placement{})
	other := createCard(t, e, doing, "Other", dto.Placement{})

	other2 := newBoardFixture(t, e, "Elsewhere")

	tests := []struct {
		name    string
		req     dto.MoveCardRequest
		wantErr error
	}{
		{"sibling in another column", dto.MoveCardRequest{
			Placement: dto.Placement{BeforeID: &other.CardID}, ExpectedVersion: int64Ptr(1)}, domain.ErrInvalidReference},
		{"reversed pair", dto.MoveCardRequest{
			Placement: dto.Placement{BeforeID: &c.CardID, AfterID: &a.CardID}, ExpectedVersion: int64Ptr(1)}, domain.ErrInvalidReference},
		{"self reference", dto.MoveCardRequest{
			Placement: dto.Placement{BeforeID: &b.CardID}, ExpectedVersion: int64Ptr(1)}, domain.ErrInvalidReference},
		{"missing sibling", dto.MoveCardRequest{
			Placement: dto.Placement{AfterID: uuidPtr(uuid.New())}, ExpectedVersion: int64Ptr(1)}, domain.ErrNotFound},
		{"missing column", dto.MoveCardRequest{
			TargetColumnID: uuidPtr(uuid.New()), ExpectedVersion: int64Ptr(1)}, domain.ErrNotFound},
		{"column on another board", dto.MoveCardRequest{
			TargetColumnID: &other2.columns[0].ColumnID, ExpectedVersion: int64Ptr(1)}, domain.ErrInvalidReference},
		{"no expected version", dto.MoveCardRequest{}, domain.ErrVersionRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			_, err := e.cards.MoveCard(ctx, actor, b.CardID, &req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	stored, err := e.cardRepo.FindByID(ctx, b.CardID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stored.Version, "rejected moves commit nothing")
	assert.Equal(t, []string{"A", "B", "C", "D"}, cardTitles(t, e, todo))
}

// A before/after pair that is no longer adjacent still brackets the new key.
func TestCardService_MoveBetweenNonAdjacentSiblings(t *testing.T) {
	e := newTestEngine(t, ordering.Config{})
	f := newBoardFixture(t, e, "Todo")
	col := f.columns[0].ColumnID
	ctx := context.Background()

	a := createCard(t, e, col, "A", dto.Placement{})
	b := createCard(t, e, col, "B", dto.Placement{})
	c := createCard(t, e, col, "C", dto.Placement{})
	d := createCard(t, e, col, "D", dto.Placement{})

	moved, err := e.cards.MoveCard(ctx, actor, d.CardID, &dto.MoveCardRequest{
		Placement:       dto.Placement{BeforeID: &a.CardID, AfterID: &c.CardID},
		ExpectedVersion: int64Ptr(1),
	})
	require.NoError(t, err)
	assert.Greater(t, moved.OrderKey, a.OrderKey)
	assert.Less(t, moved.OrderKey, c.OrderKey)
	assert.NotEqual(t, b.OrderKey, moved.OrderKey)
	assert.Contains(t, [][]string{{"A", "D", "B", "C"}, {"A", "B", "D", "C"}}, cardTitles(t, e, col))
	assert.True(t, e.publisher.Last().Summary.PositionChanged)

	// B already sits between A and D, so naming them keeps its key
	kept, err := e.cards.MoveCard(ctx, actor, b.CardID, &dto.MoveCardRequest{
		Placement:       dto.Placement{BeforeID: &a.CardID, AfterID: &c.CardID},
		ExpectedVersion: int64Ptr(1),
	})
	require.NoError(t, err)
	assert.Equal(t, b.OrderKey, kept.OrderKey)
	assert.Equal(t, int64(2), kept.Version)
	assert.False(t, e.publisher.Last().Summary.PositionChanged)
}

func TestCardService_ConcurrentInsertsIntoSameGap(t *testing.T) {
	e := newTestEngine(t, ordering.Config{JitterDigits: 4})
	f := newBoardFixture(t, e, "Todo")
	col := f.columns[0].ColumnID

	x := createCard(t, e, col, "X", dto.Placement{})
	y := createCard(t, e, col, "Y", dto.Placement{})

	// every actor read [X, Y] and inserts between them
	const actors = 20
	var wg sync.WaitGroup
	errs := make([]error, actors)
	for i := 0; i < actors; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = e.cards.CreateCard(context.Background(), uuid.New(), &dto.CreateCardRequest{
				ColumnID:  col,
				Title:     "gap",
				Placement: dto.Placement{BeforeID: &x.CardID, AfterID: &y.CardID},
			})
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		assert.NoError(t, err)
	}

	cards, err := e.cardRepo.ListByColumn(context.Background(), col)
	require.NoError(t, err)
	require.Len(t, cards, actors+2)
	assert.Equal(t, x.CardID, cards[0].ID)
	assert.Equal(t, y.CardID, cards[len(cards)-1].ID)

	seen := make(map[string]bool, len(cards))
	for _, c := range cards {
		assert.False(t, seen[c.OrderKey], "duplicate key %s", c.OrderKey)
		seen[c.OrderKey] = true
	}
}

func TestCardService_StaleMoveReturnsConflict(t *testing.T) {
	e := newTestEngine(t, ordering.Config{})
	f := newBoardFixture(t, e, "Todo")
	col := f.columns[0].ColumnID
	ctx := context.Background()

	a := createCard(t, e, col, "A", dto.Placement{})
	b := createCard(t, e, col, "B", dto.Placement{})

	_, err := e.cards.UpdateCard(ctx, actor, b.CardID, &dto.UpdateCardRequest{
		Title: strPtr("B2"), ExpectedVersion: int64Ptr(1),
	})
	require.NoError(t, err)
	events := len(e.publisher.Events())

	_, err = e.cards.MoveCard(ctx, actor, b.CardID, &dto.MoveCardRequest{
		Placement:       dto.Placement{AfterID: &a.CardID},
		ExpectedVersion: int64Ptr(1),
	})

	var conflict *domain.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, int64(2), conflict.CurrentVersion)
	snapshot := conflict.Snapshot.(*domain.Card)
	assert.Equal(t, "B2", snapshot.Title)
	assert.Len(t, e.publisher.Events(), events, "a conflict emits no event")
	assert.Equal(t, []string{"A", "B2"}, cardTitles(t, e, col))
}

func TestCardService_ConcurrentMovesOneWinner(t *testing.T) {
	e := newTestEngine(t, ordering.Config{})
	f := newBoardFixture(t, e, "Todo", "Done")
	todo, done := f.columns[0].ColumnID, f.columns[1].ColumnID

	card := createCard(t, e, todo, "Race", dto.Placement{})

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			target := todo
			if i%2 == 0 {
				target = done
			}
			_, errs[i] = e.cards.MoveCard(context.Background(), actor, card.CardID, &dto.MoveCardRequest{
				TargetColumnID:  &target,
				ExpectedVersion: int64Ptr(1),
			})
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrVersionConflict)
	}
	assert.Equal(t, 1, wins)

	stored, err := e.cardRepo.FindByID(context.Background(), card.CardID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stored.Version)
}

func TestCardService_UpdatePatch(t *testing.T) {
	e := newTestEngine(t, ordering.Config{})
	f := newBoardFixture(t, e, "Todo")
	ctx := context.Background()
	assignee := uuid.New()

	card, err := e.cards.CreateCard(ctx, actor, &dto.CreateCardRequest{
		ColumnID:   f.columns[0].ColumnID,
		Title:      "Draft",
		AssigneeID: &assignee,
		Attachments: []dto.AttachmentRequest{
			{Kind: "file", Name: "old.pdf", BlobRef: "cards/old.pdf"},
		},
	})
	require.NoError(t, err)

	tags := []string{"ops"}
	updated, err := e.cards.UpdateCard(ctx, actor, card.CardID, &dto.UpdateCardRequest{
		Description:     strPtr("details"),
		Tags:            &tags,
		ClearAssignee:   true,
		Attachments:     &[]dto.AttachmentRequest{},
		ExpectedVersion: int64Ptr(1),
	})
	require.NoError(t, err)

	assert.Equal(t, "Draft", updated.Title)
	assert.Equal(t, "details", updated.Description)
	assert.Equal(t, []string{"ops"}, updated.Tags)
	assert.Nil(t, updated.AssigneeID)
	assert.Empty(t, updated.Attachments)
	assert.Equal(t, int64(2), updated.Version)
	assert.Equal(t, []string{"cards/old.pdf"}, e.blobs.Deleted())

	ev := e.publisher.Last()
	assert.Equal(t, domain.EventTypeUpdated, ev.Type)
	assert.ElementsMatch(t, []string{"description", "tags", "assignee", "attachments"}, ev.Summary.Fields)

	_, err = e.cards.UpdateCard(ctx, actor, card.CardID, &dto.UpdateCardRequest{ExpectedVersion: int64Ptr(2)})
	var appErr *response.AppError
	require.ErrorAs(t, err, &appErr)

	_, err = e.cards.UpdateCard(ctx, actor, card.CardID, &dto.UpdateCardRequest{Title: strPtr("x")})
	assert.ErrorIs(t, err, domain.ErrVersionRequired)
}

func TestCardService_DeleteCard(t *testing.T) {
	e := newTestEngine(t, ordering.Config{})
	f := newBoardFixture(t, e, "Todo")
	ctx := context.Background()

	card, err := e.cards.CreateCard(ctx, actor, &dto.CreateCardRequest{
		ColumnID: f.columns[0].ColumnID,
		Title:    "Temp",
		Attachments: []dto.AttachmentRequest{
			{Kind: "photo", Name: "p.png", BlobRef: "cards/p.png"},
		},
	})
	require.NoError(t, err)

	err = e.cards.DeleteCard(ctx, actor, card.CardID, int64Ptr(0))
	assert.ErrorIs(t, err, domain.ErrVersionConflict)

	require.NoError(t, e.cards.DeleteCard(ctx, actor, card.CardID, int64Ptr(1)))

	_, err = e.cards.GetCard(ctx, card.CardID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, []string{"cards/p.png"}, e.blobs.Deleted())

	ev := e.publisher.Last()
	assert.Equal(t, domain.EventTypeDeleted, ev.Type)
	assert.Equal(t, domain.DedupeKey(domain.EntityKindCard, card.CardID, domain.EventTypeDeleted, 1), ev.DedupeKey)

	err = e.cards.DeleteCard(ctx, actor, card.CardID, int64Ptr(1))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCardService_ToggleChecklistItem(t *testing.T) {
	e := newTestEngine(t, ordering.Config{})
	f := newBoardFixture(t, e, "Todo")
	ctx := context.Background()

	card, err := e.cards.CreateCard(ctx, actor, &dto.CreateCardRequest{
		ColumnID: f.columns[0].ColumnID,
		Title:    "Checklist",
		Checklist: []dto.ChecklistItemRequest{
			{Text: "write"},
			{Text: "review"},
		},
	})
	require.NoError(t, err)
	first, second := card.Checklist[0].ID, card.Checklist[1].ID

	var wg sync.WaitGroup
	for _, id := range []uuid.UUID{first, second} {
		wg.Add(1)
		go func(id uuid.UUID) {
			defer wg.Done()
			_, err := e.cards.ToggleChecklistItem(ctx, actor, card.CardID, id, true)
			assert.NoError(t, err)
		}(id)
	}
	wg.Wait()

	got, err := e.cards.GetCard(ctx, card.CardID)
	require.NoError(t, err)
	assert.True(t, got.Checklist[0].Done)
	assert.True(t, got.Checklist[1].Done)
	assert.Equal(t, int64(3), got.Version)

	events := len(e.publisher.Events())
	same, err := e.cards.ToggleChecklistItem(ctx, actor, card.CardID, first, true)
	require.NoError(t, err)
	assert.Equal(t, int64(3), same.Version, "setting the current state is a no-op")
	assert.Len(t, e.publisher.Events(), events)

	_, err = e.cards.ToggleChecklistItem(ctx, actor, card.CardID, uuid.New(), true)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// With short keys, repeated inserts at the head exhaust the key space and the
// coordinator compacts the column without losing order or bumping versions.
func TestCardService_CompactsWhenKeysRunOut(t *testing.T) {
	e := newTestEngine(t, ordering.Config{MaxKeyLength: 4})
	f := newBoardFixture(t, e, "Todo")
	col := f.columns[0].ColumnID

	var titles []string
	head := createCard(t, e, col, "c00", dto.Placement{})
	titles = append(titles, "c00")
	for i := 1; i < 40; i++ {
		title := "c" + string(rune('0'+i/10)) + string(rune('0'+i%10))
		head = createCard(t, e, col, title, dto.Placement{AfterID: &head.CardID})
		titles = append([]string{title}, titles...)
	}

	assert.Equal(t, titles, cardTitles(t, e, col))

	cards, err := e.cardRepo.ListByColumn(context.Background(), col)
	require.NoError(t, err)
	for _, c := range cards {
		assert.Equal(t, int64(1), c.Version)
		assert.LessOrEqual(t, len(c.OrderKey), 4)
	}
}

func TestCardService_CompactColumn(t *testing.T) {
	e := newTestEngine(t, ordering.Config{})
	f := newBoardFixture(t, e, "Todo")
	col := f.columns[0].ColumnID
	ctx := context.Background()

	for _, title := range []string{"A", "B", "C"} {
		createCard(t, e, col, title, dto.Placement{})
	}
	events := len(e.publisher.Events())

	res, err := e.cards.CompactColumn(ctx, col)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Rewritten)
	assert.Equal(t, []string{"A", "B", "C"}, cardTitles(t, e, col))
	assert.Len(t, e.publisher.Events(), events, "compaction is not a mutation")

	_, err = e.cards.CompactColumn(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
