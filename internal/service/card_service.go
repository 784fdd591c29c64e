package service

import (
	"context"
	"fmt"
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

// CardService defines the interface for card business logic
type CardService interface {
	CreateCard(ctx context.Context, actorID uuid.UUID, req *dto.CreateCardRequest) (*dto.CardResponse, error)
	GetCard(ctx context.Context, cardID uuid.UUID) (*dto.CardResponse, error)
	UpdateCard(ctx context.Context, actorID, cardID uuid.UUID, req *dto.UpdateCardRequest) (*dto.CardResponse, error)
	MoveCard(ctx context.Context, actorID, cardID uuid.UUID, req *dto.MoveCardRequest) (*dto.CardResponse, error)
	DeleteCard(ctx context.Context, actorID, cardID uuid.UUID, expectedVersion *int64) error
	ToggleChecklistItem(ctx context.Context, actorID, cardID, itemID uuid.UUID, done bool) (*dto.CardResponse, error)
	CompactColumn(ctx context.Context, columnID uuid.UUID) (*dto.CompactionResponse, error)
}

// cardServiceImpl is the implementation of CardService
type cardServiceImpl struct {
	*coordinator
	columnRepo repository.ColumnRepository
	cardRepo   repository.CardRepository
	guard      *VersionGuard[domain.Card, *domain.Card]
}

// NewCardService creates a new instance of CardService
func NewCardService(
	columnRepo repository.ColumnRepository,
	cardRepo repository.CardRepository,
	alloc *ordering.Allocator,
	publisher EventPublisher,
	blobs BlobStore,
	m *metrics.Metrics,
	logger *zap.Logger,
) CardService {
	return &cardServiceImpl{
		coordinator: newCoordinator(alloc, publisher, blobs, m, logger),
		columnRepo:  columnRepo,
		cardRepo:    cardRepo,
		guard:       NewVersionGuard[domain.Card](domain.EntityKindCard, cardRepo),
	}
}

// CreateCard adds a card to a column at the requested position
func (s *cardServiceImpl) CreateCard(ctx context.Context, actorID uuid.UUID, req *dto.CreateCardRequest) (result *dto.CardResponse, err error) {
	ctx, span := s.startSpan(ctx, "CardService.CreateCard", req.ColumnID)
	defer func() { err = s.finish(span, domain.EntityKindCard, "create", err) }()

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, response.NewValidationError("Card title is required", "")
	}
	priority, err := parsePriority(req.Priority)
	if err != nil {
		return nil, err
	}
	checklist, err := buildChecklist(req.Checklist)
	if err != nil {
		return nil, err
	}
	attachments, err := buildAttachments(req.Attachments)
	if err != nil {
		return nil, err
	}

	column, err := s.columnRepo.FindByID(ctx, req.ColumnID)
	if err != nil {
		return nil, err
	}

	card := &domain.Card{
		BoardID:     column.BoardID,
		ColumnID:    column.ID,
		Title:       title,
		Description: req.Description,
		AssigneeID:  req.AssigneeID,
		CreatedBy:   actorID,
		Deadline:    req.Deadline,
		Priority:    priority,
		Tags:        normalizeLabels(req.Tags),
		Categories:  normalizeLabels(req.Categories),
		Checklist:   checklist,
		Attachments: attachments,
		Versioned:   domain.Versioned{Version: 1},
	}

	err = retryPlacement(ctx, s.compactFn(column.ID), func(ctx context.Context) error {
		placed, err := resolvePlacement[domain.Card](ctx, s.cardRepo, s.allocator, placementOf(req.Placement, column.ID, nil))
		if err != nil {
			return err
		}
		card.ID = uuid.Nil
		card.OrderKey = placed.key
		return s.cardRepo.Create(ctx, card)
	})
	if err != nil {
		return nil, err
	}

	event := domain.NewDomainEvent(domain.EntityKindCard, card.ID, card.BoardID, card.Version,
		domain.EventTypeCreated, actorID, domain.ChangeSummary{Title: card.Title, ToParentID: &card.ColumnID})
	event.Audience = cardAudience(card)
	s.publish(ctx, event)

	return dto.NewCardResponse(card, s.resolver(ctx)), nil
}

// GetCard returns one card
func (s *cardServiceImpl) GetCard(ctx context.Context, cardID uuid.UUID) (*dto.CardResponse, error) {
	ctx, span := s.startSpan(ctx, "CardService.GetCard", cardID)
	defer span.End()

	card, err := s.cardRepo.FindByID(ctx, cardID)
	if err != nil {
		return nil, err
	}
	return dto.NewCardResponse(card, s.resolver(ctx)), nil
}

// UpdateCard applies a field patch. Attachment objects dropped by the patch are
// removed from the blob store after the commit.
func (s *cardServiceImpl) UpdateCard(ctx context.Context, actorID, cardID uuid.UUID, req *dto.UpdateCardRequest) (result *dto.CardResponse, err error) {
	ctx, span := s.startSpan(ctx, "CardService.UpdateCard", cardID)
	defer func() { err = s.finish(span, domain.EntityKindCard, "update", err) }()

	if err := requireVersion(req.ExpectedVersion); err != nil {
		return nil, err
	}
	patch, err := s.buildPatch(req)
	if err != nil {
		return nil, err
	}
	if len(patch.fields) == 0 {
		return nil, response.NewValidationError("No fields to update", "")
	}

	var orphaned []string
	card, err := s.guard.Apply(ctx, cardID, req.ExpectedVersion, func(c *domain.Card) (map[string]interface{}, error) {
		before := c.BlobRefs()
		changes := patch.apply(c)
		orphaned = orphanedBlobs(before, c.BlobRefs())
		return changes, nil
	})
	if err != nil {
		return nil, err
	}

	s.removeBlobs(ctx, orphaned)

	event := domain.NewDomainEvent(domain.EntityKindCard, card.ID, card.BoardID, card.Version,
		domain.EventTypeUpdated, actorID, domain.ChangeSummary{Title: card.Title, Fields: patch.fields})
	event.Audience = cardAudience(card)
	s.publish(ctx, event)

	return dto.NewCardResponse(card, s.resolver(ctx)), nil
}

// MoveCard relocates a card within its column or to another column of the same board
func (s *cardServiceImpl) MoveCard(ctx context.Context, actorID, cardID uuid.UUID, req *dto.MoveCardRequest) (result *dto.CardResponse, err error) {
	ctx, span := s.startSpan(ctx, "CardService.MoveCard", cardID)
	defer func() { err = s.finish(span, domain.EntityKindCard, "move", err) }()

	if err := requireVersion(req.ExpectedVersion); err != nil {
		return nil, err
	}

	var target *domain.Column
	if req.TargetColumnID != nil {
		if target, err = s.columnRepo.FindByID(ctx, *req.TargetColumnID); err != nil {
			return nil, err
		}
	}

	var (
		card      *domain.Card
		fromID    uuid.UUID
		targetID  uuid.UUID
		unchanged bool
	)
	compact := func(ctx context.Context) error {
		return s.compactFn(targetID)(ctx)
	}
	err = retryPlacement(ctx, compact, func(ctx context.Context) error {
		var applyErr error
		card, applyErr = s.guard.Apply(ctx, cardID, req.ExpectedVersion, func(c *domain.Card) (map[string]interface{}, error) {
			fromID = c.ColumnID
			targetID = c.ColumnID
			if target != nil {
				if target.BoardID != c.BoardID {
					return nil, fmt.Errorf("%w: column %s belongs to another board", domain.ErrInvalidReference, target.ID)
				}
				targetID = target.ID
			}

			self := &selfPosition{id: c.ID, parentID: c.ColumnID, key: c.OrderKey}
			placed, err := resolvePlacement[domain.Card](ctx, s.cardRepo, s.allocator, placementOf(req.Placement, targetID, self))
			if err != nil {
				return nil, err
			}
			unchanged = placed.unchanged
			if unchanged {
				return map[string]interface{}{}, nil
			}
			c.ColumnID = targetID
			c.OrderKey = placed.key
			return map[string]interface{}{"column_id": targetID, "order_key": placed.key}, nil
		})
		return applyErr
	})
	if err != nil {
		return nil, err
	}

	event := domain.NewDomainEvent(domain.EntityKindCard, card.ID, card.BoardID, card.Version,
		domain.EventTypeMoved, actorID, domain.ChangeSummary{
			Title:           card.Title,
			FromParentID:    &fromID,
			ToParentID:      &targetID,
			PositionChanged: !unchanged,
		})
	event.Audience = cardAudience(card)
	s.publish(ctx, event)

	return dto.NewCardResponse(card, s.resolver(ctx)), nil
}

// DeleteCard removes a card and its stored attachment objects
func (s *cardServiceImpl) DeleteCard(ctx context.Context, actorID, cardID uuid.UUID, expectedVersion *int64) (err error) {
	ctx, span := s.startSpan(ctx, "CardService.DeleteCard", cardID)
	defer func() { err = s.finish(span, domain.EntityKindCard, "delete", err) }()

	if err := requireVersion(expectedVersion); err != nil {
		return err
	}

	card, err := s.guard.Delete(ctx, cardID, *expectedVersion)
	if err != nil {
		return err
	}

	s.removeBlobs(ctx, card.BlobRefs())

	event := domain.NewDomainEvent(domain.EntityKindCard, card.ID, card.BoardID, card.Version,
		domain.EventTypeDeleted, actorID, domain.ChangeSummary{Title: card.Title, FromParentID: &card.ColumnID})
	event.Audience = cardAudience(card)
	s.publish(ctx, event)
	return nil
}

// ToggleChecklistItem sets the done flag of one checklist item.
// It is last-writer-wins: no expected version is taken and a lost race re-reads
// the card, so concurrent toggles of different items never clobber each other.
// Setting an item to the state it already has changes nothing.
func (s *cardServiceImpl) ToggleChecklistItem(ctx context.Context, actorID, cardID, itemID uuid.UUID, done bool) (result *dto.CardResponse, err error) {
	ctx, span := s.startSpan(ctx, "CardService.ToggleChecklistItem", cardID)
	defer func() { err = s.finish(span, domain.EntityKindCard, "toggle_checklist", err) }()

	current, err := s.cardRepo.FindByID(ctx, cardID)
	if err != nil {
		return nil, err
	}
	idx := current.ChecklistIndex(itemID)
	if idx < 0 {
		return nil, fmt.Errorf("%w: checklist item %s", domain.ErrNotFound, itemID)
	}
	if current.Checklist[idx].Done == done {
		return dto.NewCardResponse(current, s.resolver(ctx)), nil
	}

	card, err := s.guard.Apply(ctx, cardID, nil, func(c *domain.Card) (map[string]interface{}, error) {
		i := c.ChecklistIndex(itemID)
		if i < 0 {
			return nil, fmt.Errorf("%w: checklist item %s", domain.ErrNotFound, itemID)
		}
		c.Checklist[i].Done = done
		return map[string]interface{}{"checklist": c.Checklist}, nil
	})
	if err != nil {
		return nil, err
	}

	event := domain.NewDomainEvent(domain.EntityKindCard, card.ID, card.BoardID, card.Version,
		domain.EventTypeUpdated, actorID, domain.ChangeSummary{Title: card.Title, Fields: []string{"checklist"}})
	event.Audience = cardAudience(card)
	s.publish(ctx, event)

	return dto.NewCardResponse(card, s.resolver(ctx)), nil
}

// CompactColumn rewrites the order keys of every card in a column.
// Relative order and versions are preserved.
func (s *cardServiceImpl) CompactColumn(ctx context.Context, columnID uuid.UUID) (result *dto.CompactionResponse, err error) {
	ctx, span := s.startSpan(ctx, "CardService.CompactColumn", columnID)
	defer func() { err = s.finish(span, domain.EntityKindCard, "compact", err) }()

	if _, err := s.columnRepo.FindByID(ctx, columnID); err != nil {
		return nil, err
	}
	n, err := compactSiblings[domain.Card](ctx, columnID, s.cardRepo.ListByColumn, s.cardRepo.RewriteKeys)
	if err != nil {
		return nil, err
	}
	s.compacted(domain.EntityKindCard, columnID, n)
	return &dto.CompactionResponse{ParentID: columnID, Rewritten: n}, nil
}

func (s *cardServiceImpl) compactFn(columnID uuid.UUID) func(context.Context) error {
	return func(ctx context.Context) error {
		n, err := compactSiblings[domain.Card](ctx, columnID, s.cardRepo.ListByColumn, s.cardRepo.RewriteKeys)
		if err != nil {
			return err
		}
		s.compacted(domain.EntityKindCard, columnID, n)
		return nil
	}
}

// cardPatch is a validated UpdateCardRequest
type cardPatch struct {
	req         *dto.UpdateCardRequest
	fields      []string
	priority    domain.Priority
	checklist   []domain.ChecklistItem
	attachments []domain.Attachment
}

func (s *cardServiceImpl) buildPatch(req *dto.UpdateCardRequest) (*cardPatch, error) {
	p := &cardPatch{req: req}

	if req.Title != nil {
		if strings.TrimSpace(*req.Title) == "" {
			return nil, response.NewValidationError("Card title cannot be empty", "")
		}
		p.fields = append(p.fields, "title")
	}
	if req.Description != nil {
		p.fields = append(p.fields, "description")
	}
	if req.AssigneeID != nil || req.ClearAssignee {
		if req.AssigneeID != nil && req.ClearAssignee {
			return nil, response.NewValidationError("assigneeId and clearAssignee are mutually exclusive", "")
		}
		p.fields = append(p.fields, "assignee")
	}
	if req.Deadline != nil || req.ClearDeadline {
		if req.Deadline != nil && req.ClearDeadline {
			return nil, response.NewValidationError("deadline and clearDeadline are mutually exclusive", "")
		}
		p.fields = append(p.fields, "deadline")
	}
	if req.Priority != nil {
		priority, err := parsePriority(*req.Priority)
		if err != nil {
			return nil, err
		}
		p.priority = priority
		p.fields = append(p.fields, "priority")
	}
	if req.Tags != nil {
		p.fields = append(p.fields, "tags")
	}
	if req.Categories != nil {
		p.fields = append(p.fields, "categories")
	}
	if req.Checklist != nil {
		checklist, err := buildChecklist(*req.Checklist)
		if err != nil {
			return nil, err
		}
		p.checklist = checklist
		p.fields = append(p.fields, "checklist")
	}
	if req.Attachments != nil {
		attachments, err := buildAttachments(*req.Attachments)
		if err != nil {
			return nil, err
		}
		p.attachments = attachments
		p.fields = append(p.fields, "attachments")
	}
	return p, nil
}

// apply writes the patch into c and returns the column changes
func (p *cardPatch) apply(c *domain.Card) map[string]interface{} {
	req := p.req
	changes := make(map[string]interface{}, len(p.fields))

	if req.Title != nil {
		c.Title = strings.TrimSpace(*req.Title)
		changes["title"] = c.Title
	}
	if req.Description != nil {
		c.Description = *req.Description
		changes["description"] = c.Description
	}
	switch {
	case req.ClearAssignee:
		c.AssigneeID = nil
		changes["assignee_id"] = nil
	case req.AssigneeID != nil:
		id := *req.AssigneeID
		c.AssigneeID = &id
		changes["assignee_id"] = id
	}
	switch {
	case req.ClearDeadline:
		c.Deadline = nil
		changes["deadline"] = nil
	case req.Deadline != nil:
		d := *req.Deadline
		c.Deadline = &d
		changes["deadline"] = d
	}
	if req.Priority != nil {
		c.Priority = p.priority
		changes["priority"] = c.Priority
	}
	if req.Tags != nil {
		c.Tags = normalizeLabels(*req.Tags)
		changes["tags"] = c.Tags
	}
	if req.Categories != nil {
		c.Categories = normalizeLabels(*req.Categories)
		changes["categories"] = c.Categories
	}
	if req.Checklist != nil {
		c.Checklist = p.checklist
		changes["checklist"] = c.Checklist
	}
	if req.Attachments != nil {
		c.Attachments = p.attachments
		changes["attachments"] = c.Attachments
	}
	return changes
}
