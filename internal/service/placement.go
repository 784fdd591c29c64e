package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"kanban-board-api/internal/domain"
	"kanban-board-api/internal/ordering"
)

// orderable is satisfied by *domain.Column and *domain.Card
type orderable interface {
	GetID() uuid.UUID
	GetOrderKey() string
	GetParentID() uuid.UUID
}

// siblingStore answers neighbor queries within one parent list
type siblingStore[T any] interface {
	FindByID(ctx context.Context, id uuid.UUID) (*T, error)
	Prev(ctx context.Context, parentID uuid.UUID, key string) (*T, error)
	Next(ctx context.Context, parentID uuid.UUID, key string) (*T, error)
	Last(ctx context.Context, parentID uuid.UUID) (*T, error)
}

// selfPosition is where the entity being placed currently sits
type selfPosition struct {
	id       uuid.UUID
	parentID uuid.UUID
	key      string
}

type placementRequest struct {
	parentID uuid.UUID
	self     *selfPosition
	beforeID *uuid.UUID
	afterID  *uuid.UUID
}

type placementResult struct {
	key string
	// unchanged is set when the requested neighbors are the entity's current neighbors
	unchanged bool
}

// resolvePlacement turns sibling references into a fresh order key in parentID.
// beforeID is the sibling that should end up before the entity and afterID the
// one after it. With neither, the entity goes last. When both are given they need
// not be adjacent: another actor may have inserted into the same gap, and
// the new key still lands strictly between the two.
func resolvePlacement[T any, PT interface {
	*T
	orderable
}](ctx context.Context, store siblingStore[T], alloc *ordering.Allocator, req placementRequest) (placementResult, error) {
	isSelf := func(s *T) bool {
		return s != nil && req.self != nil && PT(s).GetID() == req.self.id
	}

	lookup := func(id uuid.UUID, role string) (*T, error) {
		if req.self != nil && id == req.self.id {
			return nil, fmt.Errorf("%w: %s sibling %s is the entity being placed", domain.ErrInvalidReference, role, id)
		}
		s, err := store.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, fmt.Errorf("%w: %s sibling %s", domain.ErrNotFound, role, id)
			}
			return nil, err
		}
		if PT(s).GetParentID() != req.parentID {
			return nil, fmt.Errorf("%w: %s sibling %s is not in list %s", domain.ErrInvalidReference, role, id, req.parentID)
		}
		return s, nil
	}

	// neighbor queries step over the entity itself when it already sits in this list
	next := func(key string) (*T, error) {
		s, err := store.Next(ctx, req.parentID, key)
		if err == nil && isSelf(s) {
			s, err = store.Next(ctx, req.parentID, req.self.key)
		}
		return s, err
	}
	prev := func(key string) (*T, error) {
		s, err := store.Prev(ctx, req.parentID, key)
		if err == nil && isSelf(s) {
			s, err = store.Prev(ctx, req.parentID, req.self.key)
		}
		return s, err
	}

	var left, right *T
	var err error

	switch {
	case req.beforeID != nil && req.afterID != nil:
		if left, err = lookup(*req.beforeID, "before"); err != nil {
			return placementResult{}, err
		}
		if right, err = lookup(*req.afterID, "after"); err != nil {
			return placementResult{}, err
		}
		if PT(left).GetOrderKey() >= PT(right).GetOrderKey() {
			return placementResult{}, fmt.Errorf("%w: before sibling %s does not precede after sibling %s",
				domain.ErrInvalidReference, *req.beforeID, *req.afterID)
		}
	case req.beforeID != nil:
		if left, err = lookup(*req.beforeID, "before"); err != nil {
			return placementResult{}, err
		}
		if right, err = next(PT(left).GetOrderKey()); err != nil {
			return placementResult{}, err
		}
	case req.afterID != nil:
		if right, err = lookup(*req.afterID, "after"); err != nil {
			return placementResult{}, err
		}
		if left, err = prev(PT(right).GetOrderKey()); err != nil {
			return placementResult{}, err
		}
	default:
		if left, err = store.Last(ctx, req.parentID); err != nil {
			return placementResult{}, err
		}
		if isSelf(left) {
			if left, err = store.Prev(ctx, req.parentID, req.self.key); err != nil {
				return placementResult{}, err
			}
		}
	}

	var leftKey, rightKey string
	if left != nil {
		leftKey = PT(left).GetOrderKey()
	}
	if right != nil {
		rightKey = PT(right).GetOrderKey()
	}

	if req.self != nil && req.self.parentID == req.parentID &&
		(leftKey == "" || leftKey < req.self.key) &&
		(rightKey == "" || req.self.key < rightKey) {
		return placementResult{key: req.self.key, unchanged: true}, nil
	}

	key, err := alloc.Allocate(leftKey, rightKey)
	if err != nil {
		return placementResult{}, err
	}
	return placementResult{key: key}, nil
}

// retryPlacement runs attempt, compacting the target list once when keys are
// exhausted and re-allocating once when a concurrent insert claimed the same key
func retryPlacement(ctx context.Context, compact func(context.Context) error, attempt func(context.Context) error) error {
	compacted, reallocated := false, false
	for {
		err := attempt(ctx)
		switch {
		case errors.Is(err, domain.ErrCompactionRequired) && !compacted:
			compacted = true
			if cerr := compact(ctx); cerr != nil {
				return fmt.Errorf("compaction before retry: %w", cerr)
			}
		case errors.Is(err, gorm.ErrDuplicatedKey) && !reallocated:
			reallocated = true
		default:
			return err
		}
	}
}

// compactSiblings rewrites every key in parentID with evenly spaced fresh keys
func compactSiblings[T any, PT interface {
	*T
	orderable
}](
	ctx context.Context,
	parentID uuid.UUID,
	list func(context.Context, uuid.UUID) ([]*T, error),
	rewrite func(context.Context, uuid.UUID, []uuid.UUID, []string) error,
) (int, error) {
	siblings, err := list(ctx, parentID)
	if err != nil {
		return 0, err
	}
	if len(siblings) == 0 {
		return 0, nil
	}

	ids := make([]uuid.UUID, len(siblings))
	for i, s := range siblings {
		ids[i] = PT(s).GetID()
	}
	if err := rewrite(ctx, parentID, ids, ordering.Spread(len(ids))); err != nil {
		return 0, err
	}
	return len(ids), nil
}
