package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"kanban-board-api/internal/domain"
)

// defaultUnversionedAttempts bounds retries for last-writer-wins mutations
// that keep losing the compare-and-set race
const defaultUnversionedAttempts = 3

// versioned is satisfied by *domain.Board, *domain.Column and *domain.Card
type versioned interface {
	CurrentVersion() int64
	SetVersion(version int64)
	Touch(t time.Time)
}

// VersionedStore is the persistence contract of the guard
type VersionedStore[T any] interface {
	FindByID(ctx context.Context, id uuid.UUID) (*T, error)
	CompareAndSet(ctx context.Context, id uuid.UUID, expected int64, changes map[string]interface{}) (bool, error)
	DeleteIfVersion(ctx context.Context, id uuid.UUID, expected int64) (bool, error)
}

// Mutation edits the loaded entity in place and returns the columns it changed.
// An empty map still bumps the version.
type Mutation[T any] func(current *T) (map[string]interface{}, error)

// VersionGuard serializes mutations of one entity through a stored version counter.
// The store's compare-and-set is the only synchronization point, so the guard
// holds no locks and is safe to share across goroutines and processes.
type VersionGuard[T any, PT interface {
	*T
	versioned
}] struct {
	kind        domain.EntityKind
	store       VersionedStore[T]
	maxAttempts int
	now         func() time.Time
}

// NewVersionGuard creates a guard for entities of the given kind
func NewVersionGuard[T any, PT interface {
	*T
	versioned
}](kind domain.EntityKind, store VersionedStore[T]) *VersionGuard[T, PT] {
	return &VersionGuard[T, PT]{
		kind:        kind,
		store:       store,
		maxAttempts: defaultUnversionedAttempts,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Apply runs mutate against the current entity and commits it with a version bump.
//
// With a non-nil expected version the call fails with *domain.ConflictError when the
// stored version differs, before or during the commit, and nothing is written.
// With a nil expected version conflict checking is skipped: a lost race reloads
// the entity and re-runs mutate, up to a bounded number of attempts.
//
// Cancellation is honoured until the commit starts; the commit itself is not
// interrupted by ctx.
func (g *VersionGuard[T, PT]) Apply(ctx context.Context, id uuid.UUID, expected *int64, mutate Mutation[T]) (*T, error) {
	attempts := 1
	if expected == nil {
		attempts = g.maxAttempts
	}

	for attempt := 0; attempt < attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		current, err := g.store.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		entity := PT(current)
		version := entity.CurrentVersion()

		if expected != nil && *expected != version {
			return nil, g.conflict(id, *expected, current)
		}

		changes, err := mutate(current)
		if err != nil {
			return nil, err
		}

		if err := ctx.Err(); err != nil {
			return nil, err
		}

		ok, err := g.store.CompareAndSet(context.WithoutCancel(ctx), id, version, changes)
		if err != nil {
			return nil, err
		}
		if ok {
			entity.SetVersion(version + 1)
			entity.Touch(g.now())
			return current, nil
		}

		if expected != nil {
			return nil, g.reloadConflict(ctx, id, *expected)
		}
	}

	return nil, g.reloadConflict(ctx, id, -1)
}

// Delete removes the entity if its stored version still equals expected and
// returns the last snapshot before removal
func (g *VersionGuard[T, PT]) Delete(ctx context.Context, id uuid.UUID, expected int64) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	current, err := g.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if version := PT(current).CurrentVersion(); version != expected {
		return nil, g.conflict(id, expected, current)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ok, err := g.store.DeleteIfVersion(context.WithoutCancel(ctx), id, expected)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, g.reloadConflict(ctx, id, expected)
	}
	return current, nil
}

// reloadConflict builds a conflict from a fresh read after a lost compare-and-set
func (g *VersionGuard[T, PT]) reloadConflict(ctx context.Context, id uuid.UUID, expected int64) error {
	fresh, err := g.store.FindByID(context.WithoutCancel(ctx), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return err
		}
		return fmt.Errorf("reload %s %s after conflict: %w", g.kind, id, err)
	}
	return g.conflict(id, expected, fresh)
}

func (g *VersionGuard[T, PT]) conflict(id uuid.UUID, expected int64, current *T) error {
	return &domain.ConflictError{
		Kind:            g.kind,
		ID:              id,
		ExpectedVersion: expected,
		CurrentVersion:  PT(current).CurrentVersion(),
		Snapshot:        current,
	}
}
