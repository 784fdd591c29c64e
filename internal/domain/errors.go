package domain

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when a referenced board, column or card does not exist
	ErrNotFound = errors.New("entity not found")
	// ErrInvalidReference is returned when a placement references a sibling of the wrong parent
	// or a before/after pair in the wrong order
	ErrInvalidReference = errors.New("invalid reference")
	// ErrVersionConflict is returned when the caller's expected version is stale
	ErrVersionConflict = errors.New("version conflict")
	// ErrVersionRequired is returned when a mutation omits the expected version
	ErrVersionRequired = errors.New("expected version is required")
	// ErrCompactionRequired is returned when an order key would exceed the configured length
	ErrCompactionRequired = errors.New("order key space exhausted, compaction required")
	// ErrSinkDeliveryFailed is recorded when a notification sink fails. It never reaches mutation callers.
	ErrSinkDeliveryFailed = errors.New("sink delivery failed")
)

// ConflictError carries the authoritative state after a failed compare-and-set
type ConflictError struct {
	Kind            EntityKind
	ID              uuid.UUID
	ExpectedVersion int64
	CurrentVersion  int64
	Snapshot        interface{}
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s %s: expected version %d, current version %d",
		e.Kind, e.ID, e.ExpectedVersion, e.CurrentVersion)
}

// Is lets errors.Is match ErrVersionConflict
func (e *ConflictError) Is(target error) bool {
	return target == ErrVersionConflict
}
