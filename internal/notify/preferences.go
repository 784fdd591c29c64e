package notify

import (
	"context"

	"github.com/google/uuid"

	"kanban-board-api/internal/domain"
)

// PreferenceStore loads the preference rows that may govern an event
type PreferenceStore interface {
	FindApplicable(ctx context.Context, eventType domain.EventType, boardID uuid.UUID, actorIDs []uuid.UUID) ([]*domain.NotificationPreference, error)
}

// preferences answers "is channel enabled for recipient" for one event
type preferences struct {
	boardID uuid.UUID
	rows    []*domain.NotificationPreference
}

// enabled resolves the most specific matching row:
// (actor, board) > (actor, global) > (default, board) > (default, global).
// Without any matching row the channel is enabled.
func (p preferences) enabled(channel domain.Channel, r Recipient) bool {
	best, bestRank := true, 0
	for _, row := range p.rows {
		if row.Channel != channel {
			continue
		}
		rank := p.rank(row, r)
		if rank > bestRank {
			best, bestRank = row.Enabled, rank
		}
	}
	return best
}

func (p preferences) rank(row *domain.NotificationPreference, r Recipient) int {
	rank := 0
	switch {
	case row.ActorID == nil:
	case !r.Broadcast && *row.ActorID == r.ActorID:
		rank += 2
	default:
		return 0
	}
	switch {
	case row.BoardID == nil:
		rank++
	case *row.BoardID == p.boardID:
		rank += 2
	default:
		return 0
	}
	return rank
}
