package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"kanban-board-api/internal/domain"
)

// DefaultKeyPrefix namespaces ledger keys in a shared Redis
const DefaultKeyPrefix = "kanban:dedupe"

// RedisLedger stores dedupe keys with SETNX so every API instance shares one
// view. Keys expire after the retention window, so Purge has nothing to do.
type RedisLedger struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisLedger creates a ledger whose keys live for retention
func NewRedisLedger(client *redis.Client, prefix string, retention time.Duration) *RedisLedger {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &RedisLedger{client: client, prefix: prefix, ttl: retention}
}

func (l *RedisLedger) key(dedupeKey string) string {
	return fmt.Sprintf("%s:%s", l.prefix, dedupeKey)
}

// ShouldAnnounce returns true for the first caller with this event's dedupe key
func (l *RedisLedger) ShouldAnnounce(ctx context.Context, event domain.DomainEvent) (bool, error) {
	added, err := l.client.SetNX(ctx, l.key(event.DedupeKey), event.OccurredAt.Unix(), l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis ledger setnx %s: %w", event.DedupeKey, err)
	}
	return added, nil
}

// Record marks the event as announced, keeping an existing record's expiry
func (l *RedisLedger) Record(ctx context.Context, event domain.DomainEvent) error {
	if err := l.client.SetNX(ctx, l.key(event.DedupeKey), event.OccurredAt.Unix(), l.ttl).Err(); err != nil {
		return fmt.Errorf("redis ledger record %s: %w", event.DedupeKey, err)
	}
	return nil
}

// Seen reports whether the key is recorded and not yet expired
func (l *RedisLedger) Seen(ctx context.Context, dedupeKey string) (bool, error) {
	n, err := l.client.Exists(ctx, l.key(dedupeKey)).Result()
	if err != nil {
		return false, fmt.Errorf("redis ledger exists %s: %w", dedupeKey, err)
	}
	return n == 1, nil
}

// Purge is a no-op; Redis expires records on its own
func (l *RedisLedger) Purge(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}
