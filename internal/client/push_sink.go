package client

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"kanban-board-api/internal/domain"
	"kanban-board-api/internal/dto"
	"kanban-board-api/internal/notify"
)

// DefaultPushPrefix namespaces push channels in a shared Redis
const DefaultPushPrefix = "kanban"

// BoardChannel is the pub/sub channel carrying every event of a board
func BoardChannel(prefix string, boardID uuid.UUID) string {
	return fmt.Sprintf("%s:board:%s", prefix, boardID)
}

// ActorChannel is the pub/sub channel carrying events addressed to one actor
func ActorChannel(prefix string, actorID uuid.UUID) string {
	return fmt.Sprintf("%s:actor:%s", prefix, actorID)
}

// PushSink publishes events on Redis channels that the websocket relay forwards
// to connected clients
type PushSink struct {
	client *redis.Client
	prefix string
}

// NewPushSink creates a PushSink
func NewPushSink(client *redis.Client, prefix string) *PushSink {
	if prefix == "" {
		prefix = DefaultPushPrefix
	}
	return &PushSink{client: client, prefix: prefix}
}

func (s *PushSink) Channel() domain.Channel { return domain.ChannelPush }

func (s *PushSink) Supports(r notify.Recipient) bool { return true }

func (s *PushSink) Send(ctx context.Context, event domain.DomainEvent, r notify.Recipient) error {
	payload, err := json.Marshal(dto.NewEventMessage(event))
	if err != nil {
		return fmt.Errorf("failed to marshal push message: %w", err)
	}

	channel := BoardChannel(s.prefix, event.BoardID)
	if !r.Broadcast {
		channel = ActorChannel(s.prefix, r.ActorID)
	}
	if err := s.client.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", channel, err)
	}
	return nil
}
