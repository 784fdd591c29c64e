package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"kanban-board-api/internal/domain"
	"kanban-board-api/internal/dto"
	"kanban-board-api/internal/metrics"
	"kanban-board-api/internal/notify"
)

// chatMessage is the webhook body. Text renders in chat clients that ignore
// structured fields.
type chatMessage struct {
	Text  string           `json:"text"`
	Event dto.EventMessage `json:"event"`
}

// ChatSink posts board-wide events to an incoming chat webhook
type ChatSink struct {
	webhookURL string
	httpClient *http.Client
	logger     *zap.Logger
	metrics    *metrics.Metrics
}

// NewChatSink creates a ChatSink for webhookURL
func NewChatSink(webhookURL string, logger *zap.Logger, m *metrics.Metrics) *ChatSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatSink{
		webhookURL: webhookURL,
		httpClient: &http.Client{},
		logger:     logger,
		metrics:    m,
	}
}

func (s *ChatSink) Channel() domain.Channel { return domain.ChannelChat }

// Supports accepts only the board broadcast; the webhook posts to a shared room
func (s *ChatSink) Supports(r notify.Recipient) bool { return r.Broadcast }

func (s *ChatSink) Send(ctx context.Context, event domain.DomainEvent, r notify.Recipient) error {
	body, err := json.Marshal(chatMessage{
		Text:  chatText(event),
		Event: dto.NewEventMessage(event),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal chat message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := s.httpClient.Do(req)
	duration := time.Since(start)

	statusCode := 0
	if resp != nil {
		statusCode = resp.StatusCode
	}
	if s.metrics != nil {
		s.metrics.RecordExternalAPICall("chat_webhook", http.MethodPost, statusCode, duration, err)
	}

	if err != nil {
		return fmt.Errorf("chat webhook request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("chat webhook returned status %d", resp.StatusCode)
	}
	return nil
}

func chatText(event domain.DomainEvent) string {
	name := event.Summary.Title
	if name == "" {
		name = event.EntityID.String()
	}
	switch {
	case event.Type == domain.EventTypeMoved && event.Summary.PositionChanged:
		return fmt.Sprintf("%s %q was moved", event.EntityKind, name)
	case event.Type == domain.EventTypeMoved:
		return fmt.Sprintf("%s %q was dropped back in place", event.EntityKind, name)
	default:
		return fmt.Sprintf("%s %q was %s", event.EntityKind, name, event.Type)
	}
}
