package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"kanban-board-api/internal/domain"
	"kanban-board-api/internal/metrics"
	"kanban-board-api/internal/notify"
)

// NotificationEvent is the payload accepted by the notification service relay
type NotificationEvent struct {
	Type         string                 `json:"type"`
	ActorID      uuid.UUID              `json:"actorId"`
	TargetUserID uuid.UUID              `json:"targetUserId"`
	BoardID      uuid.UUID              `json:"boardId"`
	ResourceType string                 `json:"resourceType"`
	ResourceID   uuid.UUID              `json:"resourceId"`
	ResourceName string                 `json:"resourceName,omitempty"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
	OccurredAt   string                 `json:"occurredAt,omitempty"`
}

// EmailSink relays direct notifications to the notification service, which owns
// templates and mail delivery
type EmailSink struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
	metrics    *metrics.Metrics
}

// NewEmailSink creates an EmailSink. The dispatcher bounds each call, so the
// http client carries no timeout of its own.
func NewEmailSink(baseURL, apiKey string, logger *zap.Logger, m *metrics.Metrics) *EmailSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EmailSink{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{},
		logger:     logger,
		metrics:    m,
	}
}

func (s *EmailSink) Channel() domain.Channel { return domain.ChannelEmail }

// Supports accepts only individual actors; there is no board mailing list
func (s *EmailSink) Supports(r notify.Recipient) bool { return !r.Broadcast }

// Send posts one notification for r
func (s *EmailSink) Send(ctx context.Context, event domain.DomainEvent, r notify.Recipient) error {
	url := fmt.Sprintf("%s/api/internal/notifications", s.baseURL)

	body, err := json.Marshal(newNotificationEvent(event, r.ActorID))
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Internal-API-Key", s.apiKey)

	start := time.Now()
	resp, err := s.httpClient.Do(req)
	duration := time.Since(start)

	statusCode := 0
	if resp != nil {
		statusCode = resp.StatusCode
	}
	if s.metrics != nil {
		s.metrics.RecordExternalAPICall(url, http.MethodPost, statusCode, duration, err)
	}

	if err != nil {
		return fmt.Errorf("notification service request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("notification service returned status %d", resp.StatusCode)
	}

	s.logger.Debug("Notification relayed",
		zap.String("dedupe_key", event.DedupeKey),
		zap.String("target_user_id", r.ActorID.String()),
		zap.Duration("duration", duration))
	return nil
}

func newNotificationEvent(event domain.DomainEvent, target uuid.UUID) NotificationEvent {
	metadata := map[string]interface{}{
		"version":   event.Version,
		"dedupeKey": event.DedupeKey,
	}
	if len(event.Summary.Fields) > 0 {
		metadata["fields"] = event.Summary.Fields
	}
	if event.Summary.PositionChanged {
		metadata["positionChanged"] = true
	}
	if event.Summary.ToParentID != nil {
		metadata["toParentId"] = event.Summary.ToParentID.String()
	}

	return NotificationEvent{
		Type:         strings.ToUpper(string(event.EntityKind) + "_" + string(event.Type)),
		ActorID:      event.ActorID,
		TargetUserID: target,
		BoardID:      event.BoardID,
		ResourceType: string(event.EntityKind),
		ResourceID:   event.EntityID,
		ResourceName: event.Summary.Title,
		Metadata:     metadata,
		OccurredAt:   event.OccurredAt.UTC().Format(time.RFC3339),
	}
}
