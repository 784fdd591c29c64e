package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"kanban-board-api/internal/domain"
	"kanban-board-api/internal/metrics"
)

// DefaultSinkTimeout bounds a single Send call
const DefaultSinkTimeout = 5 * time.Second

// Dispatcher delivers one event to every eligible (sink, recipient) pair.
// Sinks run concurrently and fail independently.
type Dispatcher struct {
	prefs   PreferenceStore
	sinks   []Sink
	timeout time.Duration
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewDispatcher creates a Dispatcher. prefs may be nil, which enables every channel.
func NewDispatcher(prefs PreferenceStore, sinks []Sink, timeout time.Duration, m *metrics.Metrics, logger *zap.Logger) *Dispatcher {
	if timeout <= 0 {
		timeout = DefaultSinkTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		prefs:   prefs,
		sinks:   sinks,
		timeout: timeout,
		metrics: m,
		logger:  logger,
	}
}

// Dispatch sends event to every sink the preferences allow. The returned error
// joins every sink failure, each wrapping domain.ErrSinkDeliveryFailed; it is
// for logging only.
func (d *Dispatcher) Dispatch(ctx context.Context, event domain.DomainEvent) error {
	recipients := recipientsOf(event)
	prefs := d.loadPreferences(ctx, event, recipients)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for _, sink := range d.sinks {
		for _, r := range recipients {
			if !sink.Supports(r) || !prefs.enabled(sink.Channel(), r) {
				continue
			}
			wg.Add(1)
			go func(sink Sink, r Recipient) {
				defer wg.Done()
				if err := d.send(ctx, sink, event, r); err != nil {
					mu.Lock()
					errs = append(errs, err)
					mu.Unlock()
				}
			}(sink, r)
		}
	}
	wg.Wait()

	return errors.Join(errs...)
}

func (d *Dispatcher) send(ctx context.Context, sink Sink, event domain.DomainEvent, r Recipient) (err error) {
	channel := sink.Channel()
	sendCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	start := time.Now()
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: %s sink panicked: %v", domain.ErrSinkDeliveryFailed, channel, p)
		}
		if d.metrics != nil {
			d.metrics.RecordSinkDelivery(string(channel), time.Since(start), err)
		}
		if err != nil {
			d.logger.Warn("Notification delivery failed",
				zap.String("channel", string(channel)),
				zap.String("recipient", r.String()),
				zap.String("dedupe_key", event.DedupeKey),
				zap.Error(err))
		}
	}()

	if sendErr := sink.Send(sendCtx, event, r); sendErr != nil {
		return fmt.Errorf("%w: %s to %s: %v", domain.ErrSinkDeliveryFailed, channel, r, sendErr)
	}
	return nil
}

// loadPreferences fails open: a store error leaves every channel enabled
func (d *Dispatcher) loadPreferences(ctx context.Context, event domain.DomainEvent, recipients []Recipient) preferences {
	p := preferences{boardID: event.BoardID}
	if d.prefs == nil {
		return p
	}

	var actors []uuid.UUID
	for _, r := range recipients {
		if !r.Broadcast {
			actors = append(actors, r.ActorID)
		}
	}
	rows, err := d.prefs.FindApplicable(ctx, event.Type, event.BoardID, actors)
	if err != nil {
		d.logger.Warn("Failed to load notification preferences, delivering to all channels",
			zap.String("dedupe_key", event.DedupeKey),
			zap.Error(err))
		return p
	}
	p.rows = rows
	return p
}
