package notify

import (
	"context"
	"hash/fnv"
	"sync"

	"go.uber.org/zap"

	"kanban-board-api/internal/domain"
	"kanban-board-api/internal/ledger"
	"kanban-board-api/internal/metrics"
)

// EventDispatcher delivers an announced event
type EventDispatcher interface {
	Dispatch(ctx context.Context, event domain.DomainEvent) error
}

// PipelineConfig sizes the delivery workers
type PipelineConfig struct {
	// Workers is the number of delivery goroutines. Zero dispatches inline.
	Workers int
	// QueueSize is the buffer of each worker queue
	QueueSize int
}

type job struct {
	ctx   context.Context
	event domain.DomainEvent
}

// Pipeline is the message-passing path from a committed mutation to its sinks:
// ledger check, then dispatch. The ledger check runs synchronously in Publish,
// in commit order; delivery runs on workers sharded by entity id, so events for
// one entity keep their order.
type Pipeline struct {
	ledger     ledger.Ledger
	dispatcher EventDispatcher
	metrics    *metrics.Metrics
	logger     *zap.Logger

	mu     sync.RWMutex
	closed bool
	queues []chan job
	wg     sync.WaitGroup
}

// NewPipeline creates and starts a Pipeline. l may be nil, which announces everything.
func NewPipeline(l ledger.Ledger, d EventDispatcher, cfg PipelineConfig, m *metrics.Metrics, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Pipeline{
		ledger:     l,
		dispatcher: d,
		metrics:    m,
		logger:     logger,
	}

	if cfg.Workers > 0 {
		if cfg.QueueSize <= 0 {
			cfg.QueueSize = 128
		}
		p.queues = make([]chan job, cfg.Workers)
		for i := range p.queues {
			q := make(chan job, cfg.QueueSize)
			p.queues[i] = q
			p.wg.Add(1)
			go p.worker(q)
		}
	}
	return p
}

// Publish announces event once and hands it to delivery. It never fails:
// notification is a side effect of a committed mutation, not a precondition.
func (p *Pipeline) Publish(ctx context.Context, event domain.DomainEvent) {
	if !p.ShouldAnnounce(ctx, event) {
		return
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed || len(p.queues) == 0 {
		p.deliver(ctx, event)
		return
	}
	p.queues[p.shard(event)] <- job{ctx: ctx, event: event}
}

// ShouldAnnounce consults the ledger. Ledger failures fail open.
func (p *Pipeline) ShouldAnnounce(ctx context.Context, event domain.DomainEvent) bool {
	announce := true
	if p.ledger != nil {
		ok, err := p.ledger.ShouldAnnounce(ctx, event)
		if err != nil {
			if p.metrics != nil {
				p.metrics.IncrementLedgerError()
			}
			p.logger.Warn("Dedupe ledger unavailable, announcing anyway",
				zap.String("dedupe_key", event.DedupeKey),
				zap.Error(err))
		} else {
			announce = ok
		}
	}

	if p.metrics != nil {
		p.metrics.RecordAnnouncement(string(event.Type), announce)
	}
	if !announce {
		p.logger.Debug("Suppressed duplicate event", zap.String("dedupe_key", event.DedupeKey))
	}
	return announce
}

// Close stops accepting queued work and waits for queued events to be delivered
// or for ctx to expire. Events published afterwards are dispatched inline.
func (p *Pipeline) Close(ctx context.Context) error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		for _, q := range p.queues {
			close(q)
		}
	}
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pipeline) worker(q <-chan job) {
	defer p.wg.Done()
	for j := range q {
		p.deliver(j.ctx, j.event)
	}
}

func (p *Pipeline) deliver(ctx context.Context, event domain.DomainEvent) {
	if err := p.dispatcher.Dispatch(ctx, event); err != nil {
		p.logger.Debug("Event delivered with sink failures",
			zap.String("dedupe_key", event.DedupeKey),
			zap.Error(err))
	}
}

func (p *Pipeline) shard(event domain.DomainEvent) int {
	h := fnv.New32a()
	_, _ = h.Write(event.EntityID[:])
	return int(h.Sum32() % uint32(len(p.queues)))
}
