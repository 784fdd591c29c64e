package job

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"kanban-board-api/internal/metrics"
)

// Purger removes dedupe records older than a cutoff
type Purger interface {
	Purge(ctx context.Context, cutoff time.Time) (int64, error)
}

// LedgerSweepJob drops dedupe records that fell outside the retry horizon
type LedgerSweepJob struct {
	ledger    Purger
	retention time.Duration
	timeout   time.Duration
	metrics   *metrics.Metrics
	logger    *zap.Logger
	now       func() time.Time
}

// NewLedgerSweepJob creates a new LedgerSweepJob instance
func NewLedgerSweepJob(ledger Purger, retention time.Duration, m *metrics.Metrics, logger *zap.Logger) *LedgerSweepJob {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LedgerSweepJob{
		ledger:    ledger,
		retention: retention,
		timeout:   time.Minute,
		metrics:   m,
		logger:    logger,
		now:       time.Now,
	}
}

// Run executes one sweep. It satisfies cron.Job.
func (j *LedgerSweepJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	if _, err := j.Sweep(ctx); err != nil {
		j.logger.Error("Ledger sweep failed", zap.Error(err))
	}
}

// Sweep purges records recorded before now minus the retention window
func (j *LedgerSweepJob) Sweep(ctx context.Context) (int64, error) {
	cutoff := j.now().Add(-j.retention)

	removed, err := j.ledger.Purge(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge ledger before %s: %w", cutoff.Format(time.RFC3339), err)
	}

	if j.metrics != nil {
		j.metrics.AddLedgerSwept(removed)
	}
	j.logger.Info("Ledger sweep completed",
		zap.Time("cutoff", cutoff),
		zap.Int64("removed", removed))
	return removed, nil
}

// Scheduler runs background jobs on cron specs
type Scheduler struct {
	cron   *cron.Cron
	logger *zap.Logger
	once   sync.Once
}

// NewScheduler creates a stopped Scheduler. Overlapping runs of the same job are skipped.
func NewScheduler(logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		cron: cron.New(cron.WithChain(
			cron.Recover(cron.DefaultLogger),
			cron.SkipIfStillRunning(cron.DefaultLogger),
		)),
		logger: logger,
	}
}

// Add registers job under spec, e.g. "@every 1h" or "0 3 * * *"
func (s *Scheduler) Add(name, spec string, job cron.Job) error {
	if _, err := s.cron.AddJob(spec, job); err != nil {
		return fmt.Errorf("schedule %s (%q): %w", name, spec, err)
	}
	s.logger.Info("Scheduled job", zap.String("job", name), zap.String("spec", spec))
	return nil
}

// Start runs the scheduler in its own goroutine
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops scheduling and waits for running jobs or ctx
func (s *Scheduler) Stop(ctx context.Context) error {
	var done context.Context
	s.once.Do(func() { done = s.cron.Stop() })
	if done == nil {
		return nil
	}
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
