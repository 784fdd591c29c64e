package metrics

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// EntityMetricsCollector periodically counts stored boards, columns and cards
type EntityMetricsCollector struct {
	db       *gorm.DB
	metrics  *Metrics
	logger   *zap.Logger
	interval time.Duration
	done     chan struct{}
}

// NewEntityMetricsCollector creates a new collector
func NewEntityMetricsCollector(db *gorm.DB, metrics *Metrics, logger *zap.Logger, interval time.Duration) *EntityMetricsCollector {
	if interval <= 0 {
		interval = 60 * time.Second
	}
	return &EntityMetricsCollector{
		db:       db,
		metrics:  metrics,
		logger:   logger,
		interval: interval,
		done:     make(chan struct{}),
	}
}

// Start begins collecting metrics
func (c *EntityMetricsCollector) Start() {
	go func() {
		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()

		c.collect()
		for {
			select {
			case <-ticker.C:
				c.collect()
			case <-c.done:
				return
			}
		}
	}()
}

// Stop stops the collector
func (c *EntityMetricsCollector) Stop() {
	close(c.done)
}

func (c *EntityMetricsCollector) collect() {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("Panic in entity metrics collection", zap.Any("panic", r))
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for entity, table := range map[string]string{"board": "boards", "column": "columns", "card": "cards"} {
		var count int64
		if err := c.db.WithContext(ctx).Table(table).Count(&count).Error; err != nil {
			c.logger.Error("Failed to count entities", zap.String("table", table), zap.Error(err))
			continue
		}
		c.metrics.SetEntitiesTotal(entity, count)
	}
}
