package database

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

const startTimeKey = "metrics:start_time"

// MetricsRecorder is an interface for recording database metrics
type MetricsRecorder interface {
	RecordDBQuery(operation, table string, duration time.Duration, err error)
	UpdateDBStats(stats interface{})
}

// RegisterMetricsCallbacks times every query, create, update and delete
func RegisterMetricsCallbacks(db *gorm.DB, recorder MetricsRecorder) error {
	before := func(tx *gorm.DB) {
		tx.InstanceSet(startTimeKey, time.Now())
	}
	after := func(operation string) func(*gorm.DB) {
		return func(tx *gorm.DB) {
			start, ok := tx.InstanceGet(startTimeKey)
			if !ok {
				return
			}
			table := tx.Statement.Table
			if table == "" {
				table = "unknown"
			}
			err := tx.Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				err = nil
			}
			recorder.RecordDBQuery(operation, table, time.Since(start.(time.Time)), err)
		}
	}

	cb := db.Callback()
	registrations := []struct {
		operation string
		register  func() error
	}{
		{"select", func() error {
			if err := cb.Query().Before("gorm:query").Register("metrics:select_before", before); err != nil {
				return err
			}
			return cb.Query().After("gorm:query").Register("metrics:select_after", after("select"))
		}},
		{"insert", func() error {
			if err := cb.Create().Before("gorm:create").Register("metrics:insert_before", before); err != nil {
				return err
			}
			return cb.Create().After("gorm:create").Register("metrics:insert_after", after("insert"))
		}},
		{"update", func() error {
			if err := cb.Update().Before("gorm:update").Register("metrics:update_before", before); err != nil {
				return err
			}
			return cb.Update().After("gorm:update").Register("metrics:update_after", after("update"))
		}},
		{"delete", func() error {
			if err := cb.Delete().Before("gorm:delete").Register("metrics:delete_before", before); err != nil {
				return err
			}
			return cb.Delete().After("gorm:delete").Register("metrics:delete_after", after("delete"))
		}},
	}

	for _, r := range registrations {
		if err := r.register(); err != nil {
			return err
		}
	}
	return nil
}

// StartDBStatsCollector publishes connection pool stats every interval until ctx is done
func StartDBStatsCollector(ctx context.Context, db *gorm.DB, recorder MetricsRecorder, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				sqlDB, err := db.DB()
				if err != nil {
					continue
				}
				recorder.UpdateDBStats(sqlDB.Stats())
			case <-ctx.Done():
				return
			}
		}
	}()
}
