package ledger

import (
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"kanban-board-api/internal/config"
	"kanban-board-api/internal/repository"
)

// FromConfig builds the ledger backend named by cfg.Backend
func FromConfig(cfg config.LedgerConfig, db *gorm.DB, rdb *redis.Client) (Ledger, error) {
	switch cfg.Backend {
	case config.LedgerBackendRedis:
		if rdb == nil {
			return nil, errors.New("redis ledger requires a redis client")
		}
		return NewRedisLedger(rdb, cfg.KeyPrefix, cfg.Retention), nil
	case config.LedgerBackendSQL:
		if db == nil {
			return nil, errors.New("sql ledger requires a database")
		}
		return NewSQLLedger(repository.NewAnnouncementRepository(db)), nil
	default:
		return nil, fmt.Errorf("unknown ledger backend %q", cfg.Backend)
	}
}
