package commands

import (
	"context"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"kanban-board-api/internal/config"
	"kanban-board-api/internal/database"
)

// environment is the set of stores a command works against
type environment struct {
	cfg    *config.Config
	db     *gorm.DB
	rdb    *redis.Client
	logger *zap.Logger
}

func (e *environment) Close() {
	if e.rdb != nil {
		_ = e.rdb.Close()
	}
	if e.db != nil {
		_ = database.Close(e.db)
	}
}

// openEnvironment loads configuration and connects to the database, and to
// Redis when the ledger lives there. Tests replace it with an in-memory setup.
var openEnvironment = func(ctx context.Context) (*environment, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	logger, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}

	db, err := database.New(database.Config{
		Driver:          cfg.Database.Driver,
		DSN:             cfg.Database.GetDSN(),
		MaxOpenConns:    2,
		MaxIdleConns:    1,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		return nil, err
	}

	env := &environment{cfg: cfg, db: db, logger: logger}
	if cfg.Ledger.Backend == config.LedgerBackendRedis {
		env.rdb, err = database.NewRedis(ctx, database.RedisConfig{
			URL:      cfg.Redis.URL,
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, logger)
		if err != nil {
			env.Close()
			return nil, err
		}
	}
	return env, nil
}
