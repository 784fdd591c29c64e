// @title           Kanban Board API
// @version         1.0
// @description     Board, column and card mutations with ordered placement, optimistic versioning and deduplicated change notifications
// @termsOfService  http://swagger.io/terms/

// @contact.name   API Support
// @contact.email  support@kanban.local

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:8000
// @BasePath  /api

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the JWT token.

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	_ "kanban-board-api/docs" // Swagger docs import
	"kanban-board-api/internal/client"
	"kanban-board-api/internal/config"
	"kanban-board-api/internal/database"
	"kanban-board-api/internal/job"
	"kanban-board-api/internal/ledger"
	"kanban-board-api/internal/metrics"
	"kanban-board-api/internal/notify"
	"kanban-board-api/internal/ordering"
	"kanban-board-api/internal/repository"
	"kanban-board-api/internal/router"
	"kanban-board-api/internal/service"
	"kanban-board-api/internal/tracing"
	"kanban-board-api/internal/ws"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the yaml config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := initLogger(cfg.Logger.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("Kanban Board API stopped with error", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	logger.Info("Starting Kanban Board API",
		zap.String("port", cfg.Server.Port),
		zap.String("mode", cfg.Server.Mode),
		zap.String("base_path", cfg.Server.BasePath),
		zap.String("database_driver", cfg.Database.Driver),
		zap.String("ledger_backend", cfg.Ledger.Backend),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Setup(ctx, cfg.Tracing)
	if err != nil {
		logger.Warn("Tracing disabled, exporter setup failed", zap.Error(err))
	}

	// Initialize metrics
	m := metrics.NewWithLogger(logger)

	// Initialize database
	db, err := database.NewWithRetry(database.Config{
		Driver:          cfg.Database.Driver,
		DSN:             cfg.Database.GetDSN(),
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, 5, 3*time.Second, logger)
	if err != nil {
		return err
	}
	defer database.Close(db)
	logger.Info("Database connected successfully")

	if cfg.Database.AutoMigrate {
		if err := database.SafeAutoMigrateWithRetry(db, logger, 3); err != nil {
			return fmt.Errorf("auto migrate: %w", err)
		}
	}

	if err := database.RegisterMetricsCallbacks(db, m); err != nil {
		logger.Warn("Failed to register database metrics callbacks", zap.Error(err))
	}
	database.StartDBStatsCollector(ctx, db, m, 15*time.Second)

	collector := metrics.NewEntityMetricsCollector(db, m, logger, time.Minute)
	collector.Start()
	defer collector.Stop()

	// Redis backs the shared ledger, the push sink and the websocket relay
	var rdb *redis.Client
	if cfg.Redis.Enabled() {
		rdb, err = database.NewRedis(ctx, database.RedisConfig{
			URL:      cfg.Redis.URL,
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, logger)
		if err != nil {
			return err
		}
		defer rdb.Close()
	}

	dedupe, err := ledger.FromConfig(cfg.Ledger, db, rdb)
	if err != nil {
		return err
	}

	dispatcher := notify.NewDispatcher(
		repository.NewPreferenceRepository(db),
		buildSinks(cfg, rdb, m, logger),
		cfg.Notify.SinkTimeout,
		m,
		logger,
	)
	pipeline := notify.NewPipeline(dedupe, dispatcher, notify.PipelineConfig{
		Workers:   cfg.Notify.Workers,
		QueueSize: cfg.Notify.QueueSize,
	}, m, logger)

	// Attachment blobs are optional. An untyped nil keeps the services' nil check meaningful.
	var blobs service.BlobStore
	if cfg.S3.Enabled() {
		s3Client, err := client.NewS3Client(ctx, &cfg.S3)
		if err != nil {
			logger.Warn("Failed to initialize S3 client, attachment URLs disabled", zap.Error(err))
		} else {
			blobs = s3Client
			logger.Info("S3 client initialized",
				zap.String("bucket", cfg.S3.Bucket),
				zap.String("region", cfg.S3.Region),
			)
		}
	}

	boardRepo := repository.NewBoardRepository(db)
	columnRepo := repository.NewColumnRepository(db)
	cardRepo := repository.NewCardRepository(db)
	alloc := ordering.NewAllocator(ordering.Config{
		MaxKeyLength: cfg.Ordering.MaxKeyLength,
		JitterDigits: cfg.Ordering.JitterDigits,
	})

	routerCfg := router.Config{
		DB:            db,
		Redis:         rdb,
		Logger:        logger,
		JWTSecret:     cfg.JWT.Secret,
		BasePath:      cfg.Server.BasePath,
		CORSOrigins:   cfg.Server.CORSOrigins,
		Metrics:       m,
		BoardService:  service.NewBoardService(boardRepo, cardRepo, pipeline, blobs, m, logger),
		ColumnService: service.NewColumnService(boardRepo, columnRepo, cardRepo, alloc, pipeline, blobs, m, logger),
		CardService:   service.NewCardService(columnRepo, cardRepo, alloc, pipeline, blobs, m, logger),
	}
	if rdb != nil {
		routerCfg.Relay = ws.NewRelay(rdb, cfg.Notify.PushChannelPrefix, cfg.Server.CORSOrigins, m, logger)
	}

	scheduler := job.NewScheduler(logger)
	if cfg.Ledger.SweepSchedule != "" {
		sweep := job.NewLedgerSweepJob(dedupe, cfg.Ledger.Retention, m, logger)
		if err := scheduler.Add("ledger-sweep", cfg.Ledger.SweepSchedule, sweep); err != nil {
			return err
		}
	}
	scheduler.Start()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router.Setup(routerCfg),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Kanban Board API started successfully",
			zap.String("address", srv.Addr),
			zap.String("swagger", fmt.Sprintf("http://localhost:%s%s/swagger/index.html", cfg.Server.Port, cfg.Server.BasePath)),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutting down server...")
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	}

	// Graceful shutdown with timeout: stop intake, drain notifications, flush spans
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := pipeline.Close(shutdownCtx); err != nil {
		logger.Warn("Notification pipeline did not drain", zap.Error(err))
	}
	if err := scheduler.Stop(shutdownCtx); err != nil {
		logger.Warn("Scheduled jobs still running at shutdown", zap.Error(err))
	}
	if shutdownTracing != nil {
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Warn("Failed to flush traces", zap.Error(err))
		}
	}

	logger.Info("Server exited gracefully")
	return nil
}

// buildSinks returns every sink whose backing service is configured
func buildSinks(cfg *config.Config, rdb *redis.Client, m *metrics.Metrics, logger *zap.Logger) []notify.Sink {
	var sinks []notify.Sink
	if rdb != nil {
		sinks = append(sinks, client.NewPushSink(rdb, cfg.Notify.PushChannelPrefix))
	}
	if cfg.Notify.NotificationServiceURL != "" {
		sinks = append(sinks, client.NewEmailSink(cfg.Notify.NotificationServiceURL, cfg.Notify.InternalAPIKey, logger, m))
	}
	if cfg.Notify.ChatWebhookURL != "" {
		sinks = append(sinks, client.NewChatSink(cfg.Notify.ChatWebhookURL, logger, m))
	}
	if len(sinks) == 0 {
		logger.Warn("No notification sinks configured, events are announced but not delivered")
	}
	return sinks
}

// initLogger initializes the zap logger with the specified level
func initLogger(level string) (*zap.Logger, error) {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	config := zap.Config{
		Level:            zap.NewAtomicLevelAt(zapLevel),
		Development:      zapLevel == zapcore.DebugLevel,
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	return config.Build()
}
