package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"kanban-board-api/internal/handler"
	"kanban-board-api/internal/metrics"
	"kanban-board-api/internal/middleware"
	"kanban-board-api/internal/service"
	"kanban-board-api/internal/ws"
)

// Config holds router dependencies
type Config struct {
	DB          *gorm.DB
	Redis       *redis.Client
	Logger      *zap.Logger
	JWTSecret   string
	BasePath    string
	CORSOrigins []string
	Metrics     *metrics.Metrics
	// Gatherer backs /metrics. Defaults to the global registry.
	Gatherer prometheus.Gatherer

	BoardService  service.BoardService
	ColumnService service.ColumnService
	CardService   service.CardService

	// Relay is optional; without it the websocket route is not mounted
	Relay *ws.Relay
}

// Setup sets up the router with all routes and middleware
func Setup(cfg Config) *gin.Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := gin.New()

	r.Use(middleware.RequestID())
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.CORS(cfg.CORSOrigins))
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}

	gatherer := cfg.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	metricsHandler := gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	healthHandler := handler.NewHealthHandler(cfg.DB, cfg.Redis)
	boardHandler := handler.NewBoardHandler(cfg.BoardService, cfg.ColumnService, logger)
	columnHandler := handler.NewColumnHandler(cfg.ColumnService, cfg.CardService, logger)
	cardHandler := handler.NewCardHandler(cfg.CardService, logger)

	// Health, metrics and API docs stay reachable without a token
	r.GET("/health", healthHandler.Health)
	r.GET("/ready", healthHandler.Ready)
	r.GET("/metrics", metricsHandler)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.Group(cfg.BasePath)
	{
		if cfg.BasePath != "" {
			api.GET("/health", healthHandler.Health)
			api.GET("/ready", healthHandler.Ready)
			api.GET("/metrics", metricsHandler)
			api.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
		}

		authed := api.Group("")
		authed.Use(middleware.Auth(cfg.JWTSecret))

		boards := authed.Group("/boards")
		{
			boards.POST("", boardHandler.CreateBoard)
			boards.GET("/:boardId", boardHandler.GetBoard)
			boards.PUT("/:boardId", boardHandler.UpdateBoard)
			boards.DELETE("/:boardId", boardHandler.DeleteBoard)
			boards.POST("/:boardId/compact", boardHandler.CompactBoard)
			boards.POST("/:boardId/columns", columnHandler.CreateColumn)
		}

		columns := authed.Group("/columns")
		{
			columns.PUT("/:columnId", columnHandler.UpdateColumn)
			columns.PUT("/:columnId/move", columnHandler.MoveColumn)
			columns.DELETE("/:columnId", columnHandler.DeleteColumn)
			columns.POST("/:columnId/compact", columnHandler.CompactColumn)
		}

		cards := authed.Group("/cards")
		{
			cards.POST("", cardHandler.CreateCard)
			cards.GET("/:cardId", cardHandler.GetCard)
			cards.PUT("/:cardId", cardHandler.UpdateCard)
			cards.PUT("/:cardId/move", cardHandler.MoveCard)
			cards.DELETE("/:cardId", cardHandler.DeleteCard)
			cards.PUT("/:cardId/checklist/:itemId", cardHandler.ToggleChecklistItem)
		}

		if cfg.Relay != nil {
			authed.GET("/ws/boards/:boardId", cfg.Relay.ServeBoard)
		}
	}

	return r
}
