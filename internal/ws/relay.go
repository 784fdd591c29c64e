// Package ws forwards push notifications from Redis to websocket clients
// watching a board.
package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"kanban-board-api/internal/client"
	"kanban-board-api/internal/metrics"
	"kanban-board-api/internal/util"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// Relay upgrades board viewers to websockets and streams them the board's
// push channel plus the viewer's own channel
type Relay struct {
	rdb      *redis.Client
	prefix   string
	upgrader websocket.Upgrader
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

// NewRelay creates a Relay. allowedOrigins follows the CORS setting; "*" accepts any origin.
func NewRelay(rdb *redis.Client, prefix string, allowedOrigins []string, m *metrics.Metrics, logger *zap.Logger) *Relay {
	if prefix == "" {
		prefix = client.DefaultPushPrefix
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Relay{
		rdb:    rdb,
		prefix: prefix,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		metrics: m,
		logger:  logger,
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(r *http.Request) bool { return true }
		}
		set[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || set[origin]
	}
}

// ServeBoard handles GET /ws/boards/:boardId
func (r *Relay) ServeBoard(c *gin.Context) {
	boardID, ok := util.ParseUUIDParam(c, "boardId")
	if !ok {
		return
	}
	channels := []string{client.BoardChannel(r.prefix, boardID)}
	actorID, hasActor := util.ActorID(c)
	if hasActor {
		channels = append(channels, client.ActorChannel(r.prefix, actorID))
	}

	conn, err := r.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		r.logger.Warn("Failed to upgrade connection", zap.Error(err))
		return
	}

	// The subscription must outlive the upgrade request's context
	ctx, cancel := context.WithCancel(context.WithoutCancel(c.Request.Context()))
	pubsub := r.rdb.Subscribe(ctx, channels...)
	if _, err := pubsub.Receive(ctx); err != nil {
		r.logger.Error("Failed to subscribe to push channels", zap.Strings("channels", channels), zap.Error(err))
		_ = pubsub.Close()
		cancel()
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "subscription failed"),
			time.Now().Add(writeWait))
		_ = conn.Close()
		return
	}

	if r.metrics != nil {
		r.metrics.AddWebsocketConnections(1)
	}
	r.logger.Info("Board viewer connected",
		zap.String("board_id", boardID.String()),
		zap.Bool("authenticated", hasActor))

	s := &session{conn: conn, pubsub: pubsub, logger: r.logger}
	go func() {
		s.writePump()
		cancel()
	}()
	s.readPump()

	cancel()
	_ = pubsub.Close()
	if r.metrics != nil {
		r.metrics.AddWebsocketConnections(-1)
	}
	r.logger.Info("Board viewer disconnected", zap.String("board_id", boardID.String()))
}

// session is one websocket connection and its subscription
type session struct {
	conn   *websocket.Conn
	pubsub *redis.PubSub
	logger *zap.Logger
}

// readPump discards client frames and returns when the connection closes
func (s *session) readPump() {
	defer s.conn.Close()

	s.conn.SetReadLimit(maxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				s.logger.Warn("WebSocket error", zap.Error(err))
			}
			return
		}
	}
}

// writePump forwards published messages and keeps the connection alive
func (s *session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	messages := s.pubsub.Channel()
	for {
		select {
		case msg, ok := <-messages:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, []byte(msg.Payload)); err != nil {
				return
			}

		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
