package websocket

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"psychicline-backend/internal/metrics"
	"psychicline-backend/internal/models"
	"psychicline-backend/internal/services"
)

const writeTimeout = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type tokenParser interface {
	ParseToken(tokenStr string) (models.Principal, error)
}

// client serializes writes; gorilla connections allow one concurrent writer.
type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// Hub relays each account's user_updates channel to its open sockets. Users,
// psychics and admins all connect here with their access token.
type Hub struct {
	mu          sync.RWMutex
	connections map[uuid.UUID][]*client
	redisClient *redis.Client
	tokens      tokenParser
	cancelFuncs map[uuid.UUID]context.CancelFunc
	log         *zap.Logger
}

func NewHub(redisClient *redis.Client, tokens tokenParser, log *zap.Logger) *Hub {
	return &Hub{
		connections: make(map[uuid.UUID][]*client),
		redisClient: redisClient,
		tokens:      tokens,
		cancelFuncs: make(map[uuid.UUID]context.CancelFunc),
		log:         log,
	}
}

func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	// Browsers cannot set headers on the upgrade, so the token rides in the query.
	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	principal, err := h.tokens.ParseToken(tokenStr)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	// The server's read timeout outlives the upgrade; clients idle indefinitely.
	conn.SetReadDeadline(time.Time{})

	c := &client{conn: conn}
	h.registerConnection(principal, c)

	go func() {
		defer h.unregisterConnection(principal.ID, c)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (h *Hub) registerConnection(p models.Principal, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.connections[p.ID] = append(h.connections[p.ID], c)
	metrics.WebSocketConnections.Inc()

	// One subscription per account, shared by all its tabs.
	if len(h.connections[p.ID]) == 1 && h.redisClient != nil {
		ctx, cancel := context.WithCancel(context.Background())
		h.cancelFuncs[p.ID] = cancel
		go h.subscribe(ctx, p.ID)
	}

	h.log.Debug("websocket connected",
		zap.String("id", p.ID.String()),
		zap.String("role", p.Role),
		zap.Int("connections", len(h.connections[p.ID])),
	)
}

func (h *Hub) unregisterConnection(id uuid.UUID, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c.conn.Close()

	conns := h.connections[id]
	for i, existing := range conns {
		if existing == c {
			h.connections[id] = append(conns[:i], conns[i+1:]...)
			metrics.WebSocketConnections.Dec()
			break
		}
	}

	if len(h.connections[id]) == 0 {
		delete(h.connections, id)
		if cancel, ok := h.cancelFuncs[id]; ok {
			cancel()
			delete(h.cancelFuncs, id)
		}
	}

	h.log.Debug("websocket disconnected", zap.String("id", id.String()))
}

func (h *Hub) subscribe(ctx context.Context, id uuid.UUID) {
	pubsub := h.redisClient.Subscribe(ctx, services.UpdateChannel(id))
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			h.broadcast(id, []byte(msg.Payload))
		}
	}
}

func (h *Hub) broadcast(id uuid.UUID, data []byte) {
	h.mu.RLock()
	clients := append([]*client(nil), h.connections[id]...)
	h.mu.RUnlock()

	for _, c := range clients {
		if err := c.write(data); err != nil {
			h.log.Debug("websocket write failed", zap.String("id", id.String()), zap.Error(err))
		}
	}
}

// Close drops every socket, used on shutdown.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, conns := range h.connections {
		for _, c := range conns {
			c.conn.Close()
		}
		if cancel, ok := h.cancelFuncs[id]; ok {
			cancel()
		}
	}
}
