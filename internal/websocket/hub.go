package websocket

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"edis-portal/internal/middleware"
	"edis-portal/internal/models"
)

const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Hub relays collection change events to every connected client so open views
// know to refetch.
type Hub struct {
	mu          sync.RWMutex
	connections map[*websocket.Conn]string
	redisClient *redis.Client
	auth        *middleware.JWTAuth
}

func NewHub(redisClient *redis.Client, auth *middleware.JWTAuth) *Hub {
	return &Hub{
		connections: make(map[*websocket.Conn]string),
		redisClient: redisClient,
		auth:        auth,
	}
}

// Run relays messages from the change channel until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	pubsub := h.redisClient.Subscribe(ctx, models.ChangesChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			h.broadcast([]byte(msg.Payload))
		}
	}
}

// HandleWebSocket authenticates with the ?token= query parameter, since
// browsers cannot set headers on websocket upgrades.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	claims, err := h.auth.Parse(tokenStr)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	username, err := claims.GetSubject()
	if err != nil || username == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	if h.auth.Blacklist != nil {
		if revoked, _ := h.auth.Blacklist.IsBlacklisted(r.Context(), tokenStr); revoked {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[ws] upgrade failed: %v", err)
		return
	}

	h.register(username, conn)

	go func() {
		defer h.unregister(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (h *Hub) register(username string, conn *websocket.Conn) {
	h.mu.Lock()
	h.connections[conn] = username
	total := len(h.connections)
	h.mu.Unlock()

	log.Printf("[ws] connected: %s (total: %d)", username, total)
}

func (h *Hub) unregister(conn *websocket.Conn) {
	h.mu.Lock()
	username, ok := h.connections[conn]
	delete(h.connections, conn)
	h.mu.Unlock()

	conn.Close()
	if ok {
		log.Printf("[ws] disconnected: %s", username)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.connections {
		conn.Close()
		delete(h.connections, conn)
	}
}

// broadcast holds the write lock so no connection ever has two writers.
func (h *Hub) broadcast(data []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.connections {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Printf("[ws] write to %s failed: %v", h.connections[conn], err)
		}
	}
}

// Send broadcasts msg directly, bypassing Redis.
func (h *Hub) Send(msg interface{}) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	h.broadcast(data)
}

// Count reports the number of open connections.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}
