package ws

import (
	"net/http"
	"sync"

	"npc-chatlab/backend/internal/conversation"
	"npc-chatlab/backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Origin filtering happens in the CORS middleware.
		return true
	},
}

// TurnEvent is pushed to observers whenever a turn completes in the
// session they watch.
type TurnEvent struct {
	Type      string                 `json:"type"`
	SessionID string                 `json:"sessionId"`
	Messages  []conversation.Message `json:"messages"`
}

type client struct {
	conn      *websocket.Conn
	sessionID string
	send      chan TurnEvent
}

// Hub fans completed turns out to websocket observers, keyed by
// session. Observers are read-only; they never inject messages.
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]struct{}
	log     *logger.Logger
}

func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		clients: make(map[*client]struct{}),
		log:     log,
	}
}

// PublishTurn delivers the turn's messages to every observer of the
// session. Slow observers are skipped rather than blocking the turn.
func (h *Hub) PublishTurn(sessionID string, messages []conversation.Message) {
	event := TurnEvent{Type: "turn", SessionID: sessionID, Messages: messages}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		if c.sessionID != sessionID {
			continue
		}
		select {
		case c.send <- event:
		default:
			h.log.Warn("dropping turn event for slow observer", "session_id", sessionID)
		}
	}
}

// ServeWs upgrades the request and registers the connection as an
// observer of the requested session.
func (h *Hub) ServeWs(c *gin.Context) {
	sessionID := c.Query("sessionId")
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sessionId query parameter is required"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.LogError(err, "websocket upgrade failed")
		return
	}

	cl := &client{conn: conn, sessionID: sessionID, send: make(chan TurnEvent, 8)}

	h.mu.Lock()
	h.clients[cl] = struct{}{}
	h.mu.Unlock()

	go h.writePump(cl)
	go h.readPump(cl)
}

func (h *Hub) writePump(cl *client) {
	for event := range cl.send {
		if err := cl.conn.WriteJSON(event); err != nil {
			h.remove(cl)
			return
		}
	}
}

// readPump discards inbound frames; it exists to detect disconnects.
func (h *Hub) readPump(cl *client) {
	for {
		if _, _, err := cl.conn.ReadMessage(); err != nil {
			h.remove(cl)
			return
		}
	}
}

func (h *Hub) remove(cl *client) {
	h.mu.Lock()
	if _, ok := h.clients[cl]; ok {
		delete(h.clients, cl)
		close(cl.send)
	}
	h.mu.Unlock()
	cl.conn.Close()
}
