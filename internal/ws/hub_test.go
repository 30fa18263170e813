package ws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"npc-chatlab/backend/internal/conversation"
	"npc-chatlab/backend/pkg/logger"
)

func newTestServer(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hub := NewHub(logger.New(logger.Config{Level: "error", JSON: true}))
	r := gin.New()
	r.GET("/ws", hub.ServeWs)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server, sessionID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?sessionId=" + sessionID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestServeWsRequiresSessionID(t *testing.T) {
	_, srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/ws")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPublishTurnReachesObserver(t *testing.T) {
	hub, srv := newTestServer(t)
	conn := dial(t, srv, "s1")

	// Registration races the publish; give the hub a moment.
	time.Sleep(50 * time.Millisecond)

	hub.PublishTurn("s1", []conversation.Message{
		{ID: "m1", SessionID: "s1", Role: conversation.RoleUser, Content: "hi"},
		{ID: "m2", SessionID: "s1", Role: conversation.RoleNPC, Content: "hello"},
	})

	conn.SetReadDeadline(time.Now().Add(time.Second))
	var event TurnEvent
	require.NoError(t, conn.ReadJSON(&event))

	assert.Equal(t, "turn", event.Type)
	assert.Equal(t, "s1", event.SessionID)
	require.Len(t, event.Messages, 2)
	assert.Equal(t, "hello", event.Messages[1].Content)
}

func TestPublishTurnFiltersBySession(t *testing.T) {
	hub, srv := newTestServer(t)
	conn := dial(t, srv, "s2")

	time.Sleep(50 * time.Millisecond)

	hub.PublishTurn("other", []conversation.Message{{ID: "m1", SessionID: "other"}})

	conn.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	var event TurnEvent
	err := conn.ReadJSON(&event)
	assert.Error(t, err, "observer of another session should receive nothing")
}
