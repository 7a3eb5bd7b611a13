package ws_test

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanchitsehgal8/SupportPilot/internal/domain/event"
	wshandler "github.com/sanchitsehgal8/SupportPilot/internal/transport/ws"
)

func dialHub(t *testing.T, hub *wshandler.Hub) *websocket.Conn {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	hub.Register(r.Group("/ws"))

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHubBroadcastsEvents(t *testing.T) {
	hub := wshandler.NewHub()
	conn := dialHub(t, hub)

	e := event.New(event.TypeTicketAssigned, uuid.New())

	// Registration happens just after the handshake; rebroadcast until the
	// client reads the first frame.
	deadline := time.Now().Add(2 * time.Second)
	require.NoError(t, conn.SetReadDeadline(deadline))
	go func() {
		for time.Now().Before(deadline) {
			hub.Broadcast(e)
			time.Sleep(20 * time.Millisecond)
		}
	}()

	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var got event.Event
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, event.TypeTicketAssigned, got.Type)
	assert.Equal(t, e.EntityID, got.EntityID)
}

func TestHubSurvivesGoneClient(t *testing.T) {
	hub := wshandler.NewHub()
	conn := dialHub(t, hub)
	conn.Close()

	// Must not panic; the failed write drops the client.
	hub.Broadcast(event.New(event.TypeTicketUpdated, uuid.New()))
	hub.Broadcast(event.New(event.TypeTicketUpdated, uuid.New()))
}
