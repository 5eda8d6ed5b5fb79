package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZorinDanil/vestnik/internal/models"
)

// fakeLiveService upgrades /ws/{chatID} and echoes every received
// message back with a server-assigned id and timestamp, the way the
// chat service broadcasts to all connected clients.
func fakeLiveService(t *testing.T) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	r := chi.NewRouter()

	r.Get("/ws/{chatID}", func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Query().Get("token") == "" {
			http.Error(w, "Not authenticated", http.StatusUnauthorized)
			return
		}
		conn, err := upgrader.Upgrade(w, req, nil)
		require.NoError(t, err)
		defer conn.Close()

		// First frame is deliberately not a message object.
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`"ping"`))

		for {
			var out models.OutboundMessage
			if err := conn.ReadJSON(&out); err != nil {
				return
			}
			echo := models.Message{
				ID:        "srv-1",
				ChatID:    chi.URLParam(req, "chatID"),
				SenderID:  out.SenderID,
				Content:   out.Content,
				Timestamp: time.Unix(42, 0).UTC(),
			}
			data, _ := json.Marshal(echo)
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		}
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestLiveChannel_SendAndEcho(t *testing.T) {
	srv := fakeLiveService(t)
	c := NewChatClient(srv.URL, srv.Client(), zerolog.Nop())

	lc, err := c.OpenLiveChannel(context.Background(), "chat-1", "tok")
	require.NoError(t, err)
	defer lc.Close()

	require.NoError(t, lc.Send(models.OutboundMessage{Content: "privet", SenderID: "self", ChatID: "chat-1"}))

	select {
	case msg := <-lc.Incoming():
		assert.Equal(t, "srv-1", msg.ID)
		assert.Equal(t, "chat-1", msg.ChatID)
		assert.Equal(t, "privet", msg.Content)
		assert.False(t, msg.Timestamp.IsZero(), "echo carries the server-assigned timestamp")
	case <-time.After(time.Second):
		t.Fatal("echo never arrived")
	}
}

func TestLiveChannel_MalformedFramesAreSkipped(t *testing.T) {
	srv := fakeLiveService(t)
	c := NewChatClient(srv.URL, srv.Client(), zerolog.Nop())

	lc, err := c.OpenLiveChannel(context.Background(), "chat-1", "tok")
	require.NoError(t, err)
	defer lc.Close()

	// The "ping" frame sent on connect is malformed; only the echo of a
	// real message should surface.
	require.NoError(t, lc.Send(models.OutboundMessage{Content: "after noise", SenderID: "self", ChatID: "chat-1"}))

	select {
	case msg := <-lc.Incoming():
		assert.Equal(t, "after noise", msg.Content)
	case <-time.After(time.Second):
		t.Fatal("message lost behind malformed frame")
	}
}

func TestLiveChannel_CloseIsIdempotent(t *testing.T) {
	srv := fakeLiveService(t)
	c := NewChatClient(srv.URL, srv.Client(), zerolog.Nop())

	lc, err := c.OpenLiveChannel(context.Background(), "chat-1", "tok")
	require.NoError(t, err)

	require.NoError(t, lc.Close())
	assert.NoError(t, lc.Close())

	// The incoming stream drains and closes.
	select {
	case _, open := <-lc.Incoming():
		assert.False(t, open)
	case <-time.After(time.Second):
		t.Fatal("incoming channel never closed")
	}
}

func TestLiveChannel_DialFailure(t *testing.T) {
	c := NewChatClient("http://127.0.0.1:1/chat/api/v1", NewHTTPClient(), zerolog.Nop())
	_, err := c.OpenLiveChannel(context.Background(), "chat-1", "tok")
	require.Error(t, err)
}

func TestWebsocketURL(t *testing.T) {
	u, err := websocketURL("http://localhost:8002/chat/api/v1", "chat-1", "t k")
	require.NoError(t, err)
	assert.Equal(t, "ws://localhost:8002/chat/api/v1/ws/chat-1?token=t+k", u)

	u, err = websocketURL("https://chat.example.com/chat/api/v1/", "c", "tok")
	require.NoError(t, err)
	assert.Equal(t, "wss://chat.example.com/chat/api/v1/ws/c?token=tok", u)
}
