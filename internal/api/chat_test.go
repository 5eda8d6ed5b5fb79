package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZorinDanil/vestnik/internal/apperr"
	"github.com/ZorinDanil/vestnik/internal/models"
)

func fakeChatService(t *testing.T) *httptest.Server {
	t.Helper()
	r := chi.NewRouter()

	r.Get("/{chatID}/messages", func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Query().Get("token") == "" {
			writeDetail(w, http.StatusUnauthorized, "Not authenticated")
			return
		}
		writeJSON(w, http.StatusOK, []models.Message{
			{ID: "m1", ChatID: chi.URLParam(req, "chatID"), SenderID: "u1", Content: "hi", Timestamp: time.Unix(1, 0).UTC()},
		})
	})

	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, "Bearer tok", req.Header.Get("Authorization"))
		if req.URL.Query().Get("participants") == "stranger" {
			writeDetail(w, http.StatusNotFound, "Chat not found")
			return
		}
		writeJSON(w, http.StatusOK, []models.Chat{
			{ID: "c1", Participants: []string{"self", "u2"}},
			{ID: "c1-dup", Participants: []string{"self", "u2"}},
		})
	})

	r.Post("/", func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, "Bearer tok", req.Header.Get("Authorization"))
		var body struct {
			Participants []string `json:"participants"`
		}
		require.NoError(t, json.NewDecoder(req.Body).Decode(&body))
		// The server adds the caller and sorts.
		writeJSON(w, http.StatusOK, models.Chat{ID: "c-new", Participants: append([]string{"self"}, body.Participants...)})
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestChatClient_GetMessageHistory(t *testing.T) {
	srv := fakeChatService(t)
	c := NewChatClient(srv.URL, srv.Client(), zerolog.Nop())

	msgs, err := c.GetMessageHistory(context.Background(), "chat-1", "tok")
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "chat-1", msgs[0].ChatID)
	assert.Equal(t, "hi", msgs[0].Content)

	_, err = c.GetMessageHistory(context.Background(), "chat-1", "")
	require.Error(t, err)
	assert.Equal(t, apperr.CodeUnauthenticated, apperr.CodeOf(err))
}

func TestChatClient_FindChatByParticipants(t *testing.T) {
	srv := fakeChatService(t)
	c := NewChatClient(srv.URL, srv.Client(), zerolog.Nop())

	t.Run("first match wins", func(t *testing.T) {
		chat, err := c.FindChatByParticipants(context.Background(), []string{"u2"}, "tok")
		require.NoError(t, err)
		assert.Equal(t, "c1", chat.ID)
	})

	t.Run("no chat yet", func(t *testing.T) {
		_, err := c.FindChatByParticipants(context.Background(), []string{"stranger"}, "tok")
		require.Error(t, err)
		assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))
	})
}

func TestChatClient_CreateChat(t *testing.T) {
	srv := fakeChatService(t)
	c := NewChatClient(srv.URL, srv.Client(), zerolog.Nop())

	chat, err := c.CreateChat(context.Background(), []string{"u2"}, "tok")
	require.NoError(t, err)
	assert.Equal(t, "c-new", chat.ID)
	assert.Contains(t, chat.Participants, "u2")
}
