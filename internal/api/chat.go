package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ZorinDanil/vestnik/internal/apperr"
	"github.com/ZorinDanil/vestnik/internal/models"
)

// ChatClient talks to the chat service, over HTTP for history and chat
// lookup and over a websocket for live delivery.
type ChatClient struct {
	baseURL string
	hc      *http.Client
	logger  zerolog.Logger
}

func NewChatClient(baseURL string, hc *http.Client, logger zerolog.Logger) *ChatClient {
	return &ChatClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		hc:      hc,
		logger:  logger.With().Str("client", "chat").Logger(),
	}
}

// GetMessageHistory fetches the full message history of a chat,
// ordered by the server.
func (c *ChatClient) GetMessageHistory(ctx context.Context, chatID, token string) ([]models.Message, error) {
	if chatID == "" {
		return nil, apperr.InvalidArg("chat id is required")
	}
	u := c.baseURL + "/" + chatID + "/messages?token=" + url.QueryEscape(token)
	var out []models.Message
	if err := doRequest(ctx, c.hc, c.logger, http.MethodGet, u, jsonHeader(), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FindChatByParticipants looks up the chat between the caller and the
// given peers. The service matches the sorted participant set with the
// caller included, so only the peer ids are sent. It returns a list;
// the first entry wins.
func (c *ChatClient) FindChatByParticipants(ctx context.Context, participants []string, token string) (*models.Chat, error) {
	if len(participants) == 0 {
		return nil, apperr.InvalidArg("at least one participant is required")
	}
	u := c.baseURL + "/?participants=" + url.QueryEscape(strings.Join(participants, ",")) +
		"&token=" + url.QueryEscape(token)

	h := jsonHeader()
	h.Set("Authorization", "Bearer "+token)

	var chats []models.Chat
	if err := doRequest(ctx, c.hc, c.logger, http.MethodGet, u, h, nil, &chats); err != nil {
		return nil, err
	}
	if len(chats) == 0 {
		return nil, apperr.NotFound("chat not found")
	}
	return &chats[0], nil
}

type createChatRequest struct {
	Participants []string `json:"participants"`
}

// CreateChat creates a chat with the given peers. The server adds the
// caller to the participant set itself.
func (c *ChatClient) CreateChat(ctx context.Context, participants []string, token string) (*models.Chat, error) {
	if len(participants) == 0 {
		return nil, apperr.InvalidArg("at least one participant is required")
	}
	body, _ := json.Marshal(createChatRequest{Participants: participants})

	h := jsonHeader()
	h.Set("Authorization", "Bearer "+token)

	var chat models.Chat
	u := c.baseURL + "/?token=" + url.QueryEscape(token)
	if err := doRequest(ctx, c.hc, c.logger, http.MethodPost, u, h, body, &chat); err != nil {
		return nil, err
	}
	return &chat, nil
}
