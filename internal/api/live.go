package api

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/ZorinDanil/vestnik/internal/apperr"
	"github.com/ZorinDanil/vestnik/internal/models"
)

// LiveChannel is a persistent bidirectional message stream scoped to
// one chat. Inbound messages arrive on Incoming; the channel is closed
// when the connection drops or Close is called. A drop is not retried:
// reconnection means opening a fresh channel.
type LiveChannel struct {
	conn      *websocket.Conn
	incoming  chan models.Message
	logger    zerolog.Logger
	closeOnce sync.Once
}

// OpenLiveChannel dials the chat service's websocket endpoint for the
// given chat.
func (c *ChatClient) OpenLiveChannel(ctx context.Context, chatID, token string) (*LiveChannel, error) {
	if chatID == "" {
		return nil, apperr.InvalidArg("chat id is required")
	}

	wsURL, err := websocketURL(c.baseURL, chatID, token)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "build websocket url", err)
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, apperr.Unavailable("dial live channel", err)
	}

	lc := &LiveChannel{
		conn:     conn,
		incoming: make(chan models.Message, 64),
		logger:   c.logger.With().Str("chat_id", chatID).Logger(),
	}
	go lc.readLoop()
	return lc, nil
}

// Incoming returns the stream of inbound messages. It is closed when
// the channel shuts down, from either side.
func (lc *LiveChannel) Incoming() <-chan models.Message {
	return lc.incoming
}

// Send transmits an outbound message. The server assigns the timestamp
// and echoes the message back on the channel; Send does not wait for
// that echo.
func (lc *LiveChannel) Send(msg models.OutboundMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return apperr.Wrap(apperr.CodeInternal, "encode message", err)
	}
	if err := lc.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return apperr.Unavailable("write to live channel", err)
	}
	return nil
}

// Close shuts the channel down. Safe to call more than once; only the
// first call does anything.
func (lc *LiveChannel) Close() error {
	var err error
	lc.closeOnce.Do(func() {
		_ = lc.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		err = lc.conn.Close()
	})
	return err
}

func (lc *LiveChannel) readLoop() {
	defer close(lc.incoming)
	for {
		_, data, err := lc.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				lc.logger.Warn().Err(err).Msg("live channel dropped")
			}
			return
		}

		var msg models.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			lc.logger.Warn().Err(err).Msg("discarding malformed live frame")
			continue
		}
		lc.incoming <- msg
	}
}

// websocketURL derives the ws endpoint from the HTTP base URL:
// {chat}/ws/{chatID}?token=.
func websocketURL(baseURL, chatID, token string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws/" + chatID
	u.RawQuery = "token=" + url.QueryEscape(token)
	return u.String(), nil
}
