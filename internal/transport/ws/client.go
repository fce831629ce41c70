package ws

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/vedran77/frameverse/internal/service"
	"nhooyr.io/websocket"
)

const (
	writeWait      = 10 * time.Second
	pingInterval   = 30 * time.Second
	maxMessageSize = 32 << 10
	sendBufSize    = 256
)

// ChatAuthorizer decides whether a user may join a chat room.
type ChatAuthorizer interface {
	Authorize(ctx context.Context, chatID, userID uuid.UUID) error
}

// TokenVerifier resolves a token to the user id it was issued for.
type TokenVerifier interface {
	Verify(token string) (uuid.UUID, error)
}

// Client is one WebSocket connection. Only the read pump touches userID and
// joined, so they need no lock.
type Client struct {
	id       string
	hub      *Hub
	conn     *websocket.Conn
	chats    ChatAuthorizer
	verifier TokenVerifier

	// upgradeToken is the token presented on the HTTP upgrade request, if any.
	upgradeToken string

	userID uuid.UUID
	joined map[uuid.UUID]struct{}

	send      chan []byte
	cancel    context.CancelFunc
	closeOnce sync.Once
}

func newClient(hub *Hub, conn *websocket.Conn, chats ChatAuthorizer, verifier TokenVerifier, upgradeToken string) *Client {
	return &Client{
		id:           uuid.NewString(),
		hub:          hub,
		conn:         conn,
		chats:        chats,
		verifier:     verifier,
		upgradeToken: upgradeToken,
		joined:       make(map[uuid.UUID]struct{}),
		send:         make(chan []byte, sendBufSize),
		cancel:       func() {},
	}
}

func (c *Client) bound() bool {
	return c.userID != uuid.Nil
}

// enqueue reports false when the send buffer is full.
func (c *Client) enqueue(frame []byte) bool {
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

func (c *Client) close() {
	c.closeOnce.Do(c.cancel)
}

// run pumps the connection until it closes or ctx is done.
func (c *Client) run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	defer func() {
		c.close()
		c.hub.LeaveAll(c)
		c.conn.Close(websocket.StatusNormalClosure, "")
		log.Info().Str("client", c.id).Stringer("user", c.userID).Msg("ws: client disconnected")
	}()

	go c.writePump(ctx)
	c.readPump(ctx)
}

func (c *Client) readPump(ctx context.Context) {
	c.conn.SetReadLimit(maxMessageSize)

	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) == -1 && ctx.Err() == nil {
				log.Debug().Err(err).Str("client", c.id).Msg("ws: read error")
			}
			return
		}

		var event Event
		if err := json.Unmarshal(data, &event); err != nil {
			c.emit(EventError, "Invalid payload")
			continue
		}
		c.handleEvent(ctx, &event)
	}
}

func (c *Client) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case frame := <-c.send:
			wctx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Write(wctx, websocket.MessageText, frame)
			cancel()
			if err != nil {
				return
			}

		case <-ticker.C:
			pctx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Ping(pctx)
			cancel()
			if err != nil {
				log.Debug().Err(err).Str("client", c.id).Msg("ws: ping failed")
				return
			}

		case <-ctx.Done():
			return
		}
	}
}

func (c *Client) handleEvent(ctx context.Context, event *Event) {
	switch event.Event {
	case EventSetup:
		c.handleSetup(event.Data)

	case EventJoinChat:
		c.handleJoin(ctx, event.Data)

	case EventLeaveChat:
		chatID, ok := decodeChatID(event.Data)
		if !ok {
			c.emit(EventError, "Invalid payload")
			return
		}
		delete(c.joined, chatID)
		c.hub.Leave(chatRoom(chatID), c)

	case EventTyping, EventStopTyping:
		chatID, ok := decodeChatID(event.Data)
		if !ok || !c.bound() {
			return
		}
		if _, joined := c.joined[chatID]; !joined {
			return
		}
		c.hub.Broadcast(ctx, chatRoom(chatID), event.Event, TypingPayload{ChatID: chatID, UserID: c.userID}, c)

	default:
		c.emit(EventError, "Unknown event: "+event.Event)
	}
}

// handleSetup binds the socket to a user. The data is either a bare user id
// or {userId, token}; identity always comes from a verified token.
func (c *Client) handleSetup(data []byte) {
	var p SetupPayload
	if err := json.Unmarshal(data, &p.UserID); err != nil {
		if err := json.Unmarshal(data, &p); err != nil {
			c.emit(EventSetupError, "Not authenticated")
			return
		}
	}

	token := p.Token
	if token == "" {
		token = c.upgradeToken
	}
	if token == "" {
		c.emit(EventSetupError, "Not authenticated")
		return
	}
	userID, err := c.verifier.Verify(token)
	if err != nil {
		c.emit(EventSetupError, "Not authenticated")
		return
	}
	if p.UserID != "" && p.UserID != userID.String() {
		c.emit(EventSetupError, "Not authenticated")
		return
	}

	if c.bound() && c.userID != userID {
		c.hub.LeaveAll(c)
		clear(c.joined)
	}
	c.userID = userID
	c.hub.Join(userRoom(userID), c)
	log.Info().Str("client", c.id).Stringer("user", userID).Msg("ws: client bound")
	c.emit(EventConnected, userID)
}

func (c *Client) handleJoin(ctx context.Context, data []byte) {
	if !c.bound() {
		c.emit(EventJoinError, "Not authenticated")
		return
	}
	chatID, ok := decodeChatID(data)
	if !ok {
		c.emit(EventJoinError, "Chat not found")
		return
	}

	err := c.chats.Authorize(ctx, chatID, c.userID)
	switch {
	case err == nil:
	case errors.Is(err, service.ErrChatNotFound):
		c.emit(EventJoinError, "Chat not found")
		return
	case errors.Is(err, service.ErrChatAccessDenied):
		c.emit(EventJoinError, "Access denied")
		return
	default:
		log.Error().Err(err).Stringer("chat", chatID).Msg("ws: authorizing join")
		c.emit(EventJoinError, "Server error")
		return
	}

	c.joined[chatID] = struct{}{}
	c.hub.Join(chatRoom(chatID), c)
	c.emit(EventJoinedChat, chatID)
}

// emit queues a frame for this client only.
func (c *Client) emit(event string, data any) {
	frame, err := encodeEvent(event, data)
	if err != nil {
		log.Error().Err(err).Str("event", event).Msg("ws: encoding event")
		return
	}
	if !c.enqueue(frame) {
		c.close()
	}
}

func decodeChatID(data []byte) (uuid.UUID, bool) {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
