package chat

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"lostfound/internal/pkg/errs"
	"lostfound/internal/pkg/logx"
	"lostfound/internal/pkg/randx"
)

const (
	// timeout duration for writing to the WebSocket connection.
	writeWait = 10 * time.Second

	// maximum time allowed for the server to wait for a Pong message from the client.
	pongWait = 60 * time.Second

	// frequency at which the server sends a Ping message.
	pingPeriod = (pongWait * 9) / 10

	// maximum allowed size (in bytes) of a frame sent by the client. Leaves room for
	// JSON escaping of a text of MaxContentBytes.
	maxFrameSize = 4 * MaxContentBytes

	// capacity of the per-connection outbound queue.
	sendBufferSize = 256

	// upper bound for the store calls made while handling one inbound event.
	eventTimeout = 5 * time.Second
)

// Client is one WebSocket connection of an authenticated user.
type Client struct {
	// ID distinguishes connections of the same user.
	ID string

	hub  *Hub
	conn *websocket.Conn
	user Participant

	// rooms the connection has joined. Only touched by the ReadPump goroutine.
	rooms map[string]struct{}

	// a buffered channel used to queue frames waiting to be written.
	send chan []byte

	mu     sync.Mutex
	closed bool

	logger zerolog.Logger
}

// NewClient constructs a Client for conn and registers it with the hub.
func NewClient(hub *Hub, conn *websocket.Conn, u Participant) *Client {
	id := randx.ID()

	c := &Client{
		ID:     id,
		hub:    hub,
		conn:   conn,
		user:   u,
		rooms:  make(map[string]struct{}),
		send:   make(chan []byte, sendBufferSize),
		logger: logx.Logger().With().Str("conn_id", id).Str("user_id", u.UserID).Logger(),
	}

	hub.register(c)
	return c
}

// User returns the participant the connection is authenticated as.
func (c *Client) User() Participant { return c.user }

// ReadPump reads frames until the connection fails, dispatching each to the hub.
func (c *Client) ReadPump() {
	defer c.cleanupOnDisconnect()

	c.conn.SetReadLimit(maxFrameSize)

	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set read deadline")
		return
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Info().Err(err).Msg("Error reading message (Client close/going away)")
			}
			break
		}

		c.processInbound(data)
	}
}

func (c *Client) cleanupOnDisconnect() {
	c.hub.unregister(c)
	c.close()

	if err := c.conn.Close(); err != nil {
		c.logger.Debug().Err(err).Msg("Client connection close error")
	}
	c.logger.Info().Msg("Client disconnected.")
}

// processInbound decodes one frame and routes it by event name.
func (c *Client) processInbound(data []byte) {
	var frame Frame
	if err := json.Unmarshal(data, &frame); err != nil {
		c.logger.Warn().Err(err).Msg("Client sent invalid JSON")
		c.SendError("", errs.NewError(errs.ErrInvalidJSONFormat))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
	defer cancel()

	switch frame.Event {
	case EventJoin:
		var p roomPayload
		if !c.decode(frame, &p) {
			return
		}
		c.handleJoin(ctx, p.ChatID)

	case EventLeave:
		var p roomPayload
		if !c.decode(frame, &p) {
			return
		}
		c.hub.leave(c, p.ChatID)

	case EventTyping:
		var p typingPayload
		if !c.decode(frame, &p) {
			return
		}
		c.handleTyping(ctx, p)

	case EventSendMessage:
		var p sendMessagePayload
		if !c.decode(frame, &p) {
			return
		}
		c.handleSendMessage(ctx, p)

	default:
		c.logger.Warn().Str("event", frame.Event).Msg("Client sent unsupported event")
		c.SendError(frame.Event, errs.NewError(errs.ErrUnknownEvent))
	}
}

func (c *Client) decode(frame Frame, dst any) bool {
	if len(frame.Data) == 0 {
		c.SendError(frame.Event, errs.NewError(errs.ErrInvalidParams))
		return false
	}
	if err := json.Unmarshal(frame.Data, dst); err != nil {
		c.logger.Warn().Err(err).Str("event", frame.Event).Msg("Client sent invalid payload")
		c.SendError(frame.Event, errs.NewError(errs.ErrInvalidParams))
		return false
	}
	return true
}

func (c *Client) handleJoin(ctx context.Context, chatID string) {
	chat, customErr := c.hub.service.Authorize(ctx, c.user.UserID, chatID)
	if customErr != nil {
		c.SendError(EventJoin, customErr)
		return
	}

	c.hub.join(c, chat.ID)
	c.sendFrame(EventJoined, roomPayload{ChatID: chat.ID})
}

func (c *Client) handleTyping(ctx context.Context, p typingPayload) {
	if _, ok := c.rooms[p.ChatID]; !ok {
		c.SendError(EventTyping, errs.NewError(errs.ErrNotInRoom))
		return
	}

	c.hub.Broadcast(ctx, p.ChatID, EventTyping, TypingEvent{
		ChatID:   p.ChatID,
		UserID:   c.user.UserID,
		Username: c.user.Username,
		IsTyping: p.IsTyping,
	}, c.ID)
}

func (c *Client) handleSendMessage(ctx context.Context, p sendMessagePayload) {
	m, customErr := c.hub.service.SendMessage(ctx, c.user, p.ChatID, p.Text)
	if customErr != nil {
		c.SendError(EventSendMessage, customErr)
		return
	}

	c.hub.Broadcast(ctx, p.ChatID, EventReceiveMessage, MessageEvent{
		ID:         m.ID,
		ChatID:     p.ChatID,
		SenderID:   m.SenderID,
		SenderName: c.user.Username,
		Text:       m.Text,
		Timestamp:  m.Timestamp,
	}, "")
}

// WritePump writes queued frames and periodic pings until the queue is closed or a
// write fails.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()

		if err := c.conn.Close(); err != nil {
			c.logger.Debug().Err(err).Msg("Client connection close error in WritePump")
		}
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !c.writeQueuedMessage(message, ok) {
				return
			}

		case <-ticker.C:
			if !c.writePingMessage() {
				return
			}
		}
	}
}

// writeQueuedMessage returns false when the WritePump loop should stop.
func (c *Client) writeQueuedMessage(message []byte, ok bool) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline")
		return false
	}

	if !ok {
		if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
			c.logger.Debug().Err(err).Msg("Error writing close message")
		}
		return false
	}

	if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
		c.logger.Warn().Err(err).Msg("Error writing message")
		return false
	}

	return true
}

func (c *Client) writePingMessage() bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline on ping")
		return false
	}

	if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
		c.logger.Warn().Err(err).Msg("Error writing ping")
		return false
	}

	return true
}

// enqueue queues an encoded frame. A full queue closes the connection, so a slow
// reader never blocks a room.
func (c *Client) enqueue(frame []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}

	select {
	case c.send <- frame:
		return true
	default:
		c.logger.Warn().Int("queue_len", len(c.send)).Msg("Client send queue full, dropping connection")
		c.closed = true
		close(c.send)
		return false
	}
}

// close stops the WritePump by closing the queue. Safe to call more than once.
func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *Client) sendFrame(event string, data any) {
	frame, err := encodeFrame(event, data)
	if err != nil {
		c.logger.Error().Err(err).Str("event", event).Msg("Error marshaling frame for client")
		return
	}
	c.enqueue(frame)
}

// SendError reports err to this connection as an "error" frame.
func (c *Client) SendError(event string, err error) {
	payload := ErrorEvent{Event: event, Code: errs.ErrUnknown, Message: "Internal server error"}

	var customErr *errs.CustomError
	if errors.As(err, &customErr) {
		payload.Code = customErr.Code
		payload.Message = customErr.Message
	} else {
		c.logger.Error().Err(err).Str("event", event).Msg("Unexpected error handling event")
	}

	c.sendFrame(EventError, payload)
}
