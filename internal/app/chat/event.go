package chat

import (
	"encoding/json"
	"time"
)

// Inbound event names.
const (
	EventJoin        = "join"
	EventLeave       = "leave"
	EventTyping      = "typing"
	EventSendMessage = "send_message"
)

// Outbound event names.
const (
	EventJoined         = "joined"
	EventReceiveMessage = "receive_message"
	EventError          = "error"
)

// Frame is the JSON envelope of every WebSocket message in both directions.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type roomPayload struct {
	ChatID string `json:"chatId"`
}

type typingPayload struct {
	ChatID   string `json:"chatId"`
	IsTyping bool   `json:"isTyping"`
}

type sendMessagePayload struct {
	ChatID string `json:"chatId"`
	Text   string `json:"text"`
}

// TypingEvent is broadcast to the other connections of a room.
type TypingEvent struct {
	ChatID   string `json:"chatId"`
	UserID   string `json:"userId"`
	Username string `json:"username"`
	IsTyping bool   `json:"isTyping"`
}

// MessageEvent is broadcast to a room when a message is stored.
type MessageEvent struct {
	ID         string    `json:"_id"`
	ChatID     string    `json:"chatId"`
	SenderID   string    `json:"senderId"`
	SenderName string    `json:"senderName"`
	Text       string    `json:"text"`
	Timestamp  time.Time `json:"timestamp"`
}

// ErrorEvent reports a rejected inbound event back to its connection.
type ErrorEvent struct {
	Event   string `json:"event,omitempty"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// encodeFrame marshals data inside a Frame named event.
func encodeFrame(event string, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Frame{Event: event, Data: raw})
}
