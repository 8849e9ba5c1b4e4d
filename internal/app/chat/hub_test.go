package chat_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lostfound/internal/app/chat"
	"lostfound/internal/pkg/errs"
)

type loopbackBroker struct {
	hub       *chat.Hub
	published atomic.Int32
}

func (b *loopbackBroker) Publish(_ context.Context, _ string, payload []byte) error {
	b.published.Add(1)
	b.hub.Deliver(payload)
	return nil
}

type hubFixture struct {
	*fixture
	hub    *chat.Hub
	server *httptest.Server
}

// newHubFixture serves connections whose user is picked by the "as" query parameter.
func newHubFixture(t *testing.T, broker *loopbackBroker) *hubFixture {
	t.Helper()

	f := newFixture(t)
	var b chat.Broker
	if broker != nil {
		b = broker
	}
	hub := chat.NewHub(f.service, b)
	if broker != nil {
		broker.hub = hub
	}

	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p chat.Participant
		switch r.URL.Query().Get("as") {
		case "ana":
			p = chat.Participant{UserID: f.ana.ID, Username: "ana"}
		case "bob":
			p = chat.Participant{UserID: f.bob.ID, Username: "bob"}
		default:
			p = chat.Participant{UserID: f.eve.ID, Username: "eve"}
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		client := chat.NewClient(hub, conn, p)
		go client.WritePump()
		client.ReadPump()
	}))
	t.Cleanup(func() {
		hub.Shutdown()
		server.Close()
	})

	return &hubFixture{fixture: f, hub: hub, server: server}
}

func (h *hubFixture) dial(t *testing.T, as string) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(h.server.URL, "http") + "/?as=" + as
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, event string, data any) {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(chat.Frame{Event: event, Data: raw}))
}

func read(t *testing.T, conn *websocket.Conn) chat.Frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	var frame chat.Frame
	require.NoError(t, conn.ReadJSON(&frame))
	return frame
}

func readError(t *testing.T, conn *websocket.Conn) chat.ErrorEvent {
	t.Helper()
	frame := read(t, conn)
	require.Equal(t, chat.EventError, frame.Event)
	var e chat.ErrorEvent
	require.NoError(t, json.Unmarshal(frame.Data, &e))
	return e
}

func join(t *testing.T, conn *websocket.Conn, chatID string) {
	t.Helper()
	send(t, conn, chat.EventJoin, map[string]string{"chatId": chatID})
	frame := read(t, conn)
	require.Equal(t, chat.EventJoined, frame.Event)
	assert.JSONEq(t, `{"chatId":"`+chatID+`"}`, string(frame.Data))
}

func TestHubRoomFlow(t *testing.T) {
	h := newHubFixture(t, nil)
	chatID := h.startChat(t)

	ana := h.dial(t, "ana")
	bob := h.dial(t, "bob")
	eve := h.dial(t, "eve")

	join(t, ana, chatID)
	join(t, bob, chatID)
	assert.Equal(t, 2, h.hub.RoomSize(chatID))

	send(t, eve, chat.EventJoin, map[string]string{"chatId": chatID})
	assert.Equal(t, errs.ErrChatForbidden, readError(t, eve).Code)

	send(t, eve, chat.EventTyping, map[string]any{"chatId": chatID, "isTyping": true})
	assert.Equal(t, errs.ErrNotInRoom, readError(t, eve).Code)

	send(t, ana, chat.EventTyping, map[string]any{"chatId": chatID, "isTyping": true})
	frame := read(t, bob)
	require.Equal(t, chat.EventTyping, frame.Event)
	var typing chat.TypingEvent
	require.NoError(t, json.Unmarshal(frame.Data, &typing))
	assert.Equal(t, chat.TypingEvent{ChatID: chatID, UserID: h.ana.ID, Username: "ana", IsTyping: true}, typing)

	send(t, ana, chat.EventSendMessage, map[string]string{"chatId": chatID, "text": " hello "})
	for _, conn := range []*websocket.Conn{ana, bob} {
		// the sender never sees its own typing event, so its next frame is the message
		frame := read(t, conn)
		require.Equal(t, chat.EventReceiveMessage, frame.Event)
		var msg chat.MessageEvent
		require.NoError(t, json.Unmarshal(frame.Data, &msg))
		assert.Equal(t, "hello", msg.Text)
		assert.Equal(t, "ana", msg.SenderName)
		assert.Equal(t, chatID, msg.ChatID)
		assert.NotEmpty(t, msg.ID)
	}

	msgs, customErr := h.service.Messages(context.Background(), h.bob, chatID)
	require.Nil(t, customErr)
	require.Len(t, msgs, 1)

	send(t, bob, chat.EventLeave, map[string]string{"chatId": chatID})
	send(t, bob, "dance", map[string]string{})
	assert.Equal(t, errs.ErrUnknownEvent, readError(t, bob).Code)
	assert.Equal(t, 1, h.hub.RoomSize(chatID))
}

func TestHubRejectsBadFrames(t *testing.T) {
	h := newHubFixture(t, nil)
	ana := h.dial(t, "ana")

	require.NoError(t, ana.WriteMessage(websocket.TextMessage, []byte("not json")))
	assert.Equal(t, errs.ErrInvalidJSONFormat, readError(t, ana).Code)

	require.NoError(t, ana.WriteMessage(websocket.TextMessage, []byte(`{"event":"join"}`)))
	assert.Equal(t, errs.ErrInvalidParams, readError(t, ana).Code)

	send(t, ana, chat.EventJoin, map[string]string{"chatId": "bogus"})
	e := readError(t, ana)
	assert.Equal(t, errs.ErrInvalidChatID, e.Code)
	assert.Equal(t, chat.EventJoin, e.Event)
}

func TestHubBroadcastThroughBroker(t *testing.T) {
	broker := &loopbackBroker{}
	h := newHubFixture(t, broker)
	chatID := h.startChat(t)

	ana := h.dial(t, "ana")
	bob := h.dial(t, "bob")
	join(t, ana, chatID)
	join(t, bob, chatID)

	send(t, bob, chat.EventSendMessage, map[string]string{"chatId": chatID, "text": "via redis"})
	for _, conn := range []*websocket.Conn{ana, bob} {
		frame := read(t, conn)
		assert.Equal(t, chat.EventReceiveMessage, frame.Event)
	}
	assert.Equal(t, int32(1), broker.published.Load())
}
