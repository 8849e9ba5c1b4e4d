package chat

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"

	"lostfound/internal/pkg/logx"
)

// Broker carries room events between server instances. Every instance, the publisher
// included, receives each published event and hands it to Hub.Deliver.
type Broker interface {
	Publish(ctx context.Context, chatID string, payload []byte) error
}

// envelope is what travels through the Broker.
type envelope struct {
	ChatID string          `json:"chatId"`
	Skip   string          `json:"skip,omitempty"`
	Frame  json.RawMessage `json:"frame"`
}

// Hub keeps the rooms of this instance: for each chat id, the connections that joined it.
type Hub struct {
	service *Service
	broker  Broker

	// mu protects rooms and clients.
	mu      sync.RWMutex
	rooms   map[string]map[*Client]struct{}
	clients map[*Client]struct{}

	logger zerolog.Logger
}

// NewHub builds a Hub. broker may be nil for single-instance delivery.
func NewHub(service *Service, broker Broker) *Hub {
	return &Hub{
		service: service,
		broker:  broker,
		rooms:   make(map[string]map[*Client]struct{}),
		clients: make(map[*Client]struct{}),
		logger:  logx.Component("hub"),
	}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	total := len(h.clients)
	h.mu.Unlock()

	c.logger.Info().Int("total_conns", total).Msg("Client connected.")
}

// unregister removes c from every room it joined.
func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for chatID := range c.rooms {
		h.removeFromRoom(c, chatID)
	}
	delete(h.clients, c)
}

func (h *Hub) join(c *Client, chatID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.rooms[chatID]
	if !ok {
		room = make(map[*Client]struct{})
		h.rooms[chatID] = room
	}
	room[c] = struct{}{}
	c.rooms[chatID] = struct{}{}

	h.logger.Debug().Str("chat_id", chatID).Str("conn_id", c.ID).Int("room_size", len(room)).Msg("Joined room.")
}

func (h *Hub) leave(c *Client, chatID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.removeFromRoom(c, chatID)
}

// removeFromRoom requires h.mu held for writing.
func (h *Hub) removeFromRoom(c *Client, chatID string) {
	delete(c.rooms, chatID)

	room, ok := h.rooms[chatID]
	if !ok {
		return
	}
	delete(room, c)
	if len(room) == 0 {
		delete(h.rooms, chatID)
	}
}

// RoomSize returns the number of local connections joined to chatID.
func (h *Hub) RoomSize(chatID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.rooms[chatID])
}

// Broadcast sends event to every connection in the room of chatID except the
// connection with id skip. With a broker the event goes through it so other instances
// see it too; if publishing fails it is delivered locally only.
func (h *Hub) Broadcast(ctx context.Context, chatID, event string, data any, skip string) {
	frame, err := encodeFrame(event, data)
	if err != nil {
		h.logger.Error().Err(err).Str("event", event).Msg("Error marshaling frame for broadcast.")
		return
	}

	if h.broker != nil {
		payload, err := json.Marshal(envelope{ChatID: chatID, Skip: skip, Frame: frame})
		if err == nil {
			err = h.broker.Publish(ctx, chatID, payload)
		}
		if err == nil {
			return
		}
		h.logger.Warn().Err(err).Str("chat_id", chatID).Msg("Broker publish failed, delivering locally.")
	}

	h.deliver(chatID, frame, skip)
}

// Deliver hands an event received from the broker to the local connections of its room.
func (h *Hub) Deliver(payload []byte) {
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		h.logger.Warn().Err(err).Msg("Dropping malformed broker payload.")
		return
	}
	h.deliver(env.ChatID, env.Frame, env.Skip)
}

func (h *Hub) deliver(chatID string, frame []byte, skip string) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.rooms[chatID] {
		if c.ID == skip {
			continue
		}
		if !c.enqueue(frame) {
			h.logger.Debug().Str("conn_id", c.ID).Str("chat_id", chatID).Msg("Skipped closed connection.")
		}
	}
}

// Shutdown closes every connection's queue, which ends their write pumps.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		c.close()
	}
	h.logger.Info().Int("closed_conns", len(h.clients)).Msg("Hub shutdown complete.")
}
