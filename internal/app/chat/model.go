/*
Package chat implements one-to-one conversations: the persisted chat model, the service
behind the REST endpoints and the real-time hub that fans events out to the WebSocket
connections joined to a chat's room.
*/
package chat

import (
	"context"
	"time"

	"lostfound/internal/app/user"
)

// MaxContentBytes is the maximum size of a message text after trimming.
const MaxContentBytes = 5000

// Participant is one side of a chat.
type Participant struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

// Message is a persisted chat message. ReadBy always contains the sender.
type Message struct {
	ID        string    `json:"_id"`
	SenderID  string    `json:"senderId"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
	ReadBy    []string  `json:"readBy"`
}

// ReadByUser reports whether userID has read m.
func (m *Message) ReadByUser(userID string) bool {
	for _, id := range m.ReadBy {
		if id == userID {
			return true
		}
	}
	return false
}

// LastMessage is the denormalised preview of the newest message of a chat.
type LastMessage struct {
	Text      string    `json:"text"`
	SenderID  string    `json:"senderId"`
	Timestamp time.Time `json:"timestamp"`
}

// Chat is a two-participant conversation.
type Chat struct {
	ID           string        `json:"chatId"`
	Participants []Participant `json:"participants"`
	Messages     []Message     `json:"-"`
	LastMessage  *LastMessage  `json:"lastMessage"`
	CreatedAt    time.Time     `json:"-"`
}

// HasParticipant reports whether userID takes part in c.
func (c *Chat) HasParticipant(userID string) bool {
	for _, p := range c.Participants {
		if p.UserID == userID {
			return true
		}
	}
	return false
}

// PairKey identifies the chat between a and b regardless of who started it.
func PairKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + ":" + b
}

// PairKey returns the key of a two-participant chat, or "" for any other chat.
func (c *Chat) PairKey() string {
	if len(c.Participants) != 2 {
		return ""
	}
	return PairKey(c.Participants[0].UserID, c.Participants[1].UserID)
}

// Partner returns the participant that is not userID.
func (c *Chat) Partner(userID string) *Participant {
	for i := range c.Participants {
		if c.Participants[i].UserID != userID {
			return &c.Participants[i]
		}
	}
	return nil
}

// UnreadCount counts the messages userID has not read.
func (c *Chat) UnreadCount(userID string) int {
	n := 0
	for i := range c.Messages {
		if !c.Messages[i].ReadByUser(userID) {
			n++
		}
	}
	return n
}

// Summary is one entry of a user's chat list.
type Summary struct {
	ChatID      string       `json:"chatId"`
	WithUser    string       `json:"withUser"`
	WithUserID  string       `json:"withUserId"`
	LastMessage *LastMessage `json:"lastMessage"`
	UnreadCount int          `json:"unreadCount"`
}

// Info describes a chat to one of its participants.
type Info struct {
	ChatID       string        `json:"chatId"`
	Participants []Participant `json:"participants"`
	Partner      *Participant  `json:"partner"`
}

// Repository is the persistence the chat service needs. Implementations report missing
// records with store.ErrNotFound and malformed ids with store.ErrInvalidID.
type Repository interface {
	UserByID(ctx context.Context, id string) (*user.User, error)

	// FindChatBetween returns the two-participant chat of a and b.
	FindChatBetween(ctx context.Context, a, b string) (*Chat, error)

	// CreateChat stores c and assigns its ID and CreatedAt. It returns store.ErrDuplicate
	// when a chat with the same PairKey already exists.
	CreateChat(ctx context.Context, c *Chat) error

	// ChatByID returns the chat with its messages.
	ChatByID(ctx context.Context, id string) (*Chat, error)

	// ChatsForUser returns every chat userID takes part in, with messages.
	ChatsForUser(ctx context.Context, userID string) ([]Chat, error)

	// AppendMessage stores m in chat chatID, assigns m.ID and updates the chat's LastMessage.
	AppendMessage(ctx context.Context, chatID string, m *Message) error

	// MarkRead adds userID to ReadBy of every message in chatID.
	MarkRead(ctx context.Context, chatID, userID string) error
}

// Notifier delivers a push notification to the devices of one user.
type Notifier interface {
	NotifyUser(userID, title, body, url string)
}
