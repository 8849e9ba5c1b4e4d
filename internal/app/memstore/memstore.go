/*
Package memstore is an in-process backend for every repository. It is the development
default and the store used by handler tests. Data is lost on restart.
*/
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"lostfound/internal/app/chat"
	"lostfound/internal/app/item"
	"lostfound/internal/app/push"
	"lostfound/internal/app/store"
	"lostfound/internal/app/user"
)

// Store holds all records in maps guarded by one RWMutex.
type Store struct {
	mu sync.RWMutex

	users       map[string]*user.User
	usernames   map[string]string // username -> id
	items       map[string]*item.Item
	chats       map[string]*chat.Chat
	subscribers map[string]*push.Subscription // endpoint -> subscription

	now func() time.Time
}

func New() *Store {
	return &Store{
		users:       make(map[string]*user.User),
		usernames:   make(map[string]string),
		items:       make(map[string]*item.Item),
		chats:       make(map[string]*chat.Chat),
		subscribers: make(map[string]*push.Subscription),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func newID() string { return uuid.NewString() }

func checkID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return store.ErrInvalidID
	}
	return nil
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// Close is a no-op.
func (s *Store) Close() {}

// --- users ---

func (s *Store) CreateUser(_ context.Context, u *user.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.usernames[u.Username]; taken {
		return store.ErrDuplicate
	}

	u.ID = newID()
	u.CreatedAt = s.now()

	stored := *u
	s.users[u.ID] = &stored
	s.usernames[u.Username] = u.ID
	return nil
}

func (s *Store) UserByID(_ context.Context, id string) (*user.User, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	out := *u
	return &out, nil
}

func (s *Store) UserByUsername(_ context.Context, username string) (*user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.usernames[username]
	if !ok {
		return nil, store.ErrNotFound
	}
	out := *s.users[id]
	return &out, nil
}

func (s *Store) UpdatePassword(_ context.Context, id, passwordHash string) error {
	if err := checkID(id); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return store.ErrNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}

// --- items ---

func (s *Store) CreateItem(_ context.Context, it *item.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	it.ID = newID()
	stored := *it
	stored.Distance = nil
	s.items[it.ID] = &stored
	return nil
}

func (s *Store) ListItems(_ context.Context) ([]item.Item, error) {
	s.mu.RLock()
	out := make([]item.Item, 0, len(s.items))
	for _, it := range s.items {
		out = append(out, *it)
	}
	s.mu.RUnlock()

	item.SortNewestFirst(out)
	return out, nil
}

func (s *Store) ItemsNear(ctx context.Context, area item.Area) ([]item.Item, error) {
	all, err := s.ListItems(ctx)
	if err != nil {
		return nil, err
	}
	return item.Within(all, area), nil
}

func (s *Store) ItemsByUploader(_ context.Context, userID string) ([]item.Item, error) {
	s.mu.RLock()
	out := make([]item.Item, 0)
	for _, it := range s.items {
		if it.UploadedBy == userID {
			out = append(out, *it)
		}
	}
	s.mu.RUnlock()

	item.SortNewestFirst(out)
	return out, nil
}

func (s *Store) SetItemStatus(_ context.Context, id, ownerID, status string) error {
	if err := checkID(id); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	it, ok := s.items[id]
	if !ok || it.UploadedBy != ownerID {
		return store.ErrNotFound
	}
	it.Status = status
	return nil
}

func (s *Store) DeleteItem(_ context.Context, id, ownerID string) (*item.Item, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	it, ok := s.items[id]
	if !ok || it.UploadedBy != ownerID {
		return nil, store.ErrNotFound
	}
	delete(s.items, id)
	return it, nil
}

// --- chats ---

func copyChat(c *chat.Chat) chat.Chat {
	out := *c
	out.Participants = append([]chat.Participant(nil), c.Participants...)
	out.Messages = make([]chat.Message, len(c.Messages))
	for i, m := range c.Messages {
		m.ReadBy = append([]string(nil), m.ReadBy...)
		out.Messages[i] = m
	}
	if c.LastMessage != nil {
		lm := *c.LastMessage
		out.LastMessage = &lm
	}
	return out
}

func (s *Store) FindChatBetween(_ context.Context, a, b string) (*chat.Chat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// oldest first so the same chat is found every time
	var found *chat.Chat
	for _, c := range s.chats {
		if len(c.Participants) == 2 && c.HasParticipant(a) && c.HasParticipant(b) {
			if found == nil || c.CreatedAt.Before(found.CreatedAt) {
				found = c
			}
		}
	}
	if found == nil {
		return nil, store.ErrNotFound
	}
	out := copyChat(found)
	return &out, nil
}

func (s *Store) CreateChat(_ context.Context, c *chat.Chat) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if key := c.PairKey(); key != "" {
		for _, existing := range s.chats {
			if existing.PairKey() == key {
				return store.ErrDuplicate
			}
		}
	}

	c.ID = newID()
	c.CreatedAt = s.now()
	stored := copyChat(c)
	s.chats[c.ID] = &stored
	return nil
}

func (s *Store) ChatByID(_ context.Context, id string) (*chat.Chat, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.chats[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	out := copyChat(c)
	return &out, nil
}

func (s *Store) ChatsForUser(_ context.Context, userID string) ([]chat.Chat, error) {
	s.mu.RLock()
	out := make([]chat.Chat, 0)
	for _, c := range s.chats {
		if c.HasParticipant(userID) {
			out = append(out, copyChat(c))
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) AppendMessage(_ context.Context, chatID string, m *chat.Message) error {
	if err := checkID(chatID); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.chats[chatID]
	if !ok {
		return store.ErrNotFound
	}

	m.ID = newID()
	stored := *m
	stored.ReadBy = append([]string(nil), m.ReadBy...)
	c.Messages = append(c.Messages, stored)
	c.LastMessage = &chat.LastMessage{Text: m.Text, SenderID: m.SenderID, Timestamp: m.Timestamp}
	return nil
}

func (s *Store) MarkRead(_ context.Context, chatID, userID string) error {
	if err := checkID(chatID); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.chats[chatID]
	if !ok {
		return store.ErrNotFound
	}
	for i := range c.Messages {
		if !c.Messages[i].ReadByUser(userID) {
			c.Messages[i].ReadBy = append(c.Messages[i].ReadBy, userID)
		}
	}
	return nil
}

// --- push subscriptions ---

func (s *Store) SaveSubscription(_ context.Context, sub *push.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.subscribers[sub.Endpoint]; ok {
		existing.Keys = sub.Keys
		existing.ExpirationTime = sub.ExpirationTime
		if sub.UserID != "" {
			existing.UserID = sub.UserID
		}
		return nil
	}

	stored := *sub
	stored.CreatedAt = s.now()
	s.subscribers[sub.Endpoint] = &stored
	return nil
}

func (s *Store) DeleteSubscription(_ context.Context, endpoint string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.subscribers, endpoint)
	return nil
}

func (s *Store) ListSubscriptions(_ context.Context, excludeUserID string) ([]push.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]push.Subscription, 0, len(s.subscribers))
	for _, sub := range s.subscribers {
		if excludeUserID != "" && sub.UserID == excludeUserID {
			continue
		}
		out = append(out, *sub)
	}
	return out, nil
}

func (s *Store) SubscriptionsForUser(_ context.Context, userID string) ([]push.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]push.Subscription, 0)
	for _, sub := range s.subscribers {
		if sub.UserID == userID {
			out = append(out, *sub)
		}
	}
	return out, nil
}
