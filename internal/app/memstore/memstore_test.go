package memstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lostfound/internal/app/chat"
	"lostfound/internal/app/item"
	"lostfound/internal/app/push"
	"lostfound/internal/app/store"
	"lostfound/internal/app/user"
)

var (
	_ user.Repository = (*Store)(nil)
	_ item.Repository = (*Store)(nil)
	_ chat.Repository = (*Store)(nil)
	_ push.Repository = (*Store)(nil)
)

func TestUsers(t *testing.T) {
	ctx := context.Background()
	s := New()

	u := &user.User{Username: "ana", PasswordHash: "h"}
	require.NoError(t, s.CreateUser(ctx, u))
	require.NotEmpty(t, u.ID)
	assert.False(t, u.CreatedAt.IsZero())

	err := s.CreateUser(ctx, &user.User{Username: "ana"})
	assert.ErrorIs(t, err, store.ErrDuplicate)

	got, err := s.UserByUsername(ctx, "ana")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	require.NoError(t, s.UpdatePassword(ctx, u.ID, "h2"))
	got, err = s.UserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "h2", got.PasswordHash)

	_, err = s.UserByID(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, store.ErrInvalidID)

	_, err = s.UserByID(ctx, newID())
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.UserByUsername(ctx, "bob")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestItems(t *testing.T) {
	ctx := context.Background()
	s := New()
	now := time.Now().UTC()

	older := &item.Item{ItemDesc: "keys", UploadedBy: "u1", Timestamp: now.Add(-time.Hour), Location: item.NewGeoPoint(0.001, 0)}
	newer := &item.Item{ItemDesc: "wallet", UploadedBy: "u2", Timestamp: now, Location: item.NewGeoPoint(1, 1)}
	require.NoError(t, s.CreateItem(ctx, older))
	require.NoError(t, s.CreateItem(ctx, newer))

	all, err := s.ListItems(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, newer.ID, all[0].ID)

	near, err := s.ItemsNear(ctx, item.Area{Center: item.NewGeoPoint(0, 0), Radius: 500})
	require.NoError(t, err)
	require.Len(t, near, 1)
	assert.Equal(t, older.ID, near[0].ID)
	require.NotNil(t, near[0].Distance)

	mine, err := s.ItemsByUploader(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, mine, 1)

	assert.ErrorIs(t, s.SetItemStatus(ctx, older.ID, "u2", item.StatusClaimed), store.ErrNotFound)
	require.NoError(t, s.SetItemStatus(ctx, older.ID, "u1", item.StatusClaimed))

	_, err = s.DeleteItem(ctx, newer.ID, "u1")
	assert.ErrorIs(t, err, store.ErrNotFound)

	deleted, err := s.DeleteItem(ctx, newer.ID, "u2")
	require.NoError(t, err)
	assert.Equal(t, "wallet", deleted.ItemDesc)

	_, err = s.DeleteItem(ctx, "bad", "u2")
	assert.ErrorIs(t, err, store.ErrInvalidID)
}

func TestChats(t *testing.T) {
	ctx := context.Background()
	s := New()

	c := &chat.Chat{Participants: []chat.Participant{{UserID: "a", Username: "ana"}, {UserID: "b", Username: "bob"}}}
	require.NoError(t, s.CreateChat(ctx, c))

	found, err := s.FindChatBetween(ctx, "b", "a")
	require.NoError(t, err)
	assert.Equal(t, c.ID, found.ID)

	_, err = s.FindChatBetween(ctx, "a", "z")
	assert.ErrorIs(t, err, store.ErrNotFound)

	dup := &chat.Chat{Participants: []chat.Participant{{UserID: "b", Username: "bob"}, {UserID: "a", Username: "ana"}}}
	assert.ErrorIs(t, s.CreateChat(ctx, dup), store.ErrDuplicate, "one chat per pair, whoever starts it")
	assert.Empty(t, dup.ID)

	m := &chat.Message{SenderID: "a", Text: "hi", Timestamp: time.Now(), ReadBy: []string{"a"}}
	require.NoError(t, s.AppendMessage(ctx, c.ID, m))
	require.NotEmpty(t, m.ID)

	got, err := s.ChatByID(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, got.Messages, 1)
	require.NotNil(t, got.LastMessage)
	assert.Equal(t, "hi", got.LastMessage.Text)
	assert.Equal(t, 1, got.UnreadCount("b"))

	// returned chats are copies
	got.Messages[0].ReadBy = append(got.Messages[0].ReadBy, "b")

	require.NoError(t, s.MarkRead(ctx, c.ID, "b"))
	require.NoError(t, s.MarkRead(ctx, c.ID, "b"))

	list, err := s.ChatsForUser(ctx, "b")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, []string{"a", "b"}, list[0].Messages[0].ReadBy)

	assert.ErrorIs(t, s.AppendMessage(ctx, newID(), m), store.ErrNotFound)
	_, err = s.ChatByID(ctx, "xyz")
	assert.ErrorIs(t, err, store.ErrInvalidID)
}

func TestSubscriptions(t *testing.T) {
	ctx := context.Background()
	s := New()

	anon := &push.Subscription{Endpoint: "https://push/1", Keys: push.Keys{P256dh: "k", Auth: "a"}}
	require.NoError(t, s.SaveSubscription(ctx, anon))

	// saving again binds the owner and keeps one record
	require.NoError(t, s.SaveSubscription(ctx, &push.Subscription{Endpoint: "https://push/1", Keys: push.Keys{P256dh: "k2", Auth: "a"}, UserID: "u1"}))
	require.NoError(t, s.SaveSubscription(ctx, &push.Subscription{Endpoint: "https://push/2", UserID: "u2"}))

	all, err := s.ListSubscriptions(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	others, err := s.ListSubscriptions(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, others, 1)
	assert.Equal(t, "https://push/2", others[0].Endpoint)

	mine, err := s.SubscriptionsForUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "k2", mine[0].Keys.P256dh)

	require.NoError(t, s.DeleteSubscription(ctx, "https://push/1"))
	require.NoError(t, s.DeleteSubscription(ctx, "https://push/unknown"))

	all, err = s.ListSubscriptions(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
