package chat_test

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lostfound/internal/app/chat"
	"lostfound/internal/app/memstore"
	"lostfound/internal/app/store"
	"lostfound/internal/app/user"
	"lostfound/internal/pkg/errs"
)

type notification struct {
	userID, title, body, url string
}

type fakeNotifier struct {
	mu    sync.Mutex
	calls []notification
}

func (f *fakeNotifier) NotifyUser(userID, title, body, url string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, notification{userID, title, body, url})
}

func (f *fakeNotifier) all() []notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]notification(nil), f.calls...)
}

type fixture struct {
	store    *memstore.Store
	service  *chat.Service
	notifier *fakeNotifier
	ana, bob *user.User
	eve      *user.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	st := memstore.New()
	n := &fakeNotifier{}
	f := &fixture{
		store:    st,
		service:  chat.NewService(st, n),
		notifier: n,
		ana:      &user.User{Username: "ana", PasswordHash: "x"},
		bob:      &user.User{Username: "bob", PasswordHash: "x"},
		eve:      &user.User{Username: "eve", PasswordHash: "x"},
	}

	ctx := context.Background()
	for _, u := range []*user.User{f.ana, f.bob, f.eve} {
		require.NoError(t, st.CreateUser(ctx, u))
	}
	return f
}

func (f *fixture) startChat(t *testing.T) string {
	t.Helper()
	id, customErr := f.service.StartChat(context.Background(), f.ana, f.bob.ID)
	require.Nil(t, customErr)
	return id
}

func code(e *errs.CustomError) int {
	if e == nil {
		return 0
	}
	return e.Code
}

func TestStartChat(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := []struct {
		name      string
		partnerID string
		want      int
	}{
		{"missing partner", "  ", errs.ErrPartnerRequired},
		{"self", f.ana.ID, errs.ErrChatWithSelf},
		{"malformed id", "zzz", errs.ErrInvalidPartnerID},
		{"unknown user", "7f1c2d9e-5b7a-4c1e-9a51-3f0d2b6e8c44", errs.ErrUserNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, customErr := f.service.StartChat(ctx, f.ana, tc.partnerID)
			assert.Equal(t, tc.want, code(customErr))
		})
	}

	first := f.startChat(t)
	again, customErr := f.service.StartChat(ctx, f.bob, f.ana.ID)
	require.Nil(t, customErr)
	assert.Equal(t, first, again, "the pair shares one chat")

	info, customErr := f.service.Info(ctx, f.bob, first)
	require.Nil(t, customErr)
	require.NotNil(t, info.Partner)
	assert.Equal(t, "ana", info.Partner.Username)
	assert.Len(t, info.Participants, 2)
}

func TestPairKey(t *testing.T) {
	assert.Equal(t, "a:b", chat.PairKey("b", "a"))
	assert.Equal(t, chat.PairKey("a", "b"), chat.PairKey("b", "a"))

	c := &chat.Chat{Participants: []chat.Participant{{UserID: "b"}, {UserID: "a"}}}
	assert.Equal(t, "a:b", c.PairKey())

	c.Participants = append(c.Participants, chat.Participant{UserID: "c"})
	assert.Empty(t, c.PairKey(), "only two-participant chats have a pair key")
}

// staleLookupRepo misses the first pair lookup, as a request racing another one would.
type staleLookupRepo struct {
	chat.Repository
	missed atomic.Bool
}

func (r *staleLookupRepo) FindChatBetween(ctx context.Context, a, b string) (*chat.Chat, error) {
	if r.missed.CompareAndSwap(false, true) {
		return nil, store.ErrNotFound
	}
	return r.Repository.FindChatBetween(ctx, a, b)
}

func TestStartChatLosesCreateRace(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.startChat(t)

	svc := chat.NewService(&staleLookupRepo{Repository: f.store}, f.notifier)
	id, customErr := svc.StartChat(ctx, f.bob, f.ana.ID)
	require.Nil(t, customErr)
	assert.Equal(t, first, id, "the duplicate insert falls back to the existing chat")

	chats, err := f.store.ChatsForUser(ctx, f.ana.ID)
	require.NoError(t, err)
	assert.Len(t, chats, 1)
}

func TestStartChatConcurrent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const n = 16
	ids := make([]string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			caller, partner := f.ana, f.bob
			if i%2 == 1 {
				caller, partner = f.bob, f.ana
			}
			id, customErr := f.service.StartChat(ctx, caller, partner.ID)
			if assert.Nil(t, customErr) {
				ids[i] = id
			}
		}()
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
	chats, err := f.store.ChatsForUser(ctx, f.bob.ID)
	require.NoError(t, err)
	assert.Len(t, chats, 1)
}

func TestAuthorizeErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	chatID := f.startChat(t)

	_, customErr := f.service.Info(ctx, f.ana, "nope")
	assert.Equal(t, errs.ErrInvalidChatID, code(customErr))
	assert.Equal(t, 400, customErr.Status)

	_, customErr = f.service.Info(ctx, f.ana, "7f1c2d9e-5b7a-4c1e-9a51-3f0d2b6e8c44")
	assert.Equal(t, errs.ErrChatNotFound, code(customErr))
	assert.Equal(t, 404, customErr.Status)

	_, customErr = f.service.Info(ctx, f.eve, chatID)
	assert.Equal(t, errs.ErrChatForbidden, code(customErr))
	assert.Equal(t, 403, customErr.Status)

	assert.Equal(t, errs.ErrChatForbidden, code(f.service.MarkRead(ctx, f.eve, chatID)))
}

func TestSendMessageAndRead(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	chatID := f.startChat(t)

	sender := chat.Participant{UserID: f.ana.ID, Username: f.ana.Username}

	_, customErr := f.service.SendMessage(ctx, sender, chatID, "   ")
	assert.Equal(t, errs.ErrMessageEmpty, code(customErr))

	_, customErr = f.service.SendMessage(ctx, sender, chatID, strings.Repeat("x", chat.MaxContentBytes+1))
	assert.Equal(t, errs.ErrMessageContentTooLong, code(customErr))

	_, customErr = f.service.SendMessage(ctx, chat.Participant{UserID: f.eve.ID, Username: "eve"}, chatID, "hi")
	assert.Equal(t, errs.ErrChatForbidden, code(customErr))

	m, customErr := f.service.SendMessage(ctx, sender, chatID, "  found your keys  ")
	require.Nil(t, customErr)
	assert.Equal(t, "found your keys", m.Text)
	assert.Equal(t, []string{f.ana.ID}, m.ReadBy)
	assert.NotEmpty(t, m.ID)

	calls := f.notifier.all()
	require.Len(t, calls, 1)
	assert.Equal(t, f.bob.ID, calls[0].userID)
	assert.Equal(t, "New message from ana", calls[0].title)
	assert.Equal(t, "/chat/"+chatID, calls[0].url)

	summaries, customErr := f.service.ListChats(ctx, f.bob)
	require.Nil(t, customErr)
	require.Len(t, summaries, 1)
	assert.Equal(t, 1, summaries[0].UnreadCount)
	assert.Equal(t, "ana", summaries[0].WithUser)

	msgs, customErr := f.service.Messages(ctx, f.bob, chatID)
	require.Nil(t, customErr)
	require.Len(t, msgs, 1)

	summaries, customErr = f.service.ListChats(ctx, f.bob)
	require.Nil(t, customErr)
	assert.Equal(t, 0, summaries[0].UnreadCount, "reading messages marks them read")
}

func TestMessagesLenientIDs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	msgs, customErr := f.service.Messages(ctx, f.ana, "garbage")
	require.Nil(t, customErr)
	assert.Empty(t, msgs)

	msgs, customErr = f.service.Messages(ctx, f.ana, "7f1c2d9e-5b7a-4c1e-9a51-3f0d2b6e8c44")
	require.Nil(t, customErr)
	assert.NotNil(t, msgs)
	assert.Empty(t, msgs)

	chatID := f.startChat(t)
	_, customErr = f.service.Messages(ctx, f.eve, chatID)
	assert.Equal(t, errs.ErrChatForbidden, code(customErr))
}

func TestListChatsOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	withBob := f.startChat(t)
	withEve, customErr := f.service.StartChat(ctx, f.ana, f.eve.ID)
	require.Nil(t, customErr)
	_, customErr = f.service.StartChat(ctx, f.bob, f.eve.ID)
	require.Nil(t, customErr)

	ana := chat.Participant{UserID: f.ana.ID, Username: "ana"}
	_, customErr = f.service.SendMessage(ctx, ana, withEve, "first")
	require.Nil(t, customErr)
	_, customErr = f.service.SendMessage(ctx, ana, withBob, "second")
	require.Nil(t, customErr)

	summaries, customErr := f.service.ListChats(ctx, f.ana)
	require.Nil(t, customErr)
	require.Len(t, summaries, 2)
	assert.Equal(t, withBob, summaries[0].ChatID)
	assert.Equal(t, withEve, summaries[1].ChatID)

	// eve has one chat with a message and one without; the silent one is last
	summaries, customErr = f.service.ListChats(ctx, f.eve)
	require.Nil(t, customErr)
	require.Len(t, summaries, 2)
	assert.Equal(t, withEve, summaries[0].ChatID)
	assert.Nil(t, summaries[1].LastMessage)
}
