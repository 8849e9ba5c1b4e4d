package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lostfound/internal/app/chat"
	"lostfound/internal/app/memstore"
	"lostfound/internal/app/storage"
	"lostfound/internal/configs"
	"lostfound/internal/handler"
	"lostfound/internal/pkg/auth/jwt"
)

type fakeUploader struct {
	mu       sync.Mutex
	uploads  []storage.Image
	deleted  chan string
	failNext bool
}

func (f *fakeUploader) Upload(_ context.Context, img storage.Image) (storage.Uploaded, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads = append(f.uploads, img)
	if f.failNext {
		f.failNext = false
		return storage.Uploaded{}, nil
	}
	return storage.Uploaded{URL: "https://cdn.test/lost_items/" + img.Name, Key: "lost_items/" + img.Name}, nil
}

func (f *fakeUploader) Delete(_ context.Context, key string) error {
	f.deleted <- key
	return nil
}

type sentPush struct {
	target, title, body, url string
	broadcast                bool
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentPush
}

func (f *fakeNotifier) Enabled() bool { return true }

func (f *fakeNotifier) NotifyUser(userID, title, body, url string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentPush{target: userID, title: title, body: body, url: url})
}

func (f *fakeNotifier) NotifyAllExcept(userID, title, body, url string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentPush{target: userID, title: title, body: body, url: url, broadcast: true})
}

func (f *fakeNotifier) all() []sentPush {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentPush(nil), f.sent...)
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	deps     *handler.AppDeps
	store    *memstore.Store
	uploader *fakeUploader
	notifier *fakeNotifier
	router   http.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	st := memstore.New()
	notifier := &fakeNotifier{}
	uploader := &fakeUploader{deleted: make(chan string, 4)}
	service := chat.NewService(st, notifier)
	hub := chat.NewHub(service, nil)

	deps := &handler.AppDeps{
		Config: &configs.AppConfig{
			Environment:    configs.EnvDevelopment,
			VAPIDPublicKey: "test-public-key",
		},
		Store:    st,
		Issuer:   jwt.NewIssuer("test-secret", time.Minute, time.Hour),
		Uploader: uploader,
		Notifier: notifier,
		Chat:     service,
		Hub:      hub,
	}

	router, cleanup := handler.Router(deps)
	t.Cleanup(func() {
		cleanup()
		hub.Shutdown()
	})

	return &testServer{deps: deps, store: st, uploader: uploader, notifier: notifier, router: router}
}

// do sends body as JSON (when not nil) with token as bearer (when not empty).
func (s *testServer) do(t *testing.T, method, path string, body any, token string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	r := httptest.NewRequest(method, path, reader)
	if body != nil {
		r.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, r)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w, env
}

type session struct {
	Token string `json:"token"`
	User  struct {
		ID       string `json:"id"`
		Username string `json:"username"`
	} `json:"user"`
}

func (s *testServer) register(t *testing.T, username string) session {
	t.Helper()

	w, env := s.do(t, http.MethodPost, "/api/register", map[string]string{"username": username, "password": "secret1"}, "")
	require.Equal(t, http.StatusOK, w.Code, env.Message)

	var sess session
	require.NoError(t, json.Unmarshal(env.Data, &sess))
	require.NotEmpty(t, sess.Token)
	return sess
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

func TestHealthAndVAPIDKey(t *testing.T) {
	s := newTestServer(t)

	w, env := s.do(t, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode[map[string]string](t, env)["status"])

	for _, path := range []string{"/vapid_public_key", "/api/vapid_public_key"} {
		_, env = s.do(t, http.MethodGet, path, nil, "")
		assert.Equal(t, "test-public-key", decode[map[string]string](t, env)["key"], path)
	}
}
