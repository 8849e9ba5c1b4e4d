package limiter

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

func TestMiddlewareLimitsPerIP(t *testing.T) {
	l := NewIPRateLimiter(rate.Every(time.Hour), 2)
	defer l.Close()

	h := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	call := func(addr string) int {
		r := httptest.NewRequest(http.MethodPost, "/api/login", nil)
		r.RemoteAddr = addr
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		return w.Code
	}

	assert.Equal(t, http.StatusNoContent, call("198.51.100.1:1000"))
	assert.Equal(t, http.StatusNoContent, call("198.51.100.1:1001"))
	assert.Equal(t, http.StatusTooManyRequests, call("198.51.100.1:1002"))

	assert.Equal(t, http.StatusNoContent, call("198.51.100.2:1000"), "other clients keep their own bucket")
}

func TestEvictIdle(t *testing.T) {
	l := NewIPRateLimiter(rate.Every(time.Second), 1)
	defer l.Close()

	l.GetLimiter("a").Allow()
	l.GetLimiter("b")

	removed := l.evictIdle(time.Now())
	assert.Equal(t, 1, removed, "only the untouched bucket is full")

	removed = l.evictIdle(time.Now().Add(time.Minute))
	assert.Equal(t, 1, removed)
	assert.Empty(t, l.limits)
}
