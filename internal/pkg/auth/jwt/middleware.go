package jwt

import (
	"context"
	"net/http"
	"strings"
	"time"

	"lostfound/internal/pkg/logx"
)

type contextKey string

const (
	// ContextAuthPayloadKey stores the parsed access Payload in the request context.
	ContextAuthPayloadKey contextKey = "auth_payload"

	AccessCookieName  = "access_token"
	RefreshCookieName = "refresh_token"
)

// ExtractToken returns the bearer token of r: the Authorization header wins over the
// access_token cookie. Returns "" when neither carries one.
func ExtractToken(r *http.Request) string {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}

	if c, err := r.Cookie(AccessCookieName); err == nil {
		return c.Value
	}

	return ""
}

// IdentityExtractorMiddleware parses the access token of each request and stores its
// Payload in the context. It never rejects a request: handlers that need an identity
// check GetPayloadFromContext and answer 401 themselves.
func IdentityExtractorMiddleware(issuer *Issuer) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := ExtractToken(r)
			if tokenString == "" {
				next.ServeHTTP(w, r)
				return
			}

			payload, err := issuer.ParseAccess(tokenString)
			if err != nil {
				logx.Debug("Invalid or expired access token, treating as anonymous", "error", err.Error())
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPayload(r.Context(), payload)))
		})
	}
}

// WithPayload returns a copy of ctx carrying payload.
func WithPayload(ctx context.Context, payload *Payload) context.Context {
	return context.WithValue(ctx, ContextAuthPayloadKey, payload)
}

// GetPayloadFromContext returns the authenticated Payload or nil for anonymous requests.
func GetPayloadFromContext(r *http.Request) *Payload {
	payload, ok := r.Context().Value(ContextAuthPayloadKey).(*Payload)
	if !ok {
		return nil
	}
	return payload
}

// CookieOptions controls the attributes of the session cookies.
type CookieOptions struct {
	// Secure marks the cookies Secure and SameSite=None so a frontend on another
	// origin can send them. When false they are SameSite=Lax for plain-http development.
	Secure bool
}

func (o CookieOptions) cookie(name, value string, maxAge time.Duration) *http.Cookie {
	c := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   o.Secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(maxAge / time.Second),
	}
	if o.Secure {
		c.SameSite = http.SameSiteNoneMode
	}
	if maxAge < 0 {
		c.MaxAge = -1
		c.Expires = time.Unix(0, 0)
	}
	return c
}

// SetAuthCookies writes the access and refresh cookies of pair.
func SetAuthCookies(w http.ResponseWriter, pair Pair, opts CookieOptions) {
	http.SetCookie(w, opts.cookie(AccessCookieName, pair.AccessToken, time.Until(pair.AccessExpiresAt)))
	http.SetCookie(w, opts.cookie(RefreshCookieName, pair.RefreshToken, time.Until(pair.RefreshExpiresAt)))
}

// ClearAuthCookies expires both session cookies.
func ClearAuthCookies(w http.ResponseWriter, opts CookieOptions) {
	http.SetCookie(w, opts.cookie(AccessCookieName, "", -1))
	http.SetCookie(w, opts.cookie(RefreshCookieName, "", -1))
}
