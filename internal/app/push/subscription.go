/*
Package push stores browser push subscriptions and delivers Web Push notifications to
them through a bounded pool of workers.
*/
package push

import (
	"context"
	"strings"
	"time"
)

// Keys are the client's ECDH public key and auth secret, base64url encoded.
type Keys struct {
	P256dh string `json:"p256dh"`
	Auth   string `json:"auth"`
}

// Subscription is a browser PushSubscription, optionally bound to a user.
type Subscription struct {
	Endpoint       string    `json:"endpoint"`
	ExpirationTime *int64    `json:"expirationTime"`
	Keys           Keys      `json:"keys"`
	UserID         string    `json:"-"`
	CreatedAt      time.Time `json:"-"`
}

// Normalize trims the endpoint and restores the base64 padding some browsers strip
// from the keys.
func (s *Subscription) Normalize() {
	s.Endpoint = strings.TrimSpace(s.Endpoint)
	s.Keys.P256dh = padBase64(strings.TrimSpace(s.Keys.P256dh))
	s.Keys.Auth = padBase64(strings.TrimSpace(s.Keys.Auth))
}

func padBase64(s string) string {
	if s == "" {
		return s
	}
	if rem := len(s) % 4; rem != 0 {
		s += strings.Repeat("=", 4-rem)
	}
	return s
}

// Repository persists subscriptions. Endpoints are unique.
type Repository interface {
	// SaveSubscription inserts s or, when the endpoint exists, refreshes its keys and
	// binds it to s.UserID if set.
	SaveSubscription(ctx context.Context, s *Subscription) error

	// DeleteSubscription removes the endpoint. Deleting an unknown endpoint is not an error.
	DeleteSubscription(ctx context.Context, endpoint string) error

	// ListSubscriptions returns all subscriptions not bound to excludeUserID.
	ListSubscriptions(ctx context.Context, excludeUserID string) ([]Subscription, error)

	// SubscriptionsForUser returns the subscriptions bound to userID.
	SubscriptionsForUser(ctx context.Context, userID string) ([]Subscription, error)
}
