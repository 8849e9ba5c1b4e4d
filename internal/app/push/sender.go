package push

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/SherClockHolmes/webpush-go"
)

// DefaultTTL is how long, in seconds, the push service keeps an undelivered message.
const DefaultTTL = 60

// Sender delivers one encrypted payload to one subscription and reports the push
// service's HTTP status.
type Sender interface {
	Send(ctx context.Context, sub Subscription, payload []byte) (int, error)
}

// VAPIDSender sends through webpush-go, signing requests with the server's VAPID keys.
type VAPIDSender struct {
	publicKey  string
	privateKey string
	subscriber string
	client     *http.Client
}

// NewVAPIDSender builds a Sender. subject is a mailto: or https: contact for the push service.
func NewVAPIDSender(publicKey, privateKey, subject string) *VAPIDSender {
	return &VAPIDSender{
		publicKey:  publicKey,
		privateKey: privateKey,
		subscriber: subject,
		client:     &http.Client{Timeout: 15 * time.Second},
	}
}

func (s *VAPIDSender) Send(ctx context.Context, sub Subscription, payload []byte) (int, error) {
	resp, err := webpush.SendNotificationWithContext(ctx, payload, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.Keys.P256dh,
			Auth:   sub.Keys.Auth,
		},
	}, &webpush.Options{
		HTTPClient:      s.client,
		Subscriber:      s.subscriber,
		VAPIDPublicKey:  s.publicKey,
		VAPIDPrivateKey: s.privateKey,
		TTL:             DefaultTTL,
	})
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	// drain so the connection can be reused
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode, nil
}

// GenerateKeys returns a new VAPID key pair.
func GenerateKeys() (privateKey, publicKey string, err error) {
	return webpush.GenerateVAPIDKeys()
}
