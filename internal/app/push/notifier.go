package push

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"lostfound/internal/pkg/logx"
)

const (
	DefaultWorkers   = 4
	DefaultQueueSize = 256

	// jobTimeout bounds one job: resolving its subscriptions and sending to all of them.
	jobTimeout = 30 * time.Second
)

// Notification is the JSON payload the service worker receives.
type Notification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	URL   string `json:"url,omitempty"`
}

type job struct {
	// userID selects the subscriptions of one user; otherwise every subscription
	// except those of exceptUserID.
	userID       string
	exceptUserID string
	notification Notification
}

// Notifier queues notifications and sends them from a fixed set of workers so request
// handlers never wait on push services.
type Notifier struct {
	repo   Repository
	sender Sender

	jobs chan job
	wg   sync.WaitGroup

	// mu guards closed against sends on a closed jobs channel.
	mu     sync.RWMutex
	closed bool

	logger zerolog.Logger
}

// NewNotifier starts workers goroutines. A nil sender disables delivery: jobs are discarded.
func NewNotifier(repo Repository, sender Sender, workers, queueSize int) *Notifier {
	if workers < 1 {
		workers = DefaultWorkers
	}
	if queueSize < 1 {
		queueSize = DefaultQueueSize
	}

	n := &Notifier{
		repo:   repo,
		sender: sender,
		jobs:   make(chan job, queueSize),
		logger: logx.Component("push"),
	}

	if sender == nil {
		n.logger.Warn().Msg("Web push disabled: no VAPID keys configured.")
		return n
	}

	for i := 0; i < workers; i++ {
		n.wg.Add(1)
		go n.worker()
	}
	n.logger.Info().Int("workers", workers).Int("queue_size", queueSize).Msg("Push notifier started.")

	return n
}

// Enabled reports whether notifications are actually delivered.
func (n *Notifier) Enabled() bool { return n.sender != nil }

// NotifyUser queues a notification for every device of userID.
func (n *Notifier) NotifyUser(userID, title, body, url string) {
	n.enqueue(job{userID: userID, notification: Notification{Title: title, Body: body, URL: url}})
}

// NotifyAllExcept queues a notification for every subscription not bound to userID.
func (n *Notifier) NotifyAllExcept(userID, title, body, url string) {
	n.enqueue(job{exceptUserID: userID, notification: Notification{Title: title, Body: body, URL: url}})
}

func (n *Notifier) enqueue(j job) {
	if n.sender == nil {
		return
	}

	n.mu.RLock()
	defer n.mu.RUnlock()

	if n.closed {
		return
	}

	select {
	case n.jobs <- j:
	default:
		n.logger.Warn().Str("title", j.notification.Title).Msg("Push queue full, dropping notification.")
	}
}

// Close stops accepting jobs and waits for the queued ones to be sent.
func (n *Notifier) Close() {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return
	}
	n.closed = true
	close(n.jobs)
	n.mu.Unlock()

	n.wg.Wait()
	n.logger.Info().Msg("Push notifier stopped.")
}

func (n *Notifier) worker() {
	defer n.wg.Done()

	for j := range n.jobs {
		n.process(j)
	}
}

func (n *Notifier) process(j job) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	var (
		subs []Subscription
		err  error
	)
	if j.userID != "" {
		subs, err = n.repo.SubscriptionsForUser(ctx, j.userID)
	} else {
		subs, err = n.repo.ListSubscriptions(ctx, j.exceptUserID)
	}
	if err != nil {
		n.logger.Error().Err(err).Msg("Failed to load push subscriptions.")
		return
	}
	if len(subs) == 0 {
		return
	}

	payload, err := json.Marshal(j.notification)
	if err != nil {
		n.logger.Error().Err(err).Msg("Failed to encode push payload.")
		return
	}

	sent := 0
	for _, sub := range subs {
		if n.deliver(ctx, sub, payload) {
			sent++
		}
	}

	n.logger.Debug().
		Str("title", j.notification.Title).
		Int("subscriptions", len(subs)).
		Int("sent", sent).
		Msg("Push job finished.")
}

// deliver sends to one subscription and prunes endpoints the push service reports gone.
func (n *Notifier) deliver(ctx context.Context, sub Subscription, payload []byte) bool {
	status, err := n.sender.Send(ctx, sub, payload)
	if err != nil {
		n.logger.Warn().Err(err).Str("endpoint", sub.Endpoint).Msg("Web push failed.")
		return false
	}

	switch {
	case status == http.StatusNotFound || status == http.StatusGone:
		if err := n.repo.DeleteSubscription(ctx, sub.Endpoint); err != nil {
			n.logger.Error().Err(err).Str("endpoint", sub.Endpoint).Msg("Failed to delete expired subscription.")
		} else {
			n.logger.Info().Str("endpoint", sub.Endpoint).Int("status", status).Msg("Deleted expired subscription.")
		}
		return false

	case status >= 400:
		n.logger.Warn().Str("endpoint", sub.Endpoint).Int("status", status).Msg("Push service rejected notification.")
		return false
	}

	return true
}
