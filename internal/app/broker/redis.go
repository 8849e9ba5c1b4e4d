/*
Package broker shares chat room events between server instances over Redis pub/sub.
Each room maps to one channel; every instance pattern-subscribes to all of them and
delivers what it receives to its local connections.
*/
package broker

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"lostfound/internal/pkg/logx"
)

// ChannelPrefix namespaces room channels.
const ChannelPrefix = "lostfound:room:"

// Config selects the Redis server.
type Config struct {
	Addr     string
	Password string
	DB       int
}

// NewClient creates a Redis client and checks the connection.
func NewClient(ctx context.Context, cfg Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", cfg.Addr, err)
	}
	return client, nil
}

// Channel returns the pub/sub channel of a chat room.
func Channel(chatID string) string {
	return ChannelPrefix + chatID
}

// ChatID extracts the chat id from a room channel name.
func ChatID(channel string) (string, bool) {
	id, ok := strings.CutPrefix(channel, ChannelPrefix)
	return id, ok && id != ""
}

// Redis publishes and receives room events.
type Redis struct {
	client *redis.Client
	logger zerolog.Logger
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client, logger: logx.Component("broker")}
}

// Publish sends payload to the room channel of chatID.
func (r *Redis) Publish(ctx context.Context, chatID string, payload []byte) error {
	return r.client.Publish(ctx, Channel(chatID), payload).Err()
}

// Run pattern-subscribes to every room channel and calls deliver for each message
// until ctx is cancelled.
func (r *Redis) Run(ctx context.Context, deliver func(payload []byte)) error {
	sub := r.client.PSubscribe(ctx, ChannelPrefix+"*")
	defer sub.Close()

	// wait for the subscription to be confirmed before reporting readiness
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("redis psubscribe: %w", err)
	}
	r.logger.Info().Str("pattern", ChannelPrefix+"*").Msg("Subscribed to room channels.")

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil

		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			if _, valid := ChatID(msg.Channel); !valid {
				r.logger.Warn().Str("channel", msg.Channel).Msg("Ignoring message on unexpected channel.")
				continue
			}
			deliver([]byte(msg.Payload))
		}
	}
}

// Close closes the underlying client.
func (r *Redis) Close() error {
	return r.client.Close()
}
