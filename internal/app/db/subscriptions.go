package db

import (
	"context"

	"lostfound/internal/app/push"
)

const subscriptionColumns = `endpoint, p256dh, auth, expiration_time, user_id::text, created_at`

func (s *Store) SaveSubscription(ctx context.Context, sub *push.Subscription) error {
	var userID *string
	if checkID(sub.UserID) == nil {
		userID = nullable(sub.UserID)
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO push_subscriptions (endpoint, p256dh, auth, expiration_time, user_id)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (endpoint) DO UPDATE SET
			p256dh = EXCLUDED.p256dh,
			auth = EXCLUDED.auth,
			expiration_time = EXCLUDED.expiration_time,
			user_id = COALESCE(EXCLUDED.user_id, push_subscriptions.user_id)`,
		sub.Endpoint, sub.Keys.P256dh, sub.Keys.Auth, sub.ExpirationTime, userID,
	)
	return mapError(err)
}

func (s *Store) DeleteSubscription(ctx context.Context, endpoint string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM push_subscriptions WHERE endpoint = $1`, endpoint)
	return mapError(err)
}

func (s *Store) ListSubscriptions(ctx context.Context, excludeUserID string) ([]push.Subscription, error) {
	return s.querySubscriptions(ctx, `
		SELECT `+subscriptionColumns+` FROM push_subscriptions
		WHERE $1 = '' OR user_id IS NULL OR user_id::text <> $1`, excludeUserID)
}

func (s *Store) SubscriptionsForUser(ctx context.Context, userID string) ([]push.Subscription, error) {
	if checkID(userID) != nil {
		return []push.Subscription{}, nil
	}
	return s.querySubscriptions(ctx, `SELECT `+subscriptionColumns+` FROM push_subscriptions WHERE user_id = $1`, userID)
}

func (s *Store) querySubscriptions(ctx context.Context, query string, args ...any) ([]push.Subscription, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	subs := make([]push.Subscription, 0)
	for rows.Next() {
		var (
			sub    push.Subscription
			userID *string
		)
		if err := rows.Scan(&sub.Endpoint, &sub.Keys.P256dh, &sub.Keys.Auth, &sub.ExpirationTime, &userID, &sub.CreatedAt); err != nil {
			return nil, err
		}
		sub.UserID = deref(userID)
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}
