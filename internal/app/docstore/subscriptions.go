package docstore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"lostfound/internal/app/push"
)

func (s *Store) SaveSubscription(ctx context.Context, sub *push.Subscription) error {
	set := bson.M{
		"keys":           keysDoc{P256dh: sub.Keys.P256dh, Auth: sub.Keys.Auth},
		"expirationTime": sub.ExpirationTime,
	}
	if sub.UserID != "" {
		set["userId"] = sub.UserID
	}

	_, err := s.subscriptions.UpdateOne(ctx,
		bson.M{"endpoint": sub.Endpoint},
		bson.M{
			"$set":         set,
			"$setOnInsert": bson.M{"createdAt": time.Now().UTC()},
		},
		options.Update().SetUpsert(true),
	)
	return mapError(err)
}

func (s *Store) DeleteSubscription(ctx context.Context, endpoint string) error {
	_, err := s.subscriptions.DeleteOne(ctx, bson.M{"endpoint": endpoint})
	return mapError(err)
}

func (s *Store) ListSubscriptions(ctx context.Context, excludeUserID string) ([]push.Subscription, error) {
	filter := bson.M{}
	if excludeUserID != "" {
		// $ne also matches documents without userId
		filter["userId"] = bson.M{"$ne": excludeUserID}
	}
	return s.findSubscriptions(ctx, filter)
}

func (s *Store) SubscriptionsForUser(ctx context.Context, userID string) ([]push.Subscription, error) {
	return s.findSubscriptions(ctx, bson.M{"userId": userID})
}

func (s *Store) findSubscriptions(ctx context.Context, filter bson.M) ([]push.Subscription, error) {
	cur, err := s.subscriptions.Find(ctx, filter)
	if err != nil {
		return nil, mapError(err)
	}

	var docs []subscriptionDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	subs := make([]push.Subscription, 0, len(docs))
	for _, d := range docs {
		subs = append(subs, d.toSubscription())
	}
	return subs, nil
}
