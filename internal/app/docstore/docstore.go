/*
Package docstore is the MongoDB backend. Documents keep the layout the web client was
built against: chat messages embedded in their chat, readBy arrays and GeoJSON item
locations indexed with 2dsphere.
*/
package docstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"lostfound/internal/app/store"
	"lostfound/internal/pkg/logx"
)

const (
	usersCollection         = "users"
	itemsCollection         = "items"
	chatsCollection         = "chats"
	subscriptionsCollection = "subscriptions"
)

// Store implements the user, item, chat and push repositories on a MongoDB database.
type Store struct {
	client *mongo.Client
	db     *mongo.Database

	users         *mongo.Collection
	items         *mongo.Collection
	chats         *mongo.Collection
	subscriptions *mongo.Collection
}

// Open connects to uri, verifies the connection and ensures the indexes exist.
func Open(ctx context.Context, uri, database string) (*Store, error) {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(uri).
		SetMaxPoolSize(25).
		SetMinPoolSize(5).
		SetMaxConnIdleTime(5*time.Minute))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	db := client.Database(database)
	s := &Store{
		client:        client,
		db:            db,
		users:         db.Collection(usersCollection),
		items:         db.Collection(itemsCollection),
		chats:         db.Collection(chatsCollection),
		subscriptions: db.Collection(subscriptionsCollection),
	}

	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	logx.Info("MongoDB connected and indexes ensured.", "database", database)
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	indexes := map[*mongo.Collection][]mongo.IndexModel{
		s.users: {
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		s.items: {
			{Keys: bson.D{{Key: "location", Value: "2dsphere"}}},
			{Keys: bson.D{{Key: "timestamp", Value: -1}}},
			{Keys: bson.D{{Key: "uploadedBy", Value: 1}, {Key: "timestamp", Value: -1}}},
		},
		s.chats: {
			{Keys: bson.D{{Key: "participants.userId", Value: 1}}},
			{
				Keys: bson.D{{Key: "pairKey", Value: 1}},
				Options: options.Index().
					SetUnique(true).
					SetPartialFilterExpression(bson.M{"pairKey": bson.M{"$exists": true}}),
			},
		},
		s.subscriptions: {
			{Keys: bson.D{{Key: "endpoint", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "userId", Value: 1}}},
		},
	}

	for coll, models := range indexes {
		if _, err := coll.Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", coll.Name(), err)
		}
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *Store) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.client.Disconnect(ctx); err != nil {
		logx.Error(err, "Failed to disconnect from MongoDB")
	}
}

// objectID parses a hex id.
func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, store.ErrInvalidID
	}
	return oid, nil
}

// mapError translates driver errors into store errors.
func mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return store.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return store.ErrDuplicate
	}
	return err
}
