package docstore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"lostfound/internal/app/store"
	"lostfound/internal/app/user"
)

func (s *Store) CreateUser(ctx context.Context, u *user.User) error {
	doc := userDoc{
		ID:        primitive.NewObjectID(),
		Username:  u.Username,
		Password:  u.PasswordHash,
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}

	if _, err := s.users.InsertOne(ctx, doc); err != nil {
		return mapError(err)
	}

	u.ID = doc.ID.Hex()
	u.CreatedAt = doc.CreatedAt
	return nil
}

func (s *Store) UserByID(ctx context.Context, id string) (*user.User, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	return s.findUser(ctx, bson.M{"_id": oid})
}

func (s *Store) UserByUsername(ctx context.Context, username string) (*user.User, error) {
	return s.findUser(ctx, bson.M{"username": username})
}

func (s *Store) findUser(ctx context.Context, filter bson.M) (*user.User, error) {
	var doc userDoc
	if err := s.users.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, mapError(err)
	}
	return doc.toUser(), nil
}

func (s *Store) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}

	res, err := s.users.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{"password": passwordHash}})
	if err != nil {
		return mapError(err)
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}
