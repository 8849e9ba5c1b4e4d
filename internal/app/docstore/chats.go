package docstore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"lostfound/internal/app/chat"
	"lostfound/internal/app/store"
)

func (s *Store) FindChatBetween(ctx context.Context, a, b string) (*chat.Chat, error) {
	filter := bson.M{
		"participants.userId": bson.M{"$all": bson.A{a, b}},
		"participants":        bson.M{"$size": 2},
	}
	opts := options.FindOne().SetSort(bson.D{{Key: "_id", Value: 1}})

	var doc chatDoc
	if err := s.chats.FindOne(ctx, filter, opts).Decode(&doc); err != nil {
		return nil, mapError(err)
	}

	c := doc.toChat()
	return &c, nil
}

func (s *Store) CreateChat(ctx context.Context, c *chat.Chat) error {
	doc := newChatDoc(c, time.Now())

	// the unique pairKey index turns a concurrent second start into store.ErrDuplicate
	if _, err := s.chats.InsertOne(ctx, doc); err != nil {
		return mapError(err)
	}

	c.ID = doc.ID.Hex()
	c.CreatedAt = doc.CreatedAt
	return nil
}

func (s *Store) ChatByID(ctx context.Context, id string) (*chat.Chat, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	var doc chatDoc
	if err := s.chats.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, mapError(err)
	}

	c := doc.toChat()
	return &c, nil
}

func (s *Store) ChatsForUser(ctx context.Context, userID string) ([]chat.Chat, error) {
	cur, err := s.chats.Find(ctx,
		bson.M{"participants.userId": userID},
		options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}),
	)
	if err != nil {
		return nil, mapError(err)
	}

	var docs []chatDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	chats := make([]chat.Chat, 0, len(docs))
	for _, d := range docs {
		chats = append(chats, d.toChat())
	}
	return chats, nil
}

func (s *Store) AppendMessage(ctx context.Context, chatID string, m *chat.Message) error {
	oid, err := objectID(chatID)
	if err != nil {
		return err
	}

	doc := messageDoc{
		ID:        primitive.NewObjectID(),
		SenderID:  m.SenderID,
		Text:      m.Text,
		Timestamp: m.Timestamp,
		ReadBy:    m.ReadBy,
	}

	res, err := s.chats.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{
		"$push": bson.M{"messages": doc},
		"$set": bson.M{"lastMessage": lastMessageDoc{
			Text:      m.Text,
			SenderID:  m.SenderID,
			Timestamp: m.Timestamp,
		}},
	})
	if err != nil {
		return mapError(err)
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}

	m.ID = doc.ID.Hex()
	return nil
}

func (s *Store) MarkRead(ctx context.Context, chatID, userID string) error {
	oid, err := objectID(chatID)
	if err != nil {
		return err
	}

	res, err := s.chats.UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{"$addToSet": bson.M{"messages.$[].readBy": userID}},
	)
	if err != nil {
		return mapError(err)
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}
