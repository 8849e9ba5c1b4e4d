package docstore

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"lostfound/internal/app/item"
	"lostfound/internal/app/store"
)

var newestFirst = options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})

func (s *Store) CreateItem(ctx context.Context, it *item.Item) error {
	doc := newItemDoc(it)
	doc.ID = primitive.NewObjectID()

	if _, err := s.items.InsertOne(ctx, doc); err != nil {
		return mapError(err)
	}

	it.ID = doc.ID.Hex()
	return nil
}

func (s *Store) ListItems(ctx context.Context) ([]item.Item, error) {
	return s.findItems(ctx, bson.M{}, newestFirst)
}

func (s *Store) ItemsByUploader(ctx context.Context, userID string) ([]item.Item, error) {
	return s.findItems(ctx, bson.M{"uploadedBy": userID}, newestFirst)
}

// ItemsNear uses $nearSphere, which already orders results nearest first.
func (s *Store) ItemsNear(ctx context.Context, area item.Area) ([]item.Item, error) {
	filter := bson.M{
		"location": bson.M{
			"$nearSphere": bson.M{
				"$geometry": bson.M{
					"type":        "Point",
					"coordinates": bson.A{area.Center.Lng(), area.Center.Lat()},
				},
				"$maxDistance": area.Radius,
			},
		},
	}

	items, err := s.findItems(ctx, filter)
	if err != nil {
		return nil, err
	}
	for i := range items {
		d := item.Distance(area.Center, items[i].Location)
		items[i].Distance = &d
	}
	return items, nil
}

func (s *Store) findItems(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]item.Item, error) {
	cur, err := s.items.Find(ctx, filter, opts...)
	if err != nil {
		return nil, mapError(err)
	}

	var docs []itemDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	items := make([]item.Item, 0, len(docs))
	for _, d := range docs {
		items = append(items, d.toItem())
	}
	return items, nil
}

func (s *Store) SetItemStatus(ctx context.Context, id, ownerID, status string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}

	res, err := s.items.UpdateOne(ctx,
		bson.M{"_id": oid, "uploadedBy": ownerID},
		bson.M{"$set": bson.M{"status": status}},
	)
	if err != nil {
		return mapError(err)
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteItem(ctx context.Context, id, ownerID string) (*item.Item, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	var doc itemDoc
	err = s.items.FindOneAndDelete(ctx, bson.M{"_id": oid, "uploadedBy": ownerID}).Decode(&doc)
	if err != nil {
		return nil, mapError(err)
	}

	it := doc.toItem()
	return &it, nil
}
