package docstore

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"lostfound/internal/app/chat"
	"lostfound/internal/app/item"
	"lostfound/internal/app/push"
	"lostfound/internal/app/user"
)

type userDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Username  string             `bson:"username"`
	Password  string             `bson:"password"`
	CreatedAt time.Time          `bson:"createdAt"`
}

func (d userDoc) toUser() *user.User {
	return &user.User{
		ID:           d.ID.Hex(),
		Username:     d.Username,
		PasswordHash: d.Password,
		CreatedAt:    d.CreatedAt.UTC(),
	}
}

type geoDoc struct {
	Type        string    `bson:"type"`
	Coordinates []float64 `bson:"coordinates"`
}

type itemDoc struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	PlaceDesc  string             `bson:"placeDesc"`
	ItemDesc   string             `bson:"itemDesc"`
	ImageURL   string             `bson:"imageUrl"`
	ImageKey   string             `bson:"imageKey,omitempty"`
	Contact    string             `bson:"contact"`
	Location   geoDoc             `bson:"location"`
	Timestamp  time.Time          `bson:"timestamp"`
	Status     string             `bson:"status"`
	UploadedBy string             `bson:"uploadedBy"`
	Username   string             `bson:"username"`
}

func newItemDoc(it *item.Item) itemDoc {
	return itemDoc{
		PlaceDesc:  it.PlaceDesc,
		ItemDesc:   it.ItemDesc,
		ImageURL:   it.ImageURL,
		ImageKey:   it.ImageKey,
		Contact:    it.Contact,
		Location:   geoDoc{Type: "Point", Coordinates: []float64{it.Location.Lng(), it.Location.Lat()}},
		Timestamp:  it.Timestamp,
		Status:     it.Status,
		UploadedBy: it.UploadedBy,
		Username:   it.Username,
	}
}

func (d itemDoc) toItem() item.Item {
	var lat, lng float64
	if len(d.Location.Coordinates) == 2 {
		lng, lat = d.Location.Coordinates[0], d.Location.Coordinates[1]
	}
	return item.Item{
		ID:         d.ID.Hex(),
		PlaceDesc:  d.PlaceDesc,
		ItemDesc:   d.ItemDesc,
		ImageURL:   d.ImageURL,
		ImageKey:   d.ImageKey,
		Contact:    d.Contact,
		Location:   item.NewGeoPoint(lat, lng),
		Timestamp:  d.Timestamp.UTC(),
		Status:     d.Status,
		UploadedBy: d.UploadedBy,
		Username:   d.Username,
	}
}

type participantDoc struct {
	UserID   string `bson:"userId"`
	Username string `bson:"username"`
}

type messageDoc struct {
	ID        primitive.ObjectID `bson:"_id"`
	SenderID  string             `bson:"senderId"`
	Text      string             `bson:"text"`
	Timestamp time.Time          `bson:"timestamp"`
	ReadBy    []string           `bson:"readBy"`
}

type lastMessageDoc struct {
	Text      string    `bson:"text"`
	SenderID  string    `bson:"senderId"`
	Timestamp time.Time `bson:"timestamp"`
}

type chatDoc struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Participants []participantDoc   `bson:"participants"`
	Messages     []messageDoc       `bson:"messages"`
	LastMessage  *lastMessageDoc    `bson:"lastMessage"`
	CreatedAt    time.Time          `bson:"createdAt"`

	// PairKey is unique across two-participant chats; omitted for any other chat.
	PairKey string `bson:"pairKey,omitempty"`
}

func newChatDoc(c *chat.Chat, now time.Time) chatDoc {
	doc := chatDoc{
		ID:           primitive.NewObjectID(),
		Participants: make([]participantDoc, 0, len(c.Participants)),
		Messages:     []messageDoc{},
		CreatedAt:    now.UTC().Truncate(time.Millisecond),
		PairKey:      c.PairKey(),
	}
	for _, p := range c.Participants {
		doc.Participants = append(doc.Participants, participantDoc{UserID: p.UserID, Username: p.Username})
	}
	return doc
}

func (d chatDoc) toChat() chat.Chat {
	c := chat.Chat{
		ID:           d.ID.Hex(),
		Participants: make([]chat.Participant, 0, len(d.Participants)),
		Messages:     make([]chat.Message, 0, len(d.Messages)),
		CreatedAt:    d.CreatedAt.UTC(),
	}
	for _, p := range d.Participants {
		c.Participants = append(c.Participants, chat.Participant{UserID: p.UserID, Username: p.Username})
	}
	for _, m := range d.Messages {
		readBy := m.ReadBy
		if readBy == nil {
			readBy = []string{}
		}
		c.Messages = append(c.Messages, chat.Message{
			ID:        m.ID.Hex(),
			SenderID:  m.SenderID,
			Text:      m.Text,
			Timestamp: m.Timestamp.UTC(),
			ReadBy:    readBy,
		})
	}
	if d.LastMessage != nil {
		c.LastMessage = &chat.LastMessage{
			Text:      d.LastMessage.Text,
			SenderID:  d.LastMessage.SenderID,
			Timestamp: d.LastMessage.Timestamp.UTC(),
		}
	}
	return c
}

type keysDoc struct {
	P256dh string `bson:"p256dh"`
	Auth   string `bson:"auth"`
}

type subscriptionDoc struct {
	Endpoint       string    `bson:"endpoint"`
	ExpirationTime *int64    `bson:"expirationTime"`
	Keys           keysDoc   `bson:"keys"`
	UserID         string    `bson:"userId,omitempty"`
	CreatedAt      time.Time `bson:"createdAt"`
}

func (d subscriptionDoc) toSubscription() push.Subscription {
	return push.Subscription{
		Endpoint:       d.Endpoint,
		ExpirationTime: d.ExpirationTime,
		Keys:           push.Keys{P256dh: d.Keys.P256dh, Auth: d.Keys.Auth},
		UserID:         d.UserID,
		CreatedAt:      d.CreatedAt.UTC(),
	}
}
