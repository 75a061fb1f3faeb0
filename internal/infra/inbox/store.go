// Package inbox records consumed broker messages so a redelivered message is
// handled once.
package inbox

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const collection = "app_inbox"

// DefaultRetention bounds how long a mark is kept. Redeliveries older than
// this are handled again.
const DefaultRetention = 7 * 24 * time.Hour

type mark struct {
	EventID    string    `bson:"event_id"`
	Consumer   string    `bson:"consumer"`
	ReceivedAt time.Time `bson:"received_at"`
}

type Store struct {
	marks    *mongo.Collection
	consumer string
	now      func() time.Time
}

// NewStore prepares the inbox of one consumer group. A zero retention uses
// DefaultRetention.
func NewStore(ctx context.Context, db *mongo.Database, consumer string, retention time.Duration) (*Store, error) {
	if retention <= 0 {
		retention = DefaultRetention
	}
	marks := db.Collection(collection)
	_, err := marks.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "consumer", Value: 1}, {Key: "event_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("consumer_event"),
		},
		{
			Keys:    bson.D{{Key: "received_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32(retention / time.Second)).SetName("retention"),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("inbox: indexes: %w", err)
	}
	return &Store{marks: marks, consumer: consumer, now: time.Now}, nil
}

// Seen marks eventID as received and reports whether it already was.
func (s *Store) Seen(ctx context.Context, eventID string) (bool, error) {
	_, err := s.marks.InsertOne(ctx, mark{EventID: eventID, Consumer: s.consumer, ReceivedAt: s.now().UTC()})
	switch {
	case err == nil:
		return false, nil
	case mongo.IsDuplicateKeyError(err):
		return true, nil
	default:
		return false, fmt.Errorf("inbox: mark %s: %w", eventID, err)
	}
}

// Forget drops the mark so a message that failed is handled on redelivery.
func (s *Store) Forget(ctx context.Context, eventID string) error {
	if _, err := s.marks.DeleteOne(ctx, bson.D{{Key: "consumer", Value: s.consumer}, {Key: "event_id", Value: eventID}}); err != nil {
		return fmt.Errorf("inbox: forget %s: %w", eventID, err)
	}
	return nil
}
