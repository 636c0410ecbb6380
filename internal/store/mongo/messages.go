package mongo

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/safecity/backend/internal/models"
	"github.com/safecity/backend/internal/store"
)

type MessageStore struct {
	coll *mongo.Collection
}

func NewMessageStore(coll *mongo.Collection) *MessageStore {
	idx := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "sender_id", Value: 1}, {Key: "receiver_id", Value: 1}, {Key: "created_at", Value: 1}},
			Options: options.Index().SetName("pair_time_idx"),
		},
		{
			Keys:    bson.D{{Key: "receiver_id", Value: 1}, {Key: "created_at", Value: 1}},
			Options: options.Index().SetName("receiver_time_idx"),
		},
	}
	_, _ = coll.Indexes().CreateMany(context.Background(), idx)
	return &MessageStore{coll: coll}
}

func (s *MessageStore) Append(ctx context.Context, senderID, receiverID, text, imageURL string) (*models.Message, error) {
	if err := store.ValidateMessage(senderID, receiverID, text, imageURL); err != nil {
		return nil, err
	}
	m := &models.Message{
		ID:         primitive.NewObjectID().Hex(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Text:       text,
		ImageURL:   imageURL,
		CreatedAt:  time.Now().UTC(),
	}
	if _, err := s.coll.InsertOne(ctx, m); err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}
	return m, nil
}

func (s *MessageStore) History(ctx context.Context, userA, userB string) ([]*models.Message, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"sender_id": userA, "receiver_id": userB},
		bson.M{"sender_id": userB, "receiver_id": userA},
	}}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find history: %w", err)
	}
	defer cur.Close(ctx)
	return decodeMessages(ctx, cur)
}

func (s *MessageStore) ConversationsFor(ctx context.Context, userID string) (map[string][]*models.Message, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"sender_id": userID},
		bson.M{"receiver_id": userID},
	}}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find conversations: %w", err)
	}
	defer cur.Close(ctx)
	msgs, err := decodeMessages(ctx, cur)
	if err != nil {
		return nil, err
	}

	grouped := make(map[string][]*models.Message)
	for _, m := range msgs {
		counterpart := m.SenderID
		if m.SenderID == userID {
			counterpart = m.ReceiverID
		}
		grouped[counterpart] = append(grouped[counterpart], m)
	}
	for _, g := range grouped {
		sort.SliceStable(g, func(i, j int) bool {
			return g[i].CreatedAt.After(g[j].CreatedAt)
		})
	}
	return grouped, nil
}

func (s *MessageStore) CountSince(ctx context.Context, since time.Time) (int64, error) {
	return s.coll.CountDocuments(ctx, bson.M{"created_at": bson.M{"$gte": since}})
}

func decodeMessages(ctx context.Context, cur *mongo.Cursor) ([]*models.Message, error) {
	var out []*models.Message
	for cur.Next(ctx) {
		var m models.Message
		if err := cur.Decode(&m); err != nil {
			return nil, fmt.Errorf("decode message: %w", err)
		}
		out = append(out, &m)
	}
	return out, cur.Err()
}
