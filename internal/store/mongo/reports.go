package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/safecity/backend/internal/models"
)

type ReportStore struct {
	coll *mongo.Collection
}

func NewReportStore(coll *mongo.Collection) *ReportStore {
	idx := mongo.IndexModel{
		Keys:    bson.D{{Key: "reporter_id", Value: 1}, {Key: "created_at", Value: -1}},
		Options: options.Index().SetName("reporter_time_idx"),
	}
	_, _ = coll.Indexes().CreateOne(context.Background(), idx)
	return &ReportStore{coll: coll}
}

func (s *ReportStore) Create(ctx context.Context, r *models.Report) error {
	r.ID = primitive.NewObjectID().Hex()
	r.CreatedAt = time.Now().UTC()
	if _, err := s.coll.InsertOne(ctx, r); err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

func (s *ReportStore) ListByReporter(ctx context.Context, reporterID string) ([]*models.Report, error) {
	return s.find(ctx, bson.M{"reporter_id": reporterID})
}

func (s *ReportStore) ListAll(ctx context.Context) ([]*models.Report, error) {
	return s.find(ctx, bson.M{})
}

func (s *ReportStore) find(ctx context.Context, filter bson.M) ([]*models.Report, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find reports: %w", err)
	}
	defer cur.Close(ctx)
	var out []*models.Report
	for cur.Next(ctx) {
		var r models.Report
		if err := cur.Decode(&r); err != nil {
			return nil, fmt.Errorf("decode report: %w", err)
		}
		out = append(out, &r)
	}
	return out, cur.Err()
}

func (s *ReportStore) Count(ctx context.Context) (int64, error) {
	return s.coll.CountDocuments(ctx, bson.M{})
}

func (s *ReportStore) CountSince(ctx context.Context, since time.Time) (int64, error) {
	return s.coll.CountDocuments(ctx, bson.M{"created_at": bson.M{"$gte": since}})
}

func (s *ReportStore) CountByCategory(ctx context.Context, since time.Time) (map[string]int64, error) {
	return s.countBy(ctx, "$category", since)
}

func (s *ReportStore) CountByUrgency(ctx context.Context, since time.Time) (map[string]int64, error) {
	return s.countBy(ctx, "$urgency", since)
}

func (s *ReportStore) countBy(ctx context.Context, field string, since time.Time) (map[string]int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"created_at": bson.M{"$gte": since}}}},
		{{Key: "$group", Value: bson.M{"_id": field, "count": bson.M{"$sum": 1}}}},
	}
	cur, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate reports: %w", err)
	}
	defer cur.Close(ctx)
	out := make(map[string]int64)
	for cur.Next(ctx) {
		var row struct {
			Key   string `bson:"_id"`
			Count int64  `bson:"count"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, fmt.Errorf("decode aggregate row: %w", err)
		}
		out[row.Key] = row.Count
	}
	return out, cur.Err()
}
