// internal/app/store/reports/reportstore.go
package reportstore

import (
	"context"
	"time"

	"github.com/mealbridge/mealbridge/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("reports")}
}

func (s *Store) Create(ctx context.Context, r models.Report) (models.Report, error) {
	r.ID = primitive.NewObjectID()
	r.CreatedAt = time.Now().UTC()
	if _, err := s.c.InsertOne(ctx, r); err != nil {
		return models.Report{}, err
	}
	return r, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Report, error) {
	var r models.Report
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&r); err != nil {
		return models.Report{}, err
	}
	return r, nil
}

// List returns reports newest first, for one school when schoolID is set.
func (s *Store) List(ctx context.Context, schoolID *primitive.ObjectID) ([]models.Report, error) {
	filter := bson.M{}
	if schoolID != nil {
		filter["school_id"] = *schoolID
	}
	cur, err := s.c.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Report{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Exists reports whether a school already has a report for exactly this period.
func (s *Store) Exists(ctx context.Context, schoolID primitive.ObjectID, from, to string) (bool, error) {
	n, err := s.c.CountDocuments(ctx, bson.M{"school_id": schoolID, "period_start": from, "period_end": to},
		options.Count().SetLimit(1))
	return n > 0, err
}

func (s *Store) SetPDFURL(ctx context.Context, id primitive.ObjectID, url string) error {
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{"pdf_url": url}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// Delete removes a report by ID. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
