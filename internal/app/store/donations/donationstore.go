// internal/app/store/donations/donationstore.go
package donationstore

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
	return &Store{c: db.Collection("donations")}
}

func (s *Store) Create(ctx context.Context, d models.Donation) (models.Donation, error) {
	now := time.Now().UTC()
	d.ID = primitive.NewObjectID()
	if d.Status == "" {
		d.Status = models.GiftPledged
	}
	if d.Status == models.GiftReceived && d.ReceivedAt == nil {
		d.ReceivedAt = &now
	}
	d.CreatedAt = now
	d.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, d); err != nil {
		return models.Donation{}, err
	}
	return d, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Donation, error) {
	var d models.Donation
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&d); err != nil {
		return models.Donation{}, err
	}
	return d, nil
}

func (s *Store) ListByDonor(ctx context.Context, donorID primitive.ObjectID) ([]models.Donation, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := s.c.Find(ctx, bson.M{"donor_id": donorID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Donation{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SetStatus changes the status, stamping received_at on the move to received.
func (s *Store) SetStatus(ctx context.Context, id primitive.ObjectID, st string) (models.Donation, error) {
	now := time.Now().UTC()
	set := bson.M{"status": st, "updated_at": now}
	if st == models.GiftReceived {
		set["received_at"] = now
	}
	var out models.Donation
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&out)
	if err != nil {
		return models.Donation{}, err
	}
	return out, nil
}

// Delete removes a donation by ID. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// CountReceived counts donations to a school received within [from, to).
func (s *Store) CountReceived(ctx context.Context, schoolID primitive.ObjectID, from, to time.Time) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{
		"school_id":   schoolID,
		"status":      models.GiftReceived,
		"received_at": bson.M{"$gte": from, "$lt": to},
	})
}
