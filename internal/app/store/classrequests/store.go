// internal/app/store/classrequests/store.go
package classrequeststore

import (
	"context"
	"errors"
	"time"

	"github.com/mealbridge/mealbridge/internal/app/system/apierr"
	"github.com/mealbridge/mealbridge/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrAlreadyAnswered is returned when a request is no longer pending.
var ErrAlreadyAnswered = apierr.Conflict("this request has already been answered")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("class_donation_requests")}
}

func (s *Store) Create(ctx context.Context, r models.ClassDonationRequest) (models.ClassDonationRequest, error) {
	now := time.Now().UTC()
	r.ID = primitive.NewObjectID()
	r.Status = models.RequestPending
	r.CreatedAt = now
	r.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, r); err != nil {
		return models.ClassDonationRequest{}, err
	}
	return r, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.ClassDonationRequest, error) {
	var r models.ClassDonationRequest
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&r); err != nil {
		return models.ClassDonationRequest{}, err
	}
	return r, nil
}

func (s *Store) find(ctx context.Context, filter bson.M) ([]models.ClassDonationRequest, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.ClassDonationRequest{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) ListByDonor(ctx context.Context, donorID primitive.ObjectID) ([]models.ClassDonationRequest, error) {
	return s.find(ctx, bson.M{"donor_id": donorID})
}

func (s *Store) ListByPrincipal(ctx context.Context, principalID primitive.ObjectID) ([]models.ClassDonationRequest, error) {
	return s.find(ctx, bson.M{"principal_id": principalID})
}

// Respond moves a pending request to approved or rejected.
func (s *Store) Respond(ctx context.Context, id primitive.ObjectID, to, note string) (models.ClassDonationRequest, error) {
	now := time.Now().UTC()
	set := bson.M{"status": to, "responded_at": now, "updated_at": now}
	if note != "" {
		set["response_note"] = note
	}

	var out models.ClassDonationRequest
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "status": models.RequestPending},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		if _, gerr := s.GetByID(ctx, id); gerr != nil {
			return models.ClassDonationRequest{}, gerr
		}
		return models.ClassDonationRequest{}, ErrAlreadyAnswered
	}
	if err != nil {
		return models.ClassDonationRequest{}, err
	}
	return out, nil
}
