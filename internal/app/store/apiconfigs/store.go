// internal/app/store/apiconfigs/store.go
package apiconfigstore

import (
	"context"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/mealbridge/mealbridge/internal/app/system/apierr"
	"github.com/mealbridge/mealbridge/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrDuplicateName is returned when another config already uses the name.
var ErrDuplicateName = apierr.Conflict("an API config with this name already exists")

const maxErrorLen = 500

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("api_configs")}
}

func (s *Store) Create(ctx context.Context, c models.APIConfig) (models.APIConfig, error) {
	now := time.Now().UTC()
	c.ID = primitive.NewObjectID()
	c.CreatedAt = now
	c.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, c); err != nil {
		if wafflemongo.IsDup(err) {
			return models.APIConfig{}, ErrDuplicateName
		}
		return models.APIConfig{}, err
	}
	return c, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.APIConfig, error) {
	var c models.APIConfig
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		return models.APIConfig{}, err
	}
	return c, nil
}

func (s *Store) find(ctx context.Context, filter bson.M) ([]models.APIConfig, error) {
	opts := options.Find().SetSort(bson.D{
		{Key: "priority", Value: 1},
		{Key: "failure_count", Value: 1},
		{Key: "_id", Value: 1},
	})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.APIConfig{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// List returns every config in the order they would be tried.
func (s *Store) List(ctx context.Context) ([]models.APIConfig, error) {
	return s.find(ctx, bson.M{})
}

// ListActive returns active configs by priority, then fewest failures.
func (s *Store) ListActive(ctx context.Context) ([]models.APIConfig, error) {
	return s.find(ctx, bson.M{"active": true})
}

// Patch lists the fields an update may set. Nil fields are left alone.
type Patch struct {
	Name      *string
	Provider  *string
	SealedKey *string
	Model     *string
	Priority  *int
	Active    *bool
}

func (s *Store) Update(ctx context.Context, id primitive.ObjectID, p Patch) (models.APIConfig, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if p.Name != nil {
		set["name"] = *p.Name
	}
	if p.Provider != nil {
		set["provider"] = *p.Provider
	}
	if p.SealedKey != nil {
		set["sealed_key"] = *p.SealedKey
	}
	if p.Model != nil {
		set["model"] = *p.Model
	}
	if p.Priority != nil {
		set["priority"] = *p.Priority
	}
	if p.Active != nil {
		set["active"] = *p.Active
	}
	out, err := s.findAndUpdate(ctx, id, bson.M{"$set": set})
	if err != nil && wafflemongo.IsDup(err) {
		return models.APIConfig{}, ErrDuplicateName
	}
	return out, err
}

// RecordSuccess stamps last_used.
func (s *Store) RecordSuccess(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{"last_used": at, "updated_at": at}})
	return err
}

// RecordFailure increments failure_count and stores the error text.
func (s *Store) RecordFailure(ctx context.Context, id primitive.ObjectID, msg string) error {
	if len(msg) > maxErrorLen {
		msg = msg[:maxErrorLen]
	}
	_, err := s.c.UpdateByID(ctx, id, bson.M{
		"$inc": bson.M{"failure_count": 1},
		"$set": bson.M{"last_error": msg, "updated_at": time.Now().UTC()},
	})
	return err
}

// ResetFailures clears failure_count and last_error.
func (s *Store) ResetFailures(ctx context.Context, id primitive.ObjectID) (models.APIConfig, error) {
	return s.findAndUpdate(ctx, id, bson.M{
		"$set":   bson.M{"failure_count": 0, "updated_at": time.Now().UTC()},
		"$unset": bson.M{"last_error": ""},
	})
}

func (s *Store) findAndUpdate(ctx context.Context, id primitive.ObjectID, update bson.M) (models.APIConfig, error) {
	var out models.APIConfig
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&out)
	if err != nil {
		return models.APIConfig{}, err
	}
	return out, nil
}

// Delete removes a config by ID. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
