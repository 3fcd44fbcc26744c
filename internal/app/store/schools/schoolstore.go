// internal/app/store/schools/schoolstore.go
package schoolstore

import (
	"context"
	"time"

	"github.com/dalemusser/waffle/pantry/text"
	"github.com/mealbridge/mealbridge/internal/app/system/normalize"
	"github.com/mealbridge/mealbridge/internal/app/system/status"
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
	return &Store{c: db.Collection("schools")}
}

func (s *Store) Create(ctx context.Context, sc models.School) (models.School, error) {
	now := time.Now().UTC()
	sc.ID = primitive.NewObjectID()
	sc.Name = normalize.Name(sc.Name)
	sc.NameCI = text.Fold(sc.Name)
	if sc.Status == "" {
		sc.Status = status.Active
	}
	sc.CreatedAt = now
	sc.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, sc); err != nil {
		return models.School{}, err
	}
	return sc, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.School, error) {
	var sc models.School
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&sc); err != nil {
		return models.School{}, err
	}
	return sc, nil
}

// List returns schools sorted by name. activeOnly drops disabled schools.
func (s *Store) List(ctx context.Context, activeOnly bool) ([]models.School, error) {
	filter := bson.M{}
	if activeOnly {
		filter["status"] = status.Active
	}
	opts := options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.School{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Update modifies a school's mutable fields and refreshes UpdatedAt. Empty
// fields are left alone.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, sc models.School) (models.School, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if sc.Name != "" {
		name := normalize.Name(sc.Name)
		set["name"] = name
		set["name_ci"] = text.Fold(name)
	}
	if sc.Address != "" {
		set["address"] = sc.Address
	}
	if sc.City != "" {
		set["city"] = sc.City
	}
	if sc.Status != "" {
		set["status"] = sc.Status
	}
	var out models.School
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&out)
	if err != nil {
		return models.School{}, err
	}
	return out, nil
}

// AssignPrincipal records the principal who manages the school.
func (s *Store) AssignPrincipal(ctx context.Context, id primitive.ObjectID, principal models.User) error {
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"principal_id":   principal.ID,
		"principal_name": principal.FullName,
		"updated_at":     time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// Delete removes a school by ID. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
