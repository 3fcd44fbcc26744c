// internal/app/store/classes/classstore.go
package classstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/waffle/pantry/text"
	"github.com/mealbridge/mealbridge/internal/app/system/apierr"
	"github.com/mealbridge/mealbridge/internal/app/system/normalize"
	"github.com/mealbridge/mealbridge/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrInsufficientStock is returned when a class has fewer servings than asked for.
var ErrInsufficientStock = apierr.Conflict("class does not have enough meals in stock")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("classes")}
}

func (s *Store) Create(ctx context.Context, c models.Class) (models.Class, error) {
	now := time.Now().UTC()
	c.ID = primitive.NewObjectID()
	c.Name = normalize.Name(c.Name)
	c.NameCI = text.Fold(c.Name)
	c.CreatedAt = now
	c.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, c); err != nil {
		return models.Class{}, err
	}
	return c, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Class, error) {
	var c models.Class
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		return models.Class{}, err
	}
	return c, nil
}

func (s *Store) find(ctx context.Context, filter bson.M) ([]models.Class, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Class{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) ListBySchool(ctx context.Context, schoolID primitive.ObjectID) ([]models.Class, error) {
	return s.find(ctx, bson.M{"school_id": schoolID})
}

func (s *Store) ListByTeacher(ctx context.Context, teacherID primitive.ObjectID) ([]models.Class, error) {
	return s.find(ctx, bson.M{"teacher_id": teacherID})
}

// CountBySchool returns how many classes a school has.
func (s *Store) CountBySchool(ctx context.Context, schoolID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"school_id": schoolID})
}

// Update changes name and grade. Empty fields are left alone.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, c models.Class) (models.Class, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if c.Name != "" {
		name := normalize.Name(c.Name)
		set["name"] = name
		set["name_ci"] = text.Fold(name)
	}
	if c.Grade != "" {
		set["grade"] = c.Grade
	}
	return s.findAndSet(ctx, bson.M{"_id": id}, bson.M{"$set": set})
}

// AssignTeacher records the teacher for a class.
func (s *Store) AssignTeacher(ctx context.Context, id primitive.ObjectID, teacher models.User) (models.Class, error) {
	return s.findAndSet(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"teacher_id":   teacher.ID,
		"teacher_name": teacher.FullName,
		"updated_at":   time.Now().UTC(),
	}})
}

// AddMealStock increases the servings a class holds.
func (s *Store) AddMealStock(ctx context.Context, id primitive.ObjectID, n int) (models.Class, error) {
	if n < 0 {
		return models.Class{}, apierr.Invalid("Meal count must be 0 or more.")
	}
	return s.findAndSet(ctx, bson.M{"_id": id}, bson.M{
		"$inc": bson.M{"meal_stock": n},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	})
}

// ConsumeMealStock takes n servings from a class. It never drives meal_stock
// below zero: with fewer than n in stock nothing changes and
// ErrInsufficientStock is returned.
func (s *Store) ConsumeMealStock(ctx context.Context, id primitive.ObjectID, n int) (models.Class, error) {
	if n < 0 {
		return models.Class{}, apierr.Invalid("Meal count must be 0 or more.")
	}
	out, err := s.findAndSet(ctx, bson.M{"_id": id, "meal_stock": bson.M{"$gte": n}}, bson.M{
		"$inc": bson.M{"meal_stock": -n},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	})
	if errors.Is(err, mongo.ErrNoDocuments) {
		if _, gerr := s.GetByID(ctx, id); gerr != nil {
			return models.Class{}, gerr
		}
		return models.Class{}, ErrInsufficientStock
	}
	return out, err
}

// AdjustStudentCount adds delta (which may be negative) to student_count.
func (s *Store) AdjustStudentCount(ctx context.Context, id primitive.ObjectID, delta int) error {
	_, err := s.c.UpdateByID(ctx, id, bson.M{
		"$inc": bson.M{"student_count": delta},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	})
	return err
}

func (s *Store) findAndSet(ctx context.Context, filter, update bson.M) (models.Class, error) {
	var out models.Class
	err := s.c.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&out)
	if err != nil {
		return models.Class{}, err
	}
	return out, nil
}

// Delete removes a class by ID. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
