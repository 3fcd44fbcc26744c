// internal/app/store/meals/mealstore.go
package mealstore

import (
	"context"
	"errors"
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
	return &Store{c: db.Collection("meal_tracking")}
}

// Mark upserts the (date, student) record with served and returns the served
// value it had before, false when there was no record.
func (s *Store) Mark(ctx context.Context, rec models.MealRecord) (bool, error) {
	now := time.Now().UTC()
	set := bson.M{
		"class_id":   rec.ClassID,
		"school_id":  rec.SchoolID,
		"teacher_id": rec.TeacherID,
		"served":     rec.Served,
		"updated_at": now,
	}
	update := bson.M{
		"$set":         set,
		"$setOnInsert": bson.M{"_id": primitive.NewObjectID()},
	}
	if rec.Served {
		set["served_at"] = now
	} else {
		update["$unset"] = bson.M{"served_at": ""}
	}

	var before models.MealRecord
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"date": rec.Date, "student_id": rec.StudentID},
		update,
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.Before)).Decode(&before)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return before.Served, nil
}

// Get returns the record for one student on one day.
func (s *Store) Get(ctx context.Context, date string, studentID primitive.ObjectID) (models.MealRecord, error) {
	var rec models.MealRecord
	if err := s.c.FindOne(ctx, bson.M{"date": date, "student_id": studentID}).Decode(&rec); err != nil {
		return models.MealRecord{}, err
	}
	return rec, nil
}

// ListByDate returns one day's records for a class.
func (s *Store) ListByDate(ctx context.Context, date string, classID primitive.ObjectID) ([]models.MealRecord, error) {
	cur, err := s.c.Find(ctx, bson.M{"date": date, "class_id": classID},
		options.Find().SetSort(bson.D{{Key: "student_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.MealRecord{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CountServed counts meals served at a school between two dates, inclusive.
func (s *Store) CountServed(ctx context.Context, schoolID primitive.ObjectID, from, to string) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{
		"school_id": schoolID,
		"served":    true,
		"date":      bson.M{"$gte": from, "$lte": to},
	})
}
