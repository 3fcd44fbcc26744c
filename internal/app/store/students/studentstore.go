// internal/app/store/students/studentstore.go
package studentstore

import (
	"context"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/mealbridge/mealbridge/internal/app/system/apierr"
	"github.com/mealbridge/mealbridge/internal/app/system/normalize"
	"github.com/mealbridge/mealbridge/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrDuplicateKey is returned when a teacher already has a student with the same key.
var ErrDuplicateKey = apierr.Conflict("a student with this key already exists on this roster")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("students")}
}

func (s *Store) Create(ctx context.Context, st models.Student) (models.Student, error) {
	now := time.Now().UTC()
	st.ID = primitive.NewObjectID()
	st.FullName = normalize.Name(st.FullName)
	st.FullNameCI = text.Fold(st.FullName)
	st.StudentKey = normalize.StudentKey(st.StudentKey)
	st.CreatedAt = now
	st.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, st); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Student{}, ErrDuplicateKey
		}
		return models.Student{}, err
	}
	return st, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Student, error) {
	var st models.Student
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&st); err != nil {
		return models.Student{}, err
	}
	return st, nil
}

func (s *Store) find(ctx context.Context, filter bson.M) ([]models.Student, error) {
	opts := options.Find().SetSort(bson.D{{Key: "full_name_ci", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Student{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) ListByTeacher(ctx context.Context, teacherID primitive.ObjectID) ([]models.Student, error) {
	return s.find(ctx, bson.M{"teacher_id": teacherID})
}

func (s *Store) ListByClass(ctx context.Context, classID primitive.ObjectID) ([]models.Student, error) {
	return s.find(ctx, bson.M{"class_id": classID})
}

// Update changes the name and allergy note. Empty fields are left alone.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, st models.Student) (models.Student, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if st.FullName != "" {
		name := normalize.Name(st.FullName)
		set["full_name"] = name
		set["full_name_ci"] = text.Fold(name)
	}
	if st.Allergies != "" {
		set["allergies"] = st.Allergies
	}
	var out models.Student
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&out)
	if err != nil {
		return models.Student{}, err
	}
	return out, nil
}

// Delete removes a student by ID. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
