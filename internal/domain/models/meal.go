// internal/domain/models/meal.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DateLayout is the calendar-day key used by meal tracking and feedback.
const DateLayout = "2006-01-02"

// MealRecord tracks whether one student was served on one day.
// There is at most one record per (date, student_id).
type MealRecord struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	Date      string             `bson:"date" json:"date"`
	StudentID primitive.ObjectID `bson:"student_id" json:"student_id"`
	ClassID   primitive.ObjectID `bson:"class_id" json:"class_id"`
	SchoolID  primitive.ObjectID `bson:"school_id" json:"school_id"`
	TeacherID primitive.ObjectID `bson:"teacher_id" json:"teacher_id"`
	Served    bool               `bson:"served" json:"served"`
	ServedAt  *time.Time         `bson:"served_at,omitempty" json:"served_at,omitempty"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}
