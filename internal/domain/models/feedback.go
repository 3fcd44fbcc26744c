// internal/domain/models/feedback.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Feedback is a teacher's note on one day's meal for a class.
type Feedback struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	Date        string             `bson:"date" json:"date"`
	TeacherID   primitive.ObjectID `bson:"teacher_id" json:"teacher_id"`
	TeacherName string             `bson:"teacher_name" json:"teacher_name"`
	ClassID     primitive.ObjectID `bson:"class_id" json:"class_id"`
	SchoolID    primitive.ObjectID `bson:"school_id" json:"school_id"`
	Rating      int                `bson:"rating" json:"rating"`
	Comment     string             `bson:"comment,omitempty" json:"comment,omitempty"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
}
