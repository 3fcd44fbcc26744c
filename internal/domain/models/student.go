// internal/domain/models/student.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Student is kept per teacher. StudentKey is unique within a teacher's roster.
type Student struct {
	ID         primitive.ObjectID `bson:"_id" json:"id"`
	TeacherID  primitive.ObjectID `bson:"teacher_id" json:"teacher_id"`
	ClassID    primitive.ObjectID `bson:"class_id" json:"class_id"`
	SchoolID   primitive.ObjectID `bson:"school_id" json:"school_id"`
	StudentKey string             `bson:"student_key" json:"student_key"`
	FullName   string             `bson:"full_name" json:"full_name"`
	FullNameCI string             `bson:"full_name_ci" json:"-"`
	Allergies  string             `bson:"allergies,omitempty" json:"allergies,omitempty"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt  time.Time          `bson:"updated_at" json:"updated_at"`
}
