// internal/domain/models/class.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Class belongs to one school and is taught by at most one teacher.
//
// MealStock is the number of servings the class currently holds. It grows when
// an allocation is claimed and shrinks as meals are marked served.
type Class struct {
	ID           primitive.ObjectID  `bson:"_id" json:"id"`
	SchoolID     primitive.ObjectID  `bson:"school_id" json:"school_id"`
	Name         string              `bson:"name" json:"name"`
	NameCI       string              `bson:"name_ci" json:"-"`
	Grade        string              `bson:"grade,omitempty" json:"grade,omitempty"`
	TeacherID    *primitive.ObjectID `bson:"teacher_id,omitempty" json:"teacher_id,omitempty"`
	TeacherName  string              `bson:"teacher_name,omitempty" json:"teacher_name,omitempty"`
	StudentCount int                 `bson:"student_count" json:"student_count"`
	MealStock    int                 `bson:"meal_stock" json:"meal_stock"`
	CreatedAt    time.Time           `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time           `bson:"updated_at" json:"updated_at"`
}
