// internal/domain/models/school.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// School is a participating school. The principal is the user who manages its classes.
type School struct {
	ID            primitive.ObjectID  `bson:"_id" json:"id"`
	Name          string              `bson:"name" json:"name"`
	NameCI        string              `bson:"name_ci" json:"-"`
	Address       string              `bson:"address" json:"address"`
	City          string              `bson:"city" json:"city"`
	PrincipalID   *primitive.ObjectID `bson:"principal_id,omitempty" json:"principal_id,omitempty"`
	PrincipalName string              `bson:"principal_name,omitempty" json:"principal_name,omitempty"`
	Status        string              `bson:"status" json:"status"`
	CreatedAt     time.Time           `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time           `bson:"updated_at" json:"updated_at"`
}
