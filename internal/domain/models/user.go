// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Roles a user can hold.
const (
	RoleDonor     = "donor"
	RolePrincipal = "principal"
	RoleTeacher   = "teacher"
	RoleAdmin     = "admin"
)

// User is any signed-up account. Principals and teachers are scoped to a school.
type User struct {
	ID           primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	FullName     string              `bson:"full_name" json:"full_name"`
	FullNameCI   string              `bson:"full_name_ci" json:"-"` // lowercase, diacritics-stripped
	Email        string              `bson:"email" json:"email"`
	PasswordHash string              `bson:"password_hash" json:"-"`
	Role         string              `bson:"role" json:"role"` // donor | principal | teacher | admin
	Status       string              `bson:"status" json:"status"`
	SchoolID     *primitive.ObjectID `bson:"school_id,omitempty" json:"school_id,omitempty"`
	Phone        string              `bson:"phone,omitempty" json:"phone,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// IsValidRole reports whether r is one of the known roles.
func IsValidRole(r string) bool {
	switch r {
	case RoleDonor, RolePrincipal, RoleTeacher, RoleAdmin:
		return true
	}
	return false
}
