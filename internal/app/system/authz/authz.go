// internal/app/system/authz/authz.go
package authz

import (
	"net/http"
	"strings"

	"github.com/mealbridge/mealbridge/internal/app/system/auth"
	"github.com/mealbridge/mealbridge/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Actor is the signed-in user with parsed IDs.
type Actor struct {
	ID       primitive.ObjectID
	Name     string
	Email    string
	Role     string
	SchoolID primitive.ObjectID
}

// UserCtx returns the current actor. A missing user or a malformed ID in
// the session reports ok=false.
func UserCtx(r *http.Request) (Actor, bool) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		return Actor{}, false
	}
	id, err := primitive.ObjectIDFromHex(u.ID)
	if err != nil {
		return Actor{}, false
	}
	a := Actor{ID: id, Name: u.Name, Email: u.Email, Role: strings.ToLower(u.Role)}
	if u.SchoolID != "" {
		if sid, err := primitive.ObjectIDFromHex(u.SchoolID); err == nil {
			a.SchoolID = sid
		}
	}
	return a, true
}

func (a Actor) IsAdmin() bool     { return a.Role == models.RoleAdmin }
func (a Actor) IsDonor() bool     { return a.Role == models.RoleDonor }
func (a Actor) IsPrincipal() bool { return a.Role == models.RolePrincipal }
func (a Actor) IsTeacher() bool   { return a.Role == models.RoleTeacher }

// CanActFor reports whether a may act on a record owned by owner. Admins
// may act on anything.
func (a Actor) CanActFor(owner primitive.ObjectID) bool {
	return a.IsAdmin() || (!owner.IsZero() && a.ID == owner)
}

// InSchool reports whether a belongs to school. Admins belong everywhere.
func (a Actor) InSchool(school primitive.ObjectID) bool {
	return a.IsAdmin() || (!school.IsZero() && a.SchoolID == school)
}
