// Package registrypolicy provides authorization policies for schools, classes,
// student rosters, meal tracking and feedback.
//
// Authorization rules:
//   - Admins manage schools and may act on every class
//   - Principals manage the classes of their own school
//   - Teachers keep rosters, mark meals and leave feedback for classes they teach
//   - Everyone in a school may read its classes
package registrypolicy

import (
	"github.com/mealbridge/mealbridge/internal/app/policy/pipelinepolicy"
	"github.com/mealbridge/mealbridge/internal/app/system/authz"
	"github.com/mealbridge/mealbridge/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func CanManageSchools(a authz.Actor) bool { return a.IsAdmin() }

// CanManageClasses reports whether a may create, edit or delete classes in school.
func CanManageClasses(a authz.Actor, school primitive.ObjectID) bool {
	if a.IsAdmin() {
		return true
	}
	return a.IsPrincipal() && a.InSchool(school)
}

// CanViewSchool reports whether a may read a school's classes and feedback.
// Donors see class listings so they can answer class requests.
func CanViewSchool(a authz.Actor, school primitive.ObjectID) bool {
	switch {
	case a.IsAdmin(), a.IsDonor():
		return true
	case a.IsPrincipal(), a.IsTeacher():
		return a.InSchool(school)
	}
	return false
}

// CanKeepRoster reports whether a may add, edit or remove students in class.
func CanKeepRoster(a authz.Actor, class models.Class) bool {
	if pipelinepolicy.CanTeach(a, class) {
		return true
	}
	return a.IsPrincipal() && a.InSchool(class.SchoolID)
}

// CanRecordMeals reports whether a may mark meals and leave feedback for class.
func CanRecordMeals(a authz.Actor, class models.Class) bool {
	return pipelinepolicy.CanTeach(a, class)
}
