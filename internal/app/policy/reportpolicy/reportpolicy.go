// Package reportpolicy provides authorization policies for report access.
//
// Authorization rules:
//   - Admins can generate and view reports for every school
//   - Principals can generate and view reports for their own school
//   - Teachers can view reports for their own school
//   - Donors cannot access reports
package reportpolicy

import (
	"github.com/mealbridge/mealbridge/internal/app/system/authz"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ReportScope represents the scope of data a user can access in reports.
type ReportScope struct {
	// CanView indicates whether the user can view reports at all.
	CanView bool
	// AllSchools indicates whether the user can see every school's reports.
	// If false, SchoolID is the one school the user is restricted to.
	AllSchools bool
	SchoolID   primitive.ObjectID
}

// Scope determines which reports a can list and read.
func Scope(a authz.Actor) ReportScope {
	switch {
	case a.IsAdmin():
		return ReportScope{CanView: true, AllSchools: true}
	case a.IsPrincipal(), a.IsTeacher():
		if a.SchoolID.IsZero() {
			return ReportScope{CanView: false}
		}
		return ReportScope{CanView: true, SchoolID: a.SchoolID}
	default:
		return ReportScope{CanView: false}
	}
}

// Covers reports whether the scope includes school.
func (s ReportScope) Covers(school primitive.ObjectID) bool {
	if !s.CanView {
		return false
	}
	return s.AllSchools || s.SchoolID == school
}

// CanGenerate reports whether a may generate or delete a report for school.
func CanGenerate(a authz.Actor, school primitive.ObjectID) bool {
	if a.IsAdmin() {
		return true
	}
	return a.IsPrincipal() && a.InSchool(school)
}
