// Package pipelinepolicy provides authorization policies for the donation pipeline.
//
// Authorization rules:
//   - Admins may act on every record
//   - Donors manage their own published donations and answer allocations made against them
//   - Principals create allocations and class requests for classes in their own school
//   - Teachers claim and serve allocations for classes they teach
package pipelinepolicy

import (
	"github.com/mealbridge/mealbridge/internal/app/system/authz"
	"github.com/mealbridge/mealbridge/internal/domain/models"
)

// CanManageDonation reports whether a may edit or delete pd.
func CanManageDonation(a authz.Actor, pd models.PublishedDonation) bool {
	return a.CanActFor(pd.DonorID)
}

// CanAllocateToClass reports whether a may request or assign capacity for class.
func CanAllocateToClass(a authz.Actor, class models.Class) bool {
	if a.IsAdmin() {
		return true
	}
	return a.IsPrincipal() && a.InSchool(class.SchoolID)
}

// CanAnswer reports whether a may approve, reject, accept or dispatch alloc.
func CanAnswer(a authz.Actor, alloc models.Allocation) bool {
	return a.CanActFor(alloc.DonorID)
}

// CanRejectAssignment lets the donor refuse an assignment and the school's
// principal withdraw it.
func CanRejectAssignment(a authz.Actor, alloc models.Allocation) bool {
	if CanAnswer(a, alloc) {
		return true
	}
	return a.IsPrincipal() && a.InSchool(alloc.SchoolID)
}

// CanTeach reports whether a may claim and serve for class. A class with no
// assigned teacher is open to every teacher in its school.
func CanTeach(a authz.Actor, class models.Class) bool {
	if a.IsAdmin() {
		return true
	}
	if !a.IsTeacher() || !a.InSchool(class.SchoolID) {
		return false
	}
	return class.TeacherID == nil || *class.TeacherID == a.ID
}

// CanViewAllocation reports whether a may read alloc.
func CanViewAllocation(a authz.Actor, alloc models.Allocation) bool {
	switch {
	case a.IsAdmin():
		return true
	case a.IsDonor():
		return a.ID == alloc.DonorID
	case a.IsPrincipal(), a.IsTeacher():
		return a.InSchool(alloc.SchoolID)
	}
	return false
}
