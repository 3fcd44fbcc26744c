package pipelinepolicy

import (
	"testing"

	"github.com/mealbridge/mealbridge/internal/app/system/authz"
	"github.com/mealbridge/mealbridge/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCanTeach(t *testing.T) {
	school, other := primitive.NewObjectID(), primitive.NewObjectID()
	tom := authz.Actor{ID: primitive.NewObjectID(), Role: models.RoleTeacher, SchoolID: school}
	tia := authz.Actor{ID: primitive.NewObjectID(), Role: models.RoleTeacher, SchoolID: school}
	outsider := authz.Actor{ID: primitive.NewObjectID(), Role: models.RoleTeacher, SchoolID: other}
	principal := authz.Actor{ID: primitive.NewObjectID(), Role: models.RolePrincipal, SchoolID: school}
	admin := authz.Actor{ID: primitive.NewObjectID(), Role: models.RoleAdmin}

	assigned := models.Class{SchoolID: school, TeacherID: &tom.ID}
	open := models.Class{SchoolID: school}

	tests := []struct {
		name  string
		actor authz.Actor
		class models.Class
		want  bool
	}{
		{"assigned teacher", tom, assigned, true},
		{"other teacher, assigned class", tia, assigned, false},
		{"any school teacher, open class", tia, open, true},
		{"teacher in another school", outsider, open, false},
		{"principal", principal, open, false},
		{"admin", admin, assigned, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanTeach(tt.actor, tt.class); got != tt.want {
				t.Errorf("CanTeach = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAllocationRules(t *testing.T) {
	school := primitive.NewObjectID()
	donor := authz.Actor{ID: primitive.NewObjectID(), Role: models.RoleDonor}
	otherDonor := authz.Actor{ID: primitive.NewObjectID(), Role: models.RoleDonor}
	principal := authz.Actor{ID: primitive.NewObjectID(), Role: models.RolePrincipal, SchoolID: school}
	farPrincipal := authz.Actor{ID: primitive.NewObjectID(), Role: models.RolePrincipal, SchoolID: primitive.NewObjectID()}
	teacher := authz.Actor{ID: primitive.NewObjectID(), Role: models.RoleTeacher, SchoolID: school}

	alloc := models.Allocation{DonorID: donor.ID, SchoolID: school}
	class := models.Class{SchoolID: school}

	tests := []struct {
		name string
		got  bool
		want bool
	}{
		{"donor answers own", CanAnswer(donor, alloc), true},
		{"donor answers other", CanAnswer(otherDonor, alloc), false},
		{"principal cannot answer", CanAnswer(principal, alloc), false},
		{"principal withdraws assignment", CanRejectAssignment(principal, alloc), true},
		{"far principal cannot withdraw", CanRejectAssignment(farPrincipal, alloc), false},
		{"principal allocates in school", CanAllocateToClass(principal, class), true},
		{"far principal cannot allocate", CanAllocateToClass(farPrincipal, class), false},
		{"teacher cannot allocate", CanAllocateToClass(teacher, class), false},
		{"teacher views school allocation", CanViewAllocation(teacher, alloc), true},
		{"other donor cannot view", CanViewAllocation(otherDonor, alloc), false},
		{"donor manages own donation", CanManageDonation(donor, models.PublishedDonation{DonorID: donor.ID}), true},
		{"donor cannot manage other", CanManageDonation(otherDonor, models.PublishedDonation{DonorID: donor.ID}), false},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s: got %v, want %v", tt.name, tt.got, tt.want)
		}
	}
}
