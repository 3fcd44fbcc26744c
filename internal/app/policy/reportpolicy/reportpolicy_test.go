package reportpolicy

import (
	"testing"

	"github.com/mealbridge/mealbridge/internal/app/system/authz"
	"github.com/mealbridge/mealbridge/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestScope(t *testing.T) {
	school, other := primitive.NewObjectID(), primitive.NewObjectID()

	tests := []struct {
		name     string
		actor    authz.Actor
		covers   []primitive.ObjectID
		excludes []primitive.ObjectID
		generate bool
	}{
		{"admin", authz.Actor{Role: models.RoleAdmin}, []primitive.ObjectID{school, other}, nil, true},
		{"principal", authz.Actor{Role: models.RolePrincipal, SchoolID: school}, []primitive.ObjectID{school}, []primitive.ObjectID{other}, true},
		{"teacher", authz.Actor{Role: models.RoleTeacher, SchoolID: school}, []primitive.ObjectID{school}, []primitive.ObjectID{other}, false},
		{"principal without school", authz.Actor{Role: models.RolePrincipal}, nil, []primitive.ObjectID{school}, false},
		{"donor", authz.Actor{Role: models.RoleDonor}, nil, []primitive.ObjectID{school, other}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Scope(tt.actor)
			for _, id := range tt.covers {
				if !s.Covers(id) {
					t.Errorf("expected scope to cover %s", id.Hex())
				}
			}
			for _, id := range tt.excludes {
				if s.Covers(id) {
					t.Errorf("expected scope to exclude %s", id.Hex())
				}
			}
			if got := CanGenerate(tt.actor, school); got != tt.generate {
				t.Errorf("CanGenerate = %v, want %v", got, tt.generate)
			}
		})
	}
}
