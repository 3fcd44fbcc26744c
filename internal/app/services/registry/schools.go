package registry

import (
	"context"

	"github.com/mealbridge/mealbridge/internal/app/policy/registrypolicy"
	"github.com/mealbridge/mealbridge/internal/app/store/audit"
	"github.com/mealbridge/mealbridge/internal/app/system/apierr"
	"github.com/mealbridge/mealbridge/internal/app/system/authz"
	"github.com/mealbridge/mealbridge/internal/app/system/normalize"
	"github.com/mealbridge/mealbridge/internal/app/system/status"
	"github.com/mealbridge/mealbridge/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type SchoolInput struct {
	Name    string
	Address string
	City    string
	Status  string
}

func (s *Service) CreateSchool(ctx context.Context, admin authz.Actor, in SchoolInput) (models.School, error) {
	if !registrypolicy.CanManageSchools(admin) {
		return models.School{}, ErrForbidden
	}
	if normalize.Name(in.Name) == "" {
		return models.School{}, apierr.Invalid("School name is required.")
	}
	if in.Status != "" && !status.IsValid(in.Status) {
		return models.School{}, apierr.Invalid(`Status must be "active" or "disabled".`)
	}
	sc, err := s.schools.Create(ctx, models.School{
		Name:    in.Name,
		Address: normalize.Name(in.Address),
		City:    normalize.Name(in.City),
		Status:  in.Status,
	})
	if err != nil {
		return models.School{}, err
	}
	s.audit.Admin(ctx, nil, audit.EventSchoolCreated, admin.ID, "school", sc.ID, map[string]string{"name": sc.Name})
	return sc, nil
}

func (s *Service) GetSchool(ctx context.Context, id primitive.ObjectID) (models.School, error) {
	sc, err := s.schools.GetByID(ctx, id)
	return sc, notFound("School", err)
}

// ListSchools returns every school. activeOnly drops disabled ones.
func (s *Service) ListSchools(ctx context.Context, activeOnly bool) ([]models.School, error) {
	return s.schools.List(ctx, activeOnly)
}

// UpdateSchool writes the non-empty fields of in.
func (s *Service) UpdateSchool(ctx context.Context, admin authz.Actor, id primitive.ObjectID, in SchoolInput) (models.School, error) {
	if !registrypolicy.CanManageSchools(admin) {
		return models.School{}, ErrForbidden
	}
	if in.Status != "" && !status.IsValid(in.Status) {
		return models.School{}, apierr.Invalid(`Status must be "active" or "disabled".`)
	}
	sc, err := s.schools.Update(ctx, id, models.School{
		Name:    in.Name,
		Address: normalize.Name(in.Address),
		City:    normalize.Name(in.City),
		Status:  in.Status,
	})
	return sc, notFound("School", err)
}

// DeleteSchool is refused while the school still has classes.
func (s *Service) DeleteSchool(ctx context.Context, admin authz.Actor, id primitive.ObjectID) error {
	if !registrypolicy.CanManageSchools(admin) {
		return ErrForbidden
	}
	n, err := s.classes.CountBySchool(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return ErrSchoolInUse
	}
	deleted, err := s.schools.Delete(ctx, id)
	if err != nil {
		return err
	}
	if deleted == 0 {
		return apierr.NotFound("School not found.")
	}
	s.audit.Admin(ctx, nil, audit.EventSchoolDeleted, admin.ID, "school", id, nil)
	return nil
}

// AssignPrincipal makes user the school's principal and moves the user into
// the school.
func (s *Service) AssignPrincipal(ctx context.Context, admin authz.Actor, schoolID, userID primitive.ObjectID) (models.School, error) {
	if !registrypolicy.CanManageSchools(admin) {
		return models.School{}, ErrForbidden
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return models.School{}, notFound("User", err)
	}
	if u.Role != models.RolePrincipal {
		return models.School{}, apierr.Invalid("The selected user is not a principal.")
	}
	if err := s.schools.AssignPrincipal(ctx, schoolID, *u); err != nil {
		return models.School{}, notFound("School", err)
	}
	if err := s.users.SetSchool(ctx, u.ID, schoolID); err != nil {
		return models.School{}, err
	}
	return s.GetSchool(ctx, schoolID)
}
