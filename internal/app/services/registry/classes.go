package registry

import (
	"context"

	"github.com/mealbridge/mealbridge/internal/app/policy/registrypolicy"
	"github.com/mealbridge/mealbridge/internal/app/system/apierr"
	"github.com/mealbridge/mealbridge/internal/app/system/authz"
	"github.com/mealbridge/mealbridge/internal/app/system/normalize"
	"github.com/mealbridge/mealbridge/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ClassInput struct {
	Name  string
	Grade string
}

func (s *Service) CreateClass(ctx context.Context, actor authz.Actor, schoolID primitive.ObjectID, in ClassInput) (models.Class, error) {
	if !registrypolicy.CanManageClasses(actor, schoolID) {
		return models.Class{}, ErrForbidden
	}
	if normalize.Name(in.Name) == "" {
		return models.Class{}, apierr.Invalid("Class name is required.")
	}
	if _, err := s.schools.GetByID(ctx, schoolID); err != nil {
		return models.Class{}, notFound("School", err)
	}
	return s.classes.Create(ctx, models.Class{
		SchoolID: schoolID,
		Name:     in.Name,
		Grade:    normalize.Name(in.Grade),
	})
}

func (s *Service) GetClass(ctx context.Context, viewer authz.Actor, id primitive.ObjectID) (models.Class, error) {
	c, err := s.classes.GetByID(ctx, id)
	if err != nil {
		return models.Class{}, notFound("Class", err)
	}
	if !registrypolicy.CanViewSchool(viewer, c.SchoolID) {
		return models.Class{}, ErrForbidden
	}
	return c, nil
}

func (s *Service) ListClassesBySchool(ctx context.Context, viewer authz.Actor, schoolID primitive.ObjectID) ([]models.Class, error) {
	if !registrypolicy.CanViewSchool(viewer, schoolID) {
		return nil, ErrForbidden
	}
	return s.classes.ListBySchool(ctx, schoolID)
}

func (s *Service) ListClassesByTeacher(ctx context.Context, teacherID primitive.ObjectID) ([]models.Class, error) {
	return s.classes.ListByTeacher(ctx, teacherID)
}

func (s *Service) UpdateClass(ctx context.Context, actor authz.Actor, id primitive.ObjectID, in ClassInput) (models.Class, error) {
	c, err := s.classes.GetByID(ctx, id)
	if err != nil {
		return models.Class{}, notFound("Class", err)
	}
	if !registrypolicy.CanManageClasses(actor, c.SchoolID) {
		return models.Class{}, ErrForbidden
	}
	out, err := s.classes.Update(ctx, id, models.Class{Name: in.Name, Grade: normalize.Name(in.Grade)})
	return out, notFound("Class", err)
}

// AssignTeacher gives the class to a teacher from the same school.
func (s *Service) AssignTeacher(ctx context.Context, actor authz.Actor, classID, teacherID primitive.ObjectID) (models.Class, error) {
	c, err := s.classes.GetByID(ctx, classID)
	if err != nil {
		return models.Class{}, notFound("Class", err)
	}
	if !registrypolicy.CanManageClasses(actor, c.SchoolID) {
		return models.Class{}, ErrForbidden
	}
	u, err := s.users.GetByID(ctx, teacherID)
	if err != nil {
		return models.Class{}, notFound("Teacher", err)
	}
	if u.Role != models.RoleTeacher || u.SchoolID == nil || *u.SchoolID != c.SchoolID {
		return models.Class{}, apierr.Invalid("The selected user is not a teacher at this school.")
	}
	out, err := s.classes.AssignTeacher(ctx, classID, *u)
	return out, notFound("Class", err)
}

// DeleteClass is refused while students are still on the class roster.
func (s *Service) DeleteClass(ctx context.Context, actor authz.Actor, id primitive.ObjectID) error {
	c, err := s.classes.GetByID(ctx, id)
	if err != nil {
		return notFound("Class", err)
	}
	if !registrypolicy.CanManageClasses(actor, c.SchoolID) {
		return ErrForbidden
	}
	roster, err := s.students.ListByClass(ctx, id)
	if err != nil {
		return err
	}
	if len(roster) > 0 {
		return ErrClassInUse
	}
	if _, err := s.classes.Delete(ctx, id); err != nil {
		return err
	}
	return nil
}

// AddMealToClassStock adds n servings to the class by hand.
func (s *Service) AddMealToClassStock(ctx context.Context, actor authz.Actor, classID primitive.ObjectID, n int) (models.Class, error) {
	if n < 1 {
		return models.Class{}, apierr.Invalid("Meal count must be 1 or more.")
	}
	c, err := s.classes.GetByID(ctx, classID)
	if err != nil {
		return models.Class{}, notFound("Class", err)
	}
	if !registrypolicy.CanKeepRoster(actor, c) {
		return models.Class{}, ErrForbidden
	}
	out, err := s.classes.AddMealStock(ctx, classID, n)
	return out, notFound("Class", err)
}

// ConsumeMealStock takes n servings from the class. It fails with
// classstore.ErrInsufficientStock rather than go below zero.
func (s *Service) ConsumeMealStock(ctx context.Context, actor authz.Actor, classID primitive.ObjectID, n int) (models.Class, error) {
	if n < 1 {
		return models.Class{}, apierr.Invalid("Meal count must be 1 or more.")
	}
	c, err := s.classes.GetByID(ctx, classID)
	if err != nil {
		return models.Class{}, notFound("Class", err)
	}
	if !registrypolicy.CanKeepRoster(actor, c) {
		return models.Class{}, ErrForbidden
	}
	out, err := s.classes.ConsumeMealStock(ctx, classID, n)
	return out, notFound("Class", err)
}
