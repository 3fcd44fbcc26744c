package registry

import (
	"context"

	"github.com/mealbridge/mealbridge/internal/app/policy/registrypolicy"
	classstore "github.com/mealbridge/mealbridge/internal/app/store/classes"
	"github.com/mealbridge/mealbridge/internal/app/system/apierr"
	"github.com/mealbridge/mealbridge/internal/app/system/authz"
	"github.com/mealbridge/mealbridge/internal/app/system/inputval"
	"github.com/mealbridge/mealbridge/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ErrNoMealStock is returned when a meal is marked served for a class with no
// servings left.
var ErrNoMealStock = classstore.ErrInsufficientStock

// MarkMealServed records whether a student ate on date. Moving to served takes
// one serving from the class stock; moving back returns it. Repeating the same
// mark changes nothing.
func (s *Service) MarkMealServed(ctx context.Context, actor authz.Actor, date string, studentID primitive.ObjectID, served bool) (models.MealRecord, error) {
	if !inputval.IsValidDate(date) {
		return models.MealRecord{}, apierr.Invalid("Date must be YYYY-MM-DD.")
	}
	st, err := s.students.GetByID(ctx, studentID)
	if err != nil {
		return models.MealRecord{}, notFound("Student", err)
	}
	c, err := s.classes.GetByID(ctx, st.ClassID)
	if err != nil {
		return models.MealRecord{}, notFound("Class", err)
	}
	if !registrypolicy.CanRecordMeals(actor, c) {
		return models.MealRecord{}, ErrForbidden
	}

	if served {
		if cur, err := s.meals.Get(ctx, date, st.ID); err == nil && cur.Served {
			return cur, nil
		}
		if _, err := s.classes.ConsumeMealStock(ctx, c.ID, 1); err != nil {
			return models.MealRecord{}, err
		}
	}
	prior, err := s.meals.Mark(ctx, models.MealRecord{
		Date:      date,
		StudentID: st.ID,
		ClassID:   c.ID,
		SchoolID:  c.SchoolID,
		TeacherID: st.TeacherID,
		Served:    served,
	})
	if err != nil {
		if served {
			s.giveBack(ctx, c.ID)
		}
		return models.MealRecord{}, err
	}
	// Whatever was served before is either no longer served or was just
	// paid for twice.
	if prior {
		s.giveBack(ctx, c.ID)
	}
	return s.meals.Get(ctx, date, st.ID)
}

func (s *Service) giveBack(ctx context.Context, classID primitive.ObjectID) {
	if _, err := s.classes.AddMealStock(ctx, classID, 1); err != nil {
		s.log.Error("return meal to class stock failed", zap.String("class_id", classID.Hex()), zap.Error(err))
	}
}

func (s *Service) ListMealsByDate(ctx context.Context, viewer authz.Actor, date string, classID primitive.ObjectID) ([]models.MealRecord, error) {
	if !inputval.IsValidDate(date) {
		return nil, apierr.Invalid("Date must be YYYY-MM-DD.")
	}
	c, err := s.classes.GetByID(ctx, classID)
	if err != nil {
		return nil, notFound("Class", err)
	}
	if !registrypolicy.CanViewSchool(viewer, c.SchoolID) || viewer.IsDonor() {
		return nil, ErrForbidden
	}
	return s.meals.ListByDate(ctx, date, classID)
}

// CountMealsServed counts served meals for a school between two inclusive dates.
func (s *Service) CountMealsServed(ctx context.Context, schoolID primitive.ObjectID, from, to string) (int64, error) {
	if !inputval.IsValidDate(from) || !inputval.IsValidDate(to) {
		return 0, apierr.Invalid("Dates must be YYYY-MM-DD.")
	}
	return s.meals.CountServed(ctx, schoolID, from, to)
}
