package registry

import (
	"context"

	"github.com/mealbridge/mealbridge/internal/app/policy/registrypolicy"
	"github.com/mealbridge/mealbridge/internal/app/system/apierr"
	"github.com/mealbridge/mealbridge/internal/app/system/authz"
	"github.com/mealbridge/mealbridge/internal/app/system/htmlsanitize"
	"github.com/mealbridge/mealbridge/internal/app/system/inputval"
	"github.com/mealbridge/mealbridge/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SubmitFeedback records a teacher's rating of one day's meal for a class.
func (s *Service) SubmitFeedback(ctx context.Context, teacher authz.Actor, date string, classID primitive.ObjectID, rating int, comment string) (models.Feedback, error) {
	switch {
	case !inputval.IsValidDate(date):
		return models.Feedback{}, apierr.Invalid("Date must be YYYY-MM-DD.")
	case rating < 1 || rating > 5:
		return models.Feedback{}, apierr.Invalid("Rating must be between 1 and 5.")
	}
	c, err := s.classes.GetByID(ctx, classID)
	if err != nil {
		return models.Feedback{}, notFound("Class", err)
	}
	if !registrypolicy.CanRecordMeals(teacher, c) {
		return models.Feedback{}, ErrForbidden
	}
	return s.feedback.Create(ctx, models.Feedback{
		Date:        date,
		TeacherID:   teacher.ID,
		TeacherName: teacher.Name,
		ClassID:     c.ID,
		SchoolID:    c.SchoolID,
		Rating:      rating,
		Comment:     htmlsanitize.StripAll(comment),
	})
}

// ListFeedback returns a school's feedback between two inclusive dates.
func (s *Service) ListFeedback(ctx context.Context, viewer authz.Actor, schoolID primitive.ObjectID, from, to string) ([]models.Feedback, error) {
	if !inputval.IsValidDate(from) || !inputval.IsValidDate(to) {
		return nil, apierr.Invalid("Dates must be YYYY-MM-DD.")
	}
	if viewer.IsDonor() || !registrypolicy.CanViewSchool(viewer, schoolID) {
		return nil, ErrForbidden
	}
	return s.feedback.List(ctx, schoolID, from, to)
}
