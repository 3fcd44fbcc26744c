package registry

import (
	"context"
	"strings"

	"github.com/mealbridge/mealbridge/internal/app/policy/registrypolicy"
	"github.com/mealbridge/mealbridge/internal/app/system/apierr"
	"github.com/mealbridge/mealbridge/internal/app/system/authz"
	"github.com/mealbridge/mealbridge/internal/app/system/htmlsanitize"
	"github.com/mealbridge/mealbridge/internal/app/system/normalize"
	"github.com/mealbridge/mealbridge/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type StudentInput struct {
	ClassID    primitive.ObjectID
	StudentKey string
	FullName   string
	Allergies  string
}

// AddStudent puts a student on the roster of the class's teacher and bumps
// the class student_count.
func (s *Service) AddStudent(ctx context.Context, actor authz.Actor, in StudentInput) (models.Student, error) {
	switch {
	case normalize.Name(in.FullName) == "":
		return models.Student{}, apierr.Invalid("Student name is required.")
	case strings.TrimSpace(in.StudentKey) == "":
		return models.Student{}, apierr.Invalid("Student key is required.")
	}
	c, err := s.classes.GetByID(ctx, in.ClassID)
	if err != nil {
		return models.Student{}, notFound("Class", err)
	}
	if !registrypolicy.CanKeepRoster(actor, c) {
		return models.Student{}, ErrForbidden
	}
	teacher := c.TeacherID
	if actor.IsTeacher() {
		teacher = &actor.ID
	}
	if teacher == nil {
		return models.Student{}, apierr.Invalid("Assign a teacher to the class before adding students.")
	}

	st, err := s.students.Create(ctx, models.Student{
		TeacherID:  *teacher,
		ClassID:    c.ID,
		SchoolID:   c.SchoolID,
		StudentKey: in.StudentKey,
		FullName:   in.FullName,
		Allergies:  htmlsanitize.StripAll(in.Allergies),
	})
	if err != nil {
		return models.Student{}, err
	}
	if err := s.classes.AdjustStudentCount(ctx, c.ID, 1); err != nil {
		return models.Student{}, err
	}
	return st, nil
}

func (s *Service) ListStudentsByTeacher(ctx context.Context, teacherID primitive.ObjectID) ([]models.Student, error) {
	return s.students.ListByTeacher(ctx, teacherID)
}

func (s *Service) ListStudentsByClass(ctx context.Context, viewer authz.Actor, classID primitive.ObjectID) ([]models.Student, error) {
	c, err := s.classes.GetByID(ctx, classID)
	if err != nil {
		return nil, notFound("Class", err)
	}
	if !registrypolicy.CanKeepRoster(viewer, c) {
		return nil, ErrForbidden
	}
	return s.students.ListByClass(ctx, classID)
}

// rosterStudent loads a student and checks actor may edit its class roster.
func (s *Service) rosterStudent(ctx context.Context, actor authz.Actor, id primitive.ObjectID) (models.Student, error) {
	st, err := s.students.GetByID(ctx, id)
	if err != nil {
		return models.Student{}, notFound("Student", err)
	}
	c, err := s.classes.GetByID(ctx, st.ClassID)
	if err != nil {
		return models.Student{}, notFound("Class", err)
	}
	if !registrypolicy.CanKeepRoster(actor, c) {
		return models.Student{}, ErrForbidden
	}
	return st, nil
}

func (s *Service) UpdateStudent(ctx context.Context, actor authz.Actor, id primitive.ObjectID, fullName, allergies string) (models.Student, error) {
	if _, err := s.rosterStudent(ctx, actor, id); err != nil {
		return models.Student{}, err
	}
	out, err := s.students.Update(ctx, id, models.Student{
		FullName:  fullName,
		Allergies: htmlsanitize.StripAll(allergies),
	})
	return out, notFound("Student", err)
}

func (s *Service) DeleteStudent(ctx context.Context, actor authz.Actor, id primitive.ObjectID) error {
	st, err := s.rosterStudent(ctx, actor, id)
	if err != nil {
		return err
	}
	n, err := s.students.Delete(ctx, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return apierr.NotFound("Student not found.")
	}
	return s.classes.AdjustStudentCount(ctx, st.ClassID, -1)
}
