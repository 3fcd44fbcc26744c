// internal/app/features/students/handler.go
package students

import (
	"context"
	"net/http"

	"github.com/mealbridge/mealbridge/internal/app/features/shared"
	"github.com/mealbridge/mealbridge/internal/app/services/registry"
	"github.com/mealbridge/mealbridge/internal/app/system/apierr"
	"github.com/mealbridge/mealbridge/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Handler serves the class rosters at /api/students.
type Handler struct {
	Registry *registry.Service
	Log      *zap.Logger
}

func NewHandler(svc *registry.Service, logger *zap.Logger) *Handler {
	return &Handler{Registry: svc, Log: logger}
}

type addRequest struct {
	ClassID    string `json:"class_id" label:"Class" validate:"required,objectid"`
	StudentKey string `json:"student_key" label:"Student key" validate:"notblank,max=64"`
	FullName   string `json:"full_name" label:"Full name" validate:"notblank,max=200"`
	Allergies  string `json:"allergies" validate:"max=1000"`
}

type updateRequest struct {
	FullName  string `json:"full_name" label:"Full name" validate:"max=200"`
	Allergies string `json:"allergies" validate:"max=1000"`
}

func (h *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.Actor(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	var in addRequest
	if err := shared.Decode(r, &in); err != nil {
		apierr.Fail(w, h.Log, "add student", err)
		return
	}
	classID, _ := primitive.ObjectIDFromHex(in.ClassID)
	st, err := h.Registry.AddStudent(ctx, actor, registry.StudentInput{
		ClassID:    classID,
		StudentKey: in.StudentKey,
		FullName:   in.FullName,
		Allergies:  in.Allergies,
	})
	if err != nil {
		apierr.Fail(w, h.Log, "add student", err)
		return
	}
	apierr.JSON(w, http.StatusCreated, st)
}

// ServeList handles GET /api/students?class= or ?teacher=. Without either
// it lists the caller's own roster.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.Actor(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	class, err := shared.QueryID(r, "class")
	if err != nil {
		apierr.Fail(w, h.Log, "list students", err)
		return
	}
	if class != nil {
		list, err := h.Registry.ListStudentsByClass(ctx, actor, *class)
		if err != nil {
			apierr.Fail(w, h.Log, "list students", err)
			return
		}
		apierr.JSON(w, http.StatusOK, list)
		return
	}

	teacher, err := shared.QueryID(r, "teacher")
	if err != nil {
		apierr.Fail(w, h.Log, "list students", err)
		return
	}
	if teacher == nil {
		teacher = &actor.ID
	}
	if !actor.CanActFor(*teacher) {
		apierr.Fail(w, h.Log, "list students", registry.ErrForbidden)
		return
	}
	list, err := h.Registry.ListStudentsByTeacher(ctx, *teacher)
	if err != nil {
		apierr.Fail(w, h.Log, "list students", err)
		return
	}
	apierr.JSON(w, http.StatusOK, list)
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.Actor(w, r)
	if !ok {
		return
	}
	id, ok := shared.PathID(w, r, "id")
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	var in updateRequest
	if err := shared.Decode(r, &in); err != nil {
		apierr.Fail(w, h.Log, "update student", err)
		return
	}
	st, err := h.Registry.UpdateStudent(ctx, actor, id, in.FullName, in.Allergies)
	if err != nil {
		apierr.Fail(w, h.Log, "update student", err)
		return
	}
	apierr.JSON(w, http.StatusOK, st)
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.Actor(w, r)
	if !ok {
		return
	}
	id, ok := shared.PathID(w, r, "id")
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Registry.DeleteStudent(ctx, actor, id); err != nil {
		apierr.Fail(w, h.Log, "delete student", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
