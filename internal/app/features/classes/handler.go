// internal/app/features/classes/handler.go
package classes

import (
	"context"
	"net/http"

	"github.com/mealbridge/mealbridge/internal/app/features/shared"
	"github.com/mealbridge/mealbridge/internal/app/services/registry"
	"github.com/mealbridge/mealbridge/internal/app/system/apierr"
	"github.com/mealbridge/mealbridge/internal/app/system/authz"
	"github.com/mealbridge/mealbridge/internal/app/system/timeouts"
	"github.com/mealbridge/mealbridge/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Handler serves /api/classes. Classes are created under their school at
// /api/schools/{schoolID}/classes.
type Handler struct {
	Registry *registry.Service
	Log      *zap.Logger
}

func NewHandler(svc *registry.Service, logger *zap.Logger) *Handler {
	return &Handler{Registry: svc, Log: logger}
}

type classRequest struct {
	Name  string `json:"name" validate:"max=200"`
	Grade string `json:"grade" validate:"max=40"`
}

type teacherRequest struct {
	TeacherID string `json:"teacher_id" label:"Teacher" validate:"required,objectid"`
}

type stockRequest struct {
	Servings int `json:"servings" validate:"min=1"`
}

// ServeList handles GET /api/classes?teacher=. Teachers see their own
// classes; only admins may ask for another teacher's.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.Actor(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	teacher, err := shared.QueryID(r, "teacher")
	if err != nil {
		apierr.Fail(w, h.Log, "list classes", err)
		return
	}
	if teacher == nil {
		teacher = &actor.ID
	}
	if !actor.CanActFor(*teacher) {
		apierr.Fail(w, h.Log, "list classes", registry.ErrForbidden)
		return
	}
	list, err := h.Registry.ListClassesByTeacher(ctx, *teacher)
	if err != nil {
		apierr.Fail(w, h.Log, "list classes", err)
		return
	}
	apierr.JSON(w, http.StatusOK, list)
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var in classRequest
	h.withBody(w, r, "update class", &in, func(ctx context.Context, actor authz.Actor, id primitive.ObjectID) (models.Class, error) {
		return h.Registry.UpdateClass(ctx, actor, id, registry.ClassInput(in))
	})
}

func (h *Handler) HandleAssignTeacher(w http.ResponseWriter, r *http.Request) {
	var in teacherRequest
	h.withBody(w, r, "assign teacher", &in, func(ctx context.Context, actor authz.Actor, id primitive.ObjectID) (models.Class, error) {
		teacherID, _ := primitive.ObjectIDFromHex(in.TeacherID)
		return h.Registry.AssignTeacher(ctx, actor, id, teacherID)
	})
}

func (h *Handler) HandleAddStock(w http.ResponseWriter, r *http.Request) {
	var in stockRequest
	h.withBody(w, r, "add meal stock", &in, func(ctx context.Context, actor authz.Actor, id primitive.ObjectID) (models.Class, error) {
		return h.Registry.AddMealToClassStock(ctx, actor, id, in.Servings)
	})
}

// HandleConsumeStock answers 409 rather than let meal_stock go below zero.
func (h *Handler) HandleConsumeStock(w http.ResponseWriter, r *http.Request) {
	var in stockRequest
	h.withBody(w, r, "consume meal stock", &in, func(ctx context.Context, actor authz.Actor, id primitive.ObjectID) (models.Class, error) {
		return h.Registry.ConsumeMealStock(ctx, actor, id, in.Servings)
	})
}

func (h *Handler) ServeOne(w http.ResponseWriter, r *http.Request) {
	h.withBody(w, r, "get class", nil, h.Registry.GetClass)
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

	if err := h.Registry.DeleteClass(ctx, actor, id); err != nil {
		apierr.Fail(w, h.Log, "delete class", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// withBody decodes dst (when non-nil), then runs fn for the class in the
// path and answers with the class it returns.
func (h *Handler) withBody(w http.ResponseWriter, r *http.Request, op string, dst any,
	fn func(ctx context.Context, actor authz.Actor, id primitive.ObjectID) (models.Class, error)) {
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

	if dst != nil {
		if err := shared.Decode(r, dst); err != nil {
			apierr.Fail(w, h.Log, op, err)
			return
		}
	}
	c, err := fn(ctx, actor, id)
	if err != nil {
		apierr.Fail(w, h.Log, op, err)
		return
	}
	apierr.JSON(w, http.StatusOK, c)
}
