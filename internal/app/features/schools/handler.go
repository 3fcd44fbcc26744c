// internal/app/features/schools/handler.go
package schools

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

// Handler serves /api/schools and the classes nested under each school.
type Handler struct {
	Registry *registry.Service
	Log      *zap.Logger
}

func NewHandler(svc *registry.Service, logger *zap.Logger) *Handler {
	return &Handler{Registry: svc, Log: logger}
}

type schoolRequest struct {
	Name    string `json:"name" validate:"max=200"`
	Address string `json:"address" validate:"max=400"`
	City    string `json:"city" validate:"max=200"`
	Status  string `json:"status" validate:"omitempty,oneof=active disabled"`
}

type principalRequest struct {
	UserID string `json:"user_id" label:"User" validate:"required,objectid"`
}

type classRequest struct {
	Name  string `json:"name" validate:"notblank,max=200"`
	Grade string `json:"grade" validate:"max=40"`
}

// ServeList handles GET /api/schools. ?active=true drops disabled schools.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	list, err := h.Registry.ListSchools(ctx, r.URL.Query().Get("active") == "true")
	if err != nil {
		apierr.Fail(w, h.Log, "list schools", err)
		return
	}
	apierr.JSON(w, http.StatusOK, list)
}

func (h *Handler) ServeOne(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.PathID(w, r, "schoolID")
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	sc, err := h.Registry.GetSchool(ctx, id)
	if err != nil {
		apierr.Fail(w, h.Log, "get school", err)
		return
	}
	apierr.JSON(w, http.StatusOK, sc)
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.Actor(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	var in schoolRequest
	if err := shared.Decode(r, &in); err != nil {
		apierr.Fail(w, h.Log, "create school", err)
		return
	}
	sc, err := h.Registry.CreateSchool(ctx, actor, registry.SchoolInput(in))
	if err != nil {
		apierr.Fail(w, h.Log, "create school", err)
		return
	}
	apierr.JSON(w, http.StatusCreated, sc)
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.Actor(w, r)
	if !ok {
		return
	}
	id, ok := shared.PathID(w, r, "schoolID")
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	var in schoolRequest
	if err := shared.Decode(r, &in); err != nil {
		apierr.Fail(w, h.Log, "update school", err)
		return
	}
	sc, err := h.Registry.UpdateSchool(ctx, actor, id, registry.SchoolInput(in))
	if err != nil {
		apierr.Fail(w, h.Log, "update school", err)
		return
	}
	apierr.JSON(w, http.StatusOK, sc)
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.Actor(w, r)
	if !ok {
		return
	}
	id, ok := shared.PathID(w, r, "schoolID")
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Registry.DeleteSchool(ctx, actor, id); err != nil {
		apierr.Fail(w, h.Log, "delete school", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleAssignPrincipal(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.Actor(w, r)
	if !ok {
		return
	}
	id, ok := shared.PathID(w, r, "schoolID")
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	var in principalRequest
	if err := shared.Decode(r, &in); err != nil {
		apierr.Fail(w, h.Log, "assign principal", err)
		return
	}
	userID, _ := primitive.ObjectIDFromHex(in.UserID)
	sc, err := h.Registry.AssignPrincipal(ctx, actor, id, userID)
	if err != nil {
		apierr.Fail(w, h.Log, "assign principal", err)
		return
	}
	apierr.JSON(w, http.StatusOK, sc)
}

func (h *Handler) ServeClasses(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.Actor(w, r)
	if !ok {
		return
	}
	id, ok := shared.PathID(w, r, "schoolID")
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	list, err := h.Registry.ListClassesBySchool(ctx, actor, id)
	if err != nil {
		apierr.Fail(w, h.Log, "list classes", err)
		return
	}
	apierr.JSON(w, http.StatusOK, list)
}

func (h *Handler) HandleCreateClass(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.Actor(w, r)
	if !ok {
		return
	}
	id, ok := shared.PathID(w, r, "schoolID")
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	var in classRequest
	if err := shared.Decode(r, &in); err != nil {
		apierr.Fail(w, h.Log, "create class", err)
		return
	}
	c, err := h.Registry.CreateClass(ctx, actor, id, registry.ClassInput(in))
	if err != nil {
		apierr.Fail(w, h.Log, "create class", err)
		return
	}
	apierr.JSON(w, http.StatusCreated, c)
}
