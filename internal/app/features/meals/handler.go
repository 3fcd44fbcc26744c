// internal/app/features/meals/handler.go
package meals

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/mealbridge/mealbridge/internal/app/features/shared"
	"github.com/mealbridge/mealbridge/internal/app/policy/registrypolicy"
	"github.com/mealbridge/mealbridge/internal/app/services/registry"
	"github.com/mealbridge/mealbridge/internal/app/system/apierr"
	"github.com/mealbridge/mealbridge/internal/app/system/timeouts"
	"go.uber.org/zap"
)

type Handler struct {
	Registry *registry.Service
	Log      *zap.Logger
}

func NewHandler(svc *registry.Service, logger *zap.Logger) *Handler {
	return &Handler{Registry: svc, Log: logger}
}

type markRequest struct {
	Served bool `json:"served"`
}

type countResponse struct {
	SchoolID string `json:"school_id"`
	From     string `json:"from"`
	To       string `json:"to"`
	Served   int64  `json:"served"`
}

// ServeDay handles GET /api/meals/{date}?class=.
func (h *Handler) ServeDay(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.Actor(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	class, err := shared.QueryID(r, "class")
	if err == nil && class == nil {
		err = apierr.Invalid("class is required.")
	}
	if err != nil {
		apierr.Fail(w, h.Log, "list meals", err)
		return
	}
	list, err := h.Registry.ListMealsByDate(ctx, actor, chi.URLParam(r, "date"), *class)
	if err != nil {
		apierr.Fail(w, h.Log, "list meals", err)
		return
	}
	apierr.JSON(w, http.StatusOK, list)
}

// HandleMark handles PUT /api/meals/{date}/students/{studentID}.
func (h *Handler) HandleMark(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.Actor(w, r)
	if !ok {
		return
	}
	studentID, ok := shared.PathID(w, r, "studentID")
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	var in markRequest
	if err := shared.Decode(r, &in); err != nil {
		apierr.Fail(w, h.Log, "mark meal", err)
		return
	}
	rec, err := h.Registry.MarkMealServed(ctx, actor, chi.URLParam(r, "date"), studentID, in.Served)
	if err != nil {
		apierr.Fail(w, h.Log, "mark meal", err)
		return
	}
	apierr.JSON(w, http.StatusOK, rec)
}

// ServeCount handles GET /api/meals/count?school=&from=&to=.
func (h *Handler) ServeCount(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.Actor(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	school, err := shared.QueryID(r, "school")
	if err == nil && school == nil {
		if actor.SchoolID.IsZero() {
			err = apierr.Invalid("school is required.")
		}
		school = &actor.SchoolID
	}
	if err != nil {
		apierr.Fail(w, h.Log, "count meals", err)
		return
	}
	if !registrypolicy.CanViewSchool(actor, *school) {
		apierr.Fail(w, h.Log, "count meals", registry.ErrForbidden)
		return
	}
	from, to, err := shared.DayRange(r)
	if err != nil {
		apierr.Fail(w, h.Log, "count meals", err)
		return
	}
	n, err := h.Registry.CountMealsServed(ctx, *school, from, to)
	if err != nil {
		apierr.Fail(w, h.Log, "count meals", err)
		return
	}
	apierr.JSON(w, http.StatusOK, countResponse{SchoolID: school.Hex(), From: from, To: to, Served: n})
}
