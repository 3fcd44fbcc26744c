// internal/app/features/feedback/handler.go
package feedback

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

type Handler struct {
	Registry *registry.Service
	Log      *zap.Logger
}

func NewHandler(svc *registry.Service, logger *zap.Logger) *Handler {
	return &Handler{Registry: svc, Log: logger}
}

type submitRequest struct {
	Date    string `json:"date" label:"Date" validate:"required,day"`
	ClassID string `json:"class_id" label:"Class" validate:"required,objectid"`
	Rating  int    `json:"rating" label:"Rating" validate:"min=1,max=5"`
	Comment string `json:"comment" validate:"max=2000"`
}

func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.Actor(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	var in submitRequest
	if err := shared.Decode(r, &in); err != nil {
		apierr.Fail(w, h.Log, "submit feedback", err)
		return
	}
	classID, _ := primitive.ObjectIDFromHex(in.ClassID)
	fb, err := h.Registry.SubmitFeedback(ctx, actor, in.Date, classID, in.Rating, in.Comment)
	if err != nil {
		apierr.Fail(w, h.Log, "submit feedback", err)
		return
	}
	apierr.JSON(w, http.StatusCreated, fb)
}

// ServeList handles GET /api/feedback?school=&from=&to=. school defaults
// to the caller's own.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
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
		apierr.Fail(w, h.Log, "list feedback", err)
		return
	}
	from, to, err := shared.DayRange(r)
	if err != nil {
		apierr.Fail(w, h.Log, "list feedback", err)
		return
	}
	list, err := h.Registry.ListFeedback(ctx, actor, *school, from, to)
	if err != nil {
		apierr.Fail(w, h.Log, "list feedback", err)
		return
	}
	apierr.JSON(w, http.StatusOK, list)
}
