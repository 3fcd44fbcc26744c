// internal/app/features/assignments/handler.go
package assignments

import (
	"context"
	"net/http"

	"github.com/mealbridge/mealbridge/internal/app/features/shared"
	"github.com/mealbridge/mealbridge/internal/app/services/fulfillment"
	allocationstore "github.com/mealbridge/mealbridge/internal/app/store/allocations"
	"github.com/mealbridge/mealbridge/internal/app/system/apierr"
	"github.com/mealbridge/mealbridge/internal/app/system/authz"
	"github.com/mealbridge/mealbridge/internal/app/system/timeouts"
	"github.com/mealbridge/mealbridge/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Handler serves the assignment flow at /api/assignments. Capacity is held
// from the moment the principal assigns until the donor rejects.
type Handler struct {
	Pipeline *fulfillment.Service
	Log      *zap.Logger
}

func NewHandler(svc *fulfillment.Service, logger *zap.Logger) *Handler {
	return &Handler{Pipeline: svc, Log: logger}
}

type assignRequest struct {
	PublishedDonationID string `json:"published_donation_id" label:"Published donation" validate:"required,objectid"`
	ClassID             string `json:"class_id" label:"Class" validate:"required,objectid"`
	NumberOfStudents    int    `json:"number_of_students" label:"Number of students" validate:"min=1"`
}

func (h *Handler) HandleAssign(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.Actor(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	var in assignRequest
	if err := shared.Decode(r, &in); err != nil {
		apierr.Fail(w, h.Log, "assign donation", err)
		return
	}
	pdID, _ := primitive.ObjectIDFromHex(in.PublishedDonationID)
	classID, _ := primitive.ObjectIDFromHex(in.ClassID)
	a, err := h.Pipeline.CreateDonationAssignmentDirect(ctx, actor, fulfillment.AllocationInput{
		PublishedDonationID: pdID,
		ClassID:             classID,
		NumberOfStudents:    in.NumberOfStudents,
	})
	if err != nil {
		apierr.Fail(w, h.Log, "assign donation", err)
		return
	}
	apierr.JSON(w, http.StatusCreated, a)
}

// ServeList handles GET /api/assignments?principal=|class=|donation=&status=.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.Actor(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	f := allocationstore.Filter{Flow: models.FlowAssignment, Statuses: shared.Statuses(r, models.FlowAssignment)}
	var err error
	if f.PrincipalID, err = shared.QueryID(r, "principal"); err == nil {
		if f.ClassID, err = shared.QueryID(r, "class"); err == nil {
			f.PublishedDonationID, err = shared.QueryID(r, "donation")
		}
	}
	if err != nil {
		apierr.Fail(w, h.Log, "list assignments", err)
		return
	}
	list, err := h.Pipeline.ListVisible(ctx, actor, f)
	if err != nil {
		apierr.Fail(w, h.Log, "list assignments", err)
		return
	}
	apierr.JSON(w, http.StatusOK, list)
}

type transition func(ctx context.Context, actor authz.Actor, id primitive.ObjectID) (models.Allocation, error)

func (h *Handler) act(op string, fn transition) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
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

		a, err := fn(ctx, actor, id)
		if err != nil {
			apierr.Fail(w, h.Log, op, err)
			return
		}
		apierr.JSON(w, http.StatusOK, a)
	}
}
