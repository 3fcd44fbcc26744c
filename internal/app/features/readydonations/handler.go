// internal/app/features/readydonations/handler.go
package readydonations

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

// Handler serves the request flow at /api/ready-donations: a principal asks
// for part of a published donation, the donor approves or rejects, and the
// class teacher claims an approved request.
type Handler struct {
	Pipeline *fulfillment.Service
	Log      *zap.Logger
}

func NewHandler(svc *fulfillment.Service, logger *zap.Logger) *Handler {
	return &Handler{Pipeline: svc, Log: logger}
}

type createRequest struct {
	PublishedDonationID string `json:"published_donation_id" label:"Published donation" validate:"required,objectid"`
	ClassID             string `json:"class_id" label:"Class" validate:"required,objectid"`
	NumberOfStudents    int    `json:"number_of_students" label:"Number of students" validate:"min=1"`
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.Actor(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	var in createRequest
	if err := shared.Decode(r, &in); err != nil {
		apierr.Fail(w, h.Log, "create ready donation", err)
		return
	}
	pdID, _ := primitive.ObjectIDFromHex(in.PublishedDonationID)
	classID, _ := primitive.ObjectIDFromHex(in.ClassID)
	a, err := h.Pipeline.CreateReadyDonation(ctx, actor, fulfillment.AllocationInput{
		PublishedDonationID: pdID,
		ClassID:             classID,
		NumberOfStudents:    in.NumberOfStudents,
	})
	if err != nil {
		apierr.Fail(w, h.Log, "create ready donation", err)
		return
	}
	apierr.JSON(w, http.StatusCreated, a)
}

// ServeList handles GET /api/ready-donations?donor=|principal=|class=&status=.
// Results are limited to what the caller may see.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.Actor(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	f := allocationstore.Filter{Flow: models.FlowRequest, Statuses: shared.Statuses(r, models.FlowRequest)}
	var err error
	if f.DonorID, err = shared.QueryID(r, "donor"); err == nil {
		if f.PrincipalID, err = shared.QueryID(r, "principal"); err == nil {
			f.ClassID, err = shared.QueryID(r, "class")
		}
	}
	if err != nil {
		apierr.Fail(w, h.Log, "list ready donations", err)
		return
	}
	list, err := h.Pipeline.ListVisible(ctx, actor, f)
	if err != nil {
		apierr.Fail(w, h.Log, "list ready donations", err)
		return
	}
	apierr.JSON(w, http.StatusOK, list)
}

func (h *Handler) ServeOne(w http.ResponseWriter, r *http.Request) {
	h.act("get ready donation", h.Pipeline.GetReadyDonation, http.StatusOK)(w, r)
}

type transition func(ctx context.Context, actor authz.Actor, id primitive.ObjectID) (models.Allocation, error)

// act adapts a pipeline transition to a handler that answers with the
// updated allocation.
func (h *Handler) act(op string, fn transition, status int) http.HandlerFunc {
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
		apierr.JSON(w, status, a)
	}
}
