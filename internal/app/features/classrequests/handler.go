// internal/app/features/classrequests/handler.go
package classrequests

import (
	"context"
	"net/http"

	"github.com/mealbridge/mealbridge/internal/app/features/shared"
	"github.com/mealbridge/mealbridge/internal/app/services/fulfillment"
	"github.com/mealbridge/mealbridge/internal/app/system/apierr"
	"github.com/mealbridge/mealbridge/internal/app/system/authz"
	"github.com/mealbridge/mealbridge/internal/app/system/timeouts"
	"github.com/mealbridge/mealbridge/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Handler serves /api/class-requests: a principal asks one donor for money
// or goods for a class.
type Handler struct {
	Pipeline *fulfillment.Service
	Log      *zap.Logger
}

func NewHandler(svc *fulfillment.Service, logger *zap.Logger) *Handler {
	return &Handler{Pipeline: svc, Log: logger}
}

type createRequest struct {
	DonorID string  `json:"donor_id" label:"Donor" validate:"required,objectid"`
	ClassID string  `json:"class_id" label:"Class" validate:"required,objectid"`
	Kind    string  `json:"kind" validate:"required"`
	Amount  float64 `json:"amount" validate:"gte=0"`
	Items   string  `json:"items" validate:"max=2000"`
	Message string  `json:"message" validate:"max=4000"`
}

type answerRequest struct {
	Note string `json:"note" validate:"max=2000"`
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
		apierr.Fail(w, h.Log, "create class request", err)
		return
	}
	donorID, _ := primitive.ObjectIDFromHex(in.DonorID)
	classID, _ := primitive.ObjectIDFromHex(in.ClassID)
	cr, err := h.Pipeline.CreateClassDonationRequest(ctx, actor, fulfillment.ClassRequestInput{
		DonorID: donorID,
		ClassID: classID,
		Kind:    in.Kind,
		Amount:  in.Amount,
		Items:   in.Items,
		Message: in.Message,
	})
	if err != nil {
		apierr.Fail(w, h.Log, "create class request", err)
		return
	}
	apierr.JSON(w, http.StatusCreated, cr)
}

// ServeList returns the caller's side of the requests: received for donors,
// sent for principals. Admins pass ?donor= or ?principal=.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.Actor(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	list, err := h.list(ctx, r, actor)
	if err != nil {
		apierr.Fail(w, h.Log, "list class requests", err)
		return
	}
	apierr.JSON(w, http.StatusOK, list)
}

func (h *Handler) list(ctx context.Context, r *http.Request, actor authz.Actor) ([]models.ClassDonationRequest, error) {
	donor, err := shared.QueryID(r, "donor")
	if err != nil {
		return nil, err
	}
	principal, err := shared.QueryID(r, "principal")
	if err != nil {
		return nil, err
	}
	return h.Pipeline.ListClassRequestsVisible(ctx, actor, fulfillment.ClassRequestFilter{
		DonorID:     donor,
		PrincipalID: principal,
	})
}

type answer func(ctx context.Context, donor authz.Actor, id primitive.ObjectID, note string) (models.ClassDonationRequest, error)

// respond handles approve and reject. The body with a note is optional.
func (h *Handler) respond(op string, fn answer) http.HandlerFunc {
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

		var in answerRequest
		if r.ContentLength != 0 {
			if err := shared.Decode(r, &in); err != nil {
				apierr.Fail(w, h.Log, op, err)
				return
			}
		}
		cr, err := fn(ctx, actor, id, in.Note)
		if err != nil {
			apierr.Fail(w, h.Log, op, err)
			return
		}
		apierr.JSON(w, http.StatusOK, cr)
	}
}
