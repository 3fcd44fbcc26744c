// internal/app/features/publisheddonations/handler.go
package publisheddonations

import (
	"context"
	"net/http"
	"time"

	"github.com/mealbridge/mealbridge/internal/app/features/shared"
	"github.com/mealbridge/mealbridge/internal/app/services/fulfillment"
	"github.com/mealbridge/mealbridge/internal/app/system/apierr"
	"github.com/mealbridge/mealbridge/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// Handler serves /api/published-donations.
type Handler struct {
	Pipeline *fulfillment.Service
	Log      *zap.Logger
}

func NewHandler(svc *fulfillment.Service, logger *zap.Logger) *Handler {
	return &Handler{Pipeline: svc, Log: logger}
}

type createRequest struct {
	ItemName          string     `json:"item_name" label:"Item name" validate:"notblank,max=200"`
	Quantity          float64    `json:"quantity" validate:"gte=0"`
	Unit              string     `json:"unit" validate:"max=40"`
	Category          string     `json:"category" validate:"required"`
	Description       string     `json:"description" validate:"max=4000"`
	NumberOfStudents  int        `json:"number_of_students" label:"Number of students" validate:"min=1"`
	RemainingStudents *int       `json:"remaining_students,omitempty" label:"Remaining students" validate:"omitempty,min=0"`
	ExpiresAt         *time.Time `json:"expires_at,omitempty"`
}

type patchRequest struct {
	ItemName          *string    `json:"item_name,omitempty" label:"Item name" validate:"omitempty,notblank,max=200"`
	Quantity          *float64   `json:"quantity,omitempty" validate:"omitempty,gte=0"`
	Unit              *string    `json:"unit,omitempty" validate:"omitempty,max=40"`
	Category          *string    `json:"category,omitempty"`
	Description       *string    `json:"description,omitempty" validate:"omitempty,max=4000"`
	NumberOfStudents  *int       `json:"number_of_students,omitempty" label:"Number of students" validate:"omitempty,min=1"`
	RemainingStudents *int       `json:"remaining_students,omitempty" label:"Remaining students" validate:"omitempty,min=0"`
	Status            *string    `json:"status,omitempty"`
	ExpiresAt         *time.Time `json:"expires_at,omitempty"`
}

// ServeAvailable lists every donation still open to allocation.
func (h *Handler) ServeAvailable(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	list, err := h.Pipeline.GetAvailablePublishedDonations(ctx)
	if err != nil {
		apierr.Fail(w, h.Log, "list available donations", err)
		return
	}
	apierr.JSON(w, http.StatusOK, list)
}

func (h *Handler) ServeMine(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.Actor(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	list, err := h.Pipeline.ListPublishedDonationsByDonor(ctx, actor.ID)
	if err != nil {
		apierr.Fail(w, h.Log, "list donor donations", err)
		return
	}
	apierr.JSON(w, http.StatusOK, list)
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
		apierr.Fail(w, h.Log, "publish donation", err)
		return
	}
	pd, err := h.Pipeline.CreatePublishedDonation(ctx, actor, fulfillment.DonationInput{
		ItemName:          in.ItemName,
		Quantity:          in.Quantity,
		Unit:              in.Unit,
		Category:          in.Category,
		Description:       in.Description,
		NumberOfStudents:  in.NumberOfStudents,
		RemainingStudents: in.RemainingStudents,
		ExpiresAt:         in.ExpiresAt,
	})
	if err != nil {
		apierr.Fail(w, h.Log, "publish donation", err)
		return
	}
	apierr.JSON(w, http.StatusCreated, pd)
}

func (h *Handler) ServeOne(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.PathID(w, r, "id")
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	pd, err := h.Pipeline.GetPublishedDonation(ctx, id)
	if err != nil {
		apierr.Fail(w, h.Log, "get donation", err)
		return
	}
	apierr.JSON(w, http.StatusOK, pd)
}

// HandlePatch writes the supplied fields. Status is stored as sent; the
// reconcile job brings it back in line with remaining capacity.
func (h *Handler) HandlePatch(w http.ResponseWriter, r *http.Request) {
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

	var in patchRequest
	if err := shared.Decode(r, &in); err != nil {
		apierr.Fail(w, h.Log, "update donation", err)
		return
	}
	pd, err := h.Pipeline.UpdatePublishedDonation(ctx, actor, id, fulfillment.DonationPatch{
		ItemName:          in.ItemName,
		Quantity:          in.Quantity,
		Unit:              in.Unit,
		Category:          in.Category,
		Description:       in.Description,
		NumberOfStudents:  in.NumberOfStudents,
		RemainingStudents: in.RemainingStudents,
		Status:            in.Status,
		ExpiresAt:         in.ExpiresAt,
	})
	if err != nil {
		apierr.Fail(w, h.Log, "update donation", err)
		return
	}
	apierr.JSON(w, http.StatusOK, pd)
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

	if err := h.Pipeline.DeletePublishedDonation(ctx, actor, id); err != nil {
		apierr.Fail(w, h.Log, "delete donation", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
