// internal/app/features/donations/handler.go
package donations

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

// Handler serves a donor's giving history at /api/donations.
type Handler struct {
	Registry *registry.Service
	Log      *zap.Logger
}

func NewHandler(svc *registry.Service, logger *zap.Logger) *Handler {
	return &Handler{Registry: svc, Log: logger}
}

type createRequest struct {
	SchoolID    string  `json:"school_id" label:"School" validate:"omitempty,objectid"`
	Category    string  `json:"category" label:"Category" validate:"required,max=40"`
	ItemName    string  `json:"item_name" validate:"max=200"`
	Quantity    float64 `json:"quantity" validate:"min=0"`
	Amount      float64 `json:"amount" validate:"min=0"`
	Description string  `json:"description" validate:"max=4000"`
	Status      string  `json:"status" validate:"omitempty,oneof=pledged received cancelled"`
}

type statusRequest struct {
	Status string `json:"status" label:"Status" validate:"required,oneof=pledged received cancelled"`
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
		apierr.Fail(w, h.Log, "create donation", err)
		return
	}
	gift := registry.GiftInput{
		Category:    in.Category,
		ItemName:    in.ItemName,
		Quantity:    in.Quantity,
		Amount:      in.Amount,
		Description: in.Description,
		Status:      in.Status,
	}
	if in.SchoolID != "" {
		id, _ := primitive.ObjectIDFromHex(in.SchoolID)
		gift.SchoolID = &id
	}
	d, err := h.Registry.CreateDonation(ctx, actor, gift)
	if err != nil {
		apierr.Fail(w, h.Log, "create donation", err)
		return
	}
	apierr.JSON(w, http.StatusCreated, d)
}

// ServeList lists the caller's donations. Admins may pass ?donor=.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.Actor(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	donor, err := shared.QueryID(r, "donor")
	if err != nil {
		apierr.Fail(w, h.Log, "list donations", err)
		return
	}
	if donor == nil {
		donor = &actor.ID
	}
	if !actor.CanActFor(*donor) {
		apierr.Fail(w, h.Log, "list donations", registry.ErrForbidden)
		return
	}
	list, err := h.Registry.ListDonationsByDonor(ctx, *donor)
	if err != nil {
		apierr.Fail(w, h.Log, "list donations", err)
		return
	}
	apierr.JSON(w, http.StatusOK, list)
}

func (h *Handler) ServeDonation(w http.ResponseWriter, r *http.Request) {
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

	d, err := h.Registry.GetDonation(ctx, actor, id)
	if err != nil {
		apierr.Fail(w, h.Log, "get donation", err)
		return
	}
	apierr.JSON(w, http.StatusOK, d)
}

func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
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

	var in statusRequest
	if err := shared.Decode(r, &in); err != nil {
		apierr.Fail(w, h.Log, "update donation", err)
		return
	}
	d, err := h.Registry.UpdateDonationStatus(ctx, actor, id, in.Status)
	if err != nil {
		apierr.Fail(w, h.Log, "update donation", err)
		return
	}
	apierr.JSON(w, http.StatusOK, d)
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

	if err := h.Registry.DeleteDonation(ctx, actor, id); err != nil {
		apierr.Fail(w, h.Log, "delete donation", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
