// internal/app/features/apiconfigs/handler.go
package apiconfigs

import (
	"context"
	"net/http"

	"github.com/mealbridge/mealbridge/internal/app/features/shared"
	"github.com/mealbridge/mealbridge/internal/app/services/ai"
	"github.com/mealbridge/mealbridge/internal/app/system/apierr"
	"github.com/mealbridge/mealbridge/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// Handler manages the summarizer credentials at /api/admin/apis. Keys are
// write-only: responses never carry them.
type Handler struct {
	AI  *ai.Service
	Log *zap.Logger
}

func NewHandler(svc *ai.Service, logger *zap.Logger) *Handler {
	return &Handler{AI: svc, Log: logger}
}

type createRequest struct {
	Name     string `json:"name" label:"Name" validate:"notblank,max=100"`
	Provider string `json:"provider" validate:"max=40"`
	APIKey   string `json:"api_key" label:"API key" validate:"notblank,max=500"`
	Model    string `json:"model" validate:"max=100"`
	Priority int    `json:"priority" validate:"min=0"`
	Active   *bool  `json:"active"`
}

type patchRequest struct {
	Name     *string `json:"name" validate:"omitempty,max=100"`
	Provider *string `json:"provider" validate:"omitempty,max=40"`
	APIKey   *string `json:"api_key" validate:"omitempty,max=500"`
	Model    *string `json:"model" validate:"omitempty,max=100"`
	Priority *int    `json:"priority"`
	Active   *bool   `json:"active"`
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
		apierr.Fail(w, h.Log, "create api config", err)
		return
	}
	c, err := h.AI.CreateConfig(ctx, actor, ai.ConfigInput(in))
	if err != nil {
		apierr.Fail(w, h.Log, "create api config", err)
		return
	}
	apierr.JSON(w, http.StatusCreated, c)
}

func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.Actor(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	list, err := h.AI.ListConfigs(ctx, actor)
	if err != nil {
		apierr.Fail(w, h.Log, "list api configs", err)
		return
	}
	apierr.JSON(w, http.StatusOK, list)
}

func (h *Handler) ServeConfig(w http.ResponseWriter, r *http.Request) {
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

	c, err := h.AI.GetConfig(ctx, actor, id)
	if err != nil {
		apierr.Fail(w, h.Log, "get api config", err)
		return
	}
	apierr.JSON(w, http.StatusOK, c)
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

	var in patchRequest
	if err := shared.Decode(r, &in); err != nil {
		apierr.Fail(w, h.Log, "update api config", err)
		return
	}
	c, err := h.AI.UpdateConfig(ctx, actor, id, ai.ConfigPatch(in))
	if err != nil {
		apierr.Fail(w, h.Log, "update api config", err)
		return
	}
	apierr.JSON(w, http.StatusOK, c)
}

// HandleReset clears the failure count so the credential is tried again.
func (h *Handler) HandleReset(w http.ResponseWriter, r *http.Request) {
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

	c, err := h.AI.ResetFailures(ctx, actor, id)
	if err != nil {
		apierr.Fail(w, h.Log, "reset api config", err)
		return
	}
	apierr.JSON(w, http.StatusOK, c)
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

	if err := h.AI.DeleteConfig(ctx, actor, id); err != nil {
		apierr.Fail(w, h.Log, "delete api config", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
