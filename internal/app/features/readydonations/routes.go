// internal/app/features/readydonations/routes.go
package readydonations

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/mealbridge/mealbridge/internal/app/system/auth"
	"github.com/mealbridge/mealbridge/internal/domain/models"
)

// Routes is mounted at /api/ready-donations.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Get("/", h.ServeList)
	r.Get("/{id}", h.ServeOne)

	r.With(sm.RequireRole(models.RolePrincipal, models.RoleAdmin)).
		Post("/", h.HandleCreate)

	r.Group(func(r chi.Router) {
		r.Use(sm.RequireRole(models.RoleDonor, models.RoleAdmin))
		r.Post("/{id}/approve", h.act("approve ready donation", h.Pipeline.ApproveDonationRequest, http.StatusOK))
		r.Post("/{id}/reject", h.act("reject ready donation", h.Pipeline.RejectDonationRequest, http.StatusOK))
	})

	r.With(sm.RequireRole(models.RoleTeacher, models.RoleAdmin)).
		Post("/{id}/claim", h.act("claim ready donation", h.Pipeline.ClaimDonationByTeacher, http.StatusOK))

	r.With(sm.RequireRole(models.RoleAdmin)).
		Delete("/{id}", h.act("delete ready donation", h.Pipeline.DeleteReadyDonation, http.StatusOK))
	return r
}
