// internal/app/features/assignments/routes.go
package assignments

import (
	"github.com/go-chi/chi/v5"
	"github.com/mealbridge/mealbridge/internal/app/system/auth"
	"github.com/mealbridge/mealbridge/internal/domain/models"
)

// Routes is mounted at /api/assignments.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Get("/", h.ServeList)
	r.Get("/{id}", h.act("get assignment", h.Pipeline.GetReadyDonation))

	r.With(sm.RequireRole(models.RolePrincipal, models.RoleAdmin)).
		Post("/", h.HandleAssign)

	r.Group(func(r chi.Router) {
		r.Use(sm.RequireRole(models.RoleDonor, models.RoleAdmin))
		r.Post("/{id}/accept", h.act("accept assignment", h.Pipeline.AcceptDonationAssignment))
		r.Post("/{id}/dispatch", h.act("dispatch assignment", h.Pipeline.DispatchDonationAssignment))
	})

	r.With(sm.RequireRole(models.RoleDonor, models.RolePrincipal, models.RoleAdmin)).
		Post("/{id}/reject", h.act("reject assignment", h.Pipeline.RejectDonationAssignment))

	r.Group(func(r chi.Router) {
		r.Use(sm.RequireRole(models.RoleTeacher, models.RoleAdmin))
		r.Post("/{id}/claim", h.act("claim assignment", h.Pipeline.ClaimDonationAssignment))
		r.Post("/{id}/serve", h.act("serve assignment", h.Pipeline.ServeDonationAssignment))
	})
	return r
}
