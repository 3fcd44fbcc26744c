// internal/app/features/classrequests/routes.go
package classrequests

import (
	"github.com/go-chi/chi/v5"
	"github.com/mealbridge/mealbridge/internal/app/system/auth"
	"github.com/mealbridge/mealbridge/internal/domain/models"
)

// Routes is mounted at /api/class-requests.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Get("/", h.ServeList)

	r.With(sm.RequireRole(models.RolePrincipal, models.RoleAdmin)).
		Post("/", h.HandleCreate)

	r.Group(func(r chi.Router) {
		r.Use(sm.RequireRole(models.RoleDonor, models.RoleAdmin))
		r.Post("/{id}/approve", h.respond("approve class request", h.Pipeline.ApproveClassDonationRequest))
		r.Post("/{id}/reject", h.respond("reject class request", h.Pipeline.RejectClassDonationRequest))
	})
	return r
}
