// internal/app/features/publisheddonations/routes.go
package publisheddonations

import (
	"github.com/go-chi/chi/v5"
	"github.com/mealbridge/mealbridge/internal/app/system/auth"
	"github.com/mealbridge/mealbridge/internal/domain/models"
)

// Routes is mounted at /api/published-donations.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Get("/", h.ServeAvailable)
	r.Get("/{id}", h.ServeOne)

	r.Group(func(r chi.Router) {
		r.Use(sm.RequireRole(models.RoleDonor, models.RoleAdmin))
		r.Get("/mine", h.ServeMine)
		r.Post("/", h.HandleCreate)
		r.Patch("/{id}", h.HandlePatch)
		r.Delete("/{id}", h.HandleDelete)
	})
	return r
}
