// internal/app/features/classes/routes.go
package classes

import (
	"github.com/go-chi/chi/v5"
	"github.com/mealbridge/mealbridge/internal/app/system/auth"
	"github.com/mealbridge/mealbridge/internal/domain/models"
)

// Routes is mounted at /api/classes.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Get("/", h.ServeList)
	r.Get("/{id}", h.ServeOne)

	r.Group(func(r chi.Router) {
		r.Use(sm.RequireRole(models.RolePrincipal, models.RoleAdmin))
		r.Patch("/{id}", h.HandleUpdate)
		r.Delete("/{id}", h.HandleDelete)
		r.Post("/{id}/teacher", h.HandleAssignTeacher)
	})

	r.Group(func(r chi.Router) {
		r.Use(sm.RequireRole(models.RoleTeacher, models.RolePrincipal, models.RoleAdmin))
		r.Post("/{id}/meal-stock", h.HandleAddStock)
		r.Post("/{id}/meal-stock/consume", h.HandleConsumeStock)
	})
	return r
}
