// internal/app/features/schools/routes.go
package schools

import (
	"github.com/go-chi/chi/v5"
	"github.com/mealbridge/mealbridge/internal/app/system/auth"
	"github.com/mealbridge/mealbridge/internal/domain/models"
)

// Routes is mounted at /api/schools.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Get("/", h.ServeList)
	r.Get("/{schoolID}", h.ServeOne)
	r.Get("/{schoolID}/classes", h.ServeClasses)

	r.With(sm.RequireRole(models.RolePrincipal, models.RoleAdmin)).
		Post("/{schoolID}/classes", h.HandleCreateClass)

	r.Group(func(r chi.Router) {
		r.Use(sm.RequireRole(models.RoleAdmin))
		r.Post("/", h.HandleCreate)
		r.Patch("/{schoolID}", h.HandleUpdate)
		r.Delete("/{schoolID}", h.HandleDelete)
		r.Post("/{schoolID}/principal", h.HandleAssignPrincipal)
	})
	return r
}
