// internal/app/features/meals/routes.go
package meals

import (
	"github.com/go-chi/chi/v5"
	"github.com/mealbridge/mealbridge/internal/app/system/auth"
	"github.com/mealbridge/mealbridge/internal/domain/models"
)

// Routes is mounted at /api/meals.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Get("/count", h.ServeCount)
	r.Get("/{date}", h.ServeDay)
	r.With(sm.RequireRole(models.RoleTeacher, models.RolePrincipal, models.RoleAdmin)).
		Put("/{date}/students/{studentID}", h.HandleMark)
	return r
}
