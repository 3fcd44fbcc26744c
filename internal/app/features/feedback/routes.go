// internal/app/features/feedback/routes.go
package feedback

import (
	"github.com/go-chi/chi/v5"
	"github.com/mealbridge/mealbridge/internal/app/system/auth"
	"github.com/mealbridge/mealbridge/internal/domain/models"
)

// Routes is mounted at /api/feedback.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Get("/", h.ServeList)
	r.With(sm.RequireRole(models.RoleTeacher, models.RoleAdmin)).Post("/", h.HandleSubmit)
	return r
}
