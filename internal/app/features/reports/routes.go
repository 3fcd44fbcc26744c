// internal/app/features/reports/routes.go
package reports

import (
	"github.com/go-chi/chi/v5"
	"github.com/mealbridge/mealbridge/internal/app/system/auth"
	"github.com/mealbridge/mealbridge/internal/domain/models"
)

// Routes is mounted at /api/reports. Viewing is decided per report.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Get("/", h.ServeList)
	r.Get("/{id}", h.ServeReport)
	r.Get("/{id}/pdf", h.ServePDF)

	r.Group(func(r chi.Router) {
		r.Use(sm.RequireRole(models.RolePrincipal, models.RoleAdmin))
		r.Post("/", h.HandleGenerate)
		r.Delete("/{id}", h.HandleDelete)
	})
	return r
}
