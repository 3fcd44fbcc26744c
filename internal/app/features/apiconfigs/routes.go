// internal/app/features/apiconfigs/routes.go
package apiconfigs

import (
	"github.com/go-chi/chi/v5"
	"github.com/mealbridge/mealbridge/internal/app/system/auth"
	"github.com/mealbridge/mealbridge/internal/domain/models"
)

// Routes is mounted at /api/admin/apis.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireRole(models.RoleAdmin))
	r.Get("/", h.ServeList)
	r.Post("/", h.HandleCreate)
	r.Get("/{id}", h.ServeConfig)
	r.Patch("/{id}", h.HandleUpdate)
	r.Delete("/{id}", h.HandleDelete)
	r.Post("/{id}/reset", h.HandleReset)
	return r
}
