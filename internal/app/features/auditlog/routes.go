// internal/app/features/auditlog/routes.go
package auditlog

import (
	"github.com/go-chi/chi/v5"
	"github.com/mealbridge/mealbridge/internal/app/system/auth"
	"github.com/mealbridge/mealbridge/internal/domain/models"
)

// Routes mounts the audit trail (typically at /api/admin/audit). Admins only.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireRole(models.RoleAdmin))
	r.Get("/", h.ServeList)
	return r
}
