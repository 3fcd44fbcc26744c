// internal/app/features/realtime/routes.go
package realtime

import (
	"github.com/go-chi/chi/v5"
	"github.com/mealbridge/mealbridge/internal/app/system/auth"
)

// Routes is mounted at /api/stream.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Get("/published-donations", h.ServePublishedDonations)
	return r
}
