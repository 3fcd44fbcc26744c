// internal/app/features/authn/routes.go
package authn

import "github.com/go-chi/chi/v5"

// Routes is mounted at /api/auth.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/signup", h.HandleSignUp)
	r.Post("/signin", h.HandleSignIn)
	r.Post("/signout", h.HandleSignOut)
	r.Get("/me", h.ServeMe)
	return r
}
