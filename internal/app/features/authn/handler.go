// internal/app/features/authn/handler.go
package authn

import (
	"context"
	"net/http"

	authnsvc "github.com/mealbridge/mealbridge/internal/app/services/authn"
	"github.com/mealbridge/mealbridge/internal/app/system/apierr"
	"github.com/mealbridge/mealbridge/internal/app/system/auditlog"
	"github.com/mealbridge/mealbridge/internal/app/system/auth"
	"github.com/mealbridge/mealbridge/internal/app/system/timeouts"
	"github.com/mealbridge/mealbridge/internal/domain/models"
	"go.uber.org/zap"
)

// Handler serves /api/auth.
type Handler struct {
	Service  *authnsvc.Service
	Sessions *auth.SessionManager
	AuditLog *auditlog.Logger
	Log      *zap.Logger
}

func NewHandler(svc *authnsvc.Service, sessions *auth.SessionManager, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{Service: svc, Sessions: sessions, AuditLog: audit, Log: logger}
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type meResponse struct {
	SignedIn bool              `json:"signedIn"`
	User     *auth.SessionUser `json:"user,omitempty"`
}

// HandleSignUp creates the account and answers 201 with the user. Any
// session the caller already had is cleared, so the client lands signed out.
func (h *Handler) HandleSignUp(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	var in authnsvc.SignUpInput
	if err := apierr.Decode(r, &in); err != nil {
		apierr.Fail(w, h.Log, "signup", err)
		return
	}
	u, err := h.Service.SignUp(ctx, r, in)
	if err != nil {
		apierr.Fail(w, h.Log, "signup", err)
		return
	}
	if _, ok := auth.CurrentUser(r); ok {
		if err := h.Sessions.Logout(w, r); err != nil {
			h.Log.Warn("clear session after signup", zap.Error(err))
		}
	}
	apierr.JSON(w, http.StatusCreated, u)
}

func (h *Handler) HandleSignIn(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	var in signInRequest
	if err := apierr.Decode(r, &in); err != nil {
		apierr.Fail(w, h.Log, "signin", err)
		return
	}
	u, err := h.Service.SignIn(ctx, r, in.Email, in.Password)
	if err != nil {
		apierr.Fail(w, h.Log, "signin", err)
		return
	}
	su := sessionUser(u)
	if err := h.Sessions.Login(w, r, su); err != nil {
		apierr.Fail(w, h.Log, "signin: save session", err)
		return
	}
	apierr.JSON(w, http.StatusOK, meResponse{SignedIn: true, User: su})
}

func (h *Handler) HandleSignOut(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if u, ok := auth.CurrentUser(r); ok {
		h.AuditLog.SignOut(ctx, r, u.ID)
	}
	if err := h.Sessions.Logout(w, r); err != nil {
		apierr.Fail(w, h.Log, "signout", err)
		return
	}
	apierr.JSON(w, http.StatusOK, meResponse{SignedIn: false})
}

// ServeMe handles GET /api/auth/me. It never fails; a missing session is
// reported as signedIn=false.
func (h *Handler) ServeMe(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		apierr.JSON(w, http.StatusOK, meResponse{SignedIn: false})
		return
	}
	apierr.JSON(w, http.StatusOK, meResponse{SignedIn: true, User: u})
}

func sessionUser(u models.User) *auth.SessionUser {
	su := &auth.SessionUser{ID: u.ID.Hex(), Name: u.FullName, Email: u.Email, Role: u.Role}
	if u.SchoolID != nil {
		su.SchoolID = u.SchoolID.Hex()
	}
	return su
}
