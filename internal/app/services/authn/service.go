// Package authn signs users up and in with email and password.
package authn

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/mealbridge/mealbridge/internal/app/store/audit"
	schoolstore "github.com/mealbridge/mealbridge/internal/app/store/schools"
	userstore "github.com/mealbridge/mealbridge/internal/app/store/users"
	"github.com/mealbridge/mealbridge/internal/app/system/apierr"
	"github.com/mealbridge/mealbridge/internal/app/system/auditlog"
	"github.com/mealbridge/mealbridge/internal/app/system/authutil"
	"github.com/mealbridge/mealbridge/internal/app/system/inputval"
	"github.com/mealbridge/mealbridge/internal/app/system/normalize"
	"github.com/mealbridge/mealbridge/internal/app/system/ratelimit"
	"github.com/mealbridge/mealbridge/internal/app/system/status"
	"github.com/mealbridge/mealbridge/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

var (
	// ErrBadCredentials covers both an unknown email and a wrong password.
	ErrBadCredentials = apierr.New(apierr.ErrUnauthorized, "Invalid email or password.")
	ErrDisabled       = apierr.New(apierr.ErrForbidden, "This account has been disabled.")
)

// SignUpInput is the sign-up form. Admin accounts cannot sign up; they come
// from the startup bootstrap.
type SignUpInput struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required"`
	FullName string `json:"full_name" label:"Full name" validate:"notblank,max=200"`
	Role     string `json:"role" validate:"required,oneof=donor principal teacher"`
	SchoolID string `json:"school_id,omitempty" label:"School" validate:"omitempty,objectid"`
	Phone    string `json:"phone,omitempty" validate:"max=40"`
}

// Service holds the account stores and the sign-in throttle.
type Service struct {
	users   *userstore.Store
	schools *schoolstore.Store
	limiter *ratelimit.SignInLimiter
	audit   *auditlog.Logger
	log     *zap.Logger
}

// New builds the service. limiter may be nil to disable throttling.
func New(db *mongo.Database, limiter *ratelimit.SignInLimiter, audit *auditlog.Logger, logger *zap.Logger) *Service {
	return &Service{
		users:   userstore.New(db),
		schools: schoolstore.New(db),
		limiter: limiter,
		audit:   audit,
		log:     logger,
	}
}

// SignUp creates the account. It never creates a session; the caller
// signs in separately.
func (s *Service) SignUp(ctx context.Context, r *http.Request, in SignUpInput) (models.User, error) {
	in.Role = normalize.Role(in.Role)
	if res := inputval.Validate(in); res.HasErrors() {
		return models.User{}, apierr.Invalid("%s", res.First())
	}
	if err := authutil.ValidatePassword(in.Password); err != nil {
		return models.User{}, apierr.Invalid("%s. %s", err.Error(), authutil.PasswordRules())
	}

	u := models.User{
		FullName: in.FullName,
		Email:    in.Email,
		Role:     in.Role,
		Status:   status.Active,
		Phone:    in.Phone,
	}
	if in.SchoolID != "" {
		sid, _ := primitive.ObjectIDFromHex(in.SchoolID)
		if _, err := s.schools.GetByID(ctx, sid); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return models.User{}, apierr.Invalid("School not found.")
			}
			return models.User{}, fmt.Errorf("load school: %w", err)
		}
		u.SchoolID = &sid
	}

	hash, err := authutil.HashPassword(in.Password)
	if err != nil {
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}
	u.PasswordHash = hash

	created, err := s.users.Create(ctx, u)
	if err != nil {
		return models.User{}, err
	}
	s.audit.SignUp(ctx, r, created.ID, created.Role)
	return created, nil
}

// SignIn checks the credentials. Every refusal is audited with its reason;
// the client only ever sees ErrBadCredentials, ErrDisabled or the
// rate-limit message.
func (s *Service) SignIn(ctx context.Context, r *http.Request, email, password string) (models.User, error) {
	email = normalize.Email(email)
	if s.limiter != nil {
		if ok, msg := s.limiter.Check(r, email); !ok {
			s.audit.SignInFailed(ctx, r, audit.EventSignInFailedRateLimit, nil, email, "rate limited")
			return models.User{}, apierr.New(apierr.ErrTooManyRequests, "%s", msg)
		}
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			s.audit.SignInFailed(ctx, r, audit.EventSignInFailedUserNotFound, nil, email, "no such user")
			return models.User{}, ErrBadCredentials
		}
		return models.User{}, fmt.Errorf("load user: %w", err)
	}
	if !authutil.CheckPassword(password, u.PasswordHash) {
		s.audit.SignInFailed(ctx, r, audit.EventSignInFailedWrongPassword, &u.ID, email, "wrong password")
		return models.User{}, ErrBadCredentials
	}
	if normalize.Status(u.Status) == status.Disabled {
		s.audit.SignInFailed(ctx, r, audit.EventSignInFailedUserDisabled, &u.ID, email, "disabled")
		return models.User{}, ErrDisabled
	}

	if s.limiter != nil {
		s.limiter.Succeeded(email)
	}
	s.audit.SignInSuccess(ctx, r, u.ID, email)
	return *u, nil
}

// EnsureAdmin creates the bootstrap admin when no account uses email.
// An existing account is left untouched. It reports whether it created one.
func (s *Service) EnsureAdmin(ctx context.Context, email, password, fullName string) (bool, error) {
	if email == "" || password == "" {
		return false, nil
	}
	exists, err := s.users.EmailExists(ctx, email)
	if err != nil {
		return false, fmt.Errorf("check admin: %w", err)
	}
	if exists {
		return false, nil
	}
	if err := authutil.ValidatePassword(password); err != nil {
		return false, fmt.Errorf("admin password: %w", err)
	}
	hash, err := authutil.HashPassword(password)
	if err != nil {
		return false, fmt.Errorf("hash admin password: %w", err)
	}
	if fullName == "" {
		fullName = "Administrator"
	}
	u, err := s.users.Create(ctx, models.User{
		FullName:     fullName,
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
		Status:       status.Active,
	})
	if errors.Is(err, userstore.ErrDuplicateEmail) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("create admin: %w", err)
	}
	s.log.Info("bootstrap admin created", zap.String("email", u.Email))
	return true, nil
}
