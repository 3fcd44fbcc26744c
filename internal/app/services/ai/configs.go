package ai

import (
	"context"
	"errors"
	"strings"

	apiconfigstore "github.com/mealbridge/mealbridge/internal/app/store/apiconfigs"
	"github.com/mealbridge/mealbridge/internal/app/store/audit"
	"github.com/mealbridge/mealbridge/internal/app/system/apierr"
	"github.com/mealbridge/mealbridge/internal/app/system/authz"
	"github.com/mealbridge/mealbridge/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var ErrForbidden = apierr.New(apierr.ErrForbidden, "Only administrators can manage API configs.")

// ConfigInput creates a credential. APIKey is sealed before it is stored.
type ConfigInput struct {
	Name     string
	Provider string
	APIKey   string
	Model    string
	Priority int
	Active   *bool
}

// ConfigPatch updates a credential. Nil fields are left alone.
type ConfigPatch struct {
	Name     *string
	Provider *string
	APIKey   *string
	Model    *string
	Priority *int
	Active   *bool
}

func (s *Service) CreateConfig(ctx context.Context, admin authz.Actor, in ConfigInput) (models.APIConfig, error) {
	if !admin.IsAdmin() {
		return models.APIConfig{}, ErrForbidden
	}
	in.Name = strings.TrimSpace(in.Name)
	in.APIKey = strings.TrimSpace(in.APIKey)
	if in.Name == "" {
		return models.APIConfig{}, apierr.Invalid("Name is required.")
	}
	if in.APIKey == "" {
		return models.APIConfig{}, apierr.Invalid("API key is required.")
	}
	if in.Priority < 0 {
		return models.APIConfig{}, apierr.Invalid("Priority must be 0 or more.")
	}
	sealed, err := s.seal(in.APIKey)
	if err != nil {
		return models.APIConfig{}, err
	}
	provider := strings.TrimSpace(in.Provider)
	if provider == "" {
		provider = "openrouter"
	}
	active := true
	if in.Active != nil {
		active = *in.Active
	}

	c, err := s.store.Create(ctx, models.APIConfig{
		Name:      in.Name,
		Provider:  provider,
		SealedKey: sealed,
		Model:     strings.TrimSpace(in.Model),
		Priority:  in.Priority,
		Active:    active,
	})
	if err != nil {
		return models.APIConfig{}, err
	}
	s.changed(ctx, admin, c.ID, "created")
	return c, nil
}

func (s *Service) ListConfigs(ctx context.Context, admin authz.Actor) ([]models.APIConfig, error) {
	if !admin.IsAdmin() {
		return nil, ErrForbidden
	}
	return s.store.List(ctx)
}

func (s *Service) GetConfig(ctx context.Context, admin authz.Actor, id primitive.ObjectID) (models.APIConfig, error) {
	if !admin.IsAdmin() {
		return models.APIConfig{}, ErrForbidden
	}
	c, err := s.store.GetByID(ctx, id)
	return c, missing(err)
}

func (s *Service) UpdateConfig(ctx context.Context, admin authz.Actor, id primitive.ObjectID, p ConfigPatch) (models.APIConfig, error) {
	if !admin.IsAdmin() {
		return models.APIConfig{}, ErrForbidden
	}
	sp := apiconfigstore.Patch{Provider: p.Provider, Model: p.Model, Active: p.Active}
	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if name == "" {
			return models.APIConfig{}, apierr.Invalid("Name is required.")
		}
		sp.Name = &name
	}
	if p.Priority != nil {
		if *p.Priority < 0 {
			return models.APIConfig{}, apierr.Invalid("Priority must be 0 or more.")
		}
		sp.Priority = p.Priority
	}
	if p.APIKey != nil {
		key := strings.TrimSpace(*p.APIKey)
		if key == "" {
			return models.APIConfig{}, apierr.Invalid("API key is required.")
		}
		sealed, err := s.seal(key)
		if err != nil {
			return models.APIConfig{}, err
		}
		sp.SealedKey = &sealed
	}

	c, err := s.store.Update(ctx, id, sp)
	if err != nil {
		return models.APIConfig{}, missing(err)
	}
	s.changed(ctx, admin, c.ID, "updated")
	return c, nil
}

func (s *Service) ResetFailures(ctx context.Context, admin authz.Actor, id primitive.ObjectID) (models.APIConfig, error) {
	if !admin.IsAdmin() {
		return models.APIConfig{}, ErrForbidden
	}
	c, err := s.store.ResetFailures(ctx, id)
	if err != nil {
		return models.APIConfig{}, missing(err)
	}
	s.changed(ctx, admin, c.ID, "reset")
	return c, nil
}

func (s *Service) DeleteConfig(ctx context.Context, admin authz.Actor, id primitive.ObjectID) error {
	if !admin.IsAdmin() {
		return ErrForbidden
	}
	n, err := s.store.Delete(ctx, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return apierr.NotFound("API config not found.")
	}
	s.changed(ctx, admin, id, "deleted")
	return nil
}

func (s *Service) changed(ctx context.Context, admin authz.Actor, id primitive.ObjectID, action string) {
	s.Invalidate()
	s.audit.Admin(ctx, nil, audit.EventAPIConfigChanged, admin.ID, "api_config", id, map[string]string{"action": action})
}

func missing(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return apierr.NotFound("API config not found.")
	}
	return err
}

// seal encrypts key. Without a sealing key no credential can be stored.
func (s *Service) seal(key string) (string, error) {
	if s.sealer == nil {
		return "", apierr.New(apierr.ErrUnavailable, "Credential storage is not configured.")
	}
	return s.sealer.Seal(key)
}
