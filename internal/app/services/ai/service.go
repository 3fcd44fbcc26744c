// Package ai summarizes report feedback through an OpenRouter-compatible
// chat-completion endpoint. Credentials are stored as APIConfig records and
// tried in priority order until one answers.
package ai

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	apiconfigstore "github.com/mealbridge/mealbridge/internal/app/store/apiconfigs"
	"github.com/mealbridge/mealbridge/internal/app/system/auditlog"
	"github.com/mealbridge/mealbridge/internal/app/system/secret"
	"github.com/mealbridge/mealbridge/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Placeholder is the summary stored when no credential produced one.
const Placeholder = "AI summary is currently unavailable. Please review the feedback entries directly."

const (
	DefaultEndpoint = "https://openrouter.ai/api/v1/chat/completions"
	DefaultModel    = "openai/gpt-4o-mini"
	DefaultCacheTTL = 5 * time.Minute
)

// Options configures the endpoint and the config cache.
type Options struct {
	Endpoint     string
	DefaultModel string
	CacheTTL     time.Duration
	HTTPClient   *http.Client
}

// Result is the outcome of Summarize. Text is always set.
type Result struct {
	Text      string
	Available bool
	Model     string
	ConfigID  string
}

type Service struct {
	store  *apiconfigstore.Store
	sealer *secret.Sealer
	audit  *auditlog.Logger
	log    *zap.Logger
	opts   Options
	now    func() time.Time

	mu       sync.RWMutex
	active   []models.APIConfig
	loadedAt time.Time
}

func New(db *mongo.Database, sealer *secret.Sealer, audit *auditlog.Logger, logger *zap.Logger, opts Options) *Service {
	if strings.TrimSpace(opts.Endpoint) == "" {
		opts.Endpoint = DefaultEndpoint
	}
	if strings.TrimSpace(opts.DefaultModel) == "" {
		opts.DefaultModel = DefaultModel
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = DefaultCacheTTL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 45 * time.Second}
	}
	return &Service{
		store:  apiconfigstore.New(db),
		sealer: sealer,
		audit:  audit,
		log:    logger,
		opts:   opts,
		now:    time.Now,
	}
}

// ActiveConfigs returns the active credentials in the order they are tried.
// The list is cached for the configured TTL; callers must not modify it.
func (s *Service) ActiveConfigs(ctx context.Context) ([]models.APIConfig, error) {
	s.mu.RLock()
	if s.active != nil && s.now().Sub(s.loadedAt) < s.opts.CacheTTL {
		out := s.active
		s.mu.RUnlock()
		return out, nil
	}
	s.mu.RUnlock()

	list, err := s.store.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.active = list
	s.loadedAt = s.now()
	s.mu.Unlock()
	return list, nil
}

// Invalidate drops the cached config list.
func (s *Service) Invalidate() {
	s.mu.Lock()
	s.active = nil
	s.mu.Unlock()
}

// Summarize asks each active credential in turn. It never returns an error:
// when nothing answers, the result carries the placeholder text.
func (s *Service) Summarize(ctx context.Context, prompt string) Result {
	unavailable := Result{Text: Placeholder}
	if strings.TrimSpace(prompt) == "" {
		return unavailable
	}
	configs, err := s.ActiveConfigs(ctx)
	if err != nil {
		s.log.Warn("load ai configs failed", zap.Error(err))
		return unavailable
	}

	failed := false
	for _, c := range configs {
		if ctx.Err() != nil {
			break
		}
		model := c.Model
		if model == "" {
			model = s.opts.DefaultModel
		}
		text, err := s.try(ctx, c, model, prompt)
		if err != nil {
			failed = true
			s.log.Warn("ai completion failed",
				zap.String("config", c.Name),
				zap.String("model", model),
				zap.Error(err))
			if rerr := s.store.RecordFailure(context.WithoutCancel(ctx), c.ID, err.Error()); rerr != nil {
				s.log.Warn("record ai failure", zap.Error(rerr))
			}
			continue
		}
		if err := s.store.RecordSuccess(ctx, c.ID, s.now().UTC()); err != nil {
			s.log.Warn("record ai success", zap.Error(err))
		}
		if failed {
			s.Invalidate()
		}
		return Result{Text: text, Available: true, Model: model, ConfigID: c.ID.Hex()}
	}
	if failed {
		s.Invalidate()
	}
	return unavailable
}

func (s *Service) try(ctx context.Context, c models.APIConfig, model, prompt string) (string, error) {
	key, err := s.sealer.Open(c.SealedKey)
	if err != nil {
		return "", err
	}
	return complete(ctx, s.opts.HTTPClient, s.opts.Endpoint, key, model, prompt)
}
