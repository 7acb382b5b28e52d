package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"inkfold/internal/config"
	"inkfold/internal/domain"
	"inkfold/internal/domain/models"
	"inkfold/internal/domain/repositories"
	"inkfold/internal/domain/services"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// sharedAIKey is the shared_settings row holding the organization AI settings
const sharedAIKey = "ai"

// SettingsService implements services.SettingsService
type SettingsService struct {
	settingsRepo repositories.SettingsRepository
	logger       *slog.Logger
}

// NewSettingsService creates a new settings service
func NewSettingsService(
	settingsRepo repositories.SettingsRepository,
	logger *slog.Logger,
) services.SettingsService {
	return &SettingsService{
		settingsRepo: settingsRepo,
		logger:       logger,
	}
}

func defaultSettings(userID uuid.UUID) *models.UserSettings {
	now := time.Now()
	return &models.UserSettings{
		UserID: userID,
		Settings: models.JSONMap{
			models.NamespaceProfile:  map[string]interface{}{"avatar": ""},
			models.NamespaceBranding: map[string]interface{}{"site_name": "", "site_gradient": ""},
			models.NamespaceAI: map[string]interface{}{
				"configs": []interface{}{},
				"prompts": []interface{}{},
			},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// GetSettings retrieves settings for a user, or defaults when none exist
func (s *SettingsService) GetSettings(ctx context.Context, userID uuid.UUID) (*models.UserSettings, error) {
	settings, err := s.settingsRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get settings: %w", err)
	}
	if settings == nil {
		s.logger.Debug("no settings found, returning defaults", "user_id", userID)
		settings = defaultSettings(userID)
	}
	return settings, nil
}

// UpdateSettings replaces the namespaces present in req
func (s *SettingsService) UpdateSettings(ctx context.Context, userID uuid.UUID, req *models.UpdateSettingsRequest) (*models.UserSettings, error) {
	if req.AI != nil {
		normalizeAI(req.AI)
		if err := validateAI(req.AI); err != nil {
			return nil, err
		}
	}

	existing, err := s.GetSettings(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.Profile != nil {
		if err := existing.SetProfile(req.Profile); err != nil {
			return nil, fmt.Errorf("update profile namespace: %w", err)
		}
	}
	if req.Branding != nil {
		if err := existing.SetBranding(req.Branding); err != nil {
			return nil, fmt.Errorf("update branding namespace: %w", err)
		}
	}
	if req.AI != nil {
		if err := existing.SetAI(req.AI); err != nil {
			return nil, fmt.Errorf("update ai namespace: %w", err)
		}
	}

	existing.UpdatedAt = time.Now()
	if err := s.settingsRepo.Upsert(ctx, existing); err != nil {
		return nil, fmt.Errorf("upsert settings: %w", err)
	}

	s.logger.Info("user settings updated",
		"user_id", userID,
		"has_profile", req.Profile != nil,
		"has_branding", req.Branding != nil,
		"has_ai", req.AI != nil,
	)

	return existing, nil
}

// GetSharedAI returns the organization AI settings with keys intact
func (s *SettingsService) GetSharedAI(ctx context.Context) (*models.AISettings, error) {
	raw, err := s.settingsRepo.GetShared(ctx, sharedAIKey)
	if err != nil {
		return nil, err
	}
	var value interface{}
	if raw != nil {
		value = map[string]interface{}(raw)
	}
	ai, err := models.AISettingsFromMap(value)
	if err != nil {
		return nil, fmt.Errorf("decode shared ai settings: %w", err)
	}
	return ai, nil
}

// UpdateSharedAI replaces the organization AI settings
func (s *SettingsService) UpdateSharedAI(ctx context.Context, updatedBy string, ai *models.AISettings) (*models.AISettings, error) {
	normalizeAI(ai)
	if err := validateAI(ai); err != nil {
		return nil, err
	}

	value, err := models.ToJSONMap(ai)
	if err != nil {
		return nil, fmt.Errorf("encode shared ai settings: %w", err)
	}
	if err := s.settingsRepo.UpsertShared(ctx, sharedAIKey, value, updatedBy); err != nil {
		return nil, err
	}

	s.logger.Info("shared ai settings updated",
		"updated_by", updatedBy,
		"configs", len(ai.Configs),
		"prompts", len(ai.Prompts),
	)
	return ai, nil
}

// ResolveAI looks up a config and a prompt independently: the user's own
// lists win, the shared settings fill in what the user lacks
func (s *SettingsService) ResolveAI(ctx context.Context, userID, configID, promptID string) (*models.AIModelConfig, *models.AIPromptTemplate, error) {
	var own *models.AISettings
	if uid, err := uuid.Parse(userID); err == nil {
		settings, err := s.GetSettings(ctx, uid)
		if err != nil {
			return nil, nil, err
		}
		if own, err = settings.GetAI(); err != nil {
			return nil, nil, fmt.Errorf("decode ai settings: %w", err)
		}
	}

	cfg, cfgOK := own.FindConfig(configID)
	prompt, promptOK := own.FindPrompt(promptID)

	if !cfgOK || !promptOK {
		shared, err := s.GetSharedAI(ctx)
		if err != nil {
			return nil, nil, err
		}
		if !cfgOK {
			cfg, cfgOK = shared.FindConfig(configID)
		}
		if !promptOK {
			prompt, promptOK = shared.FindPrompt(promptID)
		}
	}

	if !cfgOK {
		return nil, nil, fmt.Errorf("config %s: %w", configID, domain.ErrConfigNotFound)
	}
	if !promptOK {
		return nil, nil, fmt.Errorf("prompt %s: %w", promptID, domain.ErrPromptNotFound)
	}

	cfg.ApplyDefaults()
	return cfg, prompt, nil
}

// normalizeAI trims names, assigns missing ids and applies config defaults
func normalizeAI(ai *models.AISettings) {
	if ai.Configs == nil {
		ai.Configs = []models.AIModelConfig{}
	}
	if ai.Prompts == nil {
		ai.Prompts = []models.AIPromptTemplate{}
	}
	for i := range ai.Configs {
		c := &ai.Configs[i]
		c.Name = strings.TrimSpace(c.Name)
		c.APIKey = strings.TrimSpace(c.APIKey)
		if c.ID == "" {
			c.ID = uuid.NewString()
		}
		c.ApplyDefaults()
	}
	for i := range ai.Prompts {
		p := &ai.Prompts[i]
		p.Name = strings.TrimSpace(p.Name)
		if p.ID == "" {
			p.ID = uuid.NewString()
		}
	}
}

func validateAI(ai *models.AISettings) error {
	err := validation.ValidateStruct(ai,
		validation.Field(&ai.Configs, validation.Length(0, config.MaxAIConfigs)),
		validation.Field(&ai.Prompts, validation.Length(0, config.MaxAIPrompts)),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	seen := map[string]bool{}
	for i := range ai.Configs {
		c := &ai.Configs[i]
		if err := validation.ValidateStruct(c,
			validation.Field(&c.Name, validation.Required, validation.Length(1, 100)),
			validation.Field(&c.Model, validation.Required),
			validation.Field(&c.BaseURL, validation.Required, validation.When(!strings.HasPrefix(c.BaseURL, "lorem://"), is.URL)),
		); err != nil {
			return fmt.Errorf("%w: configs[%d]: %v", domain.ErrValidation, i, err)
		}
		if seen["c:"+c.ID] {
			return fmt.Errorf("%w: duplicate config id %s", domain.ErrValidation, c.ID)
		}
		seen["c:"+c.ID] = true
	}
	for i := range ai.Prompts {
		p := &ai.Prompts[i]
		if err := validation.ValidateStruct(p,
			validation.Field(&p.Name, validation.Required, validation.Length(1, 100)),
			validation.Field(&p.Content, validation.Required),
		); err != nil {
			return fmt.Errorf("%w: prompts[%d]: %v", domain.ErrValidation, i, err)
		}
		if seen["p:"+p.ID] {
			return fmt.Errorf("%w: duplicate prompt id %s", domain.ErrValidation, p.ID)
		}
		seen["p:"+p.ID] = true
	}
	return nil
}
