package services

import (
	"context"

	"github.com/google/uuid"
	"inkfold/internal/domain/models"
)

// SettingsService manages per-user settings and the organization-wide
// shared AI settings
type SettingsService interface {
	// GetSettings returns the user's settings, or empty defaults
	GetSettings(ctx context.Context, userID uuid.UUID) (*models.UserSettings, error)

	// UpdateSettings replaces the namespaces present in req
	UpdateSettings(ctx context.Context, userID uuid.UUID, req *models.UpdateSettingsRequest) (*models.UserSettings, error)

	// GetSharedAI returns the shared AI settings with keys intact.
	// Handlers redact them for non-admins.
	GetSharedAI(ctx context.Context) (*models.AISettings, error)

	// UpdateSharedAI replaces the shared AI settings
	UpdateSharedAI(ctx context.Context, updatedBy string, ai *models.AISettings) (*models.AISettings, error)

	// ResolveAI finds a model config and prompt template by id, looking in
	// the user's own settings first and the shared settings second
	ResolveAI(ctx context.Context, userID, configID, promptID string) (*models.AIModelConfig, *models.AIPromptTemplate, error)
}
