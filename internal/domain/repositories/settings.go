package repositories

import (
	"context"

	"github.com/google/uuid"
	"inkfold/internal/domain/models"
)

// SettingsRepository stores per-user settings and organization-wide
// shared settings.
type SettingsRepository interface {
	// GetByUserID returns nil, nil when the user has never saved settings
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.UserSettings, error)

	// Upsert creates or replaces the user's settings row
	Upsert(ctx context.Context, settings *models.UserSettings) error

	// GetShared returns nil, nil when the key has never been written
	GetShared(ctx context.Context, key string) (models.JSONMap, error)

	// UpsertShared creates or replaces a shared settings value
	UpsertShared(ctx context.Context, key string, value models.JSONMap, updatedBy string) error
}
