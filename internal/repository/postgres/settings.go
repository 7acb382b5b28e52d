package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"inkfold/internal/domain/models"
	"inkfold/internal/domain/repositories"
)

// PostgresSettingsRepository implements repositories.SettingsRepository
type PostgresSettingsRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewSettingsRepository creates a new PostgresSettingsRepository
func NewSettingsRepository(config *RepositoryConfig) repositories.SettingsRepository {
	return &PostgresSettingsRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// GetByUserID retrieves settings for a specific user
func (r *PostgresSettingsRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.UserSettings, error) {
	query := fmt.Sprintf(`
		SELECT user_id, settings, created_at, updated_at
		FROM %s
		WHERE user_id = $1
	`, r.tables.UserSettings)

	var settings models.UserSettings
	err := GetExecutor(ctx, r.pool).QueryRow(ctx, query, userID).Scan(
		&settings.UserID,
		&settings.Settings,
		&settings.CreatedAt,
		&settings.UpdatedAt,
	)
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user settings: %w", err)
	}

	return &settings, nil
}

// Upsert creates or updates user settings
func (r *PostgresSettingsRepository) Upsert(ctx context.Context, settings *models.UserSettings) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (user_id, settings, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE SET
			settings = EXCLUDED.settings,
			updated_at = EXCLUDED.updated_at
		RETURNING user_id, settings, created_at, updated_at
	`, r.tables.UserSettings)

	err := GetExecutor(ctx, r.pool).QueryRow(ctx, query,
		settings.UserID,
		settings.Settings,
		settings.CreatedAt,
		settings.UpdatedAt,
	).Scan(
		&settings.UserID,
		&settings.Settings,
		&settings.CreatedAt,
		&settings.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert user settings: %w", err)
	}

	return nil
}

// GetShared retrieves an organization-wide settings value
func (r *PostgresSettingsRepository) GetShared(ctx context.Context, key string) (models.JSONMap, error) {
	query := fmt.Sprintf(`SELECT value FROM %s WHERE key = $1`, r.tables.SharedSettings)

	var value models.JSONMap
	if err := GetExecutor(ctx, r.pool).QueryRow(ctx, query, key).Scan(&value); err != nil {
		if IsPgNoRowsError(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get shared settings %s: %w", key, err)
	}
	return value, nil
}

// UpsertShared creates or replaces an organization-wide settings value
func (r *PostgresSettingsRepository) UpsertShared(ctx context.Context, key string, value models.JSONMap, updatedBy string) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (key, value, updated_by, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (key) DO UPDATE SET
			value = EXCLUDED.value,
			updated_by = EXCLUDED.updated_by,
			updated_at = EXCLUDED.updated_at
	`, r.tables.SharedSettings)

	var by *string
	if updatedBy != "" {
		by = &updatedBy
	}
	if _, err := GetExecutor(ctx, r.pool).Exec(ctx, query, key, value, by, time.Now()); err != nil {
		return fmt.Errorf("upsert shared settings %s: %w", key, err)
	}

	r.logger.Info("shared settings updated", "key", key, "updated_by", updatedBy)
	return nil
}
