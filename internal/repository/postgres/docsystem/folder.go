package docsystem

import (
	"context"
	"fmt"
	"log/slog"

	"inkfold/internal/domain"
	models "inkfold/internal/domain/models/docsystem"
	docsysRepo "inkfold/internal/domain/repositories/docsystem"
	"inkfold/internal/repository/postgres"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresFolderRepository implements the FolderRepository interface
type PostgresFolderRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewFolderRepository creates a new folder repository
func NewFolderRepository(config *postgres.RepositoryConfig) docsysRepo.FolderRepository {
	return &PostgresFolderRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// nullableID turns an empty id into NULL so the column default applies
func nullableID(id string) *string {
	if id == "" {
		return nil
	}
	return &id
}

// Create creates a new folder
func (r *PostgresFolderRepository) Create(ctx context.Context, folder *models.Folder) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, user_id, parent_id, name, created_at)
		VALUES (COALESCE($1::uuid, gen_random_uuid()), $2, $3, $4, $5)
		RETURNING id, created_at
	`, r.tables.Folders)

	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		nullableID(folder.ID),
		folder.UserID,
		folder.ParentID,
		folder.Name,
		folder.CreatedAt,
	).Scan(&folder.ID, &folder.CreatedAt)

	if err != nil {
		switch {
		case postgres.IsPgDuplicateError(err):
			return &domain.ConflictError{
				Message:      fmt.Sprintf("folder %s already exists", folder.ID),
				ResourceType: "folder",
				ResourceID:   folder.ID,
			}
		case postgres.IsPgForeignKeyError(err):
			return fmt.Errorf("parent %v: %w", derefOr(folder.ParentID, ""), domain.ErrFolderNotFound)
		}
		return fmt.Errorf("create folder: %w", err)
	}

	return nil
}

// GetByID retrieves a folder owned by userID
func (r *PostgresFolderRepository) GetByID(ctx context.Context, id, userID string) (*models.Folder, error) {
	query := fmt.Sprintf(`
		SELECT id, user_id, parent_id, name, created_at
		FROM %s
		WHERE id = $1 AND user_id = $2
	`, r.tables.Folders)

	return r.scanOne(ctx, id, query, id, userID)
}

// GetByIDOnly retrieves a folder by id without owner scoping. Inside a
// transaction the row stays locked against deletion until commit.
func (r *PostgresFolderRepository) GetByIDOnly(ctx context.Context, id string) (*models.Folder, error) {
	query := fmt.Sprintf(`
		SELECT id, user_id, parent_id, name, created_at
		FROM %s
		WHERE id = $1
		FOR SHARE
	`, r.tables.Folders)

	return r.scanOne(ctx, id, query, id)
}

func (r *PostgresFolderRepository) scanOne(ctx context.Context, id, query string, args ...interface{}) (*models.Folder, error) {
	var folder models.Folder
	err := postgres.GetExecutor(ctx, r.pool).QueryRow(ctx, query, args...).Scan(
		&folder.ID,
		&folder.UserID,
		&folder.ParentID,
		&folder.Name,
		&folder.CreatedAt,
	)
	if err != nil {
		if postgres.IsPgNoRowsError(err) || postgres.IsPgInvalidInputError(err) {
			return nil, fmt.Errorf("folder %s: %w", id, domain.ErrFolderNotFound)
		}
		return nil, fmt.Errorf("get folder: %w", err)
	}
	return &folder, nil
}

// ListByUser returns all of a user's folders ordered by name
func (r *PostgresFolderRepository) ListByUser(ctx context.Context, userID string) ([]models.Folder, error) {
	query := fmt.Sprintf(`
		SELECT id, user_id, parent_id, name, created_at
		FROM %s
		WHERE user_id = $1
		ORDER BY name ASC, created_at ASC
	`, r.tables.Folders)

	rows, err := postgres.GetExecutor(ctx, r.pool).Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list folders: %w", err)
	}
	return collectFolders(rows)
}

// ListAll returns every folder ordered by name
func (r *PostgresFolderRepository) ListAll(ctx context.Context) ([]models.Folder, error) {
	query := fmt.Sprintf(`
		SELECT id, user_id, parent_id, name, created_at
		FROM %s
		ORDER BY name ASC, created_at ASC
	`, r.tables.Folders)

	rows, err := postgres.GetExecutor(ctx, r.pool).Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list all folders: %w", err)
	}
	return collectFolders(rows)
}

func collectFolders(rows pgx.Rows) ([]models.Folder, error) {
	defer rows.Close()

	folders := []models.Folder{}
	for rows.Next() {
		var folder models.Folder
		if err := rows.Scan(
			&folder.ID,
			&folder.UserID,
			&folder.ParentID,
			&folder.Name,
			&folder.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan folder: %w", err)
		}
		folders = append(folders, folder)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate folders: %w", err)
	}
	return folders, nil
}

// Delete removes a folder. Subfolders and their documents cascade.
func (r *PostgresFolderRepository) Delete(ctx context.Context, id, userID string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1 AND user_id = $2`, r.tables.Folders)

	result, err := postgres.GetExecutor(ctx, r.pool).Exec(ctx, query, id, userID)
	if err != nil {
		if postgres.IsPgInvalidInputError(err) {
			return fmt.Errorf("folder %s: %w", id, domain.ErrFolderNotFound)
		}
		return fmt.Errorf("delete folder: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("folder %s: %w", id, domain.ErrFolderNotFound)
	}

	return nil
}

// Ping runs a trivial query against the folders table
func (r *PostgresFolderRepository) Ping(ctx context.Context) error {
	query := fmt.Sprintf(`SELECT id FROM %s LIMIT 1`, r.tables.Folders)
	rows, err := postgres.GetExecutor(ctx, r.pool).Query(ctx, query)
	if err != nil {
		return fmt.Errorf("ping folders: %w", err)
	}
	rows.Close()
	return rows.Err()
}

func derefOr(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	return *s
}
