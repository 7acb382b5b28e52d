package docsystem

import (
	"context"

	models "inkfold/internal/domain/models/docsystem"
)

// FolderRepository defines data access for folders
type FolderRepository interface {
	// Create inserts a folder. A non-empty folder.ID is used as the primary key.
	Create(ctx context.Context, folder *models.Folder) error

	// GetByID retrieves a folder owned by userID
	GetByID(ctx context.Context, id, userID string) (*models.Folder, error)

	// GetByIDOnly retrieves a folder without owner scoping (ingestion API)
	GetByIDOnly(ctx context.Context, id string) (*models.Folder, error)

	// ListByUser returns all of a user's folders ordered by name
	ListByUser(ctx context.Context, userID string) ([]models.Folder, error)

	// ListAll returns every folder ordered by name (ingestion API)
	ListAll(ctx context.Context) ([]models.Folder, error)

	// Delete removes a folder; subfolders and documents cascade
	Delete(ctx context.Context, id, userID string) error

	// Ping runs a trivial query against the folders table
	Ping(ctx context.Context) error
}
