package docsystem

import (
	"context"

	models "inkfold/internal/domain/models/docsystem"
)

// DocumentRepository defines data access for documents
type DocumentRepository interface {
	// Create inserts a document. A non-empty doc.ID is used as the primary key.
	Create(ctx context.Context, doc *models.Document) error

	// GetByID retrieves a document owned by userID
	GetByID(ctx context.Context, id, userID string) (*models.Document, error)

	// ListByFolder returns a folder's documents, most recently updated first
	ListByFolder(ctx context.Context, folderID, userID string) ([]models.Document, error)

	// Update applies a partial update and bumps updated_at
	Update(ctx context.Context, id, userID string, patch models.DocumentPatch) (*models.Document, error)

	// Delete removes a document
	Delete(ctx context.Context, id, userID string) error

	// Search matches titles case-insensitively, most recently updated first
	Search(ctx context.Context, userID string, opts *models.SearchOptions) ([]models.Document, error)
}
