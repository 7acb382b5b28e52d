package docsystem

import (
	"context"

	"inkfold/internal/domain/models/docsystem"
)

// DocumentService handles document business logic
type DocumentService interface {
	// CreateDocument creates a new document in an existing folder
	CreateDocument(ctx context.Context, req *CreateDocumentRequest) (*docsystem.Document, error)

	// GetDocument retrieves a document owned by userID
	GetDocument(ctx context.Context, id, userID string) (*docsystem.Document, error)

	// ListDocuments returns a folder's documents, most recently updated first
	ListDocuments(ctx context.Context, folderID, userID string) ([]docsystem.Document, error)

	// UpdateDocument writes the non-nil fields of patch
	UpdateDocument(ctx context.Context, id, userID string, patch docsystem.DocumentPatch) (*docsystem.Document, error)

	// DeleteDocument deletes a document
	DeleteDocument(ctx context.Context, id, userID string) error

	// SearchDocuments matches titles, optionally within one folder
	SearchDocuments(ctx context.Context, userID string, opts *docsystem.SearchOptions) ([]docsystem.Document, error)
}

// CreateDocumentRequest represents a document creation request
type CreateDocumentRequest struct {
	ID       *string `json:"id,omitempty"` // client-generated UUID
	UserID   string  `json:"-"`
	FolderID string  `json:"folder_id"`
	Title    string  `json:"title"`
	Content  string  `json:"content"`
}
