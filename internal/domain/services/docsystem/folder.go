package docsystem

import (
	"context"

	"inkfold/internal/domain/models/docsystem"
)

// FolderService handles folder business logic
type FolderService interface {
	// CreateFolder creates a new folder, at the root when ParentID is nil
	CreateFolder(ctx context.Context, req *CreateFolderRequest) (*docsystem.Folder, error)

	// GetFolder retrieves a folder owned by userID
	GetFolder(ctx context.Context, id, userID string) (*docsystem.Folder, error)

	// ListFolders returns the user's folders ordered by name
	ListFolders(ctx context.Context, userID string) ([]docsystem.Folder, error)

	// DeleteFolder deletes a folder together with its subfolders and documents
	DeleteFolder(ctx context.Context, id, userID string) error
}

// CreateFolderRequest represents a folder creation request
type CreateFolderRequest struct {
	ID       *string `json:"id,omitempty"` // client-generated UUID
	UserID   string  `json:"-"`
	Name     string  `json:"name"`
	ParentID *string `json:"parent_id,omitempty"` // null for root
}
