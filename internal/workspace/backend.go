package workspace

import (
	"context"

	"inkfold/internal/domain/models"
	"inkfold/internal/domain/models/docsystem"
)

// FolderBackend persists the signed-in user's folders
type FolderBackend interface {
	ListFolders(ctx context.Context) ([]docsystem.Folder, error)
	CreateFolder(ctx context.Context, folder docsystem.Folder) (*docsystem.Folder, error)
	DeleteFolder(ctx context.Context, id string) error
}

// DocumentBackend persists the signed-in user's documents
type DocumentBackend interface {
	ListDocuments(ctx context.Context, folderID string) ([]docsystem.Document, error)
	GetDocument(ctx context.Context, id string) (*docsystem.Document, error)
	CreateDocument(ctx context.Context, doc docsystem.Document) (*docsystem.Document, error)
	UpdateDocument(ctx context.Context, id string, patch docsystem.DocumentPatch) (*docsystem.Document, error)
	DeleteDocument(ctx context.Context, id string) error

	// SearchDocuments matches titles. A nil folderID searches every folder.
	SearchDocuments(ctx context.Context, query string, folderID *string) ([]docsystem.Document, error)
}

// Transformer runs one document through a model, producing a new document
type Transformer interface {
	Transform(ctx context.Context, req models.TransformRequest) (*docsystem.Document, error)
}

// Backends are the collaborators a workspace is bound to. Every call acts
// on behalf of one user.
type Backends struct {
	Folders     FolderBackend
	Documents   DocumentBackend
	Transformer Transformer
}
