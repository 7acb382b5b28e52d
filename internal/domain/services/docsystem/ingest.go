package docsystem

import (
	"context"

	"inkfold/internal/domain/models/docsystem"
)

// IngestService backs the shared-secret side channel used by external
// automation. It is not scoped to a user.
type IngestService interface {
	// IngestDocument creates a document owned by the target folder's owner
	IngestDocument(ctx context.Context, req *IngestRequest) (*docsystem.Document, error)

	// ListFolders returns every folder ordered by name
	ListFolders(ctx context.Context) ([]docsystem.FolderSummary, error)

	// Ping touches the database to keep it from idling
	Ping(ctx context.Context) error
}

// IngestRequest is the body of POST /api/upload. Format names how Content
// is encoded; empty means markdown.
type IngestRequest struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	FolderID string `json:"folder_id"`
	Format   string `json:"format,omitempty"`
}
