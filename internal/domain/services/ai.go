package services

import (
	"context"

	"inkfold/internal/domain/models"
	"inkfold/internal/domain/models/docsystem"
)

// ModelInvoker sends one system+user prompt pair to a model endpoint and
// returns the completion text. Failures are *domain.ModelError.
type ModelInvoker interface {
	Invoke(ctx context.Context, inv models.Invocation) (string, error)
}

// Transformer runs a document through a model and stores the output as a
// new document next to the source
type Transformer interface {
	Transform(ctx context.Context, userID string, req models.TransformRequest) (*docsystem.Document, error)
}

// BatchRunner submits batch transforms and reports their status
type BatchRunner interface {
	// Submit starts a batch. Inline runners return a completed status.
	Submit(ctx context.Context, userID string, req models.BatchRequest) (*models.BatchStatus, error)

	// Status reports a submitted batch owned by userID
	Status(ctx context.Context, userID, batchID string) (*models.BatchStatus, error)
}
