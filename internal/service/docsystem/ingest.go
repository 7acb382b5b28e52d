package docsystem

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"inkfold/internal/config"
	models "inkfold/internal/domain/models/docsystem"
	"inkfold/internal/domain/repositories"
	docsysRepo "inkfold/internal/domain/repositories/docsystem"
	docsysSvc "inkfold/internal/domain/services/docsystem"
	"inkfold/internal/service/docsystem/converter"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

type ingestService struct {
	folderRepo docsysRepo.FolderRepository
	docRepo    docsysRepo.DocumentRepository
	txManager  repositories.TransactionManager
	converters *converter.Registry
	logger     *slog.Logger
}

// NewIngestService creates the service behind the shared-secret endpoints
func NewIngestService(
	folderRepo docsysRepo.FolderRepository,
	docRepo docsysRepo.DocumentRepository,
	txManager repositories.TransactionManager,
	converters *converter.Registry,
	logger *slog.Logger,
) docsysSvc.IngestService {
	return &ingestService{
		folderRepo: folderRepo,
		docRepo:    docRepo,
		txManager:  txManager,
		converters: converters,
		logger:     logger,
	}
}

// IngestDocument creates a document in the given folder. The new document
// belongs to the folder's owner.
func (s *ingestService) IngestDocument(ctx context.Context, req *docsysSvc.IngestRequest) (*models.Document, error) {
	req.Title = strings.TrimSpace(req.Title)
	req.FolderID = strings.TrimSpace(req.FolderID)

	if err := validation.ValidateStruct(req,
		validation.Field(&req.Title, validation.Required, validation.RuneLength(1, config.MaxDocumentTitleLength)),
		validation.Field(&req.FolderID, validation.Required),
	); err != nil {
		return nil, validationError(err)
	}

	content, err := s.converters.Convert(ctx, req.Format, req.Content)
	if err != nil {
		return nil, err
	}

	// Owner lookup and insert share a transaction
	var doc *models.Document
	err = s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		folder, err := s.folderRepo.GetByIDOnly(txCtx, req.FolderID)
		if err != nil {
			return err
		}

		now := time.Now()
		doc = &models.Document{
			UserID:    folder.UserID,
			FolderID:  folder.ID,
			Title:     req.Title,
			Content:   content,
			CreatedAt: now,
			UpdatedAt: now,
		}
		return s.docRepo.Create(txCtx, doc)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("document ingested",
		"id", doc.ID,
		"folder_id", doc.FolderID,
		"owner", doc.UserID,
		"format", req.Format,
	)

	return doc, nil
}

// ListFolders returns every folder as an id/name/parent summary
func (s *ingestService) ListFolders(ctx context.Context) ([]models.FolderSummary, error) {
	folders, err := s.folderRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	summaries := make([]models.FolderSummary, len(folders))
	for i, f := range folders {
		summaries[i] = models.FolderSummary{ID: f.ID, Name: f.Name, ParentID: f.ParentID}
	}
	return summaries, nil
}

// Ping touches the folders table
func (s *ingestService) Ping(ctx context.Context) error {
	return s.folderRepo.Ping(ctx)
}
