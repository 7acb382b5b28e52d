package docsystem

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"inkfold/internal/config"
	models "inkfold/internal/domain/models/docsystem"
	docsysRepo "inkfold/internal/domain/repositories/docsystem"
	docsysSvc "inkfold/internal/domain/services/docsystem"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

type documentService struct {
	docRepo   docsysRepo.DocumentRepository
	validator *ResourceValidator
	logger    *slog.Logger
}

// NewDocumentService creates a new document service
func NewDocumentService(
	docRepo docsysRepo.DocumentRepository,
	validator *ResourceValidator,
	logger *slog.Logger,
) docsysSvc.DocumentService {
	return &documentService{
		docRepo:   docRepo,
		validator: validator,
		logger:    logger,
	}
}

// CreateDocument creates a new document
func (s *documentService) CreateDocument(ctx context.Context, req *docsysSvc.CreateDocumentRequest) (*models.Document, error) {
	if req.ID != nil && *req.ID == "" {
		req.ID = nil
	}
	req.Title = strings.TrimSpace(req.Title)

	if err := s.validateCreateRequest(req); err != nil {
		return nil, validationError(err)
	}

	if err := s.validator.ValidateFolder(ctx, req.FolderID, req.UserID); err != nil {
		return nil, err
	}

	now := time.Now()
	doc := &models.Document{
		UserID:    req.UserID,
		FolderID:  req.FolderID,
		Title:     req.Title,
		Content:   req.Content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if req.ID != nil {
		doc.ID = *req.ID
	}

	if err := s.docRepo.Create(ctx, doc); err != nil {
		return nil, err
	}

	s.logger.Info("document created",
		"id", doc.ID,
		"title", doc.Title,
		"folder_id", doc.FolderID,
	)

	return doc, nil
}

// GetDocument retrieves a document
func (s *documentService) GetDocument(ctx context.Context, id, userID string) (*models.Document, error) {
	return s.docRepo.GetByID(ctx, id, userID)
}

// ListDocuments returns a folder's documents
func (s *documentService) ListDocuments(ctx context.Context, folderID, userID string) ([]models.Document, error) {
	if err := s.validator.ValidateFolder(ctx, folderID, userID); err != nil {
		return nil, err
	}
	return s.docRepo.ListByFolder(ctx, folderID, userID)
}

// UpdateDocument writes the non-nil fields of patch. An empty patch returns
// the document unchanged.
func (s *documentService) UpdateDocument(ctx context.Context, id, userID string, patch models.DocumentPatch) (*models.Document, error) {
	if patch.IsEmpty() {
		return s.docRepo.GetByID(ctx, id, userID)
	}

	if err := validation.ValidateStruct(&patch,
		validation.Field(&patch.Title, validation.RuneLength(0, config.MaxDocumentTitleLength)),
	); err != nil {
		return nil, validationError(err)
	}

	doc, err := s.docRepo.Update(ctx, id, userID, patch)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("document updated",
		"id", id,
		"title_changed", patch.Title != nil,
		"content_changed", patch.Content != nil,
	)

	return doc, nil
}

// DeleteDocument deletes a document
func (s *documentService) DeleteDocument(ctx context.Context, id, userID string) error {
	if err := s.docRepo.Delete(ctx, id, userID); err != nil {
		return err
	}

	s.logger.Info("document deleted",
		"id", id,
		"user_id", userID,
	)

	return nil
}

// SearchDocuments matches titles case-insensitively
func (s *documentService) SearchDocuments(ctx context.Context, userID string, opts *models.SearchOptions) ([]models.Document, error) {
	opts.ApplyDefaults()
	if err := opts.Validate(); err != nil {
		return nil, validationError(err)
	}
	if len(opts.Query) > config.MaxSearchQueryLength {
		return nil, validationError(validation.NewError("query_too_long", "search query is too long"))
	}

	return s.docRepo.Search(ctx, userID, opts)
}

func (s *documentService) validateCreateRequest(req *docsysSvc.CreateDocumentRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.UserID, validation.Required),
		validation.Field(&req.ID, is.UUID),
		validation.Field(&req.FolderID, validation.Required, is.UUID),
		validation.Field(&req.Title,
			validation.Required,
			validation.RuneLength(1, config.MaxDocumentTitleLength),
		),
	)
}
