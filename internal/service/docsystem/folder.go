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

type folderService struct {
	folderRepo docsysRepo.FolderRepository
	validator  *ResourceValidator
	logger     *slog.Logger
}

// NewFolderService creates a new folder service
func NewFolderService(
	folderRepo docsysRepo.FolderRepository,
	validator *ResourceValidator,
	logger *slog.Logger,
) docsysSvc.FolderService {
	return &folderService{
		folderRepo: folderRepo,
		validator:  validator,
		logger:     logger,
	}
}

// CreateFolder creates a new folder
func (s *folderService) CreateFolder(ctx context.Context, req *docsysSvc.CreateFolderRequest) (*models.Folder, error) {
	// Normalize empty strings to nil
	if req.ParentID != nil && *req.ParentID == "" {
		req.ParentID = nil
	}
	if req.ID != nil && *req.ID == "" {
		req.ID = nil
	}
	req.Name = strings.TrimSpace(req.Name)

	if err := s.validateCreateRequest(req); err != nil {
		return nil, validationError(err)
	}

	if req.ParentID != nil {
		if err := s.validator.ValidateFolder(ctx, *req.ParentID, req.UserID); err != nil {
			return nil, err
		}
	}

	folder := &models.Folder{
		UserID:    req.UserID,
		ParentID:  req.ParentID,
		Name:      req.Name,
		CreatedAt: time.Now(),
	}
	if req.ID != nil {
		folder.ID = *req.ID
	}

	if err := s.folderRepo.Create(ctx, folder); err != nil {
		return nil, err
	}

	s.logger.Info("folder created",
		"id", folder.ID,
		"name", folder.Name,
		"parent_id", folder.ParentID,
		"user_id", folder.UserID,
	)

	return folder, nil
}

// GetFolder retrieves a folder
func (s *folderService) GetFolder(ctx context.Context, id, userID string) (*models.Folder, error) {
	return s.folderRepo.GetByID(ctx, id, userID)
}

// ListFolders returns every folder the user owns
func (s *folderService) ListFolders(ctx context.Context, userID string) ([]models.Folder, error) {
	return s.folderRepo.ListByUser(ctx, userID)
}

// DeleteFolder deletes a folder. The store cascades to subfolders and
// their documents.
func (s *folderService) DeleteFolder(ctx context.Context, id, userID string) error {
	if err := s.folderRepo.Delete(ctx, id, userID); err != nil {
		return err
	}

	s.logger.Info("folder deleted",
		"id", id,
		"user_id", userID,
	)

	return nil
}

func (s *folderService) validateCreateRequest(req *docsysSvc.CreateFolderRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.UserID, validation.Required),
		validation.Field(&req.ID, is.UUID),
		validation.Field(&req.Name,
			validation.Required,
			validation.RuneLength(1, config.MaxFolderNameLength),
		),
		validation.Field(&req.ParentID, is.UUID),
	)
}
