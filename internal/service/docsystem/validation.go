package docsystem

import (
	"context"
	"fmt"

	"inkfold/internal/domain"
	docsysRepo "inkfold/internal/domain/repositories/docsystem"
)

// ResourceValidator checks that parent resources exist before operations
// on their children
type ResourceValidator struct {
	folderRepo docsysRepo.FolderRepository
}

// NewResourceValidator creates a new resource validator
func NewResourceValidator(folderRepo docsysRepo.FolderRepository) *ResourceValidator {
	return &ResourceValidator{folderRepo: folderRepo}
}

// ValidateFolder ensures a folder exists and belongs to userID.
// Returns domain.ErrFolderNotFound otherwise.
func (v *ResourceValidator) ValidateFolder(ctx context.Context, folderID, userID string) error {
	if _, err := v.folderRepo.GetByID(ctx, folderID, userID); err != nil {
		return fmt.Errorf("invalid folder: %w", err)
	}
	return nil
}

// validationError wraps an ozzo-validation result into domain.ErrValidation
func validationError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", domain.ErrValidation, err)
}
