package docsystem

import (
	"context"

	"inkfold/internal/domain/models/docsystem"
)

// TreeService builds the sidebar folder forest
type TreeService interface {
	GetFolderTree(ctx context.Context, userID string) ([]*docsystem.FolderTreeNode, error)
}
