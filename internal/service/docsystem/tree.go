package docsystem

import (
	"context"
	"log/slog"

	models "inkfold/internal/domain/models/docsystem"
	docsysRepo "inkfold/internal/domain/repositories/docsystem"
	docsysSvc "inkfold/internal/domain/services/docsystem"
)

// BuildFolderForest nests a flat folder list into a forest.
//
// Roots are folders without a parent or whose parent is not in the input.
// Children and roots keep input order. Folders on a parent cycle are never
// reachable from a root and are left out. Repeated ids keep the first
// occurrence. The input is not modified.
func BuildFolderForest(folders []models.Folder) []*models.FolderTreeNode {
	// First pass: one node per distinct id
	nodes := make(map[string]*models.FolderTreeNode, len(folders))
	ordered := make([]*models.FolderTreeNode, 0, len(folders))
	for _, folder := range folders {
		if _, dup := nodes[folder.ID]; dup {
			continue
		}
		node := &models.FolderTreeNode{
			ID:        folder.ID,
			Name:      folder.Name,
			ParentID:  folder.ParentID,
			CreatedAt: folder.CreatedAt,
			Children:  []*models.FolderTreeNode{},
		}
		nodes[folder.ID] = node
		ordered = append(ordered, node)
	}

	// Second pass: attach children, collect roots
	roots := make([]*models.FolderTreeNode, 0)
	for _, node := range ordered {
		if node.ParentID == nil {
			roots = append(roots, node)
			continue
		}
		parent, ok := nodes[*node.ParentID]
		if !ok {
			roots = append(roots, node)
			continue
		}
		parent.Children = append(parent.Children, node)
	}

	// Third pass: depth from the roots. Cycle members are never visited.
	models.Walk(roots, func(node *models.FolderTreeNode) bool {
		for _, child := range node.Children {
			child.Depth = node.Depth + 1
		}
		return true
	})

	return roots
}

// treeService implements the TreeService interface
type treeService struct {
	folderRepo docsysRepo.FolderRepository
	logger     *slog.Logger
}

// NewTreeService creates a new tree service
func NewTreeService(folderRepo docsysRepo.FolderRepository, logger *slog.Logger) docsysSvc.TreeService {
	return &treeService{
		folderRepo: folderRepo,
		logger:     logger,
	}
}

// GetFolderTree builds the user's folder forest, siblings ordered by name
func (s *treeService) GetFolderTree(ctx context.Context, userID string) ([]*models.FolderTreeNode, error) {
	folders, err := s.folderRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	forest := BuildFolderForest(folders)

	s.logger.Debug("folder tree built",
		"user_id", userID,
		"folder_count", len(folders),
		"visible_count", models.Count(forest),
	)

	return forest, nil
}
