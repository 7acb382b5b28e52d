package docsystem

import "time"

// FolderTreeNode is an immutable sidebar view of a folder and its subfolders.
type FolderTreeNode struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	ParentID  *string           `json:"parent_id"`
	CreatedAt time.Time         `json:"created_at"`
	Depth     int               `json:"depth"` // 0 for roots
	Children  []*FolderTreeNode `json:"children"`
}

// Walk visits nodes depth-first in display order. Returning false from fn
// skips the node's children.
func Walk(nodes []*FolderTreeNode, fn func(*FolderTreeNode) bool) {
	for _, node := range nodes {
		if fn(node) {
			Walk(node.Children, fn)
		}
	}
}

// Count returns the number of nodes in the forest.
func Count(nodes []*FolderTreeNode) int {
	n := 0
	Walk(nodes, func(*FolderTreeNode) bool {
		n++
		return true
	})
	return n
}
