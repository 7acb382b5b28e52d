package docsystem

import (
	"time"
)

type Document struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	FolderID  string    `json:"folder_id" db:"folder_id"`
	Title     string    `json:"title" db:"title"`
	Content   string    `json:"content" db:"content"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// DocumentKey identifies a document in optimistic collections.
func DocumentKey(d Document) string { return d.ID }

// DocumentPatch is a partial update. Only non-nil fields are written.
type DocumentPatch struct {
	Title   *string `json:"title,omitempty"`
	Content *string `json:"content,omitempty"`
}

// IsEmpty reports whether the patch would change nothing.
func (p DocumentPatch) IsEmpty() bool {
	return p.Title == nil && p.Content == nil
}

// Apply returns a copy of doc with the patch applied.
func (p DocumentPatch) Apply(doc Document) Document {
	if p.Title != nil {
		doc.Title = *p.Title
	}
	if p.Content != nil {
		doc.Content = *p.Content
	}
	return doc
}
