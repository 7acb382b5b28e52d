package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"inkfold/internal/domain"
	docsysSvc "inkfold/internal/domain/services/docsystem"
	"inkfold/internal/repository/postgres"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Folder is one sample folder; Parent names another entry by Path
type Folder struct {
	Path   string
	Name   string
	Parent string
}

// Document is one sample document placed in the folder at Path
type Document struct {
	Folder  string
	Title   string
	Content string
}

// seedNamespace derives stable ids so reseeding the same user is idempotent
var seedNamespace = uuid.MustParse("6f1c9a52-3c1e-4a8e-9d43-0c1f7e5b2a10")

// SampleFolders is the folder tree created for a fresh account. Parents come
// before children.
var SampleFolders = []Folder{
	{Path: "inbox", Name: "Inbox"},
	{Path: "notes", Name: "Notes"},
	{Path: "notes/meetings", Name: "Meetings", Parent: "notes"},
	{Path: "notes/ideas", Name: "Ideas", Parent: "notes"},
	{Path: "drafts", Name: "Drafts"},
}

var SampleDocuments = []Document{
	{
		Folder:  "inbox",
		Title:   "Welcome to inkfold",
		Content: "Folders live in the sidebar. Open one to see its documents, then open a document to edit it. Changes save on their own a moment after you stop typing.",
	},
	{
		Folder:  "notes/meetings",
		Title:   "Weekly sync",
		Content: "Attendees: the team.\n\n- Review last week's action items\n- Plan the release\n- Open questions",
	},
	{
		Folder:  "notes/ideas",
		Title:   "Batch transforms",
		Content: "Select several documents in a folder and run one prompt over all of them. Each result is saved as a new document next to its source.",
	},
	{
		Folder:  "drafts",
		Title:   "Release announcement",
		Content: "We are happy to announce the new release. It brings faster search and a shared AI configuration for the whole team.",
	},
}

// Seeder creates sample data through the service layer
type Seeder struct {
	folders   docsysSvc.FolderService
	documents docsysSvc.DocumentService
	logger    *slog.Logger
}

func NewSeeder(folders docsysSvc.FolderService, documents docsysSvc.DocumentService, logger *slog.Logger) *Seeder {
	return &Seeder{folders: folders, documents: documents, logger: logger}
}

// Stats counts what a run created and what already existed
type Stats struct {
	Created  int
	Existing int
}

// SeedWorkspace creates the sample folders and documents for userID.
// Entries that already exist are left untouched.
func (s *Seeder) SeedWorkspace(ctx context.Context, userID string) (Stats, error) {
	var stats Stats
	folderIDs := make(map[string]string, len(SampleFolders))

	for _, f := range SampleFolders {
		id := stableID(userID, "folder:"+f.Path)
		req := &docsysSvc.CreateFolderRequest{ID: &id, UserID: userID, Name: f.Name}
		if f.Parent != "" {
			parentID, ok := folderIDs[f.Parent]
			if !ok {
				return stats, fmt.Errorf("folder %s: parent %s is not seeded first", f.Path, f.Parent)
			}
			req.ParentID = &parentID
		}

		_, err := s.folders.CreateFolder(ctx, req)
		if err := s.count(&stats, err); err != nil {
			return stats, fmt.Errorf("folder %s: %w", f.Path, err)
		}
		folderIDs[f.Path] = id
	}

	for _, d := range SampleDocuments {
		folderID, ok := folderIDs[d.Folder]
		if !ok {
			return stats, fmt.Errorf("document %q: unknown folder %s", d.Title, d.Folder)
		}
		id := stableID(userID, "document:"+d.Folder+"/"+d.Title)
		_, err := s.documents.CreateDocument(ctx, &docsysSvc.CreateDocumentRequest{
			ID:       &id,
			UserID:   userID,
			FolderID: folderID,
			Title:    d.Title,
			Content:  d.Content,
		})
		if err := s.count(&stats, err); err != nil {
			return stats, fmt.Errorf("document %q: %w", d.Title, err)
		}
	}

	s.logger.Info("workspace seeded",
		"user_id", userID,
		"created", stats.Created,
		"existing", stats.Existing,
	)
	return stats, nil
}

func (s *Seeder) count(stats *Stats, err error) error {
	switch {
	case err == nil:
		stats.Created++
	case errors.Is(err, domain.ErrConflict):
		stats.Existing++
	default:
		return err
	}
	return nil
}

func stableID(userID, key string) string {
	return uuid.NewSHA1(seedNamespace, []byte(userID+"/"+key)).String()
}

// ClearUserData removes every folder of userID. Documents cascade.
func ClearUserData(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames, userID string) (int64, error) {
	tag, err := pool.Exec(ctx, `DELETE FROM `+tables.Folders+` WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("clear folders: %w", err)
	}
	return tag.RowsAffected(), nil
}
