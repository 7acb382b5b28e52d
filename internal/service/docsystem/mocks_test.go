package docsystem

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"inkfold/internal/domain"
	models "inkfold/internal/domain/models/docsystem"
	"inkfold/internal/domain/repositories"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memFolderRepo is an in-memory FolderRepository
type memFolderRepo struct {
	mu      sync.Mutex
	folders []models.Folder
	pingErr error
}

func (r *memFolderRepo) Create(ctx context.Context, folder *models.Folder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if folder.ID == "" {
		folder.ID = uuid.NewString()
	}
	for _, f := range r.folders {
		if f.ID == folder.ID {
			return &domain.ConflictError{Message: "exists", ResourceType: "folder", ResourceID: f.ID}
		}
	}
	r.folders = append(r.folders, *folder)
	return nil
}

func (r *memFolderRepo) GetByID(ctx context.Context, id, userID string) (*models.Folder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, f := range r.folders {
		if f.ID == id && f.UserID == userID {
			f := f
			return &f, nil
		}
	}
	return nil, fmt.Errorf("folder %s: %w", id, domain.ErrFolderNotFound)
}

func (r *memFolderRepo) GetByIDOnly(ctx context.Context, id string) (*models.Folder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, f := range r.folders {
		if f.ID == id {
			f := f
			return &f, nil
		}
	}
	return nil, fmt.Errorf("folder %s: %w", id, domain.ErrFolderNotFound)
}

func (r *memFolderRepo) ListByUser(ctx context.Context, userID string) ([]models.Folder, error) {
	all, _ := r.ListAll(ctx)
	out := []models.Folder{}
	for _, f := range all {
		if f.UserID == userID {
			out = append(out, f)
		}
	}
	return out, nil
}

func (r *memFolderRepo) ListAll(ctx context.Context) ([]models.Folder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := append([]models.Folder{}, r.folders...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *memFolderRepo) Delete(ctx context.Context, id, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, f := range r.folders {
		if f.ID == id && f.UserID == userID {
			r.folders = append(r.folders[:i], r.folders[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("folder %s: %w", id, domain.ErrFolderNotFound)
}

func (r *memFolderRepo) Ping(ctx context.Context) error {
	return r.pingErr
}

// memDocumentRepo is an in-memory DocumentRepository
type memDocumentRepo struct {
	mu      sync.Mutex
	docs    []models.Document
	updates []models.DocumentPatch
	lastOpt *models.SearchOptions
}

func (r *memDocumentRepo) Create(ctx context.Context, doc *models.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	r.docs = append(r.docs, *doc)
	return nil
}

func (r *memDocumentRepo) GetByID(ctx context.Context, id, userID string) (*models.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.docs {
		if d.ID == id && d.UserID == userID {
			d := d
			return &d, nil
		}
	}
	return nil, fmt.Errorf("document %s: %w", id, domain.ErrDocumentNotFound)
}

func (r *memDocumentRepo) ListByFolder(ctx context.Context, folderID, userID string) ([]models.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Document{}
	for _, d := range r.docs {
		if d.FolderID == folderID && d.UserID == userID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (r *memDocumentRepo) Update(ctx context.Context, id, userID string, patch models.DocumentPatch) (*models.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = append(r.updates, patch)
	for i, d := range r.docs {
		if d.ID == id && d.UserID == userID {
			r.docs[i] = patch.Apply(d)
			updated := r.docs[i]
			return &updated, nil
		}
	}
	return nil, fmt.Errorf("document %s: %w", id, domain.ErrDocumentNotFound)
}

func (r *memDocumentRepo) Delete(ctx context.Context, id, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, d := range r.docs {
		if d.ID == id && d.UserID == userID {
			r.docs = append(r.docs[:i], r.docs[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("document %s: %w", id, domain.ErrDocumentNotFound)
}

func (r *memDocumentRepo) Search(ctx context.Context, userID string, opts *models.SearchOptions) ([]models.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastOpt = opts
	out := []models.Document{}
	for _, d := range r.docs {
		if d.UserID != userID || !strings.Contains(strings.ToLower(d.Title), strings.ToLower(opts.Query)) {
			continue
		}
		if opts.FolderID != nil && d.FolderID != *opts.FolderID {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

type fakeTxManager struct {
	mu    sync.Mutex
	calls int
}

func (m *fakeTxManager) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	return fn(ctx)
}
