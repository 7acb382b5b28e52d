package workspace

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"inkfold/internal/config"
	"inkfold/internal/domain"
	"inkfold/internal/domain/models"
	"inkfold/internal/domain/models/docsystem"
	docsysService "inkfold/internal/service/docsystem"
)

// Sidebar shows the folder forest with optimistic creates and deletes
type Sidebar struct {
	clock Clock
	store *Store[docsystem.Folder]
}

// NewSidebar creates a sidebar. onTree receives every rebuilt forest.
func NewSidebar(backend FolderBackend, clock Clock, onTree func([]*docsystem.FolderTreeNode), onError func(error)) *Sidebar {
	s := &Sidebar{clock: clockOrReal(clock)}
	s.store = NewStore(StoreConfig[docsystem.Folder]{
		Key:  docsystem.FolderKey,
		Load: backend.ListFolders,
		Write: func(ctx context.Context, action Action, folder docsystem.Folder) error {
			if action == ActionDelete {
				return backend.DeleteFolder(ctx, folder.ID)
			}
			_, err := backend.CreateFolder(ctx, folder)
			return err
		},
		Cascade: descendants,
		OnChange: func(folders []docsystem.Folder) {
			if onTree != nil {
				onTree(docsysService.BuildFolderForest(folders))
			}
		},
		OnError: onError,
	})
	return s
}

// Load fetches the folders
func (s *Sidebar) Load(ctx context.Context) error {
	return s.store.Refresh(ctx)
}

// Tree returns the forest of the displayed folders
func (s *Sidebar) Tree() []*docsystem.FolderTreeNode {
	return docsysService.BuildFolderForest(s.store.Displayed())
}

// Folders returns the displayed folders
func (s *Sidebar) Folders() []docsystem.Folder {
	return s.store.Displayed()
}

// CreateFolder shows a new folder at once and creates it in the background
func (s *Sidebar) CreateFolder(ctx context.Context, name string, parentID *string) (docsystem.Folder, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return docsystem.Folder{}, fmt.Errorf("%w: folder name is required", domain.ErrValidation)
	}
	if len([]rune(name)) > config.MaxFolderNameLength {
		return docsystem.Folder{}, fmt.Errorf("%w: folder name is too long", domain.ErrValidation)
	}
	if parentID != nil && *parentID == "" {
		parentID = nil
	}
	folder := docsystem.Folder{
		ID:        uuid.NewString(),
		ParentID:  parentID,
		Name:      name,
		CreatedAt: s.clock.Now(),
	}
	s.store.Apply(ctx, ActionAdd, folder)
	return folder, nil
}

// DeleteFolder hides a folder and its subfolders at once and deletes it in
// the background. The backend removes the subfolders by cascade.
func (s *Sidebar) DeleteFolder(ctx context.Context, id string) error {
	for _, folder := range s.store.Displayed() {
		if folder.ID == id {
			s.store.Apply(ctx, ActionDelete, folder)
			return nil
		}
	}
	return fmt.Errorf("folder %s: %w", id, domain.ErrFolderNotFound)
}

// Wait blocks until background writes finished
func (s *Sidebar) Wait() {
	s.store.Wait()
}

// descendants returns every folder below folder in folders
func descendants(folder docsystem.Folder, folders []docsystem.Folder) []docsystem.Folder {
	var out []docsystem.Folder
	parents := map[string]bool{folder.ID: true}
	for changed := true; changed; {
		changed = false
		for _, f := range folders {
			if f.ParentID == nil || parents[f.ID] || !parents[*f.ParentID] {
				continue
			}
			parents[f.ID] = true
			out = append(out, f)
			changed = true
		}
	}
	return out
}

// FolderViewConfig wires a FolderView
type FolderViewConfig struct {
	Clock         Clock
	SearchDelay   time.Duration
	ResultDisplay time.Duration

	OnDocuments func([]docsystem.Document)
	OnProgress  func(models.BatchProgress)
	OnResult    func(models.BatchResult)
	OnCleared   func()
	OnError     func(error)
}

// FolderView lists one folder's documents with optimistic creates and
// deletes, a debounced search over them and batch selection
type FolderView struct {
	folderID string
	clock    Clock
	backend  DocumentBackend
	store    *Store[docsystem.Document]
	search   *Search
	batch    *BatchMode
}

// NewFolderView creates a view of folderID
func NewFolderView(ctx context.Context, folderID string, backend DocumentBackend, processor *BatchProcessor, cfg FolderViewConfig) *FolderView {
	v := &FolderView{folderID: folderID, clock: clockOrReal(cfg.Clock), backend: backend}

	emit := func(docs []docsystem.Document) {
		if cfg.OnDocuments != nil {
			cfg.OnDocuments(docs)
		}
	}

	v.store = NewStore(StoreConfig[docsystem.Document]{
		Key:       docsystem.DocumentKey,
		Placement: PlacementPrepend,
		Load: func(ctx context.Context) ([]docsystem.Document, error) {
			return backend.ListDocuments(ctx, folderID)
		},
		Write: func(ctx context.Context, action Action, doc docsystem.Document) error {
			if action == ActionDelete {
				return backend.DeleteDocument(ctx, doc.ID)
			}
			_, err := backend.CreateDocument(ctx, doc)
			return err
		},
		OnChange: func(docs []docsystem.Document) {
			// Active search results take precedence over the local list
			if v.search == nil || !v.search.Active() {
				emit(docs)
			}
		},
		OnError: cfg.OnError,
	})

	v.search = NewSearch(ctx, folderID, SearchConfig{
		Delay:     cfg.SearchDelay,
		Clock:     cfg.Clock,
		Search:    backend.SearchDocuments,
		Local:     v.store.Displayed,
		OnResults: emit,
		OnError:   cfg.OnError,
	})

	v.batch = NewBatchMode(processor, BatchModeConfig{
		Clock:         cfg.Clock,
		ResultDisplay: cfg.ResultDisplay,
		OnProgress:    cfg.OnProgress,
		OnResult: func(result models.BatchResult) {
			if cfg.OnResult != nil {
				cfg.OnResult(result)
			}
			// New documents appear in the list
			if err := v.store.Refresh(context.WithoutCancel(ctx)); err != nil && cfg.OnError != nil {
				cfg.OnError(err)
			}
		},
		OnCleared: cfg.OnCleared,
	})
	return v
}

// FolderID returns the folder shown
func (v *FolderView) FolderID() string {
	return v.folderID
}

// Load fetches the folder's documents
func (v *FolderView) Load(ctx context.Context) error {
	return v.store.Refresh(ctx)
}

// Documents returns what the view shows: search results while a query is
// active, the folder's documents otherwise
func (v *FolderView) Documents() []docsystem.Document {
	return v.search.Displayed()
}

// CreateDocument shows a new empty document at once and creates it in the
// background
func (v *FolderView) CreateDocument(ctx context.Context, title string) (docsystem.Document, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return docsystem.Document{}, fmt.Errorf("%w: title is required", domain.ErrValidation)
	}
	if len([]rune(title)) > config.MaxDocumentTitleLength {
		return docsystem.Document{}, fmt.Errorf("%w: title is too long", domain.ErrValidation)
	}
	now := v.clock.Now()
	doc := docsystem.Document{
		ID:        uuid.NewString(),
		FolderID:  v.folderID,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	v.store.Apply(ctx, ActionAdd, doc)
	return doc, nil
}

// DeleteDocument hides a document at once and deletes it in the background
func (v *FolderView) DeleteDocument(ctx context.Context, id string) error {
	for _, doc := range v.store.Displayed() {
		if doc.ID == id {
			v.store.Apply(ctx, ActionDelete, doc)
			return nil
		}
	}
	return fmt.Errorf("document %s: %w", id, domain.ErrDocumentNotFound)
}

// Search returns the view's search controller
func (v *FolderView) Search() *Search {
	return v.search
}

// Batch returns the view's batch mode
func (v *FolderView) Batch() *BatchMode {
	return v.batch
}

// Close stops the view's timers and waits for background writes
func (v *FolderView) Close() {
	v.search.Stop()
	v.batch.Stop()
	v.store.Wait()
	v.search.Wait()
}

// EditorConfig wires an Editor
type EditorConfig struct {
	Clock         Clock
	AutosaveDelay time.Duration

	OnStatus func(SaveStatus)
	OnSaved  func(docsystem.Document)
	OnError  func(error)
}

// Editor edits one document with autosave and can transform it
type Editor struct {
	docID       string
	folderID    string
	autosave    *Autosave
	transformer Transformer
}

// NewEditor opens doc for editing
func NewEditor(ctx context.Context, doc docsystem.Document, backend DocumentBackend, transformer Transformer, cfg EditorConfig) *Editor {
	return &Editor{
		docID:       doc.ID,
		folderID:    doc.FolderID,
		transformer: transformer,
		autosave: NewAutosave(ctx, doc, AutosaveConfig{
			Delay: cfg.AutosaveDelay,
			Clock: cfg.Clock,
			Save: func(ctx context.Context, patch docsystem.DocumentPatch) (*docsystem.Document, error) {
				return backend.UpdateDocument(ctx, doc.ID, patch)
			},
			OnStatus: cfg.OnStatus,
			OnSaved:  cfg.OnSaved,
			OnError:  cfg.OnError,
		}),
	}
}

func (e *Editor) DocumentID() string { return e.docID }
func (e *Editor) FolderID() string   { return e.folderID }

func (e *Editor) SetTitle(title string)     { e.autosave.SetTitle(title) }
func (e *Editor) SetContent(content string) { e.autosave.SetContent(content) }

// Autosave returns the editor's autosave controller
func (e *Editor) Autosave() *Autosave {
	return e.autosave
}

// Transform saves pending edits, then runs the document through the model.
// The result is a new document; the editor keeps the source open.
func (e *Editor) Transform(ctx context.Context, configID, promptID string) (*docsystem.Document, error) {
	if err := e.autosave.Flush(ctx); err != nil {
		return nil, fmt.Errorf("save before transform: %w", err)
	}
	return e.transformer.Transform(ctx, models.TransformRequest{
		DocumentID: e.docID,
		ConfigID:   configID,
		PromptID:   promptID,
	})
}

// Close saves pending edits and stops autosave
func (e *Editor) Close(ctx context.Context) error {
	return e.autosave.Close(ctx)
}
