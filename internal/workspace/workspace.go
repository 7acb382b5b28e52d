package workspace

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"inkfold/internal/domain"
	"inkfold/internal/domain/models"
	"inkfold/internal/domain/models/docsystem"
)

// Events receives everything a workspace front end displays. Methods may
// be called from background goroutines.
type Events interface {
	FoldersChanged(tree []*docsystem.FolderTreeNode)
	DocumentsChanged(folderID string, docs []docsystem.Document)
	SaveStatusChanged(documentID string, status SaveStatus)
	DocumentSaved(doc docsystem.Document)
	BatchProgress(progress models.BatchProgress)
	BatchResult(result models.BatchResult)
	BatchCleared()
	Error(op string, err error)
}

// NopEvents ignores every event. Embed it to handle a subset.
type NopEvents struct{}

func (NopEvents) FoldersChanged([]*docsystem.FolderTreeNode)    {}
func (NopEvents) DocumentsChanged(string, []docsystem.Document) {}
func (NopEvents) SaveStatusChanged(string, SaveStatus)          {}
func (NopEvents) DocumentSaved(docsystem.Document)              {}
func (NopEvents) BatchProgress(models.BatchProgress)            {}
func (NopEvents) BatchResult(models.BatchResult)                {}
func (NopEvents) BatchCleared()                                 {}
func (NopEvents) Error(string, error)                           {}

// Options tune a workspace. Zero values use the defaults.
type Options struct {
	Clock         Clock
	AutosaveDelay time.Duration
	SearchDelay   time.Duration
	ResultDisplay time.Duration
	Logger        *slog.Logger
}

// Workspace is one user's editing session: the sidebar, at most one open
// folder and at most one open document
type Workspace struct {
	backends  Backends
	events    Events
	opts      Options
	logger    *slog.Logger
	processor *BatchProcessor
	ctx       context.Context

	sidebar *Sidebar

	mu     sync.Mutex
	folder *FolderView
	editor *Editor
}

// New creates a workspace bound to backends. Background work runs with ctx
// detached from its cancellation.
func New(ctx context.Context, backends Backends, events Events, opts Options) *Workspace {
	if events == nil {
		events = NopEvents{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	w := &Workspace{
		backends:  backends,
		events:    events,
		opts:      opts,
		logger:    logger,
		processor: NewBatchProcessor(backends.Transformer, logger),
		ctx:       context.WithoutCancel(ctx),
	}
	w.sidebar = NewSidebar(backends.Folders, opts.Clock, events.FoldersChanged, w.onError("folders"))
	return w
}

func (w *Workspace) onError(op string) func(error) {
	return func(err error) {
		w.logger.Warn("workspace operation failed", "op", op, "error", err)
		w.events.Error(op, err)
	}
}

// Sidebar returns the folder sidebar
func (w *Workspace) Sidebar() *Sidebar {
	return w.sidebar
}

// Processor returns the batch processor shared by folder views
func (w *Workspace) Processor() *BatchProcessor {
	return w.processor
}

// LoadFolders fetches the folder tree
func (w *Workspace) LoadFolders(ctx context.Context) error {
	return w.sidebar.Load(ctx)
}

// OpenFolder closes the current folder view and opens folderID
func (w *Workspace) OpenFolder(ctx context.Context, folderID string) (*FolderView, error) {
	if folderID == "" {
		return nil, fmt.Errorf("%w: folder id is required", domain.ErrValidation)
	}
	view := NewFolderView(w.ctx, folderID, w.backends.Documents, w.processor, FolderViewConfig{
		Clock:         w.opts.Clock,
		SearchDelay:   w.opts.SearchDelay,
		ResultDisplay: w.opts.ResultDisplay,
		OnDocuments: func(docs []docsystem.Document) {
			w.events.DocumentsChanged(folderID, docs)
		},
		OnProgress: w.events.BatchProgress,
		OnResult:   w.events.BatchResult,
		OnCleared:  w.events.BatchCleared,
		OnError:    w.onError("documents"),
	})
	if err := view.Load(ctx); err != nil {
		return nil, err
	}

	w.mu.Lock()
	previous := w.folder
	w.folder = view
	w.mu.Unlock()

	if previous != nil {
		previous.Close()
	}
	return view, nil
}

// Folder returns the open folder view, nil when none is open
func (w *Workspace) Folder() *FolderView {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.folder
}

// OpenDocument closes the current editor, saving its pending edits, and
// opens documentID
func (w *Workspace) OpenDocument(ctx context.Context, documentID string) (*Editor, error) {
	if err := w.CloseDocument(ctx); err != nil {
		w.onError("save")(err)
	}

	doc, err := w.backends.Documents.GetDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}

	editor := NewEditor(w.ctx, *doc, w.backends.Documents, w.backends.Transformer, EditorConfig{
		Clock:         w.opts.Clock,
		AutosaveDelay: w.opts.AutosaveDelay,
		OnStatus: func(status SaveStatus) {
			w.events.SaveStatusChanged(doc.ID, status)
		},
		OnSaved: w.events.DocumentSaved,
		OnError: w.onError("save"),
	})

	w.mu.Lock()
	w.editor = editor
	w.mu.Unlock()
	return editor, nil
}

// Editor returns the open editor, nil when none is open
func (w *Workspace) Editor() *Editor {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.editor
}

// CloseDocument saves pending edits and closes the editor
func (w *Workspace) CloseDocument(ctx context.Context) error {
	w.mu.Lock()
	editor := w.editor
	w.editor = nil
	w.mu.Unlock()

	if editor == nil {
		return nil
	}
	return editor.Close(ctx)
}

// Transform runs the open document through a model
func (w *Workspace) Transform(ctx context.Context, configID, promptID string) (*docsystem.Document, error) {
	editor := w.Editor()
	if editor == nil {
		return nil, fmt.Errorf("%w: no document is open", domain.ErrValidation)
	}
	created, err := editor.Transform(ctx, configID, promptID)
	if err != nil {
		return nil, err
	}

	// The new document lands in the source's folder
	if view := w.Folder(); view != nil && view.FolderID() == created.FolderID {
		if err := view.Load(ctx); err != nil {
			w.onError("documents")(err)
		}
	}
	return created, nil
}

// Close saves the open document and stops every controller
func (w *Workspace) Close(ctx context.Context) error {
	err := w.CloseDocument(ctx)

	w.mu.Lock()
	view := w.folder
	w.folder = nil
	w.mu.Unlock()

	if view != nil {
		view.Close()
	}
	w.sidebar.Wait()
	return err
}
