package workspace

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"inkfold/internal/domain"
	"inkfold/internal/domain/models"
	"inkfold/internal/domain/models/docsystem"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeClock fires timers only when advanced
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	clock   *fakeClock
	at      time.Time
	f       func()
	stopped bool
	fired   bool
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, at: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// Advance moves time forward, running due callbacks in order on the
// calling goroutine
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	c.mu.Unlock()

	for {
		c.mu.Lock()
		var next *fakeTimer
		for _, t := range c.timers {
			if t.stopped || t.fired || t.at.After(target) {
				continue
			}
			if next == nil || t.at.Before(next.at) {
				next = t
			}
		}
		if next == nil {
			c.now = target
			c.mu.Unlock()
			return
		}
		next.fired = true
		c.now = next.at
		c.mu.Unlock()

		next.f()
	}
}

// pendingTimers counts timers that have neither fired nor been stopped
func (c *fakeClock) pendingTimers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

// memBackend is an in-memory FolderBackend, DocumentBackend and
// Transformer for one user
type memBackend struct {
	mu        sync.Mutex
	folders   []docsystem.Folder
	documents []docsystem.Document
	updates   []docsystem.DocumentPatch
	searches  []string

	transformErr func(id string) error
}

func (b *memBackend) ListFolders(ctx context.Context) ([]docsystem.Folder, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := append([]docsystem.Folder(nil), b.folders...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (b *memBackend) CreateFolder(ctx context.Context, folder docsystem.Folder) (*docsystem.Folder, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if folder.ID == "" {
		folder.ID = uuid.NewString()
	}
	b.folders = append(b.folders, folder)
	return &folder, nil
}

func (b *memBackend) DeleteFolder(ctx context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, f := range b.folders {
		if f.ID == id {
			b.folders = append(b.folders[:i], b.folders[i+1:]...)
			return nil
		}
	}
	return domain.ErrFolderNotFound
}

func (b *memBackend) ListDocuments(ctx context.Context, folderID string) ([]docsystem.Document, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []docsystem.Document
	for _, d := range b.documents {
		if d.FolderID == folderID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (b *memBackend) GetDocument(ctx context.Context, id string) (*docsystem.Document, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, d := range b.documents {
		if d.ID == id {
			return &d, nil
		}
	}
	return nil, fmt.Errorf("document %s: %w", id, domain.ErrDocumentNotFound)
}

func (b *memBackend) CreateDocument(ctx context.Context, doc docsystem.Document) (*docsystem.Document, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	found := false
	for _, f := range b.folders {
		if f.ID == doc.FolderID {
			found = true
		}
	}
	if !found {
		return nil, domain.ErrFolderNotFound
	}
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	b.documents = append(b.documents, doc)
	return &doc, nil
}

func (b *memBackend) UpdateDocument(ctx context.Context, id string, patch docsystem.DocumentPatch) (*docsystem.Document, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.updates = append(b.updates, patch)
	for i, d := range b.documents {
		if d.ID == id {
			b.documents[i] = patch.Apply(d)
			out := b.documents[i]
			return &out, nil
		}
	}
	return nil, domain.ErrDocumentNotFound
}

func (b *memBackend) DeleteDocument(ctx context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, d := range b.documents {
		if d.ID == id {
			b.documents = append(b.documents[:i], b.documents[i+1:]...)
			return nil
		}
	}
	return domain.ErrDocumentNotFound
}

func (b *memBackend) SearchDocuments(ctx context.Context, query string, folderID *string) ([]docsystem.Document, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.searches = append(b.searches, query)
	var out []docsystem.Document
	for _, d := range b.documents {
		if folderID != nil && d.FolderID != *folderID {
			continue
		}
		if strings.Contains(strings.ToLower(d.Title), strings.ToLower(query)) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (b *memBackend) Transform(ctx context.Context, req models.TransformRequest) (*docsystem.Document, error) {
	if b.transformErr != nil {
		if err := b.transformErr(req.DocumentID); err != nil {
			return nil, err
		}
	}
	src, err := b.GetDocument(ctx, req.DocumentID)
	if err != nil {
		return nil, err
	}
	return b.CreateDocument(ctx, docsystem.Document{
		FolderID: src.FolderID,
		Title:    src.Title + " - " + req.ConfigID,
		Content:  strings.ToUpper(src.Content),
	})
}

func (b *memBackend) backends() Backends {
	return Backends{Folders: b, Documents: b, Transformer: b}
}

func (b *memBackend) updateCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.updates)
}

func (b *memBackend) searchCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.searches)
}

// recorder collects workspace events
type recorder struct {
	NopEvents

	mu       sync.Mutex
	trees    [][]*docsystem.FolderTreeNode
	docs     [][]docsystem.Document
	statuses []SaveStatus
	results  []models.BatchResult
	progress []models.BatchProgress
	cleared  int
	errors   []error
}

func (r *recorder) FoldersChanged(tree []*docsystem.FolderTreeNode) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.trees = append(r.trees, tree)
}

func (r *recorder) DocumentsChanged(folderID string, docs []docsystem.Document) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs = append(r.docs, docs)
}

func (r *recorder) SaveStatusChanged(documentID string, status SaveStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, status)
}

func (r *recorder) BatchProgress(p models.BatchProgress) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.progress = append(r.progress, p)
}

func (r *recorder) BatchResult(result models.BatchResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, result)
}

func (r *recorder) BatchCleared() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cleared++
}

func (r *recorder) Error(op string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, err)
}

func (r *recorder) lastDocs() []docsystem.Document {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.docs) == 0 {
		return nil
	}
	return r.docs[len(r.docs)-1]
}

func (r *recorder) lastTree() []*docsystem.FolderTreeNode {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.trees) == 0 {
		return nil
	}
	return r.trees[len(r.trees)-1]
}

func docTitles(docs []docsystem.Document) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.Title
	}
	return out
}
