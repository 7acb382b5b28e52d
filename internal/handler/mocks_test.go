package handler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"inkfold/internal/capabilities"
	"inkfold/internal/domain"
	"inkfold/internal/domain/models"
	docsystem "inkfold/internal/domain/models/docsystem"
	"inkfold/internal/domain/services"
	docsysSvc "inkfold/internal/domain/services/docsystem"
	"inkfold/internal/httputil"
	"inkfold/internal/workspace"
)

const (
	testUserID  = "11111111-1111-1111-1111-111111111111"
	testSecret  = "s3cret-value"
	otherUserID = "22222222-2222-2222-2222-222222222222"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memDocs backs both the folder and document services
type memDocs struct {
	mu        sync.Mutex
	folders   []docsystem.Folder
	documents []docsystem.Document
	pingErr   error
}

func (m *memDocs) CreateFolder(ctx context.Context, req *docsysSvc.CreateFolderRequest) (*docsystem.Folder, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("%w: name: cannot be blank", domain.ErrValidation)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	f := docsystem.Folder{ID: uuid.NewString(), UserID: req.UserID, ParentID: req.ParentID, Name: req.Name, CreatedAt: time.Now()}
	if req.ID != nil {
		for _, existing := range m.folders {
			if existing.ID == *req.ID {
				return nil, &domain.ConflictError{Message: "folder already exists", ResourceType: "folder", ResourceID: existing.ID}
			}
		}
		f.ID = *req.ID
	}
	m.folders = append(m.folders, f)
	return &f, nil
}

func (m *memDocs) GetFolder(ctx context.Context, id, userID string) (*docsystem.Folder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, f := range m.folders {
		if f.ID == id && f.UserID == userID {
			f := f
			return &f, nil
		}
	}
	return nil, fmt.Errorf("folder %s: %w", id, domain.ErrFolderNotFound)
}

func (m *memDocs) ListFolders(ctx context.Context, userID string) ([]docsystem.Folder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []docsystem.Folder{}
	for _, f := range m.folders {
		if f.UserID == userID {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memDocs) DeleteFolder(ctx context.Context, id, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, f := range m.folders {
		if f.ID == id && f.UserID == userID {
			m.folders = append(m.folders[:i], m.folders[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("folder %s: %w", id, domain.ErrFolderNotFound)
}

func (m *memDocs) CreateDocument(ctx context.Context, req *docsysSvc.CreateDocumentRequest) (*docsystem.Document, error) {
	if _, err := m.GetFolder(ctx, req.FolderID, req.UserID); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	doc := docsystem.Document{ID: uuid.NewString(), UserID: req.UserID, FolderID: req.FolderID, Title: req.Title, Content: req.Content, CreatedAt: now, UpdatedAt: now}
	if req.ID != nil {
		doc.ID = *req.ID
	}
	m.documents = append([]docsystem.Document{doc}, m.documents...)
	return &doc, nil
}

func (m *memDocs) GetDocument(ctx context.Context, id, userID string) (*docsystem.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.documents {
		if d.ID == id && d.UserID == userID {
			d := d
			return &d, nil
		}
	}
	return nil, fmt.Errorf("document %s: %w", id, domain.ErrDocumentNotFound)
}

func (m *memDocs) ListDocuments(ctx context.Context, folderID, userID string) ([]docsystem.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []docsystem.Document{}
	for _, d := range m.documents {
		if d.FolderID == folderID && d.UserID == userID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *memDocs) UpdateDocument(ctx context.Context, id, userID string, patch docsystem.DocumentPatch) (*docsystem.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, d := range m.documents {
		if d.ID == id && d.UserID == userID {
			updated := patch.Apply(d)
			m.documents[i] = updated
			return &updated, nil
		}
	}
	return nil, fmt.Errorf("document %s: %w", id, domain.ErrDocumentNotFound)
}

func (m *memDocs) DeleteDocument(ctx context.Context, id, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, d := range m.documents {
		if d.ID == id && d.UserID == userID {
			m.documents = append(m.documents[:i], m.documents[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("document %s: %w", id, domain.ErrDocumentNotFound)
}

func (m *memDocs) SearchDocuments(ctx context.Context, userID string, opts *docsystem.SearchOptions) ([]docsystem.Document, error) {
	opts.ApplyDefaults()
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []docsystem.Document{}
	for _, d := range m.documents {
		if d.UserID != userID {
			continue
		}
		if opts.FolderID != nil && d.FolderID != *opts.FolderID {
			continue
		}
		if strings.Contains(strings.ToLower(d.Title), strings.ToLower(opts.Query)) {
			out = append(out, d)
		}
	}
	return out, nil
}

// IngestService
func (m *memDocs) IngestDocument(ctx context.Context, req *docsysSvc.IngestRequest) (*docsystem.Document, error) {
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.FolderID) == "" {
		return nil, fmt.Errorf("%w: title and folder_id are required", domain.ErrValidation)
	}
	m.mu.Lock()
	var owner string
	for _, f := range m.folders {
		if f.ID == req.FolderID {
			owner = f.UserID
		}
	}
	m.mu.Unlock()
	if owner == "" {
		return nil, fmt.Errorf("folder %s: %w", req.FolderID, domain.ErrFolderNotFound)
	}
	return m.CreateDocument(ctx, &docsysSvc.CreateDocumentRequest{UserID: owner, FolderID: req.FolderID, Title: req.Title, Content: req.Content})
}

func (m *memDocs) ListAllFolders(ctx context.Context) ([]docsystem.FolderSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []docsystem.FolderSummary{}
	for _, f := range m.folders {
		out = append(out, docsystem.FolderSummary{ID: f.ID, Name: f.Name, ParentID: f.ParentID})
	}
	return out, nil
}

func (m *memDocs) Ping(ctx context.Context) error { return m.pingErr }

// ingestAdapter exposes memDocs as an IngestService; ListFolders clashes
// with the folder service method of the same name
type ingestAdapter struct{ *memDocs }

func (a ingestAdapter) ListFolders(ctx context.Context) ([]docsystem.FolderSummary, error) {
	return a.memDocs.ListAllFolders(ctx)
}

type fakeTree struct{ docs *memDocs }

func (t fakeTree) GetFolderTree(ctx context.Context, userID string) ([]*docsystem.FolderTreeNode, error) {
	folders, _ := t.docs.ListFolders(ctx, userID)
	nodes := make([]*docsystem.FolderTreeNode, len(folders))
	for i, f := range folders {
		nodes[i] = &docsystem.FolderTreeNode{ID: f.ID, Name: f.Name, ParentID: f.ParentID, CreatedAt: f.CreatedAt}
	}
	return nodes, nil
}

type fakeTransformer struct {
	docs *memDocs
	err  error
}

func (t *fakeTransformer) Transform(ctx context.Context, userID string, req models.TransformRequest) (*docsystem.Document, error) {
	if t.err != nil {
		return nil, t.err
	}
	src, err := t.docs.GetDocument(ctx, req.DocumentID, userID)
	if err != nil {
		return nil, err
	}
	return t.docs.CreateDocument(ctx, &docsysSvc.CreateDocumentRequest{
		UserID:   userID,
		FolderID: src.FolderID,
		Title:    src.Title + " - transformed",
		Content:  strings.ToUpper(src.Content),
	})
}

type fakeSettings struct {
	mu       sync.Mutex
	settings map[uuid.UUID]*models.UserSettings
	shared   *models.AISettings
}

func newFakeSettings() *fakeSettings {
	return &fakeSettings{
		settings: map[uuid.UUID]*models.UserSettings{},
		shared:   &models.AISettings{Configs: []models.AIModelConfig{}, Prompts: []models.AIPromptTemplate{}},
	}
}

func (s *fakeSettings) GetSettings(ctx context.Context, userID uuid.UUID) (*models.UserSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if us, ok := s.settings[userID]; ok {
		return us, nil
	}
	return &models.UserSettings{UserID: userID, Settings: models.JSONMap{}}, nil
}

func (s *fakeSettings) UpdateSettings(ctx context.Context, userID uuid.UUID, req *models.UpdateSettingsRequest) (*models.UserSettings, error) {
	us, _ := s.GetSettings(ctx, userID)
	if req.Profile != nil {
		if err := us.SetProfile(req.Profile); err != nil {
			return nil, err
		}
	}
	if req.Branding != nil {
		if err := us.SetBranding(req.Branding); err != nil {
			return nil, err
		}
	}
	if req.AI != nil {
		if err := us.SetAI(req.AI); err != nil {
			return nil, err
		}
	}
	s.mu.Lock()
	s.settings[userID] = us
	s.mu.Unlock()
	return us, nil
}

func (s *fakeSettings) GetSharedAI(ctx context.Context) (*models.AISettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *s.shared
	cp.Configs = append([]models.AIModelConfig(nil), s.shared.Configs...)
	return &cp, nil
}

func (s *fakeSettings) UpdateSharedAI(ctx context.Context, updatedBy string, ai *models.AISettings) (*models.AISettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shared = ai
	return ai, nil
}

func (s *fakeSettings) ResolveAI(ctx context.Context, userID, configID, promptID string) (*models.AIModelConfig, *models.AIPromptTemplate, error) {
	return nil, nil, domain.ErrConfigNotFound
}

type fakeUsers struct {
	mu              sync.Mutex
	users           []models.User
	passwordChanges []string
}

func (u *fakeUsers) ListUsers(ctx context.Context) ([]models.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]models.User(nil), u.users...), nil
}

func (u *fakeUsers) CreateUser(ctx context.Context, req *services.CreateUserRequest) (*models.User, error) {
	if !models.ValidRole(req.Role) {
		return nil, fmt.Errorf("%w: role: must be admin or user", domain.ErrValidation)
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	user := models.User{ID: uuid.NewString(), Email: req.Email, Role: req.Role}
	u.users = append(u.users, user)
	return &user, nil
}

func (u *fakeUsers) UpdateRole(ctx context.Context, userID, role string) (*models.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	for i := range u.users {
		if u.users[i].ID == userID {
			u.users[i].Role = role
			user := u.users[i]
			return &user, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (u *fakeUsers) DeleteUser(ctx context.Context, actorID, userID string) error {
	if actorID == userID {
		return fmt.Errorf("%w: cannot delete your own account", domain.ErrForbidden)
	}
	return nil
}

func (u *fakeUsers) ChangePassword(ctx context.Context, user *models.User, req *services.ChangePasswordRequest) error {
	if req.NewPassword != req.ConfirmPassword {
		return fmt.Errorf("%w: new passwords do not match", domain.ErrValidation)
	}
	if req.CurrentPassword != "old-secret" {
		return fmt.Errorf("%w: current password is incorrect", domain.ErrValidation)
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	u.passwordChanges = append(u.passwordChanges, user.ID)
	return nil
}

func (u *fakeUsers) EnsureDefaultAdmin(ctx context.Context, email, password string) (*models.User, error) {
	return nil, nil
}

type fakeRunner struct {
	mu       sync.Mutex
	state    string
	lastUser string
	lastReq  models.BatchRequest
}

func (r *fakeRunner) Submit(ctx context.Context, userID string, req models.BatchRequest) (*models.BatchStatus, error) {
	if len(req.DocumentIDs) == 0 {
		return nil, fmt.Errorf("%w: document_ids: cannot be blank", domain.ErrValidation)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastUser = userID
	r.lastReq = req
	return &models.BatchStatus{ID: "b-1", State: r.state}, nil
}

func (r *fakeRunner) Status(ctx context.Context, userID, batchID string) (*models.BatchStatus, error) {
	if batchID != "b-1" || userID != testUserID {
		return nil, fmt.Errorf("batch %s: %w", batchID, domain.ErrNotFound)
	}
	return &models.BatchStatus{ID: batchID, State: models.BatchActive}, nil
}

// testServer wires the routes over in-memory services. Requests carry the
// user through the X-Test-User/X-Test-Role headers instead of a JWT.
type testServer struct {
	docs     *memDocs
	settings *fakeSettings
	users    *fakeUsers
	runner   *fakeRunner
	xform    *fakeTransformer
	handler  http.Handler
}

func newTestServer(t testing.TB) *testServer {
	registry, err := capabilities.NewRegistry()
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}

	logger := testLogger()
	docs := &memDocs{}
	ts := &testServer{
		docs:     docs,
		settings: newFakeSettings(),
		users:    &fakeUsers{},
		runner:   &fakeRunner{state: models.BatchPending},
		xform:    &fakeTransformer{docs: docs},
	}

	routes := &Routes{
		Users:     NewUserHandler(ts.settings, ts.users, logger),
		Folders:   NewFolderHandler(docs, docs, logger),
		Tree:      NewTreeHandler(fakeTree{docs: docs}, logger),
		Documents: NewDocumentHandler(docs, ts.xform, logger),
		Batches:   NewBatchHandler(ts.runner, logger),
		AI:        NewAIHandler(registry, ts.settings, logger),
		Admin:     NewAdminHandler(ts.users, logger),
		Ingest:    NewIngestHandler(ingestAdapter{docs}, logger),
		Workspace: NewWorkspaceHandler(docs, docs, ts.xform, nil, workspace.Options{
			AutosaveDelay: 20 * time.Millisecond,
			SearchDelay:   20 * time.Millisecond,
			ResultDisplay: 50 * time.Millisecond,
		}, logger),
		APISecret: testSecret,
		Logger:    logger,
	}
	mux := http.NewServeMux()
	routes.Register(mux)

	ts.handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := r.Header.Get("X-Test-User"); id != "" {
			role := r.Header.Get("X-Test-Role")
			if role == "" {
				role = models.RoleUser
			}
			r = r.WithContext(httputil.WithUser(r.Context(), &models.User{ID: id, Email: "u@example.com", Role: role}))
		}
		mux.ServeHTTP(w, r)
	})
	return ts
}

// do sends a request as testUserID with the given role ("" for anonymous)
func (ts *testServer) do(method, target, body, userID, role string, headers ...string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if userID != "" {
		req.Header.Set("X-Test-User", userID)
		req.Header.Set("X-Test-Role", role)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) seedFolder(id, userID, name string) {
	ts.docs.mu.Lock()
	defer ts.docs.mu.Unlock()
	ts.docs.folders = append(ts.docs.folders, docsystem.Folder{ID: id, UserID: userID, Name: name, CreatedAt: time.Now()})
}

func (ts *testServer) seedDocument(id, userID, folderID, title string) {
	ts.docs.mu.Lock()
	defer ts.docs.mu.Unlock()
	now := time.Now()
	ts.docs.documents = append(ts.docs.documents, docsystem.Document{ID: id, UserID: userID, FolderID: folderID, Title: title, CreatedAt: now, UpdatedAt: now})
}
