package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"inkfold/internal/domain"
	"inkfold/internal/domain/models"
	docsystem "inkfold/internal/domain/models/docsystem"
)

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestHandleError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "validation", err: fmt.Errorf("%w: title: cannot be blank", domain.ErrValidation), want: http.StatusBadRequest},
		{name: "not found", err: fmt.Errorf("doc x: %w", domain.ErrDocumentNotFound), want: http.StatusNotFound},
		{name: "unauthorized", err: domain.ErrUnauthorized, want: http.StatusUnauthorized},
		{name: "forbidden", err: domain.ErrForbidden, want: http.StatusForbidden},
		{name: "conflict", err: &domain.ConflictError{Message: "exists", ResourceType: "folder", ResourceID: "f1"}, want: http.StatusConflict},
		{name: "model failure", err: fmt.Errorf("transform d1: %w", domain.NewModelStatusError(500, "upstream down")), want: http.StatusBadGateway},
		{name: "unknown", err: errors.New("boom"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handleError(rec, tt.err)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/problem+json" {
				t.Errorf("Content-Type = %q", ct)
			}
		})
	}
}

func TestHandleError_HidesInternalDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	handleError(rec, errors.New("pq: password authentication failed"))
	if strings.Contains(rec.Body.String(), "password") {
		t.Errorf("internal error leaked: %s", rec.Body.String())
	}
}

func TestFolderRoutes(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodPost, "/api/folders", `{"id":"aaaaaaaa-0000-0000-0000-000000000001","name":"Notes"}`, testUserID, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body.String())
	}
	created := decode[docsystem.Folder](t, rec)
	if created.UserID != testUserID {
		t.Errorf("owner = %q, want the signed-in user", created.UserID)
	}

	t.Run("duplicate client id returns existing", func(t *testing.T) {
		rec := ts.do(http.MethodPost, "/api/folders", `{"id":"aaaaaaaa-0000-0000-0000-000000000001","name":"Other"}`, testUserID, "")
		if rec.Code != http.StatusConflict {
			t.Fatalf("status = %d, want 409", rec.Code)
		}
		if got := decode[docsystem.Folder](t, rec); got.Name != "Notes" {
			t.Errorf("returned %q, want the existing folder", got.Name)
		}
	})

	t.Run("blank name", func(t *testing.T) {
		rec := ts.do(http.MethodPost, "/api/folders", `{"name":"  "}`, testUserID, "")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("malformed body", func(t *testing.T) {
		rec := ts.do(http.MethodPost, "/api/folders", `{"name":`, testUserID, "")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("tree", func(t *testing.T) {
		rec := ts.do(http.MethodGet, "/api/folders/tree", "", testUserID, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		if nodes := decode[[]docsystem.FolderTreeNode](t, rec); len(nodes) != 1 {
			t.Errorf("got %d roots, want 1", len(nodes))
		}
	})

	t.Run("other user cannot see it", func(t *testing.T) {
		rec := ts.do(http.MethodGet, "/api/folders/"+created.ID, "", otherUserID, "")
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})

	t.Run("delete", func(t *testing.T) {
		rec := ts.do(http.MethodDelete, "/api/folders/"+created.ID, "", testUserID, "")
		if rec.Code != http.StatusNoContent {
			t.Errorf("status = %d, want 204", rec.Code)
		}
	})
}

func TestDocumentRoutes(t *testing.T) {
	ts := newTestServer(t)
	ts.seedFolder("f1", testUserID, "Inbox")
	ts.seedFolder("f2", testUserID, "Archive")

	rec := ts.do(http.MethodPost, "/api/documents", `{"folder_id":"f1","title":"Weekly plan","content":"a"}`, testUserID, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body.String())
	}
	doc := decode[docsystem.Document](t, rec)
	ts.seedDocument("d2", testUserID, "f2", "Old plan")

	t.Run("missing folder", func(t *testing.T) {
		rec := ts.do(http.MethodPost, "/api/documents", `{"folder_id":"nope","title":"x"}`, testUserID, "")
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})

	t.Run("patch writes given fields", func(t *testing.T) {
		rec := ts.do(http.MethodPatch, "/api/documents/"+doc.ID, `{"content":"b"}`, testUserID, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		got := decode[docsystem.Document](t, rec)
		if got.Title != "Weekly plan" || got.Content != "b" {
			t.Errorf("got title %q content %q", got.Title, got.Content)
		}
	})

	t.Run("list folder documents", func(t *testing.T) {
		rec := ts.do(http.MethodGet, "/api/folders/f1/documents", "", testUserID, "")
		if docs := decode[[]docsystem.Document](t, rec); len(docs) != 1 || docs[0].ID != doc.ID {
			t.Errorf("got %+v", docs)
		}
	})

	searches := []struct {
		name   string
		target string
		want   int
		status int
	}{
		{name: "all folders", target: "/api/documents/search?q=PLAN", want: 2, status: http.StatusOK},
		{name: "one folder", target: "/api/documents/search?q=plan&folder_id=f2", want: 1, status: http.StatusOK},
		{name: "blank query", target: "/api/documents/search?q=%20", status: http.StatusBadRequest},
	}
	for _, tt := range searches {
		t.Run("search "+tt.name, func(t *testing.T) {
			rec := ts.do(http.MethodGet, tt.target, "", testUserID, "")
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
			if tt.status != http.StatusOK {
				return
			}
			if docs := decode[[]docsystem.Document](t, rec); len(docs) != tt.want {
				t.Errorf("got %d results, want %d", len(docs), tt.want)
			}
		})
	}

	t.Run("transform creates sibling", func(t *testing.T) {
		rec := ts.do(http.MethodPost, "/api/documents/"+doc.ID+"/transform", `{"config_id":"c","prompt_id":"p"}`, testUserID, "")
		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
		}
		if got := decode[docsystem.Document](t, rec); got.FolderID != "f1" || got.ID == doc.ID {
			t.Errorf("got %+v", got)
		}
	})

	t.Run("transform model failure", func(t *testing.T) {
		ts.xform.err = domain.NewModelStatusError(401, "bad key")
		defer func() { ts.xform.err = nil }()
		rec := ts.do(http.MethodPost, "/api/documents/"+doc.ID+"/transform", `{"config_id":"c","prompt_id":"p"}`, testUserID, "")
		if rec.Code != http.StatusBadGateway {
			t.Errorf("status = %d, want 502", rec.Code)
		}
	})

	t.Run("delete", func(t *testing.T) {
		if rec := ts.do(http.MethodDelete, "/api/documents/"+doc.ID, "", testUserID, ""); rec.Code != http.StatusNoContent {
			t.Errorf("status = %d", rec.Code)
		}
		if rec := ts.do(http.MethodGet, "/api/documents/"+doc.ID, "", testUserID, ""); rec.Code != http.StatusNotFound {
			t.Errorf("get after delete = %d, want 404", rec.Code)
		}
	})
}

func TestUserRoutes(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodPatch, "/api/users/me/settings", `{"profile":{"avatar":"🦊"}}`, testUserID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = ts.do(http.MethodGet, "/api/users/me", "", testUserID, models.RoleAdmin)
	if rec.Code != http.StatusOK {
		t.Fatalf("me status = %d", rec.Code)
	}
	me := decode[models.CurrentUser](t, rec)
	if me.User == nil || me.User.ID != testUserID || me.User.Role != models.RoleAdmin {
		t.Errorf("user = %+v", me.User)
	}
	if me.Settings == nil || me.Settings.Profile.Avatar != "🦊" {
		t.Errorf("settings = %+v", me.Settings)
	}

	if rec := ts.do(http.MethodGet, "/api/users/me/settings", "", "not-a-uuid", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("bad user id status = %d, want 400", rec.Code)
	}
}

func TestSharedAIRoutes(t *testing.T) {
	ts := newTestServer(t)
	body := `{"configs":[{"id":"c1","name":"Team","api_key":"sk-abcdefghijkl","base_url":"https://api.openai.com/v1","model":"gpt-4o"}],"prompts":[]}`

	if rec := ts.do(http.MethodPut, "/api/settings/shared-ai", body, testUserID, models.RoleUser); rec.Code != http.StatusForbidden {
		t.Fatalf("non-admin update status = %d, want 403", rec.Code)
	}
	if rec := ts.do(http.MethodPut, "/api/settings/shared-ai", body, testUserID, models.RoleAdmin); rec.Code != http.StatusOK {
		t.Fatalf("admin update status = %d", rec.Code)
	}

	tests := []struct {
		role string
		want string
	}{
		{role: models.RoleUser, want: "****ijkl"},
		{role: models.RoleAdmin, want: "sk-abcdefghijkl"},
	}
	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			rec := ts.do(http.MethodGet, "/api/settings/shared-ai", "", testUserID, tt.role)
			ai := decode[models.AISettings](t, rec)
			if len(ai.Configs) != 1 || ai.Configs[0].APIKey != tt.want {
				t.Errorf("configs = %+v, want key %q", ai.Configs, tt.want)
			}
		})
	}

	rec := ts.do(http.MethodGet, "/api/ai/presets", "", testUserID, "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "openrouter") {
		t.Errorf("presets status = %d body %s", rec.Code, rec.Body.String())
	}
}

func TestAdminRoutes(t *testing.T) {
	ts := newTestServer(t)

	if rec := ts.do(http.MethodGet, "/api/admin/users", "", testUserID, models.RoleUser); rec.Code != http.StatusForbidden {
		t.Errorf("non-admin list = %d, want 403", rec.Code)
	}
	if rec := ts.do(http.MethodGet, "/api/admin/users", "", "", ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous list = %d, want 401", rec.Code)
	}

	rec := ts.do(http.MethodPost, "/api/admin/users", `{"email":"new@example.com","password":"pw123456","role":"user"}`, testUserID, models.RoleAdmin)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create = %d, body %s", rec.Code, rec.Body.String())
	}
	created := decode[models.User](t, rec)

	rec = ts.do(http.MethodPatch, "/api/admin/users/"+created.ID, `{"role":"admin"}`, testUserID, models.RoleAdmin)
	if got := decode[models.User](t, rec); got.Role != models.RoleAdmin {
		t.Errorf("role = %q after update", got.Role)
	}

	if rec := ts.do(http.MethodDelete, "/api/admin/users/"+testUserID, "", testUserID, models.RoleAdmin); rec.Code != http.StatusForbidden {
		t.Errorf("self delete = %d, want 403", rec.Code)
	}
}

func TestChangePassword(t *testing.T) {
	tests := []struct {
		name   string
		user   string
		body   string
		want   int
		change bool
	}{
		{name: "anonymous", body: `{}`, want: http.StatusUnauthorized},
		{name: "mismatch", user: testUserID, body: `{"current_password":"old-secret","new_password":"abcdef","confirm_password":"abcdeg"}`, want: http.StatusBadRequest},
		{name: "wrong current", user: testUserID, body: `{"current_password":"guess","new_password":"abcdef","confirm_password":"abcdef"}`, want: http.StatusBadRequest},
		{name: "malformed", user: testUserID, body: `{"current_password":`, want: http.StatusBadRequest},
		{name: "changed", user: testUserID, body: `{"current_password":"old-secret","new_password":"abcdef","confirm_password":"abcdef"}`, want: http.StatusNoContent, change: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t)
			rec := ts.do(http.MethodPut, "/api/users/me/password", tt.body, tt.user, "")
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.want, rec.Body.String())
			}
			ts.users.mu.Lock()
			defer ts.users.mu.Unlock()
			if changed := len(ts.users.passwordChanges) == 1; changed != tt.change {
				t.Errorf("password changes = %v", ts.users.passwordChanges)
			}
		})
	}
}

func TestBatchRoutes(t *testing.T) {
	tests := []struct {
		name  string
		state string
		want  int
	}{
		{name: "queued", state: models.BatchPending, want: http.StatusAccepted},
		{name: "inline", state: models.BatchCompleted, want: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t)
			ts.runner.state = tt.state
			rec := ts.do(http.MethodPost, "/api/batches", `{"document_ids":["d1","d2"],"config_id":"c","prompt_id":"p"}`, testUserID, "")
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}
			if ts.runner.lastUser != testUserID || len(ts.runner.lastReq.DocumentIDs) != 2 {
				t.Errorf("runner got user %q req %+v", ts.runner.lastUser, ts.runner.lastReq)
			}
		})
	}

	ts := newTestServer(t)
	if rec := ts.do(http.MethodPost, "/api/batches", `{"document_ids":[]}`, testUserID, ""); rec.Code != http.StatusBadRequest {
		t.Errorf("empty batch = %d, want 400", rec.Code)
	}
	if rec := ts.do(http.MethodGet, "/api/batches/b-1", "", otherUserID, ""); rec.Code != http.StatusNotFound {
		t.Errorf("foreign batch = %d, want 404", rec.Code)
	}
}

func TestIngestRoutes(t *testing.T) {
	ts := newTestServer(t)
	ts.seedFolder("f1", otherUserID, "Inbox")

	tests := []struct {
		name   string
		key    string
		body   string
		status int
	}{
		{name: "missing key", body: `{"title":"t","folder_id":"f1"}`, status: http.StatusUnauthorized},
		{name: "wrong key", key: "nope", body: `{"title":"t","folder_id":"f1"}`, status: http.StatusUnauthorized},
		{name: "missing title", key: testSecret, body: `{"folder_id":"f1"}`, status: http.StatusBadRequest},
		{name: "missing folder", key: testSecret, body: `{"title":"t"}`, status: http.StatusBadRequest},
		{name: "unknown folder", key: testSecret, body: `{"title":"t","folder_id":"zzz"}`, status: http.StatusNotFound},
		{name: "ok", key: testSecret, body: `{"title":"Clipped","content":"x","folder_id":"f1"}`, status: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var headers []string
			if tt.key != "" {
				headers = []string{"x-api-key", tt.key}
			}
			rec := ts.do(http.MethodPost, "/api/upload", tt.body, "", "", headers...)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d, body %s", rec.Code, tt.status, rec.Body.String())
			}
			if tt.status == http.StatusOK {
				resp := decode[map[string]interface{}](t, rec)
				if resp["success"] != true || resp["id"] == "" {
					t.Errorf("response = %v", resp)
				}
			}
		})
	}

	docs, _ := ts.docs.ListDocuments(t.Context(), "f1", otherUserID)
	if len(docs) != 1 {
		t.Errorf("ingested document not owned by the folder owner")
	}

	rec := ts.do(http.MethodGet, "/api/upload", "", "", "", "x-api-key", testSecret)
	listed := decode[struct {
		Folders []docsystem.FolderSummary `json:"folders"`
	}](t, rec)
	if len(listed.Folders) != 1 || listed.Folders[0].Name != "Inbox" {
		t.Errorf("folders = %+v", listed.Folders)
	}
}

func TestKeepAlive(t *testing.T) {
	ts := newTestServer(t)

	if rec := ts.do(http.MethodGet, "/api/cron/keep-alive", "", "", "", "Authorization", "Bearer wrong"); rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong secret = %d, want 401", rec.Code)
	}

	rec := ts.do(http.MethodGet, "/api/cron/keep-alive", "", "", "", "Authorization", "Bearer "+testSecret)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	resp := decode[map[string]interface{}](t, rec)
	if resp["success"] != true || resp["timestamp"] == nil {
		t.Errorf("response = %v", resp)
	}

	ts.docs.pingErr = errors.New("connection refused")
	if rec := ts.do(http.MethodGet, "/api/cron/keep-alive", "", "", "", "Authorization", "Bearer "+testSecret); rec.Code != http.StatusInternalServerError {
		t.Errorf("failed ping = %d, want 500", rec.Code)
	}
}
