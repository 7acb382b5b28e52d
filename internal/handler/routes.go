package handler

import (
	"log/slog"
	"net/http"

	"inkfold/internal/middleware"
)

// PublicPaths bypass JWT authentication. The ingestion and cron routes
// check the shared secret instead.
var PublicPaths = []string{"/health", "/api/upload", "/api/cron/keep-alive"}

// Routes groups every handler of the API server
type Routes struct {
	Users     *UserHandler
	Folders   *FolderHandler
	Tree      *TreeHandler
	Documents *DocumentHandler
	Batches   *BatchHandler
	AI        *AIHandler
	Admin     *AdminHandler
	Ingest    *IngestHandler
	Workspace *WorkspaceHandler

	// APISecret guards the ingestion and keep-alive endpoints
	APISecret string
	Logger    *slog.Logger
}

// Register mounts every route on mux
func (rt *Routes) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", Health)

	// Users
	mux.HandleFunc("GET /api/users/me", rt.Users.GetCurrentUser)
	mux.HandleFunc("GET /api/users/me/settings", rt.Users.GetSettings)
	mux.HandleFunc("PATCH /api/users/me/settings", rt.Users.UpdateSettings)
	mux.HandleFunc("PUT /api/users/me/password", rt.Users.ChangePassword)

	// Folders
	mux.HandleFunc("GET /api/folders", rt.Folders.ListFolders)
	mux.HandleFunc("POST /api/folders", rt.Folders.CreateFolder)
	mux.HandleFunc("GET /api/folders/tree", rt.Tree.GetTree)
	mux.HandleFunc("GET /api/folders/{id}", rt.Folders.GetFolder)
	mux.HandleFunc("DELETE /api/folders/{id}", rt.Folders.DeleteFolder)
	mux.HandleFunc("GET /api/folders/{id}/documents", rt.Folders.ListDocuments)

	// Documents
	mux.HandleFunc("POST /api/documents", rt.Documents.CreateDocument)
	mux.HandleFunc("GET /api/documents/search", rt.Documents.SearchDocuments)
	mux.HandleFunc("GET /api/documents/{id}", rt.Documents.GetDocument)
	mux.HandleFunc("PATCH /api/documents/{id}", rt.Documents.UpdateDocument)
	mux.HandleFunc("DELETE /api/documents/{id}", rt.Documents.DeleteDocument)
	mux.HandleFunc("POST /api/documents/{id}/transform", rt.Documents.TransformDocument)

	// Batches
	mux.HandleFunc("POST /api/batches", rt.Batches.SubmitBatch)
	mux.HandleFunc("GET /api/batches/{id}", rt.Batches.GetBatch)

	// AI
	mux.HandleFunc("GET /api/ai/presets", rt.AI.ListPresets)
	mux.HandleFunc("GET /api/settings/shared-ai", rt.AI.GetSharedAI)
	mux.HandleFunc("PUT /api/settings/shared-ai", middleware.RequireAdmin(rt.AI.UpdateSharedAI))

	// Admin
	mux.HandleFunc("GET /api/admin/users", middleware.RequireAdmin(rt.Admin.ListUsers))
	mux.HandleFunc("POST /api/admin/users", middleware.RequireAdmin(rt.Admin.CreateUser))
	mux.HandleFunc("PATCH /api/admin/users/{id}", middleware.RequireAdmin(rt.Admin.UpdateRole))
	mux.HandleFunc("DELETE /api/admin/users/{id}", middleware.RequireAdmin(rt.Admin.DeleteUser))

	// Shared-secret side channel
	apiKey := middleware.RequireAPIKey(rt.APISecret, rt.Logger)
	mux.HandleFunc("POST /api/upload", apiKey(rt.Ingest.Upload))
	mux.HandleFunc("GET /api/upload", apiKey(rt.Ingest.ListFolders))
	mux.HandleFunc("GET /api/cron/keep-alive", middleware.RequireBearerSecret(rt.APISecret)(rt.Ingest.KeepAlive))

	// Workspace session
	mux.HandleFunc("GET /ws", rt.Workspace.ServeWS)
}
