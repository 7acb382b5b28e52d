package handler

import (
	"log/slog"
	"net/http"
	"time"

	"inkfold/internal/domain/models/docsystem"
	docsysSvc "inkfold/internal/domain/services/docsystem"
	"inkfold/internal/httputil"
)

// IngestHandler serves the shared-secret endpoints used by external
// automation. Routes are wrapped in the secret middleware, never in JWT auth.
type IngestHandler struct {
	ingest docsysSvc.IngestService
	logger *slog.Logger
}

// NewIngestHandler creates a new ingest handler
func NewIngestHandler(ingest docsysSvc.IngestService, logger *slog.Logger) *IngestHandler {
	return &IngestHandler{
		ingest: ingest,
		logger: logger,
	}
}

// Upload creates a document in an existing folder
// POST /api/upload
func (h *IngestHandler) Upload(w http.ResponseWriter, r *http.Request) {
	var req docsysSvc.IngestRequest
	if !parseBody(w, r, &req) {
		return
	}

	doc, err := h.ingest.IngestDocument(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"id":      doc.ID,
	})
}

// ListFolders lists every folder for upload targeting
// GET /api/upload
func (h *IngestHandler) ListFolders(w http.ResponseWriter, r *http.Request) {
	folders, err := h.ingest.ListFolders(r.Context())
	if err != nil {
		handleError(w, err)
		return
	}

	if folders == nil {
		folders = []docsystem.FolderSummary{}
	}
	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"folders": folders,
	})
}

// KeepAlive touches the database so the hosted instance does not pause
// GET /api/cron/keep-alive
func (h *IngestHandler) KeepAlive(w http.ResponseWriter, r *http.Request) {
	if err := h.ingest.Ping(r.Context()); err != nil {
		h.logger.Error("keep-alive ping failed", "error", err)
		httputil.RespondJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"success": false,
			"error":   "database ping failed",
		})
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"message":   "database is awake",
	})
}

// Health is the unauthenticated liveness probe
// GET /health
func Health(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"time":   time.Now(),
	})
}
