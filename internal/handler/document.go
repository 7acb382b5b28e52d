package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"inkfold/internal/domain/models"
	docsystem "inkfold/internal/domain/models/docsystem"
	"inkfold/internal/domain/services"
	docsysSvc "inkfold/internal/domain/services/docsystem"
	"inkfold/internal/httputil"
)

// DocumentHandler handles document HTTP requests
type DocumentHandler struct {
	docService  docsysSvc.DocumentService
	transformer services.Transformer
	logger      *slog.Logger
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(docService docsysSvc.DocumentService, transformer services.Transformer, logger *slog.Logger) *DocumentHandler {
	return &DocumentHandler{
		docService:  docService,
		transformer: transformer,
		logger:      logger,
	}
}

// CreateDocument creates a new document
// POST /api/documents
// Returns 201 if created, 409 with existing document if the client id is taken
func (h *DocumentHandler) CreateDocument(w http.ResponseWriter, r *http.Request) {
	userID := httputil.GetUserID(r)

	var req docsysSvc.CreateDocumentRequest
	if !parseBody(w, r, &req) {
		return
	}
	req.UserID = userID

	doc, err := h.docService.CreateDocument(r.Context(), &req)
	if err != nil {
		HandleCreateConflict(w, err, func(id string) (*docsystem.Document, error) {
			return h.docService.GetDocument(r.Context(), id, userID)
		})
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, doc)
}

// GetDocument retrieves a document by ID
// GET /api/documents/{id}
func (h *DocumentHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "Document")
	if !ok {
		return
	}

	doc, err := h.docService.GetDocument(r.Context(), id, httputil.GetUserID(r))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, doc)
}

// UpdateDocument writes the fields present in the body
// PATCH /api/documents/{id}
func (h *DocumentHandler) UpdateDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "Document")
	if !ok {
		return
	}

	var patch docsystem.DocumentPatch
	if !parseBody(w, r, &patch) {
		return
	}

	doc, err := h.docService.UpdateDocument(r.Context(), id, httputil.GetUserID(r), patch)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, doc)
}

// DeleteDocument deletes a document
// DELETE /api/documents/{id}
func (h *DocumentHandler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "Document")
	if !ok {
		return
	}

	if err := h.docService.DeleteDocument(r.Context(), id, httputil.GetUserID(r)); err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondNoContent(w)
}

// SearchDocuments matches document titles
// GET /api/documents/search?q=&folder_id=&limit=
func (h *DocumentHandler) SearchDocuments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := &docsystem.SearchOptions{
		Query: q.Get("q"),
		Limit: httputil.QueryInt(r, "limit", 0),
	}
	if folderID := strings.TrimSpace(q.Get("folder_id")); folderID != "" {
		opts.FolderID = &folderID
	}

	docs, err := h.docService.SearchDocuments(r.Context(), httputil.GetUserID(r), opts)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, docs)
}

// transformBody is the body of POST /api/documents/{id}/transform
type transformBody struct {
	ConfigID string `json:"config_id"`
	PromptID string `json:"prompt_id"`
}

// TransformDocument runs the document through a model and returns the new document
// POST /api/documents/{id}/transform
func (h *DocumentHandler) TransformDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "Document")
	if !ok {
		return
	}

	var body transformBody
	if !parseBody(w, r, &body) {
		return
	}

	doc, err := h.transformer.Transform(r.Context(), httputil.GetUserID(r), models.TransformRequest{
		DocumentID: id,
		ConfigID:   body.ConfigID,
		PromptID:   body.PromptID,
	})
	if err != nil {
		h.logger.Warn("transform failed", "document_id", id, "error", err)
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, doc)
}
