package handler

import (
	"log/slog"
	"net/http"

	docsystem "inkfold/internal/domain/models/docsystem"
	docsysSvc "inkfold/internal/domain/services/docsystem"
	"inkfold/internal/httputil"
)

// FolderHandler handles folder HTTP requests
type FolderHandler struct {
	folderService docsysSvc.FolderService
	docService    docsysSvc.DocumentService
	logger        *slog.Logger
}

// NewFolderHandler creates a new folder handler
func NewFolderHandler(folderService docsysSvc.FolderService, docService docsysSvc.DocumentService, logger *slog.Logger) *FolderHandler {
	return &FolderHandler{
		folderService: folderService,
		docService:    docService,
		logger:        logger,
	}
}

// CreateFolder creates a new folder
// POST /api/folders
// Returns 201 if created, 409 with existing folder if the client id is taken
func (h *FolderHandler) CreateFolder(w http.ResponseWriter, r *http.Request) {
	userID := httputil.GetUserID(r)

	var req docsysSvc.CreateFolderRequest
	if !parseBody(w, r, &req) {
		return
	}
	req.UserID = userID

	folder, err := h.folderService.CreateFolder(r.Context(), &req)
	if err != nil {
		HandleCreateConflict(w, err, func(id string) (*docsystem.Folder, error) {
			return h.folderService.GetFolder(r.Context(), id, userID)
		})
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, folder)
}

// ListFolders returns the user's folders ordered by name
// GET /api/folders
func (h *FolderHandler) ListFolders(w http.ResponseWriter, r *http.Request) {
	folders, err := h.folderService.ListFolders(r.Context(), httputil.GetUserID(r))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, folders)
}

// GetFolder retrieves a folder by ID
// GET /api/folders/{id}
func (h *FolderHandler) GetFolder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "Folder")
	if !ok {
		return
	}

	folder, err := h.folderService.GetFolder(r.Context(), id, httputil.GetUserID(r))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, folder)
}

// DeleteFolder deletes a folder with its subfolders and documents
// DELETE /api/folders/{id}
func (h *FolderHandler) DeleteFolder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "Folder")
	if !ok {
		return
	}

	if err := h.folderService.DeleteFolder(r.Context(), id, httputil.GetUserID(r)); err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondNoContent(w)
}

// ListDocuments returns a folder's documents, most recently updated first
// GET /api/folders/{id}/documents
func (h *FolderHandler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "Folder")
	if !ok {
		return
	}

	docs, err := h.docService.ListDocuments(r.Context(), id, httputil.GetUserID(r))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, docs)
}
