package handler

import (
	"time"

	"inkfold/internal/domain/models"
	docsystem "inkfold/internal/domain/models/docsystem"
	"inkfold/internal/workspace"
)

// Client to server message types
const (
	msgOpenFolder     = "open_folder"
	msgCreateFolder   = "create_folder"
	msgDeleteFolder   = "delete_folder"
	msgCreateDocument = "create_document"
	msgDeleteDocument = "delete_document"
	msgSearch         = "search"
	msgScope          = "scope"
	msgBatchMode      = "batch_mode"
	msgToggleSelect   = "toggle_select"
	msgRunBatch       = "run_batch"
	msgOpenDocument   = "open_document"
	msgEdit           = "edit"
	msgCloseDocument  = "close_document"
	msgTransform      = "transform"
	msgPing           = "ping"
)

// Server to client message types
const (
	msgFolders       = "folders"
	msgDocuments     = "documents"
	msgDocument      = "document"
	msgSaveStatus    = "save_status"
	msgBatchProgress = "batch_progress"
	msgBatchResult   = "batch_result"
	msgBatchCleared  = "batch_cleared"
	msgError         = "error"
	msgPong          = "pong"
)

// clientMessage is one command from the browser. Fields not used by a
// type are ignored.
type clientMessage struct {
	Type     string  `json:"type"`
	ID       string  `json:"id,omitempty"`
	Name     string  `json:"name,omitempty"`
	ParentID *string `json:"parent_id,omitempty"`
	Title    *string `json:"title,omitempty"`
	Content  *string `json:"content,omitempty"`
	Query    string  `json:"query,omitempty"`
	Scope    string  `json:"scope,omitempty"`
	On       bool    `json:"on,omitempty"`
	ConfigID string  `json:"config_id,omitempty"`
	PromptID string  `json:"prompt_id,omitempty"`
}

type saveStatusPayload struct {
	State       workspace.SaveState `json:"state"`
	LastSavedAt *time.Time          `json:"last_saved_at,omitempty"`
	Error       string              `json:"error,omitempty"`
}

func newSaveStatusPayload(status workspace.SaveStatus) *saveStatusPayload {
	p := &saveStatusPayload{State: status.State}
	if !status.LastSavedAt.IsZero() {
		at := status.LastSavedAt
		p.LastSavedAt = &at
	}
	if status.Err != nil {
		p.Error = status.Err.Error()
	}
	return p
}

// serverMessage is one event pushed to the browser
type serverMessage struct {
	Type       string                      `json:"type"`
	FolderID   string                      `json:"folder_id,omitempty"`
	DocumentID string                      `json:"document_id,omitempty"`
	Tree       []*docsystem.FolderTreeNode `json:"tree,omitempty"`
	Documents  []docsystem.Document        `json:"documents,omitempty"`
	Document   *docsystem.Document         `json:"document,omitempty"`
	Status     *saveStatusPayload          `json:"status,omitempty"`
	Progress   *models.BatchProgress       `json:"progress,omitempty"`
	Result     *models.BatchResult         `json:"result,omitempty"`
	Op         string                      `json:"op,omitempty"`
	Error      string                      `json:"error,omitempty"`
}
