package models

import "time"

// BatchRequest runs one (config, prompt) pair over several documents.
type BatchRequest struct {
	DocumentIDs []string `json:"document_ids"`
	ConfigID    string   `json:"config_id"`
	PromptID    string   `json:"prompt_id"`
}

// BatchFailure records why one document of a batch failed.
type BatchFailure struct {
	DocumentID string `json:"document_id"`
	Error      string `json:"error"`
}

// BatchResult is the aggregate outcome of a batch. Total always equals the
// number of requested documents.
type BatchResult struct {
	Total    int            `json:"total"`
	Success  int            `json:"success"`
	Fail     int            `json:"fail"`
	Failures []BatchFailure `json:"failures,omitempty"`
	Created  []string       `json:"created,omitempty"` // ids of new documents
}

// BatchProgress is emitted after each processed document.
type BatchProgress struct {
	Index      int    `json:"index"` // 1-based
	Total      int    `json:"total"`
	DocumentID string `json:"document_id"`
	OK         bool   `json:"ok"`
	Error      string `json:"error,omitempty"`
}

// Batch states reported by the batch API.
const (
	BatchPending   = "pending"
	BatchActive    = "active"
	BatchCompleted = "completed"
	BatchFailed    = "failed"
)

// BatchStatus describes a submitted batch.
type BatchStatus struct {
	ID          string       `json:"id"`
	State       string       `json:"state"`
	Result      *BatchResult `json:"result,omitempty"`
	Error       string       `json:"error,omitempty"`
	CompletedAt *time.Time   `json:"completed_at,omitempty"`
}
