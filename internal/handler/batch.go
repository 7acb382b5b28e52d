package handler

import (
	"log/slog"
	"net/http"

	"inkfold/internal/domain/models"
	"inkfold/internal/domain/services"
	"inkfold/internal/httputil"
)

// BatchHandler submits batch transforms
type BatchHandler struct {
	runner services.BatchRunner
	logger *slog.Logger
}

// NewBatchHandler creates a new batch handler
func NewBatchHandler(runner services.BatchRunner, logger *slog.Logger) *BatchHandler {
	return &BatchHandler{
		runner: runner,
		logger: logger,
	}
}

// SubmitBatch starts a batch transform
// POST /api/batches
// Returns 202 while the batch is queued, 200 when it already finished
func (h *BatchHandler) SubmitBatch(w http.ResponseWriter, r *http.Request) {
	var req models.BatchRequest
	if !parseBody(w, r, &req) {
		return
	}

	status, err := h.runner.Submit(r.Context(), httputil.GetUserID(r), req)
	if err != nil {
		handleError(w, err)
		return
	}

	code := http.StatusAccepted
	if status.State == models.BatchCompleted || status.State == models.BatchFailed {
		code = http.StatusOK
	}
	httputil.RespondJSON(w, code, status)
}

// GetBatch reports a submitted batch
// GET /api/batches/{id}
func (h *BatchHandler) GetBatch(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "Batch")
	if !ok {
		return
	}

	status, err := h.runner.Status(r.Context(), httputil.GetUserID(r), id)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, status)
}
