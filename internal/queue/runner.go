package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"inkfold/internal/domain"
	"inkfold/internal/domain/models"
	"inkfold/internal/domain/services"
	"inkfold/internal/workspace"
)

var errBatchNotFound = fmt.Errorf("batch %w", domain.ErrNotFound)

// QueuedRunner hands batches to the worker through Redis. Status is read
// back from the task's state and result.
type QueuedRunner struct {
	client    *asynq.Client
	inspector *asynq.Inspector
	retention time.Duration
	logger    *slog.Logger
}

// NewQueuedRunner creates a runner on an existing client and inspector
func NewQueuedRunner(client *asynq.Client, inspector *asynq.Inspector, retention time.Duration, logger *slog.Logger) services.BatchRunner {
	return &QueuedRunner{
		client:    client,
		inspector: inspector,
		retention: retention,
		logger:    logger,
	}
}

// Submit enqueues a batch
func (r *QueuedRunner) Submit(ctx context.Context, userID string, req models.BatchRequest) (*models.BatchStatus, error) {
	if err := workspace.ValidateBatch(req); err != nil {
		return nil, err
	}

	id := uuid.NewString()
	task, err := NewBatchTask(id, BatchPayload{UserID: userID, Request: req}, r.retention)
	if err != nil {
		return nil, err
	}
	if _, err := r.client.EnqueueContext(ctx, task); err != nil {
		return nil, fmt.Errorf("enqueue batch task: %w", err)
	}

	r.logger.Info("batch queued", "batch_id", id, "user_id", userID, "documents", len(req.DocumentIDs))
	return &models.BatchStatus{ID: id, State: models.BatchPending}, nil
}

// Status reports a queued batch. Batches of other users are not found.
func (r *QueuedRunner) Status(ctx context.Context, userID, batchID string) (*models.BatchStatus, error) {
	info, err := r.inspector.GetTaskInfo(AIQueue, batchID)
	if err != nil {
		if errors.Is(err, asynq.ErrTaskNotFound) || errors.Is(err, asynq.ErrQueueNotFound) {
			return nil, errBatchNotFound
		}
		return nil, fmt.Errorf("inspect batch %s: %w", batchID, err)
	}
	return statusFromTask(info, userID)
}

// statusFromTask maps asynq task state onto batch states
func statusFromTask(info *asynq.TaskInfo, userID string) (*models.BatchStatus, error) {
	var payload BatchPayload
	if err := json.Unmarshal(info.Payload, &payload); err != nil || payload.UserID != userID {
		return nil, errBatchNotFound
	}

	status := &models.BatchStatus{ID: info.ID}
	switch info.State {
	case asynq.TaskStateActive:
		status.State = models.BatchActive
	case asynq.TaskStateCompleted:
		status.State = models.BatchCompleted
		if len(info.Result) > 0 {
			var result models.BatchResult
			if err := json.Unmarshal(info.Result, &result); err != nil {
				return nil, fmt.Errorf("decode batch result: %w", err)
			}
			status.Result = &result
		}
		if !info.CompletedAt.IsZero() {
			at := info.CompletedAt
			status.CompletedAt = &at
		}
	case asynq.TaskStateArchived:
		status.State = models.BatchFailed
		status.Error = info.LastErr
	default:
		status.State = models.BatchPending
	}
	return status, nil
}

// InlineRunner runs batches in the request goroutine when no queue is
// configured. Finished statuses are kept in memory for the retention period.
type InlineRunner struct {
	transformer services.Transformer
	retention   time.Duration
	now         func() time.Time
	logger      *slog.Logger

	mu       sync.Mutex
	statuses map[string]inlineStatus
}

type inlineStatus struct {
	userID string
	status models.BatchStatus
}

// NewInlineRunner creates an in-process runner
func NewInlineRunner(transformer services.Transformer, retention time.Duration, logger *slog.Logger) *InlineRunner {
	return &InlineRunner{
		transformer: transformer,
		retention:   retention,
		now:         time.Now,
		logger:      logger,
		statuses:    make(map[string]inlineStatus),
	}
}

// Submit runs the batch to completion and returns its final status
func (r *InlineRunner) Submit(ctx context.Context, userID string, req models.BatchRequest) (*models.BatchStatus, error) {
	if err := workspace.ValidateBatch(req); err != nil {
		return nil, err
	}

	id := uuid.NewString()
	processor := workspace.NewBatchProcessor(workspace.BindTransformer(userID, r.transformer), r.logger.With("batch_id", id))
	result, err := processor.Run(ctx, req, nil)

	completed := r.now()
	status := models.BatchStatus{ID: id, State: models.BatchCompleted, Result: &result, CompletedAt: &completed}
	if err != nil {
		status = models.BatchStatus{ID: id, State: models.BatchFailed, Error: err.Error(), CompletedAt: &completed}
	}

	r.mu.Lock()
	r.pruneLocked()
	r.statuses[id] = inlineStatus{userID: userID, status: status}
	r.mu.Unlock()

	return &status, nil
}

// Status reports a finished inline batch
func (r *InlineRunner) Status(ctx context.Context, userID, batchID string) (*models.BatchStatus, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pruneLocked()

	entry, ok := r.statuses[batchID]
	if !ok || entry.userID != userID {
		return nil, errBatchNotFound
	}
	status := entry.status
	return &status, nil
}

func (r *InlineRunner) pruneLocked() {
	cutoff := r.now().Add(-r.retention)
	for id, entry := range r.statuses {
		if entry.status.CompletedAt != nil && entry.status.CompletedAt.Before(cutoff) {
			delete(r.statuses, id)
		}
	}
}
