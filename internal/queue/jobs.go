package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"inkfold/internal/domain/models"
)

const (
	// BatchTransformTask runs one batch transform
	BatchTransformTask = "batch:transform"

	// AIQueue holds model-bound work. The worker drains it one task at a time.
	AIQueue = "ai"
)

// BatchPayload is serialized into the task payload. The batch runs as UserID.
type BatchPayload struct {
	UserID  string              `json:"user_id"`
	Request models.BatchRequest `json:"request"`
}

// NewBatchTask builds a batch task whose id is the batch id. Model calls
// are not idempotent, so the task is never retried.
func NewBatchTask(id string, payload BatchPayload, retention time.Duration) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return asynq.NewTask(BatchTransformTask, data,
		asynq.TaskID(id),
		asynq.Queue(AIQueue),
		asynq.MaxRetry(0),
		asynq.Retention(retention),
	), nil
}

// RedisOpt builds the asynq connection options
func RedisOpt(addr, password string, db int) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     addr,
		Password: password,
		DB:       db,
	}
}
