package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"inkfold/internal/domain/models"
	"inkfold/internal/domain/services"
	"inkfold/internal/workspace"
)

// Processor is plugged into the asynq worker loop
type Processor struct {
	transformer services.Transformer
	logger      *slog.Logger
}

// NewProcessor constructs a worker processor
func NewProcessor(transformer services.Transformer, logger *slog.Logger) *Processor {
	return &Processor{transformer: transformer, logger: logger}
}

// Handler registers the batch job handler
func (p *Processor) Handler() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(BatchTransformTask, p.handleBatch)
	return mux
}

func (p *Processor) handleBatch(ctx context.Context, task *asynq.Task) error {
	var payload BatchPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
	}

	result, err := p.run(ctx, payload)
	if err != nil {
		return fmt.Errorf("run batch: %v: %w", err, asynq.SkipRetry)
	}

	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	// Tasks built outside a server have no result writer
	if w := task.ResultWriter(); w != nil {
		if _, err := w.Write(data); err != nil {
			return fmt.Errorf("write result: %w", err)
		}
	}
	return nil
}

func (p *Processor) run(ctx context.Context, payload BatchPayload) (models.BatchResult, error) {
	logger := p.logger.With("user_id", payload.UserID, "documents", len(payload.Request.DocumentIDs))
	logger.Info("batch started")

	processor := workspace.NewBatchProcessor(workspace.BindTransformer(payload.UserID, p.transformer), logger)
	return processor.Run(ctx, payload.Request, func(progress models.BatchProgress) {
		logger.Debug("batch progress",
			"index", progress.Index,
			"document_id", progress.DocumentID,
			"ok", progress.OK,
		)
	})
}
