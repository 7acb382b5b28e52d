package workspace

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"inkfold/internal/config"
	"inkfold/internal/domain"
	"inkfold/internal/domain/models"
)

// DefaultResultDisplay is how long a batch result stays visible
const DefaultResultDisplay = 3 * time.Second

// ErrBatchRunning is returned when a batch starts while another runs
var ErrBatchRunning = fmt.Errorf("%w: a batch is already running", domain.ErrConflict)

// BatchProcessor transforms documents strictly one at a time
type BatchProcessor struct {
	transformer Transformer
	logger      *slog.Logger
}

// NewBatchProcessor creates a processor
func NewBatchProcessor(transformer Transformer, logger *slog.Logger) *BatchProcessor {
	return &BatchProcessor{transformer: transformer, logger: logger}
}

// ValidateBatch checks a batch request before any document is processed
func ValidateBatch(req models.BatchRequest) error {
	switch {
	case len(req.DocumentIDs) == 0:
		return fmt.Errorf("%w: no documents selected", domain.ErrValidation)
	case len(req.DocumentIDs) > config.MaxBatchSize:
		return fmt.Errorf("%w: at most %d documents per batch", domain.ErrValidation, config.MaxBatchSize)
	case req.ConfigID == "":
		return fmt.Errorf("%w: config_id is required", domain.ErrValidation)
	case req.PromptID == "":
		return fmt.Errorf("%w: prompt_id is required", domain.ErrValidation)
	}
	return nil
}

// Run transforms each document in order. A failing document is counted
// and the loop continues. When ctx is canceled the remaining documents are
// counted as failed, so Total always equals the number requested.
// onProgress may be nil.
func (p *BatchProcessor) Run(ctx context.Context, req models.BatchRequest, onProgress func(models.BatchProgress)) (models.BatchResult, error) {
	if err := ValidateBatch(req); err != nil {
		return models.BatchResult{}, err
	}

	total := len(req.DocumentIDs)
	result := models.BatchResult{Total: total}

	for i, id := range req.DocumentIDs {
		var err error
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		} else {
			var created string
			created, err = p.transformOne(ctx, models.TransformRequest{
				DocumentID: id,
				ConfigID:   req.ConfigID,
				PromptID:   req.PromptID,
			})
			if err == nil {
				result.Created = append(result.Created, created)
			}
		}

		progress := models.BatchProgress{Index: i + 1, Total: total, DocumentID: id, OK: err == nil}
		if err != nil {
			result.Fail++
			result.Failures = append(result.Failures, models.BatchFailure{DocumentID: id, Error: err.Error()})
			progress.Error = err.Error()
		} else {
			result.Success++
		}
		if onProgress != nil {
			onProgress(progress)
		}
	}

	p.logger.Info("batch finished",
		"total", result.Total,
		"success", result.Success,
		"fail", result.Fail,
	)
	return result, nil
}

// transformOne converts a panic in the transformer into an error
func (p *BatchProcessor) transformOne(ctx context.Context, req models.TransformRequest) (id string, err error) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("transform panicked", "document_id", req.DocumentID, "panic", r)
			err = fmt.Errorf("transform panicked: %v", r)
		}
	}()

	doc, err := p.transformer.Transform(ctx, req)
	if err != nil {
		return "", err
	}
	if doc == nil {
		return "", nil
	}
	return doc.ID, nil
}

// Selection is an ordered set of document ids
type Selection struct {
	mu  sync.Mutex
	ids []string
}

// Toggle adds id when absent and removes it when present. It reports
// whether id is selected afterwards.
func (s *Selection) Toggle(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.ids {
		if existing == id {
			s.ids = append(s.ids[:i:i], s.ids[i+1:]...)
			return false
		}
	}
	s.ids = append(s.ids, id)
	return true
}

func (s *Selection) Contains(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.ids {
		if existing == id {
			return true
		}
	}
	return false
}

// IDs returns the selection in toggle order
func (s *Selection) IDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.ids...)
}

func (s *Selection) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ids)
}

func (s *Selection) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids = nil
}

// BatchModeConfig wires a BatchMode
type BatchModeConfig struct {
	Clock         Clock
	ResultDisplay time.Duration

	OnProgress func(models.BatchProgress)
	OnResult   func(models.BatchResult)
	OnCleared  func()
}

// BatchMode is the folder view's multi-select state. A finished run's
// result is shown for ResultDisplay, after which batch mode exits and the
// selection is cleared.
type BatchMode struct {
	cfg       BatchModeConfig
	clock     Clock
	processor *BatchProcessor
	selection Selection

	mu       sync.Mutex
	active   bool
	running  bool
	result   *models.BatchResult
	timer    Timer
	timerGen uint64
}

// NewBatchMode creates an inactive batch mode
func NewBatchMode(processor *BatchProcessor, cfg BatchModeConfig) *BatchMode {
	if cfg.ResultDisplay <= 0 {
		cfg.ResultDisplay = DefaultResultDisplay
	}
	return &BatchMode{cfg: cfg, clock: clockOrReal(cfg.Clock), processor: processor}
}

// Enter turns batch mode on
func (b *BatchMode) Enter() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.active = true
}

// Exit turns batch mode off and clears the selection and any result
func (b *BatchMode) Exit() {
	b.mu.Lock()
	b.active = false
	b.result = nil
	b.stopTimerLocked()
	b.mu.Unlock()
	b.selection.Clear()
}

// Toggle selects or deselects a document. It does nothing outside batch
// mode and reports whether id is selected afterwards.
func (b *BatchMode) Toggle(id string) bool {
	b.mu.Lock()
	active := b.active
	b.mu.Unlock()
	if !active {
		return false
	}
	return b.selection.Toggle(id)
}

func (b *BatchMode) Active() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.active
}

func (b *BatchMode) Running() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.running
}

// Result returns the displayed result, nil when none is shown
func (b *BatchMode) Result() *models.BatchResult {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.result == nil {
		return nil
	}
	r := *b.result
	return &r
}

// Selection returns the selected ids in order
func (b *BatchMode) Selection() []string {
	return b.selection.IDs()
}

// Run processes the selection with the given config and prompt, then
// shows the result until the display timer clears it
func (b *BatchMode) Run(ctx context.Context, configID, promptID string) (models.BatchResult, error) {
	b.mu.Lock()
	if b.running {
		b.mu.Unlock()
		return models.BatchResult{}, ErrBatchRunning
	}
	b.running = true
	b.stopTimerLocked()
	b.result = nil
	b.mu.Unlock()

	result, err := b.processor.Run(ctx, models.BatchRequest{
		DocumentIDs: b.selection.IDs(),
		ConfigID:    configID,
		PromptID:    promptID,
	}, b.cfg.OnProgress)

	b.mu.Lock()
	b.running = false
	if err != nil {
		b.mu.Unlock()
		return result, err
	}
	b.result = &result
	b.timerGen++
	gen := b.timerGen
	b.timer = b.clock.AfterFunc(b.cfg.ResultDisplay, func() { b.clearResult(gen) })
	b.mu.Unlock()

	if b.cfg.OnResult != nil {
		b.cfg.OnResult(result)
	}
	return result, nil
}

func (b *BatchMode) clearResult(gen uint64) {
	b.mu.Lock()
	if gen != b.timerGen {
		b.mu.Unlock()
		return
	}
	b.timer = nil
	b.result = nil
	b.active = false
	b.mu.Unlock()

	b.selection.Clear()
	if b.cfg.OnCleared != nil {
		b.cfg.OnCleared()
	}
}

// Stop cancels the display timer
func (b *BatchMode) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stopTimerLocked()
}

func (b *BatchMode) stopTimerLocked() {
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	b.timerGen++
}
