package ai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"inkfold/internal/config"
	"inkfold/internal/domain"
	"inkfold/internal/domain/models"
	"inkfold/internal/domain/models/docsystem"
	"inkfold/internal/domain/services"
	docsysSvc "inkfold/internal/domain/services/docsystem"
)

const titleTimeLayout = "2006-01-02 15:04"

// Transformer implements services.Transformer
type Transformer struct {
	docs     docsysSvc.DocumentService
	settings services.SettingsService
	invoker  services.ModelInvoker
	now      func() time.Time
	logger   *slog.Logger
}

// NewTransformer creates a transformer
func NewTransformer(
	docs docsysSvc.DocumentService,
	settings services.SettingsService,
	invoker services.ModelInvoker,
	logger *slog.Logger,
) *Transformer {
	return &Transformer{
		docs:     docs,
		settings: settings,
		invoker:  invoker,
		now:      time.Now,
		logger:   logger,
	}
}

// Transform runs the document through the chosen model and prompt and
// stores the output as a new document in the same folder.
func (t *Transformer) Transform(ctx context.Context, userID string, req models.TransformRequest) (*docsystem.Document, error) {
	if err := validation.ValidateStruct(&req,
		validation.Field(&req.DocumentID, validation.Required),
		validation.Field(&req.ConfigID, validation.Required),
		validation.Field(&req.PromptID, validation.Required),
	); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	source, err := t.docs.GetDocument(ctx, req.DocumentID, userID)
	if err != nil {
		return nil, err
	}

	cfg, prompt, err := t.settings.ResolveAI(ctx, userID, req.ConfigID, req.PromptID)
	if err != nil {
		return nil, err
	}

	output, err := t.invoker.Invoke(ctx, models.Invocation{
		BaseURL:      cfg.BaseURL,
		APIKey:       cfg.APIKey,
		Model:        cfg.Model,
		SystemPrompt: prompt.Content,
		UserContent:  source.Content,
	})
	if err != nil {
		t.logger.Warn("transform failed",
			"document_id", source.ID,
			"config_id", cfg.ID,
			"model", cfg.Model,
			"error", err,
		)
		return nil, fmt.Errorf("transform %s: %w", source.ID, err)
	}

	created, err := t.docs.CreateDocument(ctx, &docsysSvc.CreateDocumentRequest{
		UserID:   userID,
		FolderID: source.FolderID,
		Title:    TransformedTitle(source.Title, cfg.Name, t.now()),
		Content:  output,
	})
	if err != nil {
		return nil, err
	}

	t.logger.Info("document transformed",
		"source_id", source.ID,
		"id", created.ID,
		"config_id", cfg.ID,
		"prompt_id", prompt.ID,
	)
	return created, nil
}

// TransformedTitle formats "<title> - <config name> (<YYYY-MM-DD HH:MM>)",
// truncated to the title limit without splitting a rune.
func TransformedTitle(title, configName string, at time.Time) string {
	out := fmt.Sprintf("%s - %s (%s)", strings.TrimSpace(title), strings.TrimSpace(configName), at.Format(titleTimeLayout))
	if utf8.RuneCountInString(out) <= config.MaxDocumentTitleLength {
		return out
	}
	runes := []rune(out)
	return string(runes[:config.MaxDocumentTitleLength])
}
