package ai

import (
	"log/slog"

	"inkfold/internal/config"
	"inkfold/internal/domain/services"
	docsysSvc "inkfold/internal/domain/services/docsystem"
)

// SetupTransformer builds the invoker chain (OpenAI-compatible HTTP plus the
// provider library routes) and the transformer on top of it. Used by both the
// API server and the queue worker.
func SetupTransformer(
	cfg *config.Config,
	docs docsysSvc.DocumentService,
	settings services.SettingsService,
	logger *slog.Logger,
) *Transformer {
	openai := NewOpenAIInvoker(cfg.ModelTimeout, logger)
	meridian := NewMeridianInvoker(DefaultProviderFactory, cfg.ModelTimeout, logger)
	router := NewRouter(openai, meridian, logger)

	logger.Info("model invokers initialized",
		"timeout", cfg.ModelTimeout,
		"routes", []string{string(RouteOpenAI), string(RouteAnthropic), string(RouteOpenRouter), string(RouteLorem)},
	)

	return NewTransformer(docs, settings, router, logger)
}
