package handler

import (
	"log/slog"
	"net/http"

	"inkfold/internal/capabilities"
	"inkfold/internal/domain/models"
	"inkfold/internal/domain/services"
	"inkfold/internal/httputil"
)

// AIHandler serves endpoint presets and the shared AI settings
type AIHandler struct {
	registry *capabilities.Registry
	settings services.SettingsService
	logger   *slog.Logger
}

// NewAIHandler creates a new AI handler
func NewAIHandler(registry *capabilities.Registry, settings services.SettingsService, logger *slog.Logger) *AIHandler {
	return &AIHandler{
		registry: registry,
		settings: settings,
		logger:   logger,
	}
}

// ListPresets returns the known model endpoints
// GET /api/ai/presets
func (h *AIHandler) ListPresets(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, h.registry.Presets())
}

// GetSharedAI returns the organization AI settings. API keys are masked
// unless the caller is an admin.
// GET /api/settings/shared-ai
func (h *AIHandler) GetSharedAI(w http.ResponseWriter, r *http.Request) {
	ai, err := h.settings.GetSharedAI(r.Context())
	if err != nil {
		handleError(w, err)
		return
	}

	if !httputil.GetUser(r).IsAdmin() {
		ai = ai.Redacted()
	}
	httputil.RespondJSON(w, http.StatusOK, ai)
}

// UpdateSharedAI replaces the organization AI settings (admin only)
// PUT /api/settings/shared-ai
func (h *AIHandler) UpdateSharedAI(w http.ResponseWriter, r *http.Request) {
	var ai models.AISettings
	if !parseBody(w, r, &ai) {
		return
	}

	updated, err := h.settings.UpdateSharedAI(r.Context(), httputil.GetUserID(r), &ai)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, updated)
}
