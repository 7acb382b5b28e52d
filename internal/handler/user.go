package handler

import (
	"log/slog"
	"net/http"

	"inkfold/internal/domain/models"
	"inkfold/internal/domain/services"
	"inkfold/internal/httputil"
)

// UserHandler serves the signed-in user, their settings and password
type UserHandler struct {
	service services.SettingsService
	users   services.UserService
	logger  *slog.Logger
}

// NewUserHandler creates a new user handler
func NewUserHandler(service services.SettingsService, users services.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		service: service,
		users:   users,
		logger:  logger,
	}
}

// GetCurrentUser returns the user with their typed settings
// GET /api/users/me
func (h *UserHandler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	user := httputil.GetUser(r)
	if user == nil {
		httputil.RespondError(w, http.StatusUnauthorized, "not signed in")
		return
	}

	view, ok := h.settingsView(w, r)
	if !ok {
		return
	}

	httputil.RespondJSON(w, http.StatusOK, models.CurrentUser{User: user, Settings: view})
}

// GetSettings retrieves user settings
// GET /api/users/me/settings
func (h *UserHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	view, ok := h.settingsView(w, r)
	if !ok {
		return
	}

	httputil.RespondJSON(w, http.StatusOK, view)
}

// UpdateSettings replaces the namespaces present in the body
// PATCH /api/users/me/settings
func (h *UserHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	userID, err := parseUUID(httputil.GetUserID(r))
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid user ID format")
		return
	}

	var req models.UpdateSettingsRequest
	if !parseBody(w, r, &req) {
		return
	}

	settings, err := h.service.UpdateSettings(r.Context(), userID, &req)
	if err != nil {
		handleError(w, err)
		return
	}

	view, err := settings.View()
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, view)
}

// ChangePassword replaces the user's password
// PUT /api/users/me/password
func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	user := httputil.GetUser(r)
	if user == nil {
		httputil.RespondError(w, http.StatusUnauthorized, "not signed in")
		return
	}

	var req services.ChangePasswordRequest
	if !parseBody(w, r, &req) {
		return
	}

	if err := h.users.ChangePassword(r.Context(), user, &req); err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondNoContent(w)
}

func (h *UserHandler) settingsView(w http.ResponseWriter, r *http.Request) (*models.SettingsView, bool) {
	userID, err := parseUUID(httputil.GetUserID(r))
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid user ID format")
		return nil, false
	}

	settings, err := h.service.GetSettings(r.Context(), userID)
	if err != nil {
		handleError(w, err)
		return nil, false
	}

	view, err := settings.View()
	if err != nil {
		h.logger.Error("settings could not be decoded", "user_id", userID, "error", err)
		handleError(w, err)
		return nil, false
	}
	return view, true
}
