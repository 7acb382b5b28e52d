package handler

import (
	"log/slog"
	"net/http"

	"inkfold/internal/domain/services"
	"inkfold/internal/httputil"
)

// AdminHandler manages accounts. Routes are wrapped in middleware.RequireAdmin.
type AdminHandler struct {
	users  services.UserService
	logger *slog.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(users services.UserService, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		users:  users,
		logger: logger,
	}
}

// ListUsers returns every account
// GET /api/admin/users
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.ListUsers(r.Context())
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, users)
}

// CreateUser creates an account
// POST /api/admin/users
func (h *AdminHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req services.CreateUserRequest
	if !parseBody(w, r, &req) {
		return
	}

	user, err := h.users.CreateUser(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	h.logger.Info("user created by admin", "actor", httputil.GetUserID(r), "user_id", user.ID)
	httputil.RespondJSON(w, http.StatusCreated, user)
}

type updateRoleBody struct {
	Role string `json:"role"`
}

// UpdateRole changes an account's role
// PATCH /api/admin/users/{id}
func (h *AdminHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "User")
	if !ok {
		return
	}

	var body updateRoleBody
	if !parseBody(w, r, &body) {
		return
	}

	user, err := h.users.UpdateRole(r.Context(), id, body.Role)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, user)
}

// DeleteUser removes an account
// DELETE /api/admin/users/{id}
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "User")
	if !ok {
		return
	}

	if err := h.users.DeleteUser(r.Context(), httputil.GetUserID(r), id); err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondNoContent(w)
}
