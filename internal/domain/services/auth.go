package services

import (
	"context"

	"inkfold/internal/domain/models"
)

// UserService administers accounts through the auth provider
type UserService interface {
	ListUsers(ctx context.Context) ([]models.User, error)

	CreateUser(ctx context.Context, req *CreateUserRequest) (*models.User, error)

	UpdateRole(ctx context.Context, userID, role string) (*models.User, error)

	// DeleteUser removes an account. Admins cannot delete themselves.
	DeleteUser(ctx context.Context, actorID, userID string) error

	// ChangePassword replaces the signed-in user's password after checking
	// the current one
	ChangePassword(ctx context.Context, user *models.User, req *ChangePasswordRequest) error

	// EnsureDefaultAdmin creates the bootstrap admin when it is missing
	EnsureDefaultAdmin(ctx context.Context, email, password string) (*models.User, error)
}

// CreateUserRequest is the body of POST /api/admin/users
type CreateUserRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// ChangePasswordRequest is the body of PUT /api/users/me/password
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}
