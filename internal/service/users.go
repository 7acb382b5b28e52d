package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"inkfold/internal/auth"
	"inkfold/internal/config"
	"inkfold/internal/domain"
	"inkfold/internal/domain/models"
	"inkfold/internal/domain/services"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// UserService implements services.UserService on the auth provider's
// admin API
type UserService struct {
	admin  auth.AdminAPI
	logger *slog.Logger
}

// NewUserService creates a new user service
func NewUserService(admin auth.AdminAPI, logger *slog.Logger) services.UserService {
	return &UserService{admin: admin, logger: logger}
}

// ListUsers returns every account
func (s *UserService) ListUsers(ctx context.Context) ([]models.User, error) {
	records, err := s.admin.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	users := make([]models.User, len(records))
	for i := range records {
		users[i] = *records[i].ToUser()
	}
	return users, nil
}

// CreateUser creates a confirmed account. Role defaults to user.
func (s *UserService) CreateUser(ctx context.Context, req *services.CreateUserRequest) (*models.User, error) {
	req.Email = strings.TrimSpace(req.Email)
	if req.Role == "" {
		req.Role = models.RoleUser
	}

	if err := validation.ValidateStruct(req,
		validation.Field(&req.Email, validation.Required, is.EmailFormat),
		validation.Field(&req.Password, validation.Required, validation.Length(config.MinPasswordLength, config.MaxPasswordLength)),
		validation.Field(&req.Role, validation.In(models.RoleAdmin, models.RoleUser)),
	); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	record, err := s.admin.CreateUser(ctx, req.Email, req.Password, req.Role)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user created", "id", record.ID, "role", req.Role)
	return record.ToUser(), nil
}

// UpdateRole changes an account's role
func (s *UserService) UpdateRole(ctx context.Context, userID, role string) (*models.User, error) {
	if !models.ValidRole(role) {
		return nil, fmt.Errorf("%w: role must be admin or user", domain.ErrValidation)
	}

	record, err := s.admin.UpdateUserRole(ctx, userID, role)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user role updated", "id", userID, "role", role)
	return record.ToUser(), nil
}

// DeleteUser removes an account
func (s *UserService) DeleteUser(ctx context.Context, actorID, userID string) error {
	if actorID == userID {
		return fmt.Errorf("%w: cannot delete your own account", domain.ErrForbidden)
	}

	if err := s.admin.DeleteUser(ctx, userID); err != nil {
		return err
	}

	s.logger.Info("user deleted", "id", userID, "by", actorID)
	return nil
}

// ChangePassword checks the current password by signing in with it, then
// sets the new one
func (s *UserService) ChangePassword(ctx context.Context, user *models.User, req *services.ChangePasswordRequest) error {
	if err := validation.ValidateStruct(req,
		validation.Field(&req.CurrentPassword, validation.Required),
		validation.Field(&req.NewPassword, validation.Required, validation.Length(config.MinPasswordLength, config.MaxPasswordLength)),
		validation.Field(&req.ConfirmPassword, validation.Required),
	); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	if req.NewPassword != req.ConfirmPassword {
		return fmt.Errorf("%w: new passwords do not match", domain.ErrValidation)
	}
	if user.Email == "" {
		return fmt.Errorf("%w: account has no email", domain.ErrValidation)
	}

	if err := s.admin.VerifyPassword(ctx, user.Email, req.CurrentPassword); err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			return fmt.Errorf("%w: current password is incorrect", domain.ErrValidation)
		}
		return err
	}
	if err := s.admin.UpdateUserPassword(ctx, user.ID, req.NewPassword); err != nil {
		return err
	}

	s.logger.Info("password changed", "user_id", user.ID)
	return nil
}

// EnsureDefaultAdmin creates the bootstrap admin, or promotes it when it
// exists without the admin role
func (s *UserService) EnsureDefaultAdmin(ctx context.Context, email, password string) (*models.User, error) {
	if email == "" {
		return nil, fmt.Errorf("%w: default admin email is not configured", domain.ErrValidation)
	}

	records, err := s.admin.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	for i := range records {
		if !strings.EqualFold(records[i].Email, email) {
			continue
		}
		if records[i].Role() == models.RoleAdmin {
			s.logger.Info("default admin already exists", "id", records[i].ID)
			return records[i].ToUser(), nil
		}
		return s.UpdateRole(ctx, records[i].ID, models.RoleAdmin)
	}

	user, err := s.CreateUser(ctx, &services.CreateUserRequest{Email: email, Password: password, Role: models.RoleAdmin})
	if err != nil {
		var conflict *domain.ConflictError
		if errors.As(err, &conflict) {
			return nil, fmt.Errorf("default admin exists but was not listed: %w", err)
		}
		return nil, err
	}
	return user, nil
}
