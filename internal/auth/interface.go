package auth

import (
	"context"

	"inkfold/internal/domain/models"
)

// JWTVerifier validates access tokens issued by the auth provider.
type JWTVerifier interface {
	// VerifyToken returns the parsed claims, or domain.ErrUnauthorized when
	// the token is invalid, expired or not a signed-in user.
	VerifyToken(tokenString string) (*models.SupabaseClaims, error)

	// Close releases any resources held by the verifier.
	Close() error
}

// AdminAPI is the subset of the provider's user administration API the
// user service relies on.
type AdminAPI interface {
	ListUsers(ctx context.Context) ([]AdminUser, error)
	CreateUser(ctx context.Context, email, password, role string) (*AdminUser, error)
	UpdateUserRole(ctx context.Context, id, role string) (*AdminUser, error)
	UpdateUserPassword(ctx context.Context, id, password string) error
	VerifyPassword(ctx context.Context, email, password string) error
	DeleteUser(ctx context.Context, id string) error
}
