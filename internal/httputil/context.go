package httputil

import (
	"context"
	"net/http"

	"inkfold/internal/domain/models"
)

// Context key type to avoid collisions
type contextKey string

const (
	userKey contextKey = "user"
)

// WithUser adds the signed-in user to ctx
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// UserFromContext retrieves the signed-in user, nil if not found
func UserFromContext(ctx context.Context) *models.User {
	user, _ := ctx.Value(userKey).(*models.User)
	return user
}

// GetUser retrieves the signed-in user from the request, nil if not found
func GetUser(r *http.Request) *models.User {
	return UserFromContext(r.Context())
}

// GetUserID retrieves the signed-in user's id, returns empty string if not found
func GetUserID(r *http.Request) string {
	if user := GetUser(r); user != nil {
		return user.ID
	}
	return ""
}
