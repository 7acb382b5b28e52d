package models

import (
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// SupabaseClaims represents the JWT claims structure from Supabase Auth.
// See: https://supabase.com/docs/guides/auth/jwts
type SupabaseClaims struct {
	jwt.RegisteredClaims                          // Standard JWT claims (sub, iss, aud, exp, iat, etc.)
	Email                string                   `json:"email"`
	Phone                string                   `json:"phone"`
	AppMetadata          map[string]interface{}   `json:"app_metadata"`
	UserMetadata         map[string]interface{}   `json:"user_metadata"`
	Role                 string                   `json:"role"` // "authenticated" or "anon"
	AAL                  string                   `json:"aal"`
	AMR                  []map[string]interface{} `json:"amr"`
	SessionID            string                   `json:"session_id"`
	IsAnonymous          bool                     `json:"is_anonymous"`
}

// GetUserID returns the user ID from the JWT subject claim.
func (c *SupabaseClaims) GetUserID() string {
	return c.Subject
}

// AppRole returns the application role stored in user metadata.
// Anything other than "admin" is a regular user.
func (c *SupabaseClaims) AppRole() string {
	if role, ok := c.UserMetadata["role"].(string); ok && role == RoleAdmin {
		return RoleAdmin
	}
	return RoleUser
}

// ToUser converts verified claims into the request-scoped user. The
// configured default admin email is always an admin.
func (c *SupabaseClaims) ToUser(defaultAdminEmail string) *User {
	role := c.AppRole()
	if defaultAdminEmail != "" && strings.EqualFold(c.Email, defaultAdminEmail) {
		role = RoleAdmin
	}
	return &User{
		ID:    c.Subject,
		Email: c.Email,
		Role:  role,
	}
}
