package models

import "time"

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User is the signed-in account as seen by this service.
type User struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	Role      string     `json:"role"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// ValidRole reports whether role is assignable.
func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleUser
}

// CurrentUser is the response of GET /api/users/me.
type CurrentUser struct {
	User     *User         `json:"user"`
	Settings *SettingsView `json:"settings"`
}
