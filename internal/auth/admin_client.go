package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"inkfold/internal/domain"
	"inkfold/internal/domain/models"
)

// AdminClient talks to the Supabase Admin API with the service role key.
type AdminClient struct {
	supabaseURL string
	serviceKey  string
	httpClient  *http.Client
}

// NewAdminClient creates a new Supabase Admin API client.
// Requires the service role key (SUPABASE_KEY).
func NewAdminClient(supabaseURL, serviceKey string) *AdminClient {
	return &AdminClient{
		supabaseURL: strings.TrimRight(supabaseURL, "/"),
		serviceKey:  serviceKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// AdminUser is a user record as returned by the admin API
type AdminUser struct {
	ID           string                 `json:"id"`
	Email        string                 `json:"email"`
	CreatedAt    *time.Time             `json:"created_at,omitempty"`
	UserMetadata map[string]interface{} `json:"user_metadata,omitempty"`
}

// Role returns the application role stored in user metadata
func (u *AdminUser) Role() string {
	if role, ok := u.UserMetadata["role"].(string); ok && role == models.RoleAdmin {
		return models.RoleAdmin
	}
	return models.RoleUser
}

// ToUser converts the admin record to the service's user model
func (u *AdminUser) ToUser() *models.User {
	return &models.User{
		ID:        u.ID,
		Email:     u.Email,
		Role:      u.Role(),
		CreatedAt: u.CreatedAt,
	}
}

type createUserRequest struct {
	Email        string                 `json:"email"`
	Password     string                 `json:"password"`
	EmailConfirm bool                   `json:"email_confirm"`
	UserMetadata map[string]interface{} `json:"user_metadata,omitempty"`
}

type listUsersResponse struct {
	Users []AdminUser `json:"users"`
}

const listPageSize = 200

// ListUsers returns every user, following pagination
func (c *AdminClient) ListUsers(ctx context.Context) ([]AdminUser, error) {
	var all []AdminUser
	for page := 1; ; page++ {
		var resp listUsersResponse
		path := fmt.Sprintf("/auth/v1/admin/users?page=%d&per_page=%d", page, listPageSize)
		if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
			return nil, fmt.Errorf("list users: %w", err)
		}
		all = append(all, resp.Users...)
		if len(resp.Users) < listPageSize {
			return all, nil
		}
	}
}

// FindUserByEmail returns the user with the given email (case-insensitive)
func (c *AdminClient) FindUserByEmail(ctx context.Context, email string) (*AdminUser, error) {
	users, err := c.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		if strings.EqualFold(users[i].Email, email) {
			return &users[i], nil
		}
	}
	return nil, fmt.Errorf("user %s: %w", email, domain.ErrNotFound)
}

// CreateUser creates a confirmed user with the given role
func (c *AdminClient) CreateUser(ctx context.Context, email, password, role string) (*AdminUser, error) {
	payload := createUserRequest{
		Email:        email,
		Password:     password,
		EmailConfirm: true,
		UserMetadata: map[string]interface{}{"role": role},
	}

	var user AdminUser
	if err := c.do(ctx, http.MethodPost, "/auth/v1/admin/users", payload, &user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &user, nil
}

// UpdateUserRole writes the role into the user's metadata
func (c *AdminClient) UpdateUserRole(ctx context.Context, id, role string) (*AdminUser, error) {
	payload := map[string]interface{}{
		"user_metadata": map[string]interface{}{"role": role},
	}

	var user AdminUser
	if err := c.do(ctx, http.MethodPut, "/auth/v1/admin/users/"+id, payload, &user); err != nil {
		return nil, fmt.Errorf("update user %s: %w", id, err)
	}
	return &user, nil
}

// UpdateUserPassword sets a new password for the user
func (c *AdminClient) UpdateUserPassword(ctx context.Context, id, password string) error {
	payload := map[string]interface{}{"password": password}
	if err := c.do(ctx, http.MethodPut, "/auth/v1/admin/users/"+id, payload, nil); err != nil {
		return fmt.Errorf("update password for %s: %w", id, err)
	}
	return nil
}

// VerifyPassword signs in with email and password and discards the
// session. Wrong credentials return domain.ErrUnauthorized.
func (c *AdminClient) VerifyPassword(ctx context.Context, email, password string) error {
	payload := map[string]interface{}{"email": email, "password": password}
	err := c.do(ctx, http.MethodPost, "/auth/v1/token?grant_type=password", payload, nil)
	var statusErr *apiStatusError
	if errors.As(err, &statusErr) && (statusErr.status == http.StatusBadRequest || statusErr.status == http.StatusUnauthorized) {
		return fmt.Errorf("verify password: %w", domain.ErrUnauthorized)
	}
	if err != nil {
		return fmt.Errorf("verify password: %w", err)
	}
	return nil
}

// DeleteUser deletes a user by id
func (c *AdminClient) DeleteUser(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, "/auth/v1/admin/users/"+id, nil, nil); err != nil {
		return fmt.Errorf("delete user %s: %w", id, err)
	}
	return nil
}

// do sends a request and decodes a JSON response into out when non-nil.
// Status codes are mapped to domain errors.
func (c *AdminClient) do(ctx context.Context, method, path string, payload, out interface{}) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.supabaseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.serviceKey)
	req.Header.Set("apikey", c.serviceKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return domain.ErrNotFound
	case resp.StatusCode == http.StatusConflict || resp.StatusCode == http.StatusUnprocessableEntity:
		return &domain.ConflictError{Message: strings.TrimSpace(string(respBody)), ResourceType: "user"}
	case resp.StatusCode >= 300:
		return &apiStatusError{status: resp.StatusCode, body: strings.TrimSpace(string(respBody))}
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// apiStatusError is an unmapped non-2xx answer from the auth API
type apiStatusError struct {
	status int
	body   string
}

func (e *apiStatusError) Error() string {
	return fmt.Sprintf("admin api status %d: %s", e.status, e.body)
}
