package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"inkfold/internal/domain"
	"inkfold/internal/workspace"
)

// Client talks to the inkfold REST API on behalf of one signed-in user.
// It implements the workspace backends, so a CLI session runs the same
// controllers as the server's WebSocket session.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// New creates a client. token is a Supabase access token.
func New(baseURL, token string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Backends binds a workspace to this client
func (c *Client) Backends() workspace.Backends {
	return workspace.Backends{
		Folders:     c,
		Documents:   c,
		Transformer: c,
	}
}

// APIError is a non-2xx response. It matches the domain sentinel of its
// status code with errors.Is.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("api status %d", e.Status)
	}
	return fmt.Sprintf("api status %d: %s", e.Status, e.Detail)
}

func (e *APIError) Is(target error) bool {
	switch e.Status {
	case http.StatusBadRequest, http.StatusRequestEntityTooLarge:
		return target == domain.ErrValidation
	case http.StatusUnauthorized:
		return target == domain.ErrUnauthorized
	case http.StatusForbidden:
		return target == domain.ErrForbidden
	case http.StatusNotFound:
		return target == domain.ErrNotFound
	case http.StatusConflict:
		return target == domain.ErrConflict
	}
	return false
}

type problem struct {
	Status int    `json:"status"`
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

// do sends a request and decodes a JSON response into out when non-nil
func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload, out interface{}) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 300 {
		return decodeError(resp.StatusCode, respBody)
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// decodeError reads an RFC 7807 body. Create endpoints answer 409 with the
// existing resource instead, which carries no detail.
func decodeError(status int, body []byte) error {
	var p problem
	if err := json.Unmarshal(body, &p); err == nil && p.Status == status {
		detail := p.Detail
		if detail == "" {
			detail = p.Title
		}
		return &APIError{Status: status, Detail: detail}
	}
	if status == http.StatusConflict {
		return &APIError{Status: status, Detail: "already exists"}
	}
	return &APIError{Status: status, Detail: strings.TrimSpace(string(body))}
}

// IsUnauthorized reports whether err means the token was rejected
func IsUnauthorized(err error) bool {
	return errors.Is(err, domain.ErrUnauthorized)
}
