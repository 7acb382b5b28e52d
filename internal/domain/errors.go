package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// HTTPError defines errors that can be mapped to HTTP status codes.
type HTTPError interface {
	error
	StatusCode() int
}

// Sentinel errors - use with errors.Is()
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("already exists")
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)

// Resource-specific not-found errors. Each matches ErrNotFound.
var (
	ErrDocumentNotFound = fmt.Errorf("document %w", ErrNotFound)
	ErrFolderNotFound   = fmt.Errorf("folder %w", ErrNotFound)
	ErrConfigNotFound   = fmt.Errorf("ai config %w", ErrNotFound)
	ErrPromptNotFound   = fmt.Errorf("ai prompt %w", ErrNotFound)
)

// Model invocation failure kinds, matched through ModelError.Is.
var (
	ErrModelRequest  = errors.New("model request failed")
	ErrModelStatus   = errors.New("model endpoint returned an error status")
	ErrModelResponse = errors.New("malformed model response")
)

// ConflictError represents a resource conflict with details about the existing resource
type ConflictError struct {
	Message      string // Human-readable error message
	ResourceType string // Type of resource (document, folder)
	ResourceID   string // ID of the existing/conflicting resource
}

// Error implements the error interface
func (e *ConflictError) Error() string {
	return e.Message
}

// StatusCode implements the HTTPError interface
func (e *ConflictError) StatusCode() int {
	return http.StatusConflict
}

// Is allows errors.Is() to match against ErrConflict
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// ModelError is returned when the external model endpoint cannot produce a
// usable completion. Kind is one of ErrModelRequest, ErrModelStatus or
// ErrModelResponse.
type ModelError struct {
	Kind   error
	Status int    // upstream HTTP status, ErrModelStatus only
	Detail string // upstream message, truncated
	Err    error
}

func NewModelStatusError(status int, detail string) *ModelError {
	return &ModelError{Kind: ErrModelStatus, Status: status, Detail: truncate(detail, 300)}
}

func NewModelResponseError(detail string, err error) *ModelError {
	return &ModelError{Kind: ErrModelResponse, Detail: detail, Err: err}
}

func NewModelRequestError(err error) *ModelError {
	return &ModelError{Kind: ErrModelRequest, Err: err}
}

func (e *ModelError) Error() string {
	msg := e.Kind.Error()
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.Status)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// StatusCode implements the HTTPError interface
func (e *ModelError) StatusCode() int {
	return http.StatusBadGateway
}

func (e *ModelError) Is(target error) bool {
	return target == e.Kind
}

func (e *ModelError) Unwrap() error {
	return e.Err
}

// truncate keeps at most max runes
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
