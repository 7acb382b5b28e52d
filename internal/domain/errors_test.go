package domain

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestNotFoundVariantsMatchSentinel(t *testing.T) {
	for _, err := range []error{ErrDocumentNotFound, ErrFolderNotFound, ErrConfigNotFound, ErrPromptNotFound} {
		wrapped := fmt.Errorf("lookup abc: %w", err)
		if !errors.Is(wrapped, ErrNotFound) {
			t.Errorf("%v does not match ErrNotFound", err)
		}
		if !errors.Is(wrapped, err) {
			t.Errorf("%v does not match itself after wrapping", err)
		}
	}

	if errors.Is(ErrConfigNotFound, ErrPromptNotFound) {
		t.Error("config and prompt not-found errors must be distinct")
	}
}

func TestModelError(t *testing.T) {
	tests := []struct {
		name      string
		err       *ModelError
		kind      error
		notKinds  []error
		contains  string
		unwrapsTo error
	}{
		{
			name:     "status",
			err:      NewModelStatusError(401, "invalid api key"),
			kind:     ErrModelStatus,
			notKinds: []error{ErrModelRequest, ErrModelResponse},
			contains: "status 401",
		},
		{
			name:     "malformed",
			err:      NewModelResponseError("no choices", nil),
			kind:     ErrModelResponse,
			notKinds: []error{ErrModelStatus},
			contains: "no choices",
		},
		{
			name:      "transport",
			err:       NewModelRequestError(context.DeadlineExceeded),
			kind:      ErrModelRequest,
			notKinds:  []error{ErrModelStatus},
			unwrapsTo: context.DeadlineExceeded,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("transform: %w", tt.err)
			if !errors.Is(wrapped, tt.kind) {
				t.Errorf("expected match with %v", tt.kind)
			}
			for _, k := range tt.notKinds {
				if errors.Is(wrapped, k) {
					t.Errorf("unexpected match with %v", k)
				}
			}
			if tt.contains != "" && !strings.Contains(tt.err.Error(), tt.contains) {
				t.Errorf("Error() = %q, want it to contain %q", tt.err.Error(), tt.contains)
			}
			if tt.unwrapsTo != nil && !errors.Is(wrapped, tt.unwrapsTo) {
				t.Errorf("expected to unwrap to %v", tt.unwrapsTo)
			}

			var httpErr HTTPError
			if !errors.As(wrapped, &httpErr) || httpErr.StatusCode() != http.StatusBadGateway {
				t.Error("ModelError should map to 502")
			}
		})
	}
}

func TestModelStatusErrorTruncatesDetail(t *testing.T) {
	err := NewModelStatusError(500, strings.Repeat("x", 1000))
	if len(err.Detail) > 303 {
		t.Errorf("detail length = %d, want <= 303", len(err.Detail))
	}
}

func TestModelStatusErrorKeepsRunesWhole(t *testing.T) {
	err := NewModelStatusError(500, strings.Repeat("é", 400))
	if !utf8.ValidString(err.Detail) {
		t.Errorf("detail is not valid UTF-8: %q", err.Detail)
	}
	if n := utf8.RuneCountInString(err.Detail); n != 303 {
		t.Errorf("detail has %d runes, want 303", n)
	}
}

func TestConflictErrorMatchesSentinel(t *testing.T) {
	err := fmt.Errorf("create: %w", &ConflictError{Message: "exists", ResourceType: "folder", ResourceID: "f1"})
	if !errors.Is(err, ErrConflict) {
		t.Error("ConflictError should match ErrConflict")
	}
}
