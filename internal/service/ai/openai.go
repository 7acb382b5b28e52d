package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"inkfold/internal/domain"
	"inkfold/internal/domain/models"
)

// OpenAIInvoker calls any endpoint that speaks the OpenAI chat completions
// protocol (OpenAI, DeepSeek, local gateways).
type OpenAIInvoker struct {
	httpClient *http.Client
	logger     *slog.Logger
}

// NewOpenAIInvoker creates an invoker with the given per-request timeout
func NewOpenAIInvoker(timeout time.Duration, logger *slog.Logger) *OpenAIInvoker {
	return &OpenAIInvoker{
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Invoke sends system + user messages and returns the first choice
func (c *OpenAIInvoker) Invoke(ctx context.Context, inv models.Invocation) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: inv.Model,
		Messages: []chatMessage{
			{Role: "system", Content: inv.SystemPrompt},
			{Role: "user", Content: inv.UserContent},
		},
	})
	if err != nil {
		return "", domain.NewModelRequestError(fmt.Errorf("encode request: %w", err))
	}

	url := strings.TrimRight(inv.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", domain.NewModelRequestError(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if inv.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+inv.APIKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", domain.NewModelRequestError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		slurp, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		detail := strings.TrimSpace(string(slurp))
		var apiErr errorResponse
		if json.Unmarshal(slurp, &apiErr) == nil && apiErr.Error.Message != "" {
			detail = apiErr.Error.Message
		}
		c.logger.Warn("model endpoint returned error",
			"status", resp.StatusCode,
			"model", inv.Model,
			"base_url", inv.BaseURL,
		)
		return "", domain.NewModelStatusError(resp.StatusCode, detail)
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", domain.NewModelResponseError("decode completion", err)
	}
	if len(out.Choices) == 0 {
		return "", domain.NewModelResponseError("no choices in completion", nil)
	}
	text := out.Choices[0].Message.Content
	if strings.TrimSpace(text) == "" {
		return "", domain.NewModelResponseError("empty completion", nil)
	}

	c.logger.Debug("model invoked",
		"model", inv.Model,
		"duration_ms", time.Since(start).Milliseconds(),
		"output_chars", len(text),
	)
	return text, nil
}
