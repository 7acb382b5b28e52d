package ai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	llmprovider "github.com/haowjy/meridian-llm-go"
	"github.com/haowjy/meridian-llm-go/providers/anthropic"
	"github.com/haowjy/meridian-llm-go/providers/lorem"
	"github.com/haowjy/meridian-llm-go/providers/openrouter"

	"inkfold/internal/domain"
	"inkfold/internal/domain/models"
)

// ProviderFactory builds a meridian-llm-go provider for a route and key
type ProviderFactory func(route Route, apiKey string) (llmprovider.Provider, error)

// DefaultProviderFactory creates the library's lorem, anthropic and
// openrouter providers
func DefaultProviderFactory(route Route, apiKey string) (llmprovider.Provider, error) {
	switch route {
	case RouteLorem:
		return lorem.NewProvider(), nil
	case RouteAnthropic:
		if apiKey == "" {
			return nil, fmt.Errorf("anthropic requires an api key")
		}
		return anthropic.NewProvider(apiKey)
	case RouteOpenRouter:
		if apiKey == "" {
			return nil, fmt.Errorf("openrouter requires an api key")
		}
		return openrouter.NewProvider(apiKey)
	default:
		return nil, fmt.Errorf("unsupported provider route: %s", route)
	}
}

// MeridianInvoker runs invocations through meridian-llm-go providers
type MeridianInvoker struct {
	newProvider ProviderFactory
	timeout     time.Duration
	logger      *slog.Logger
}

// NewMeridianInvoker creates an invoker. A nil factory uses
// DefaultProviderFactory.
func NewMeridianInvoker(factory ProviderFactory, timeout time.Duration, logger *slog.Logger) *MeridianInvoker {
	if factory == nil {
		factory = DefaultProviderFactory
	}
	return &MeridianInvoker{newProvider: factory, timeout: timeout, logger: logger}
}

// Invoke sends the invocation through the provider for route. The library
// request carries only messages, so the instruction is folded into the user
// message ahead of the document.
func (m *MeridianInvoker) Invoke(ctx context.Context, route Route, inv models.Invocation) (string, error) {
	provider, err := m.newProvider(route, inv.APIKey)
	if err != nil {
		return "", domain.NewModelRequestError(err)
	}

	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	text := composePrompt(inv.SystemPrompt, inv.UserContent)
	req := &llmprovider.GenerateRequest{
		Model: inv.Model,
		Messages: []llmprovider.Message{{
			Role: "user",
			Blocks: []*llmprovider.Block{{
				BlockType:   "text",
				Sequence:    0,
				TextContent: &text,
			}},
		}},
	}

	start := time.Now()
	resp, err := provider.GenerateResponse(ctx, req)
	if err != nil {
		return "", domain.NewModelRequestError(err)
	}
	if resp == nil {
		return "", domain.NewModelResponseError("nil response", nil)
	}

	var out strings.Builder
	for _, block := range resp.Blocks {
		if block == nil || block.BlockType != "text" || block.TextContent == nil {
			continue
		}
		out.WriteString(*block.TextContent)
	}
	if strings.TrimSpace(out.String()) == "" {
		return "", domain.NewModelResponseError("empty completion", nil)
	}

	m.logger.Debug("model invoked",
		"provider", provider.Name().String(),
		"model", inv.Model,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return out.String(), nil
}

func composePrompt(instruction, content string) string {
	if strings.TrimSpace(instruction) == "" {
		return content
	}
	return instruction + "\n\n---\n\n" + content
}
