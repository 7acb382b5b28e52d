package ai

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	"inkfold/internal/domain/models"
)

// Route names the client that serves an invocation
type Route string

const (
	RouteLorem      Route = "lorem"
	RouteAnthropic  Route = "anthropic"
	RouteOpenRouter Route = "openrouter"
	RouteOpenAI     Route = "openai" // any chat-completions endpoint
)

// RouteFor picks the client for an invocation from its base URL and model
func RouteFor(inv models.Invocation) Route {
	if strings.HasPrefix(inv.Model, "lorem") || strings.HasPrefix(inv.BaseURL, "lorem://") {
		return RouteLorem
	}

	u, err := url.Parse(inv.BaseURL)
	if err != nil {
		return RouteOpenAI
	}
	host := strings.ToLower(u.Hostname())
	switch {
	case host == "anthropic.com" || strings.HasSuffix(host, ".anthropic.com"):
		return RouteAnthropic
	case host == "openrouter.ai" || strings.HasSuffix(host, ".openrouter.ai"):
		return RouteOpenRouter
	}
	return RouteOpenAI
}

// Router implements services.ModelInvoker by dispatching on RouteFor
type Router struct {
	openai   *OpenAIInvoker
	meridian *MeridianInvoker
	logger   *slog.Logger
}

// NewRouter creates a router over both clients
func NewRouter(openai *OpenAIInvoker, meridian *MeridianInvoker, logger *slog.Logger) *Router {
	return &Router{openai: openai, meridian: meridian, logger: logger}
}

// Invoke sends the invocation to the client its route selects
func (r *Router) Invoke(ctx context.Context, inv models.Invocation) (string, error) {
	route := RouteFor(inv)
	r.logger.Debug("routing model invocation", "route", route, "model", inv.Model)

	if route == RouteOpenAI {
		return r.openai.Invoke(ctx, inv)
	}
	return r.meridian.Invoke(ctx, route, inv)
}
