package converter

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"inkfold/internal/domain"
	docsysSvc "inkfold/internal/domain/services/docsystem"
)

// Registry routes content to a converter by format name
type Registry struct {
	mu         sync.RWMutex
	converters map[string]docsysSvc.ContentConverter
}

// NewRegistry creates a registry with the markdown, text and HTML converters
func NewRegistry() *Registry {
	r := &Registry{converters: make(map[string]docsysSvc.ContentConverter)}
	r.Register(markdownConverter{})
	r.Register(textConverter{})
	r.Register(NewHTMLConverter())
	return r
}

// Register associates c with every format it accepts. Names are
// case-insensitive.
func (r *Registry) Register(c docsysSvc.ContentConverter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, format := range c.Formats() {
		r.converters[strings.ToLower(format)] = c
	}
}

// Convert converts input from format to markdown. An empty format means
// markdown.
func (r *Registry) Convert(ctx context.Context, format, input string) (string, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = docsysSvc.FormatMarkdown
	}

	r.mu.RLock()
	c, ok := r.converters[format]
	r.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("%w: unsupported format %q (supported: %s)",
			domain.ErrValidation, format, strings.Join(r.Formats(), ", "))
	}
	return c.Convert(ctx, input)
}

// Formats returns the registered format names, sorted
func (r *Registry) Formats() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	formats := make([]string, 0, len(r.converters))
	for f := range r.converters {
		formats = append(formats, f)
	}
	sort.Strings(formats)
	return formats
}

// markdownConverter passes markdown through unchanged
type markdownConverter struct{}

func (markdownConverter) Convert(ctx context.Context, input string) (string, error) {
	return input, nil
}

func (markdownConverter) Formats() []string { return []string{docsysSvc.FormatMarkdown, "md"} }

// textConverter normalizes line endings of plain text
type textConverter struct{}

func (textConverter) Convert(ctx context.Context, input string) (string, error) {
	return strings.ReplaceAll(input, "\r\n", "\n"), nil
}

func (textConverter) Formats() []string { return []string{docsysSvc.FormatText, "txt"} }
