package converter

import (
	"context"
	"fmt"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/microcosm-cc/bluemonday"

	docsysSvc "inkfold/internal/domain/services/docsystem"
)

// htmlConverter sanitizes HTML, then converts it to markdown. Scripts,
// event handlers and javascript: URLs never reach the stored document.
type htmlConverter struct {
	policy    *bluemonday.Policy
	converter *md.Converter
}

func NewHTMLConverter() docsysSvc.ContentConverter {
	return &htmlConverter{
		policy:    bluemonday.UGCPolicy(),
		converter: md.NewConverter("", true, nil),
	}
}

func (c *htmlConverter) Convert(ctx context.Context, input string) (string, error) {
	sanitized := c.policy.Sanitize(input)

	markdown, err := c.converter.ConvertString(sanitized)
	if err != nil {
		return "", fmt.Errorf("convert html to markdown: %w", err)
	}
	return strings.TrimSpace(markdown), nil
}

func (c *htmlConverter) Formats() []string { return []string{docsysSvc.FormatHTML, "htm"} }
