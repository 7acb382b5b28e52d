package docsystem

import "context"

// Ingestion content formats
const (
	FormatMarkdown = "markdown"
	FormatText     = "text"
	FormatHTML     = "html"
)

// ContentConverter turns ingested content into the markdown stored in
// documents. Implementations are stateless and safe for concurrent use.
type ContentConverter interface {
	Convert(ctx context.Context, input string) (markdown string, err error)

	// Formats lists the format names this converter accepts
	Formats() []string
}
