package docsystem

import (
	"fmt"
	"strings"
)

// Default search configuration values
const (
	DefaultSearchLimit = 50
	MaxSearchLimit     = 100
)

// SearchOptions configures a title search.
type SearchOptions struct {
	// Query is matched case-insensitively as a substring of the title
	Query string

	// FolderID limits results to one folder; nil searches all folders
	FolderID *string

	Limit int
}

// ApplyDefaults fills in default values for unset fields
func (opts *SearchOptions) ApplyDefaults() {
	opts.Query = strings.TrimSpace(opts.Query)
	if opts.Limit <= 0 {
		opts.Limit = DefaultSearchLimit
	}
	if opts.FolderID != nil && *opts.FolderID == "" {
		opts.FolderID = nil
	}
}

// Validate checks that required fields are set and values are reasonable
func (opts *SearchOptions) Validate() error {
	if opts.Query == "" {
		return fmt.Errorf("search query cannot be empty")
	}
	if opts.Limit < 0 {
		return fmt.Errorf("limit cannot be negative")
	}
	if opts.Limit > MaxSearchLimit {
		return fmt.Errorf("limit cannot exceed %d (requested: %d)", MaxSearchLimit, opts.Limit)
	}
	return nil
}

// LikePattern escapes ILIKE wildcards in the query and wraps it for a
// substring match.
func (opts *SearchOptions) LikePattern() string {
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(opts.Query)
	return "%" + escaped + "%"
}
