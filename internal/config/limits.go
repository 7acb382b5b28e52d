package config

const (
	// MaxDocumentTitleLength is the maximum length for document titles.
	// Limited to 255 to fit in PostgreSQL VARCHAR(255).
	MaxDocumentTitleLength = 255

	// MaxFolderNameLength is the maximum length for folder names.
	MaxFolderNameLength = 255

	// MaxSearchQueryLength bounds the title search input.
	MaxSearchQueryLength = 200

	// MaxBatchSize is the largest document selection a single batch accepts.
	MaxBatchSize = 100

	// MinPasswordLength and MaxPasswordLength bound account passwords.
	// 72 is bcrypt's input limit.
	MinPasswordLength = 6
	MaxPasswordLength = 72

	// MaxAIConfigs and MaxAIPrompts bound the per-account AI settings lists.
	MaxAIConfigs = 20
	MaxAIPrompts = 50
)
