package docsystem

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"inkfold/internal/domain"
	models "inkfold/internal/domain/models/docsystem"
	docsysRepo "inkfold/internal/domain/repositories/docsystem"
	"inkfold/internal/repository/postgres"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const documentColumns = "id, user_id, folder_id, title, content, created_at, updated_at"

// PostgresDocumentRepository implements the DocumentRepository interface
type PostgresDocumentRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(config *postgres.RepositoryConfig) docsysRepo.DocumentRepository {
	return &PostgresDocumentRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Create creates a new document
func (r *PostgresDocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, user_id, folder_id, title, content, created_at, updated_at)
		VALUES (COALESCE($1::uuid, gen_random_uuid()), $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`, r.tables.Documents)

	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		nullableID(doc.ID),
		doc.UserID,
		doc.FolderID,
		doc.Title,
		doc.Content,
		doc.CreatedAt,
		doc.UpdatedAt,
	).Scan(&doc.ID, &doc.CreatedAt, &doc.UpdatedAt)

	if err != nil {
		switch {
		case postgres.IsPgDuplicateError(err):
			return &domain.ConflictError{
				Message:      fmt.Sprintf("document %s already exists", doc.ID),
				ResourceType: "document",
				ResourceID:   doc.ID,
			}
		case postgres.IsPgForeignKeyError(err):
			return fmt.Errorf("folder %s: %w", doc.FolderID, domain.ErrFolderNotFound)
		}
		return fmt.Errorf("create document: %w", err)
	}

	return nil
}

// GetByID retrieves a document owned by userID
func (r *PostgresDocumentRepository) GetByID(ctx context.Context, id, userID string) (*models.Document, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE id = $1 AND user_id = $2
	`, documentColumns, r.tables.Documents)

	doc, err := scanDocument(postgres.GetExecutor(ctx, r.pool).QueryRow(ctx, query, id, userID))
	if err != nil {
		if postgres.IsPgNoRowsError(err) || postgres.IsPgInvalidInputError(err) {
			return nil, fmt.Errorf("document %s: %w", id, domain.ErrDocumentNotFound)
		}
		return nil, fmt.Errorf("get document: %w", err)
	}
	return doc, nil
}

// ListByFolder returns a folder's documents, most recently updated first
func (r *PostgresDocumentRepository) ListByFolder(ctx context.Context, folderID, userID string) ([]models.Document, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE folder_id = $1 AND user_id = $2
		ORDER BY updated_at DESC
	`, documentColumns, r.tables.Documents)

	rows, err := postgres.GetExecutor(ctx, r.pool).Query(ctx, query, folderID, userID)
	if err != nil {
		if postgres.IsPgInvalidInputError(err) {
			return nil, fmt.Errorf("folder %s: %w", folderID, domain.ErrFolderNotFound)
		}
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return collectDocuments(rows)
}

// Update applies a partial update. Only non-nil patch fields are written.
func (r *PostgresDocumentRepository) Update(ctx context.Context, id, userID string, patch models.DocumentPatch) (*models.Document, error) {
	sets := []string{"updated_at = $3"}
	args := []interface{}{id, userID, time.Now()}

	if patch.Title != nil {
		args = append(args, *patch.Title)
		sets = append(sets, fmt.Sprintf("title = $%d", len(args)))
	}
	if patch.Content != nil {
		args = append(args, *patch.Content)
		sets = append(sets, fmt.Sprintf("content = $%d", len(args)))
	}

	query := fmt.Sprintf(`
		UPDATE %s
		SET %s
		WHERE id = $1 AND user_id = $2
		RETURNING %s
	`, r.tables.Documents, strings.Join(sets, ", "), documentColumns)

	doc, err := scanDocument(postgres.GetExecutor(ctx, r.pool).QueryRow(ctx, query, args...))
	if err != nil {
		if postgres.IsPgNoRowsError(err) || postgres.IsPgInvalidInputError(err) {
			return nil, fmt.Errorf("document %s: %w", id, domain.ErrDocumentNotFound)
		}
		return nil, fmt.Errorf("update document: %w", err)
	}
	return doc, nil
}

// Delete removes a document
func (r *PostgresDocumentRepository) Delete(ctx context.Context, id, userID string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1 AND user_id = $2`, r.tables.Documents)

	result, err := postgres.GetExecutor(ctx, r.pool).Exec(ctx, query, id, userID)
	if err != nil {
		if postgres.IsPgInvalidInputError(err) {
			return fmt.Errorf("document %s: %w", id, domain.ErrDocumentNotFound)
		}
		return fmt.Errorf("delete document: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("document %s: %w", id, domain.ErrDocumentNotFound)
	}
	return nil
}

// Search matches titles case-insensitively. Callers apply defaults and
// validate opts first.
func (r *PostgresDocumentRepository) Search(ctx context.Context, userID string, opts *models.SearchOptions) ([]models.Document, error) {
	args := []interface{}{userID, opts.LikePattern(), opts.Limit}
	folderFilter := ""
	if opts.FolderID != nil {
		args = append(args, *opts.FolderID)
		folderFilter = "AND folder_id = $4"
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE user_id = $1 AND title ILIKE $2 %s
		ORDER BY updated_at DESC
		LIMIT $3
	`, documentColumns, r.tables.Documents, folderFilter)

	rows, err := postgres.GetExecutor(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		if postgres.IsPgInvalidInputError(err) {
			return []models.Document{}, nil
		}
		return nil, fmt.Errorf("search documents: %w", err)
	}

	docs, err := collectDocuments(rows)
	if err != nil {
		return nil, err
	}

	r.logger.Debug("document search", "query", opts.Query, "folder_id", opts.FolderID, "results", len(docs))
	return docs, nil
}

func scanDocument(row pgx.Row) (*models.Document, error) {
	var doc models.Document
	if err := row.Scan(
		&doc.ID,
		&doc.UserID,
		&doc.FolderID,
		&doc.Title,
		&doc.Content,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &doc, nil
}

func collectDocuments(rows pgx.Rows) ([]models.Document, error) {
	defer rows.Close()

	docs := []models.Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return docs, nil
}
