package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/veralex-legal/casebrain/internal/domain"
	"github.com/veralex-legal/casebrain/internal/pagination"
)

// DocumentRepository handles persistence of knowledge-base documents.
type DocumentRepository struct {
	db dbtx
}

func NewDocumentRepository(pool *pgxpool.Pool) *DocumentRepository {
	return &DocumentRepository{db: pool}
}

func NewDocumentRepositoryWithTx(tx pgx.Tx) *DocumentRepository {
	return &DocumentRepository{db: tx}
}

func (r *DocumentRepository) Create(ctx context.Context, d *domain.Document) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO brain_documents
			(id, title, description, filename, file_url, mime_type, size_bytes, indexing_status, chunk_count, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		d.ID, d.Title, nullableString(d.Description), nullableString(d.Filename),
		d.FileURL, nullableString(d.MimeType), d.SizeBytes, d.Status, d.ChunkCount,
		d.CreatedAt, d.UpdatedAt,
	)
	return err
}

func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	row := r.db.QueryRow(ctx,
		`SELECT id, title, description, filename, file_url, mime_type, size_bytes, indexing_status, chunk_count, indexed_at, created_at, updated_at
		 FROM brain_documents WHERE id = $1`,
		id,
	)
	return scanDocument(row)
}

// List returns documents newest first, optionally filtered by status.
// Paging is keyset-based on (created_at, id); the returned bool reports
// whether more rows exist past this page.
func (r *DocumentRepository) List(ctx context.Context, status domain.IndexingStatus, cursor *pagination.Cursor, limit int) ([]*domain.Document, bool, error) {
	query := `SELECT id, title, description, filename, file_url, mime_type, size_bytes, indexing_status, chunk_count, indexed_at, created_at, updated_at
		 FROM brain_documents`
	conds := []string{}
	args := []any{}

	if status != "" {
		args = append(args, status)
		conds = append(conds, fmt.Sprintf("indexing_status = $%d", len(args)))
	}
	if cursor != nil {
		args = append(args, cursor.Timestamp, cursor.LastID)
		conds = append(conds, fmt.Sprintf("(created_at, id) < ($%d, $%d)", len(args)-1, len(args)))
	}
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}

	// Fetch one extra row to detect whether another page follows.
	args = append(args, limit+1)
	query += fmt.Sprintf(` ORDER BY created_at DESC, id DESC LIMIT $%d`, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, false, err
	}
	defer rows.Close()

	docs, err := scanDocumentRows(rows)
	if err != nil {
		return nil, false, err
	}

	hasMore := len(docs) > limit
	if hasMore {
		docs = docs[:limit]
	}
	return docs, hasMore, nil
}

// ListReindexable returns documents eligible for bulk indexing, oldest first.
func (r *DocumentRepository) ListReindexable(ctx context.Context) ([]*domain.Document, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, title, description, filename, file_url, mime_type, size_bytes, indexing_status, chunk_count, indexed_at, created_at, updated_at
		 FROM brain_documents
		 WHERE indexing_status IN ($1, $2)
		 ORDER BY created_at ASC`,
		domain.IndexingStatusPending, domain.IndexingStatusFailed,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDocumentRows(rows)
}

func (r *DocumentRepository) Delete(ctx context.Context, id string) error {
	cmdTag, err := r.db.Exec(ctx,
		`DELETE FROM brain_documents WHERE id = $1`,
		id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrDocumentNotFound
	}
	return nil
}

// SetStatus persists an indexing status transition.
func (r *DocumentRepository) SetStatus(ctx context.Context, id string, status domain.IndexingStatus) error {
	if !domain.IsValidIndexingStatus(status) {
		return domain.ErrInvalidIndexingStatus
	}
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE brain_documents SET indexing_status = $1, updated_at = $2 WHERE id = $3`,
		status, time.Now().UTC(), id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrDocumentNotFound
	}
	return nil
}

// MarkIndexed records a successful indexing run: status, timestamp, chunk count.
func (r *DocumentRepository) MarkIndexed(ctx context.Context, id string, chunkCount int) error {
	now := time.Now().UTC()
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE brain_documents
		 SET indexing_status = $1, indexed_at = $2, chunk_count = $3, updated_at = $2
		 WHERE id = $4`,
		domain.IndexingStatusIndexed, now, chunkCount, id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrDocumentNotFound
	}
	return nil
}

// ResetStuck flips documents stuck in 'indexing' longer than the lease
// back to 'pending' so bulk indexing can pick them up again.
func (r *DocumentRepository) ResetStuck(ctx context.Context, lease time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-lease)
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE brain_documents
		 SET indexing_status = $1, updated_at = $2
		 WHERE indexing_status = $3 AND updated_at < $4`,
		domain.IndexingStatusPending, time.Now().UTC(), domain.IndexingStatusIndexing, cutoff,
	)
	if err != nil {
		return 0, err
	}
	return cmdTag.RowsAffected(), nil
}

// StatusCounts returns per-status document totals.
func (r *DocumentRepository) StatusCounts(ctx context.Context) (*domain.StatusCounts, error) {
	rows, err := r.db.Query(ctx,
		`SELECT indexing_status, COUNT(*) FROM brain_documents GROUP BY indexing_status`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := &domain.StatusCounts{}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts.Total += count
		switch domain.IndexingStatus(status) {
		case domain.IndexingStatusIndexed:
			counts.Indexed += count
		case domain.IndexingStatusIndexing:
			counts.Indexing += count
		case domain.IndexingStatusFailed:
			counts.Failed += count
		default:
			counts.Pending += count
		}
	}
	return counts, rows.Err()
}

// GetTitles resolves document titles for source attribution.
func (r *DocumentRepository) GetTitles(ctx context.Context, ids []string) (map[string]string, error) {
	if len(ids) == 0 {
		return map[string]string{}, nil
	}

	rows, err := r.db.Query(ctx,
		`SELECT id, title FROM brain_documents WHERE id = ANY($1)`,
		ids,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	titles := make(map[string]string, len(ids))
	for rows.Next() {
		var id, title string
		if err := rows.Scan(&id, &title); err != nil {
			return nil, err
		}
		titles[id] = title
	}
	return titles, rows.Err()
}

func scanDocument(row pgx.Row) (*domain.Document, error) {
	var d domain.Document
	var description, filename, mimeType *string
	err := row.Scan(&d.ID, &d.Title, &description, &filename, &d.FileURL, &mimeType,
		&d.SizeBytes, &d.Status, &d.ChunkCount, &d.IndexedAt, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrDocumentNotFound
		}
		return nil, err
	}
	if description != nil {
		d.Description = *description
	}
	if filename != nil {
		d.Filename = *filename
	}
	if mimeType != nil {
		d.MimeType = *mimeType
	}
	return &d, nil
}

func scanDocumentRows(rows pgx.Rows) ([]*domain.Document, error) {
	var results []*domain.Document
	for rows.Next() {
		var d domain.Document
		var description, filename, mimeType *string
		if err := rows.Scan(&d.ID, &d.Title, &description, &filename, &d.FileURL, &mimeType,
			&d.SizeBytes, &d.Status, &d.ChunkCount, &d.IndexedAt, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		if description != nil {
			d.Description = *description
		}
		if filename != nil {
			d.Filename = *filename
		}
		if mimeType != nil {
			d.MimeType = *mimeType
		}
		results = append(results, &d)
	}
	return results, rows.Err()
}
