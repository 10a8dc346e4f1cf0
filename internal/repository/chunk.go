package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/veralex-legal/casebrain/internal/domain"
)

// ChunkRepository handles persistence and similarity search of document chunks.
type ChunkRepository struct {
	pool *pgxpool.Pool
}

func NewChunkRepository(pool *pgxpool.Pool) *ChunkRepository {
	return &ChunkRepository{pool: pool}
}

// ReplaceChunks atomically replaces all chunks for a document: delete
// existing rows, then insert the new set, in one transaction. The
// delete-before-insert order guarantees old and new chunks never coexist.
func (r *ChunkRepository) ReplaceChunks(ctx context.Context, documentID string, chunks []domain.DocumentChunk) (int, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, domain.NewStorageError(err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM brain_chunks WHERE document_id = $1`, documentID); err != nil {
		return 0, domain.NewStorageError(err)
	}

	for _, c := range chunks {
		id := c.ID
		if id == "" {
			id = uuid.NewString()
		}
		createdAt := c.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}
		_, err := tx.Exec(ctx,
			`INSERT INTO brain_chunks
				(id, document_id, chunk_index, content, token_count, embedding, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			id, documentID, c.ChunkIndex, c.Content, c.TokenCount,
			pgvector.NewVector(c.Embedding), createdAt,
		)
		if err != nil {
			return 0, domain.NewStorageError(err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, domain.NewStorageError(err)
	}
	return len(chunks), nil
}

// DeleteByDocument removes all chunks belonging to a document.
// Deleting a document with no chunks is a no-op, not an error.
func (r *ChunkRepository) DeleteByDocument(ctx context.Context, documentID string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM brain_chunks WHERE document_id = $1`, documentID); err != nil {
		return domain.NewStorageError(err)
	}
	return nil
}

// CountByDocument returns the number of stored chunks for a document.
func (r *ChunkRepository) CountByDocument(ctx context.Context, documentID string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM brain_chunks WHERE document_id = $1`,
		documentID,
	).Scan(&count)
	if err != nil {
		return 0, domain.NewSearchError(err)
	}
	return count, nil
}

// Search returns the topK nearest chunks by cosine similarity, descending
// by score with ties broken by lower chunk ordinal. Results below
// minScore are excluded.
func (r *ChunkRepository) Search(ctx context.Context, embedding []float32, topK int, minScore float32) ([]domain.SimilarityResult, error) {
	if topK <= 0 {
		topK = 5
	}

	vec := pgvector.NewVector(embedding)

	rows, err := r.pool.Query(ctx,
		`SELECT id, document_id, chunk_index, content, token_count,
		        1 - (embedding <=> $1) AS score
		 FROM brain_chunks
		 WHERE 1 - (embedding <=> $1) >= $2
		 ORDER BY score DESC, chunk_index ASC
		 LIMIT $3`,
		vec, minScore, topK,
	)
	if err != nil {
		return nil, domain.NewSearchError(err)
	}
	defer rows.Close()

	results := make([]domain.SimilarityResult, 0, topK)
	for rows.Next() {
		var res domain.SimilarityResult
		if err := rows.Scan(&res.ChunkID, &res.DocumentID, &res.ChunkIndex,
			&res.Content, &res.TokenCount, &res.Score); err != nil {
			return nil, domain.NewSearchError(err)
		}
		results = append(results, res)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewSearchError(err)
	}
	return results, nil
}
