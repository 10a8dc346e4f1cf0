//go:build integration

package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veralex-legal/casebrain/internal/domain"
	"github.com/veralex-legal/casebrain/internal/pagination"
	"github.com/veralex-legal/casebrain/internal/testutil"
)

func newTestDocument(title string) *domain.Document {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.Document{
		ID:        uuid.NewString(),
		Title:     title,
		FileURL:   "https://files.example.com/" + uuid.NewString() + ".pdf",
		MimeType:  "application/pdf",
		Status:    domain.IndexingStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestDocumentRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewDocumentRepository(pool)

	doc := newTestDocument("Debt Validation Letter")
	doc.Description = "FDCPA 1692g response"
	require.NoError(t, repo.Create(ctx, doc))

	retrieved, err := repo.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, doc.ID, retrieved.ID)
	assert.Equal(t, doc.Title, retrieved.Title)
	assert.Equal(t, doc.Description, retrieved.Description)
	assert.Equal(t, domain.IndexingStatusPending, retrieved.Status)
	assert.Nil(t, retrieved.IndexedAt)
}

func TestDocumentRepository_GetByID_NotFound(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewDocumentRepository(pool)

	_, err := repo.GetByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
}

func TestDocumentRepository_ListAndFilter(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewDocumentRepository(pool)

	pending := newTestDocument("Pending Doc")
	require.NoError(t, repo.Create(ctx, pending))

	failed := newTestDocument("Failed Doc")
	require.NoError(t, repo.Create(ctx, failed))
	require.NoError(t, repo.SetStatus(ctx, failed.ID, domain.IndexingStatusFailed))

	all, hasMore, err := repo.List(ctx, "", nil, 10)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.False(t, hasMore)

	onlyFailed, hasMore, err := repo.List(ctx, domain.IndexingStatusFailed, nil, 10)
	require.NoError(t, err)
	require.Len(t, onlyFailed, 1)
	assert.False(t, hasMore)
	assert.Equal(t, failed.ID, onlyFailed[0].ID)
}

func TestDocumentRepository_ListPagination(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewDocumentRepository(pool)

	base := time.Now().UTC().Truncate(time.Microsecond).Add(-time.Hour)
	for i := 0; i < 5; i++ {
		doc := newTestDocument(fmt.Sprintf("Doc %d", i))
		doc.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		doc.UpdatedAt = doc.CreatedAt
		require.NoError(t, repo.Create(ctx, doc))
	}

	first, hasMore, err := repo.List(ctx, "", nil, 2)
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.True(t, hasMore)
	assert.Equal(t, "Doc 4", first[0].Title)
	assert.Equal(t, "Doc 3", first[1].Title)

	cursor := &pagination.Cursor{
		LastID:    first[1].ID,
		Timestamp: first[1].CreatedAt,
	}
	second, hasMore, err := repo.List(ctx, "", cursor, 2)
	require.NoError(t, err)
	require.Len(t, second, 2)
	assert.True(t, hasMore)
	assert.Equal(t, "Doc 2", second[0].Title)
	assert.Equal(t, "Doc 1", second[1].Title)

	cursor = &pagination.Cursor{
		LastID:    second[1].ID,
		Timestamp: second[1].CreatedAt,
	}
	third, hasMore, err := repo.List(ctx, "", cursor, 2)
	require.NoError(t, err)
	require.Len(t, third, 1)
	assert.False(t, hasMore)
	assert.Equal(t, "Doc 0", third[0].Title)
}

func TestDocumentRepository_ListReindexable(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewDocumentRepository(pool)

	pending := newTestDocument("Pending")
	require.NoError(t, repo.Create(ctx, pending))

	failed := newTestDocument("Failed")
	require.NoError(t, repo.Create(ctx, failed))
	require.NoError(t, repo.SetStatus(ctx, failed.ID, domain.IndexingStatusFailed))

	indexed := newTestDocument("Indexed")
	require.NoError(t, repo.Create(ctx, indexed))
	require.NoError(t, repo.MarkIndexed(ctx, indexed.ID, 4))

	indexing := newTestDocument("Indexing")
	require.NoError(t, repo.Create(ctx, indexing))
	require.NoError(t, repo.SetStatus(ctx, indexing.ID, domain.IndexingStatusIndexing))

	docs, err := repo.ListReindexable(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 2)

	ids := []string{docs[0].ID, docs[1].ID}
	assert.Contains(t, ids, pending.ID)
	assert.Contains(t, ids, failed.ID)
}

func TestDocumentRepository_SetStatus(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewDocumentRepository(pool)

	doc := newTestDocument("Doc")
	require.NoError(t, repo.Create(ctx, doc))

	require.NoError(t, repo.SetStatus(ctx, doc.ID, domain.IndexingStatusIndexing))

	retrieved, err := repo.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.IndexingStatusIndexing, retrieved.Status)

	err = repo.SetStatus(ctx, doc.ID, "archived")
	assert.ErrorIs(t, err, domain.ErrInvalidIndexingStatus)

	err = repo.SetStatus(ctx, uuid.NewString(), domain.IndexingStatusFailed)
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
}

func TestDocumentRepository_MarkIndexed(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewDocumentRepository(pool)

	doc := newTestDocument("Doc")
	require.NoError(t, repo.Create(ctx, doc))
	require.NoError(t, repo.MarkIndexed(ctx, doc.ID, 7))

	retrieved, err := repo.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.IndexingStatusIndexed, retrieved.Status)
	assert.Equal(t, 7, retrieved.ChunkCount)
	require.NotNil(t, retrieved.IndexedAt)
	assert.WithinDuration(t, time.Now().UTC(), *retrieved.IndexedAt, time.Minute)
}

func TestDocumentRepository_ResetStuck(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewDocumentRepository(pool)

	stuck := newTestDocument("Stuck")
	require.NoError(t, repo.Create(ctx, stuck))
	require.NoError(t, repo.SetStatus(ctx, stuck.ID, domain.IndexingStatusIndexing))

	// Backdate the status change so the lease has expired.
	_, err := pool.Exec(ctx,
		"UPDATE brain_documents SET updated_at = now() - interval '20 minutes' WHERE id = $1",
		stuck.ID)
	require.NoError(t, err)

	fresh := newTestDocument("Fresh")
	require.NoError(t, repo.Create(ctx, fresh))
	require.NoError(t, repo.SetStatus(ctx, fresh.ID, domain.IndexingStatusIndexing))

	reset, err := repo.ResetStuck(ctx, 10*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), reset)

	retrieved, err := repo.GetByID(ctx, stuck.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.IndexingStatusPending, retrieved.Status)

	retrieved, err = repo.GetByID(ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.IndexingStatusIndexing, retrieved.Status)
}

func TestDocumentRepository_StatusCounts(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewDocumentRepository(pool)

	for i := 0; i < 2; i++ {
		require.NoError(t, repo.Create(ctx, newTestDocument("Pending")))
	}
	indexed := newTestDocument("Indexed")
	require.NoError(t, repo.Create(ctx, indexed))
	require.NoError(t, repo.MarkIndexed(ctx, indexed.ID, 1))

	failed := newTestDocument("Failed")
	require.NoError(t, repo.Create(ctx, failed))
	require.NoError(t, repo.SetStatus(ctx, failed.ID, domain.IndexingStatusFailed))

	counts, err := repo.StatusCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, counts.Total)
	assert.Equal(t, 2, counts.Pending)
	assert.Equal(t, 1, counts.Indexed)
	assert.Equal(t, 1, counts.Failed)
	assert.Equal(t, 0, counts.Indexing)
}

func TestDocumentRepository_DeleteAndTitles(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewDocumentRepository(pool)

	a := newTestDocument("Title A")
	b := newTestDocument("Title B")
	require.NoError(t, repo.Create(ctx, a))
	require.NoError(t, repo.Create(ctx, b))

	titles, err := repo.GetTitles(ctx, []string{a.ID, b.ID})
	require.NoError(t, err)
	assert.Equal(t, "Title A", titles[a.ID])
	assert.Equal(t, "Title B", titles[b.ID])

	require.NoError(t, repo.Delete(ctx, a.ID))

	_, err = repo.GetByID(ctx, a.ID)
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)

	err = repo.Delete(ctx, a.ID)
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
}
