package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/veralex-legal/casebrain/internal/domain"
	"github.com/veralex-legal/casebrain/internal/extract"
	"github.com/veralex-legal/casebrain/internal/telemetry"
)

// TextExtractor pulls plain text out of a stored document by URL.
type TextExtractor interface {
	ExtractText(ctx context.Context, fileURL, mimeType string) (*extract.Result, error)
}

// EmbeddingClient defines the interface for generating embeddings
type EmbeddingClient interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
	GenerateEmbeddingBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// IndexingDocumentRepository defines the document persistence needed by indexing
type IndexingDocumentRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	SetStatus(ctx context.Context, id string, status domain.IndexingStatus) error
	MarkIndexed(ctx context.Context, id string, chunkCount int) error
}

// IndexingChunkRepository defines the chunk persistence needed by indexing
type IndexingChunkRepository interface {
	ReplaceChunks(ctx context.Context, documentID string, chunks []domain.DocumentChunk) (int, error)
}

// IndexResult summarizes a completed indexing run for one document.
type IndexResult struct {
	DocumentID   string
	Pages        int
	ChunksStored int
}

// IndexingService drives the per-document pipeline:
// extract -> chunk -> embed -> store, with the status transitions
// pending -> indexing -> indexed|failed. Failed documents may always
// be re-attempted.
type IndexingService struct {
	docs      IndexingDocumentRepository
	chunks    IndexingChunkRepository
	embedder  EmbeddingClient
	extractor TextExtractor
	chunkCfg  ChunkConfig
	locks     docLocks
}

func NewIndexingService(
	docs IndexingDocumentRepository,
	chunks IndexingChunkRepository,
	embedder EmbeddingClient,
	extractor TextExtractor,
	chunkCfg ChunkConfig,
) *IndexingService {
	if chunkCfg.MaxTokens <= 0 {
		chunkCfg = DefaultChunkConfig()
	}
	return &IndexingService{
		docs:      docs,
		chunks:    chunks,
		embedder:  embedder,
		extractor: extractor,
		chunkCfg:  chunkCfg,
	}
}

// IndexDocument runs the full pipeline for one document. Re-indexing is
// serialized per document so concurrent calls cannot interleave the
// chunk replacement window.
func (s *IndexingService) IndexDocument(ctx context.Context, documentID string) (*IndexResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "IndexingService.IndexDocument", telemetry.SpanAttributes{
		DocumentID: documentID,
		Operation:  "index",
	})
	defer span.End()

	doc, err := s.docs.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.acquire(documentID)
	defer unlock()

	// Persist 'indexing' before any extraction work so a crash mid-run
	// leaves a visibly stuck state rather than an untouched one.
	if err := s.docs.SetStatus(ctx, documentID, domain.IndexingStatusIndexing); err != nil {
		return nil, err
	}

	log.Printf("indexing: started document=%s title=%q url=%s", documentID, doc.Title, doc.FileURL)

	result, err := s.runPipeline(ctx, doc)
	if err != nil {
		span.SetError(err)
		s.markFailed(ctx, documentID)
		return nil, err
	}

	if err := s.docs.MarkIndexed(ctx, documentID, result.ChunksStored); err != nil {
		return nil, err
	}

	log.Printf("indexing: completed document=%s pages=%d chunks=%d", documentID, result.Pages, result.ChunksStored)
	return result, nil
}

func (s *IndexingService) runPipeline(ctx context.Context, doc *domain.Document) (*IndexResult, error) {
	extracted, err := s.extractor.ExtractText(ctx, doc.FileURL, doc.MimeType)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(extracted.Text) == "" {
		return nil, domain.ErrNoTextContent
	}

	drafts := ChunkDocument(extracted.Text, s.chunkCfg)
	if len(drafts) == 0 {
		return nil, domain.ErrNoChunks
	}

	texts := make([]string, len(drafts))
	for i, d := range drafts {
		texts[i] = d.Content
	}

	vectors, err := s.embedder.GenerateEmbeddingBatch(ctx, texts)
	if err != nil {
		return nil, domain.NewEmbeddingError(err)
	}
	if len(vectors) != len(drafts) {
		return nil, domain.NewEmbeddingError(
			fmt.Errorf("embedded %d of %d chunks", len(vectors), len(drafts)))
	}

	now := time.Now().UTC()
	chunks := make([]domain.DocumentChunk, len(drafts))
	for i, d := range drafts {
		chunks[i] = domain.DocumentChunk{
			DocumentID: doc.ID,
			ChunkIndex: d.Index,
			Content:    d.Content,
			TokenCount: d.TokenCount,
			Embedding:  vectors[i],
			CreatedAt:  now,
		}
	}

	stored, err := s.chunks.ReplaceChunks(ctx, doc.ID, chunks)
	if err != nil {
		return nil, err
	}

	return &IndexResult{
		DocumentID:   doc.ID,
		Pages:        extracted.Pages,
		ChunksStored: stored,
	}, nil
}

// markFailed records the failed status best-effort; a broken status
// update is logged, not re-thrown, so it cannot mask the pipeline error.
// The write runs detached from the caller's cancellation: a pipeline
// killed by its own context must still leave the document marked failed
// instead of stuck in indexing until the sweeper lease expires.
func (s *IndexingService) markFailed(ctx context.Context, documentID string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := s.docs.SetStatus(ctx, documentID, domain.IndexingStatusFailed); err != nil {
		log.Printf("indexing: failed to record failed status for document=%s: %v", documentID, err)
	}
}

// docLocks serializes indexing per document ID. Entries are refcounted
// and removed once the last holder releases, so the map stays bounded by
// the number of documents indexing concurrently.
type docLocks struct {
	mu    sync.Mutex
	locks map[string]*docLock
}

type docLock struct {
	mu   sync.Mutex
	refs int
}

func (l *docLocks) acquire(id string) func() {
	l.mu.Lock()
	if l.locks == nil {
		l.locks = make(map[string]*docLock)
	}
	entry, ok := l.locks[id]
	if !ok {
		entry = &docLock{}
		l.locks[id] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()

		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, id)
		}
		l.mu.Unlock()
	}
}
