package service

import (
	"context"
	"log"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/veralex-legal/casebrain/internal/domain"
)

// DocumentIndexer runs the pipeline for a single document.
type DocumentIndexer interface {
	IndexDocument(ctx context.Context, documentID string) (*IndexResult, error)
}

// BulkDocumentRepository lists documents eligible for bulk indexing.
type BulkDocumentRepository interface {
	ListReindexable(ctx context.Context) ([]*domain.Document, error)
}

// BulkTotals accumulates per-run counters for logging only; no caller
// blocks on them.
type BulkTotals struct {
	Total   int
	Indexed int
	Failed  int
}

// BulkIndexer throttles many documents through the indexing pipeline in
// fixed-size concurrent batches, pacing batch starts through a rate
// limiter to respect the embedding provider's limits.
type BulkIndexer struct {
	docs      BulkDocumentRepository
	indexer   DocumentIndexer
	batchSize int
	limiter   *rate.Limiter
}

func NewBulkIndexer(docs BulkDocumentRepository, indexer DocumentIndexer, batchSize int, cooldown time.Duration) *BulkIndexer {
	if batchSize <= 0 {
		batchSize = 5
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if cooldown > 0 {
		limiter = rate.NewLimiter(rate.Every(cooldown), 1)
	}
	return &BulkIndexer{
		docs:      docs,
		indexer:   indexer,
		batchSize: batchSize,
		limiter:   limiter,
	}
}

// Start lists reindexable documents and kicks off a background run.
// It returns the number of documents queued; zero means nothing to index.
func (b *BulkIndexer) Start(ctx context.Context) (int, error) {
	docs, err := b.docs.ListReindexable(ctx)
	if err != nil {
		return 0, err
	}
	if len(docs) == 0 {
		return 0, nil
	}

	// Fire and forget: the HTTP caller got its 202 and must not be tied
	// to the request context.
	go b.Run(context.Background(), docs)

	return len(docs), nil
}

// Run indexes documents in batches, blocking until all have settled.
// One document's failure never aborts its batch siblings; totals are
// accumulated for observability only.
func (b *BulkIndexer) Run(ctx context.Context, docs []*domain.Document) BulkTotals {
	totals := BulkTotals{Total: len(docs)}

	log.Printf("bulk: starting run total=%d batch_size=%d", totals.Total, b.batchSize)

	for start := 0; start < len(docs); start += b.batchSize {
		end := start + b.batchSize
		if end > len(docs) {
			end = len(docs)
		}
		batch := docs[start:end]

		// The limiter's initial token lets the first batch through
		// immediately; each later batch is paced by the cooldown.
		if err := b.limiter.Wait(ctx); err != nil {
			log.Printf("bulk: run cancelled after %d of %d documents: %v", start, totals.Total, err)
			return totals
		}

		indexed, failed := b.runBatch(ctx, batch)
		totals.Indexed += indexed
		totals.Failed += failed
	}

	log.Printf("bulk: run completed total=%d indexed=%d failed=%d", totals.Total, totals.Indexed, totals.Failed)
	return totals
}

// runBatch settles every document in the batch before inspecting results.
func (b *BulkIndexer) runBatch(ctx context.Context, batch []*domain.Document) (indexed, failed int) {
	errs := make([]error, len(batch))

	var wg sync.WaitGroup
	for i, doc := range batch {
		wg.Add(1)
		go func(i int, doc *domain.Document) {
			defer wg.Done()
			_, errs[i] = b.indexer.IndexDocument(ctx, doc.ID)
		}(i, doc)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			failed++
			log.Printf("bulk: document failed id=%s title=%q: %v", batch[i].ID, batch[i].Title, err)
		} else {
			indexed++
		}
	}
	return indexed, failed
}
