package service

import (
	"context"
	"log"
	"strings"

	"github.com/veralex-legal/casebrain/internal/domain"
	"github.com/veralex-legal/casebrain/internal/telemetry"
)

// ChunkSearcher performs nearest-neighbor search over stored chunks.
type ChunkSearcher interface {
	Search(ctx context.Context, embedding []float32, topK int, minScore float32) ([]domain.SimilarityResult, error)
}

// TitleResolver resolves document titles for source attribution.
type TitleResolver interface {
	GetTitles(ctx context.Context, ids []string) (map[string]string, error)
}

// RetrievalConfig carries the search and context-assembly tunables.
type RetrievalConfig struct {
	SearchTopK        int
	MinScore          float32
	RetrieveTopK      int
	RetrieveMaxTokens int
}

// DefaultRetrievalConfig provides the service defaults.
func DefaultRetrievalConfig() RetrievalConfig {
	return RetrievalConfig{
		SearchTopK:        5,
		MinScore:          0.7,
		RetrieveTopK:      10,
		RetrieveMaxTokens: 2000,
	}
}

// SearchResult is a similarity match enriched with document metadata.
type SearchResult struct {
	ChunkID       string
	DocumentID    string
	DocumentTitle string
	Content       string
	ChunkIndex    int
	Score         float32
}

// Source attributes retrieved context back to a document.
type Source struct {
	DocumentID string
	Title      string
	ChunkCount int
}

// RetrieveResult is a token-bounded context blob with source attribution.
// An empty Context with no Sources is a valid outcome, not an error.
type RetrieveResult struct {
	Context     string
	Sources     []Source
	TotalTokens int
}

// RetrievalService embeds queries and assembles grounded context for
// chat and admin search.
type RetrievalService struct {
	embedder EmbeddingClient
	chunks   ChunkSearcher
	titles   TitleResolver
	cfg      RetrievalConfig
}

func NewRetrievalService(embedder EmbeddingClient, chunks ChunkSearcher, titles TitleResolver, cfg RetrievalConfig) *RetrievalService {
	if cfg.SearchTopK <= 0 {
		cfg = DefaultRetrievalConfig()
	}
	return &RetrievalService{
		embedder: embedder,
		chunks:   chunks,
		titles:   titles,
		cfg:      cfg,
	}
}

// SearchInput carries one semantic search request. Zero TopK and
// MinScore fall back to the configured defaults.
type SearchInput struct {
	Query    string
	TopK     int
	MinScore float32
}

// Search embeds the query and returns ranked chunk matches enriched
// with document titles.
func (s *RetrievalService) Search(ctx context.Context, input SearchInput) ([]SearchResult, error) {
	query := strings.TrimSpace(input.Query)
	if query == "" {
		return nil, domain.ErrMissingRequiredField
	}

	ctx, span := telemetry.StartSpan(ctx, "RetrievalService.Search", telemetry.SpanAttributes{
		Query:     query,
		Operation: "search",
	})
	defer span.End()

	topK := input.TopK
	if topK <= 0 {
		topK = s.cfg.SearchTopK
	}
	minScore := input.MinScore
	if minScore <= 0 {
		minScore = s.cfg.MinScore
	}

	embedding, err := s.embedder.GenerateEmbedding(ctx, query)
	if err != nil {
		return nil, domain.NewEmbeddingError(err)
	}

	matches, err := s.chunks.Search(ctx, embedding, topK, minScore)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return []SearchResult{}, nil
	}

	titles, err := s.resolveTitles(ctx, matches)
	if err != nil {
		return nil, err
	}

	results := make([]SearchResult, len(matches))
	for i, m := range matches {
		results[i] = SearchResult{
			ChunkID:       m.ChunkID,
			DocumentID:    m.DocumentID,
			DocumentTitle: titles[m.DocumentID],
			Content:       m.Content,
			ChunkIndex:    m.ChunkIndex,
			Score:         m.Score,
		}
	}

	log.Printf("search: query=%q results=%d top_score=%.3f", query, len(results), results[0].Score)
	return results, nil
}

// Retrieve assembles a context blob for prompt injection: candidates are
// taken in descending score order and concatenated greedily until the
// next chunk would exceed maxTokens. Chunks are never truncated mid-content.
func (s *RetrievalService) Retrieve(ctx context.Context, query string, maxTokens int) (*RetrieveResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.ErrMissingRequiredField
	}
	if maxTokens <= 0 {
		maxTokens = s.cfg.RetrieveMaxTokens
	}

	ctx, span := telemetry.StartSpan(ctx, "RetrievalService.Retrieve", telemetry.SpanAttributes{
		Query:     query,
		Operation: "retrieve",
	})
	defer span.End()

	embedding, err := s.embedder.GenerateEmbedding(ctx, query)
	if err != nil {
		return nil, domain.NewEmbeddingError(err)
	}

	// Search wider than the final budget so the greedy pass has choices.
	matches, err := s.chunks.Search(ctx, embedding, s.cfg.RetrieveTopK, s.cfg.MinScore)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return &RetrieveResult{Context: "", Sources: []Source{}}, nil
	}

	var parts []string
	totalTokens := 0
	chunkCounts := make(map[string]int)
	var sourceOrder []string

	for _, m := range matches {
		tokens := EstimateTokens(m.Content)
		if totalTokens+tokens > maxTokens {
			break
		}
		parts = append(parts, m.Content)
		totalTokens += tokens

		if _, seen := chunkCounts[m.DocumentID]; !seen {
			sourceOrder = append(sourceOrder, m.DocumentID)
		}
		chunkCounts[m.DocumentID]++
	}

	if len(parts) == 0 {
		return &RetrieveResult{Context: "", Sources: []Source{}}, nil
	}

	titles, err := s.titles.GetTitles(ctx, sourceOrder)
	if err != nil {
		return nil, err
	}

	sources := make([]Source, 0, len(sourceOrder))
	for _, docID := range sourceOrder {
		sources = append(sources, Source{
			DocumentID: docID,
			Title:      titles[docID],
			ChunkCount: chunkCounts[docID],
		})
	}

	log.Printf("retrieve: query=%q tokens=%d sources=%d", query, totalTokens, len(sources))
	return &RetrieveResult{
		Context:     strings.TrimSpace(strings.Join(parts, "\n\n")),
		Sources:     sources,
		TotalTokens: totalTokens,
	}, nil
}

func (s *RetrievalService) resolveTitles(ctx context.Context, matches []domain.SimilarityResult) (map[string]string, error) {
	seen := make(map[string]bool)
	var ids []string
	for _, m := range matches {
		if !seen[m.DocumentID] {
			seen[m.DocumentID] = true
			ids = append(ids, m.DocumentID)
		}
	}
	return s.titles.GetTitles(ctx, ids)
}
