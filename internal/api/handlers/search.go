package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/veralex-legal/casebrain/internal/api"
	"github.com/veralex-legal/casebrain/internal/service"
)

type RetrievalService interface {
	Search(ctx context.Context, input service.SearchInput) ([]service.SearchResult, error)
	Retrieve(ctx context.Context, query string, maxTokens int) (*service.RetrieveResult, error)
}

type SearchHandler struct {
	svc RetrievalService
}

func NewSearchHandler(svc RetrievalService) *SearchHandler {
	return &SearchHandler{svc: svc}
}

type SearchRequest struct {
	Query    string  `json:"query"`
	TopK     int     `json:"top_k"`
	MinScore float32 `json:"min_score"`
}

type SearchResultResponse struct {
	ChunkID       string  `json:"chunk_id"`
	DocumentID    string  `json:"document_id"`
	DocumentTitle string  `json:"document_title"`
	Content       string  `json:"content"`
	ChunkIndex    int     `json:"chunk_index"`
	Score         float32 `json:"score"`
}

type SourceResponse struct {
	DocumentID string `json:"document_id"`
	Title      string `json:"title"`
	ChunkCount int    `json:"chunk_count"`
}

type RetrieveResponse struct {
	Context     string           `json:"context"`
	Sources     []SourceResponse `json:"sources"`
	TotalTokens int              `json:"total_tokens"`
}

// Search returns ranked chunk matches for a query.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Query == "" {
		api.Error(w, http.StatusBadRequest, "query is required")
		return
	}

	results, err := h.svc.Search(r.Context(), service.SearchInput{
		Query:    req.Query,
		TopK:     req.TopK,
		MinScore: req.MinScore,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	resp := make([]SearchResultResponse, 0, len(results))
	for _, res := range results {
		resp = append(resp, SearchResultResponse{
			ChunkID:       res.ChunkID,
			DocumentID:    res.DocumentID,
			DocumentTitle: res.DocumentTitle,
			Content:       res.Content,
			ChunkIndex:    res.ChunkIndex,
			Score:         res.Score,
		})
	}

	api.Success(w, http.StatusOK, resp)
}

// Retrieve assembles a token-bounded context blob for a query.
func (h *SearchHandler) Retrieve(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	if query == "" {
		api.Error(w, http.StatusBadRequest, "query is required")
		return
	}

	maxTokens := 0
	if raw := r.URL.Query().Get("max_tokens"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			api.Error(w, http.StatusBadRequest, "max_tokens must be a positive integer")
			return
		}
		maxTokens = parsed
	}

	result, err := h.svc.Retrieve(r.Context(), query, maxTokens)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	sources := make([]SourceResponse, 0, len(result.Sources))
	for _, s := range result.Sources {
		sources = append(sources, SourceResponse{
			DocumentID: s.DocumentID,
			Title:      s.Title,
			ChunkCount: s.ChunkCount,
		})
	}

	api.Success(w, http.StatusOK, RetrieveResponse{
		Context:     result.Context,
		Sources:     sources,
		TotalTokens: result.TotalTokens,
	})
}
