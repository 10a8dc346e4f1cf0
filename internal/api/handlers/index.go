package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/veralex-legal/casebrain/internal/api"
	"github.com/veralex-legal/casebrain/internal/domain"
	"github.com/veralex-legal/casebrain/internal/service"
)

type IndexingService interface {
	IndexDocument(ctx context.Context, documentID string) (*service.IndexResult, error)
}

type BulkService interface {
	Start(ctx context.Context) (int, error)
}

type StatusService interface {
	StatusCounts(ctx context.Context) (*domain.StatusCounts, error)
}

type IndexHandler struct {
	indexing IndexingService
	bulk     BulkService
	status   StatusService
}

func NewIndexHandler(indexing IndexingService, bulk BulkService, status StatusService) *IndexHandler {
	return &IndexHandler{
		indexing: indexing,
		bulk:     bulk,
		status:   status,
	}
}

type IndexResponse struct {
	DocumentID    string `json:"document_id"`
	Pages         int    `json:"pages,omitempty"`
	ChunksCreated int    `json:"chunks_created"`
	Status        string `json:"status"`
}

type BulkResponse struct {
	Total  int    `json:"total"`
	Status string `json:"status"`
}

type StatusResponse struct {
	Total    int `json:"total"`
	Indexed  int `json:"indexed"`
	Pending  int `json:"pending"`
	Indexing int `json:"indexing"`
	Failed   int `json:"failed"`
}

// Index runs the full pipeline for one document synchronously.
func (h *IndexHandler) Index(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "document id is required")
		return
	}

	result, err := h.indexing.IndexDocument(r.Context(), id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, IndexResponse{
		DocumentID:    result.DocumentID,
		Pages:         result.Pages,
		ChunksCreated: result.ChunksStored,
		Status:        string(domain.IndexingStatusIndexed),
	})
}

// Bulk kicks off background indexing of every pending or failed
// document. 202 means a run was started; 200 means nothing to do.
func (h *IndexHandler) Bulk(w http.ResponseWriter, r *http.Request) {
	total, err := h.bulk.Start(r.Context())
	if err != nil {
		api.HandleError(w, err)
		return
	}

	if total == 0 {
		api.Success(w, http.StatusOK, BulkResponse{Total: 0, Status: "nothing to index"})
		return
	}

	api.Success(w, http.StatusAccepted, BulkResponse{Total: total, Status: "processing"})
}

// Status reports document counts per indexing state.
func (h *IndexHandler) Status(w http.ResponseWriter, r *http.Request) {
	counts, err := h.status.StatusCounts(r.Context())
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, StatusResponse{
		Total:    counts.Total,
		Indexed:  counts.Indexed,
		Pending:  counts.Pending,
		Indexing: counts.Indexing,
		Failed:   counts.Failed,
	})
}
