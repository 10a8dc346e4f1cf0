package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veralex-legal/casebrain/internal/domain"
)

func TestSuccess_WrapsDataEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()

	Success(rec, http.StatusCreated, map[string]string{"id": "doc-1"})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "doc-1", body["data"]["id"])
}

func TestError_WrapsErrorEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()

	Error(rec, http.StatusBadRequest, "query is required")

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "query is required", body["error"])
}

func TestDomainErrorToHTTP(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"nil", nil, http.StatusOK},
		{"validation", domain.ErrMissingRequiredField, http.StatusBadRequest},
		{"invalid status", domain.ErrInvalidIndexingStatus, http.StatusBadRequest},
		{"no text content", domain.ErrNoTextContent, http.StatusBadRequest},
		{"not found", domain.ErrDocumentNotFound, http.StatusNotFound},
		{"extraction", domain.NewExtractionError(errors.New("boom")), http.StatusInternalServerError},
		{"embedding", domain.NewEmbeddingError(errors.New("boom")), http.StatusInternalServerError},
		{"storage", domain.NewStorageError(errors.New("boom")), http.StatusInternalServerError},
		{"search", domain.NewSearchError(errors.New("boom")), http.StatusInternalServerError},
		{"chunking", domain.ErrNoChunks, http.StatusInternalServerError},
		{"plain error", errors.New("boom"), http.StatusInternalServerError},
		{"wrapped domain error", fmt.Errorf("context: %w", domain.ErrDocumentNotFound), http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, DomainErrorToHTTP(tt.err))
		})
	}
}

func TestHandleError_WritesMappedStatus(t *testing.T) {
	rec := httptest.NewRecorder()

	HandleError(rec, domain.ErrDocumentNotFound)

	assert.Equal(t, http.StatusNotFound, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body["error"], "document not found")
}
