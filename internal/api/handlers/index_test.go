package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/veralex-legal/casebrain/internal/domain"
	"github.com/veralex-legal/casebrain/internal/service"
)

// MockIndexingService is a mock implementation of IndexingService
type MockIndexingService struct {
	mock.Mock
}

func (m *MockIndexingService) IndexDocument(ctx context.Context, documentID string) (*service.IndexResult, error) {
	args := m.Called(ctx, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.IndexResult), args.Error(1)
}

// MockBulkService is a mock implementation of BulkService
type MockBulkService struct {
	mock.Mock
}

func (m *MockBulkService) Start(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

// MockStatusService is a mock implementation of StatusService
type MockStatusService struct {
	mock.Mock
}

func (m *MockStatusService) StatusCounts(ctx context.Context) (*domain.StatusCounts, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.StatusCounts), args.Error(1)
}

func newIndexHandlerFixture() (*IndexHandler, *MockIndexingService, *MockBulkService, *MockStatusService) {
	indexing := new(MockIndexingService)
	bulk := new(MockBulkService)
	status := new(MockStatusService)
	return NewIndexHandler(indexing, bulk, status), indexing, bulk, status
}

func TestIndex_Success(t *testing.T) {
	handler, indexing, _, _ := newIndexHandlerFixture()

	indexing.On("IndexDocument", mock.Anything, "doc-1").
		Return(&service.IndexResult{DocumentID: "doc-1", Pages: 3, ChunksStored: 12}, nil)

	req := withURLParam(httptest.NewRequest(http.MethodPost, "/index/doc-1", nil), "id", "doc-1")
	rec := httptest.NewRecorder()

	handler.Index(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data IndexResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "doc-1", resp.Data.DocumentID)
	assert.Equal(t, 12, resp.Data.ChunksCreated)
	assert.Equal(t, "indexed", resp.Data.Status)
}

func TestIndex_NotFound(t *testing.T) {
	handler, indexing, _, _ := newIndexHandlerFixture()

	indexing.On("IndexDocument", mock.Anything, "missing").
		Return(nil, domain.ErrDocumentNotFound)

	req := withURLParam(httptest.NewRequest(http.MethodPost, "/index/missing", nil), "id", "missing")
	rec := httptest.NewRecorder()

	handler.Index(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestIndex_NoTextContent(t *testing.T) {
	handler, indexing, _, _ := newIndexHandlerFixture()

	indexing.On("IndexDocument", mock.Anything, "doc-1").
		Return(nil, domain.ErrNoTextContent)

	req := withURLParam(httptest.NewRequest(http.MethodPost, "/index/doc-1", nil), "id", "doc-1")
	rec := httptest.NewRecorder()

	handler.Index(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestIndex_ExtractionFailure(t *testing.T) {
	handler, indexing, _, _ := newIndexHandlerFixture()

	indexing.On("IndexDocument", mock.Anything, "doc-1").
		Return(nil, domain.NewExtractionError(errors.New("corrupt pdf")))

	req := withURLParam(httptest.NewRequest(http.MethodPost, "/index/doc-1", nil), "id", "doc-1")
	rec := httptest.NewRecorder()

	handler.Index(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestBulk_StartsRun(t *testing.T) {
	handler, _, bulk, _ := newIndexHandlerFixture()

	bulk.On("Start", mock.Anything).Return(7, nil)

	req := httptest.NewRequest(http.MethodPost, "/index/bulk", nil)
	rec := httptest.NewRecorder()

	handler.Bulk(rec, req)

	assert.Equal(t, http.StatusAccepted, rec.Code)

	var resp struct {
		Data BulkResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 7, resp.Data.Total)
	assert.Equal(t, "processing", resp.Data.Status)
}

func TestBulk_NothingToIndex(t *testing.T) {
	handler, _, bulk, _ := newIndexHandlerFixture()

	bulk.On("Start", mock.Anything).Return(0, nil)

	req := httptest.NewRequest(http.MethodPost, "/index/bulk", nil)
	rec := httptest.NewRecorder()

	handler.Bulk(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data BulkResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.Data.Total)
	assert.Equal(t, "nothing to index", resp.Data.Status)
}

func TestBulk_ListFailure(t *testing.T) {
	handler, _, bulk, _ := newIndexHandlerFixture()

	bulk.On("Start", mock.Anything).Return(0, errors.New("db down"))

	req := httptest.NewRequest(http.MethodPost, "/index/bulk", nil)
	rec := httptest.NewRecorder()

	handler.Bulk(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestStatus_ReturnsCounts(t *testing.T) {
	handler, _, _, status := newIndexHandlerFixture()

	status.On("StatusCounts", mock.Anything).Return(&domain.StatusCounts{
		Total:    10,
		Indexed:  6,
		Pending:  2,
		Indexing: 1,
		Failed:   1,
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/index/status", nil)
	rec := httptest.NewRecorder()

	handler.Status(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data StatusResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 10, resp.Data.Total)
	assert.Equal(t, 6, resp.Data.Indexed)
	assert.Equal(t, 1, resp.Data.Failed)
}
