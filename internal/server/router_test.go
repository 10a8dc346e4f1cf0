package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/veralex-legal/casebrain/internal/api/handlers"
	"github.com/veralex-legal/casebrain/internal/domain"
	"github.com/veralex-legal/casebrain/internal/pagination"
	"github.com/veralex-legal/casebrain/internal/service"
)

type MockDocumentService struct {
	mock.Mock
}

func (m *MockDocumentService) Create(ctx context.Context, input service.CreateDocumentInput) (*domain.Document, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Document), args.Error(1)
}

func (m *MockDocumentService) Upload(ctx context.Context, input service.UploadDocumentInput) (*domain.Document, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Document), args.Error(1)
}

func (m *MockDocumentService) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Document), args.Error(1)
}

func (m *MockDocumentService) List(ctx context.Context, input service.ListInput) (*pagination.PageResult[*domain.Document], error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pagination.PageResult[*domain.Document]), args.Error(1)
}

func (m *MockDocumentService) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

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

type MockBulkService struct {
	mock.Mock
}

func (m *MockBulkService) Start(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

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

type MockRetrievalService struct {
	mock.Mock
}

func (m *MockRetrievalService) Search(ctx context.Context, input service.SearchInput) ([]service.SearchResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]service.SearchResult), args.Error(1)
}

func (m *MockRetrievalService) Retrieve(ctx context.Context, query string, maxTokens int) (*service.RetrieveResult, error) {
	args := m.Called(ctx, query, maxTokens)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.RetrieveResult), args.Error(1)
}

type routerFixture struct {
	router    http.Handler
	documents *MockDocumentService
	indexing  *MockIndexingService
	bulk      *MockBulkService
	status    *MockStatusService
	retrieval *MockRetrievalService
}

func newRouterFixture() *routerFixture {
	f := &routerFixture{
		documents: new(MockDocumentService),
		indexing:  new(MockIndexingService),
		bulk:      new(MockBulkService),
		status:    new(MockStatusService),
		retrieval: new(MockRetrievalService),
	}
	f.router = NewRouter(RouterConfig{
		DocumentHandler: handlers.NewDocumentHandler(f.documents),
		IndexHandler:    handlers.NewIndexHandler(f.indexing, f.bulk, f.status),
		SearchHandler:   handlers.NewSearchHandler(f.retrieval),
	})
	return f
}

func TestRouter_Health(t *testing.T) {
	f := newRouterFixture()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Data["status"])
}

func TestRouter_RequestIDHeader(t *testing.T) {
	f := newRouterFixture()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestRouter_BulkRouteNotShadowedByID(t *testing.T) {
	f := newRouterFixture()

	f.bulk.On("Start", mock.Anything).Return(3, nil)

	req := httptest.NewRequest(http.MethodPost, "/index/bulk", nil)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	f.bulk.AssertExpectations(t)
	f.indexing.AssertNotCalled(t, "IndexDocument", mock.Anything, mock.Anything)
}

func TestRouter_IndexByID(t *testing.T) {
	f := newRouterFixture()

	f.indexing.On("IndexDocument", mock.Anything, "doc-1").
		Return(&service.IndexResult{DocumentID: "doc-1", ChunksStored: 2}, nil)

	req := httptest.NewRequest(http.MethodPost, "/index/doc-1", nil)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	f.indexing.AssertExpectations(t)
}

func TestRouter_IndexStatus(t *testing.T) {
	f := newRouterFixture()

	f.status.On("StatusCounts", mock.Anything).Return(&domain.StatusCounts{Total: 2, Indexed: 2}, nil)

	req := httptest.NewRequest(http.MethodGet, "/index/status", nil)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	f.status.AssertExpectations(t)
}

func TestRouter_DocumentRoutes(t *testing.T) {
	f := newRouterFixture()

	f.documents.On("List", mock.Anything, service.ListInput{}).
		Return(&pagination.PageResult[*domain.Document]{Items: []*domain.Document{}}, nil)
	f.documents.On("GetByID", mock.Anything, "doc-1").Return(&domain.Document{ID: "doc-1", Title: "T", FileURL: "u"}, nil)
	f.documents.On("Delete", mock.Anything, "doc-1").Return(nil)

	for _, tc := range []struct {
		method string
		path   string
		status int
	}{
		{http.MethodGet, "/documents", http.StatusOK},
		{http.MethodGet, "/documents/doc-1", http.StatusOK},
		{http.MethodDelete, "/documents/doc-1", http.StatusOK},
	} {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, req)
		assert.Equal(t, tc.status, rec.Code, "%s %s", tc.method, tc.path)
	}
}

func TestRouter_Retrieve(t *testing.T) {
	f := newRouterFixture()

	f.retrieval.On("Retrieve", mock.Anything, "test", 0).
		Return(&service.RetrieveResult{Context: "", Sources: []service.Source{}}, nil)

	req := httptest.NewRequest(http.MethodGet, "/retrieve?query=test", nil)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_UnknownRoute(t *testing.T) {
	f := newRouterFixture()

	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
