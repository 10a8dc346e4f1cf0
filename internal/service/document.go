package service

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/veralex-legal/casebrain/internal/domain"
	"github.com/veralex-legal/casebrain/internal/pagination"
)

// UUIDGenerator generates unique identifiers
type UUIDGenerator interface {
	NewID() string
}

// DefaultUUIDGenerator generates UUIDs using google/uuid
type DefaultUUIDGenerator struct{}

func (g *DefaultUUIDGenerator) NewID() string {
	return uuid.NewString()
}

// DocumentRepositoryInterface defines document persistence for the CRUD surface
type DocumentRepositoryInterface interface {
	Create(ctx context.Context, d *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	List(ctx context.Context, status domain.IndexingStatus, cursor *pagination.Cursor, limit int) ([]*domain.Document, bool, error)
	Delete(ctx context.Context, id string) error
	StatusCounts(ctx context.Context) (*domain.StatusCounts, error)
}

// ChunkDeleter removes a document's chunks when the document goes away
type ChunkDeleter interface {
	DeleteByDocument(ctx context.Context, documentID string) error
}

// StorageClient uploads and removes source files in blob storage
type StorageClient interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, keys ...string) error
	ObjectKey(publicURL string) (string, bool)
}

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9.-]`)

// DocumentService owns the document lifecycle outside of indexing:
// create, list, get, delete. Deletion cascades to the document's chunks.
type DocumentService struct {
	repo    DocumentRepositoryInterface
	chunks  ChunkDeleter
	storage StorageClient
	ids     UUIDGenerator
}

func NewDocumentService(repo DocumentRepositoryInterface, chunks ChunkDeleter, ids UUIDGenerator) *DocumentService {
	return NewDocumentServiceWithStorage(repo, chunks, nil, ids)
}

func NewDocumentServiceWithStorage(repo DocumentRepositoryInterface, chunks ChunkDeleter, storage StorageClient, ids UUIDGenerator) *DocumentService {
	return &DocumentService{
		repo:    repo,
		chunks:  chunks,
		storage: storage,
		ids:     ids,
	}
}

// CreateDocumentInput registers a document whose file already has a URL.
type CreateDocumentInput struct {
	Title       string
	Description string
	Filename    string
	FileURL     string
	MimeType    string
	SizeBytes   int64
}

func (s *DocumentService) Create(ctx context.Context, input CreateDocumentInput) (*domain.Document, error) {
	if strings.TrimSpace(input.Title) == "" || strings.TrimSpace(input.FileURL) == "" {
		return nil, domain.ErrMissingRequiredField
	}

	doc := domain.NewDocument(s.ids.NewID(), input.Title, input.Description,
		input.Filename, input.FileURL, input.MimeType, input.SizeBytes)
	if err := domain.ValidateDocument(doc); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, doc); err != nil {
		return nil, err
	}

	log.Printf("documents: created id=%s title=%q", doc.ID, doc.Title)
	return doc, nil
}

// UploadDocumentInput registers a document from raw file bytes; the file
// is pushed to blob storage first and the resulting URL recorded.
type UploadDocumentInput struct {
	Title       string
	Description string
	Filename    string
	MimeType    string
	Data        []byte
}

func (s *DocumentService) Upload(ctx context.Context, input UploadDocumentInput) (*domain.Document, error) {
	if s.storage == nil {
		return nil, domain.NewDomainError(domain.ErrCodeInternalError, "blob storage not configured")
	}
	if strings.TrimSpace(input.Title) == "" || len(input.Data) == 0 {
		return nil, domain.ErrMissingRequiredField
	}

	filename := unsafeFilenameChars.ReplaceAllString(input.Filename, "_")
	if filename == "" {
		filename = "document" + extensionForMime(input.MimeType)
	}
	key := fmt.Sprintf("brain/%d-%s", time.Now().UnixMilli(), filename)

	fileURL, err := s.storage.Upload(ctx, key, input.Data, input.MimeType)
	if err != nil {
		return nil, domain.NewStorageError(err)
	}

	return s.Create(ctx, CreateDocumentInput{
		Title:       input.Title,
		Description: input.Description,
		Filename:    input.Filename,
		FileURL:     fileURL,
		MimeType:    input.MimeType,
		SizeBytes:   int64(len(input.Data)),
	})
}

func (s *DocumentService) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	return s.repo.GetByID(ctx, id)
}

// ListInput filters and pages the document listing.
type ListInput struct {
	Status string
	Cursor string
	Limit  int
}

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

func (s *DocumentService) List(ctx context.Context, input ListInput) (*pagination.PageResult[*domain.Document], error) {
	filter := domain.IndexingStatus(input.Status)
	if input.Status != "" && !domain.IsValidIndexingStatus(filter) {
		return nil, domain.ErrInvalidIndexingStatus
	}

	cursor, err := pagination.DecodeCursor(input.Cursor)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "invalid cursor", err)
	}

	limit := input.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	docs, hasMore, err := s.repo.List(ctx, filter, cursor, limit)
	if err != nil {
		return nil, err
	}

	result := &pagination.PageResult[*domain.Document]{
		Items:   docs,
		HasMore: hasMore,
	}
	if hasMore && len(docs) > 0 {
		last := docs[len(docs)-1]
		result.Cursor = pagination.EncodeCursor(last.ID, last.CreatedAt)
	}
	return result, nil
}

// Delete removes a document, its chunks, and its stored file. Chunks go
// first so a partial failure can never leave orphaned vectors behind a
// missing document row.
func (s *DocumentService) Delete(ctx context.Context, id string) error {
	doc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.chunks.DeleteByDocument(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	if s.storage != nil {
		if key, ok := s.storage.ObjectKey(doc.FileURL); ok {
			if err := s.storage.Delete(ctx, key); err != nil {
				log.Printf("documents: failed to remove stored file key=%s: %v", key, err)
			}
		}
	}

	log.Printf("documents: deleted id=%s title=%q", id, doc.Title)
	return nil
}

func (s *DocumentService) StatusCounts(ctx context.Context) (*domain.StatusCounts, error) {
	return s.repo.StatusCounts(ctx)
}

func extensionForMime(mimeType string) string {
	switch strings.ToLower(strings.TrimSpace(mimeType)) {
	case "application/pdf":
		return ".pdf"
	case "text/plain":
		return ".txt"
	default:
		return ""
	}
}
