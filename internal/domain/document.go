package domain

import "time"

// IndexingStatus represents the lifecycle state of a document in the pipeline
type IndexingStatus string

const (
	IndexingStatusPending  IndexingStatus = "pending"
	IndexingStatusIndexing IndexingStatus = "indexing"
	IndexingStatusIndexed  IndexingStatus = "indexed"
	IndexingStatusFailed   IndexingStatus = "failed"
)

// Document represents a titled, URL-addressable source file in the knowledge base.
// Status transitions are owned by the indexing service; deletion cascades to chunks.
type Document struct {
	ID          string
	Title       string
	Description string
	Filename    string
	FileURL     string
	MimeType    string
	SizeBytes   int64
	Status      IndexingStatus
	ChunkCount  int
	IndexedAt   *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewDocument creates a Document in the pending state
func NewDocument(id, title, description, filename, fileURL, mimeType string, sizeBytes int64) *Document {
	now := time.Now().UTC()
	return &Document{
		ID:          id,
		Title:       title,
		Description: description,
		Filename:    filename,
		FileURL:     fileURL,
		MimeType:    mimeType,
		SizeBytes:   sizeBytes,
		Status:      IndexingStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// ValidateDocument validates a Document instance
func ValidateDocument(d *Document) error {
	if d == nil {
		return ErrMissingRequiredField
	}
	if d.ID == "" || d.Title == "" || d.FileURL == "" {
		return ErrMissingRequiredField
	}
	if !IsValidIndexingStatus(d.Status) {
		return ErrInvalidIndexingStatus
	}
	return nil
}

// IsValidIndexingStatus checks if an IndexingStatus is one of the closed set
func IsValidIndexingStatus(s IndexingStatus) bool {
	switch s {
	case IndexingStatusPending, IndexingStatusIndexing,
		IndexingStatusIndexed, IndexingStatusFailed:
		return true
	}
	return false
}

// Reindexable reports whether a document is eligible for (re-)indexing.
// Failed documents are always retryable; there is no terminal-failure lockout.
func (d *Document) Reindexable() bool {
	return d.Status == IndexingStatusPending || d.Status == IndexingStatusFailed
}

// StatusCounts holds per-status document totals for the status endpoint
type StatusCounts struct {
	Total    int
	Indexed  int
	Pending  int
	Indexing int
	Failed   int
}
