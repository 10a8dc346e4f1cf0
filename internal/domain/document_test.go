package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewDocument(t *testing.T) {
	doc := NewDocument("doc-1", "FDCPA Complaint Guide", "intake reference", "guide.pdf", "https://files.example.com/guide.pdf", "application/pdf", 2048)

	assert.Equal(t, "doc-1", doc.ID)
	assert.Equal(t, IndexingStatusPending, doc.Status)
	assert.Equal(t, 0, doc.ChunkCount)
	assert.Nil(t, doc.IndexedAt)
	assert.False(t, doc.CreatedAt.IsZero())
	assert.Equal(t, doc.CreatedAt, doc.UpdatedAt)
}

func TestValidateDocument(t *testing.T) {
	tests := []struct {
		name    string
		doc     *Document
		wantErr error
	}{
		{
			name: "valid document",
			doc: &Document{
				ID:      "doc-1",
				Title:   "title",
				FileURL: "https://files.example.com/a.pdf",
				Status:  IndexingStatusPending,
			},
			wantErr: nil,
		},
		{
			name:    "nil document",
			doc:     nil,
			wantErr: ErrMissingRequiredField,
		},
		{
			name: "missing title",
			doc: &Document{
				ID:      "doc-1",
				FileURL: "https://files.example.com/a.pdf",
				Status:  IndexingStatusPending,
			},
			wantErr: ErrMissingRequiredField,
		},
		{
			name: "missing file url",
			doc: &Document{
				ID:     "doc-1",
				Title:  "title",
				Status: IndexingStatusPending,
			},
			wantErr: ErrMissingRequiredField,
		},
		{
			name: "invalid status",
			doc: &Document{
				ID:      "doc-1",
				Title:   "title",
				FileURL: "https://files.example.com/a.pdf",
				Status:  IndexingStatus("queued"),
			},
			wantErr: ErrInvalidIndexingStatus,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDocument(tt.doc)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.Equal(t, tt.wantErr, err)
			}
		})
	}
}

func TestIsValidIndexingStatus(t *testing.T) {
	valid := []IndexingStatus{
		IndexingStatusPending,
		IndexingStatusIndexing,
		IndexingStatusIndexed,
		IndexingStatusFailed,
	}
	for _, s := range valid {
		assert.True(t, IsValidIndexingStatus(s), string(s))
	}

	assert.False(t, IsValidIndexingStatus("queued"))
	assert.False(t, IsValidIndexingStatus(""))
}

func TestDocumentReindexable(t *testing.T) {
	assert.True(t, (&Document{Status: IndexingStatusPending}).Reindexable())
	assert.True(t, (&Document{Status: IndexingStatusFailed}).Reindexable())
	assert.False(t, (&Document{Status: IndexingStatusIndexing}).Reindexable())
	assert.False(t, (&Document{Status: IndexingStatusIndexed}).Reindexable())
}

func TestDomainError(t *testing.T) {
	err := NewDomainError(ErrCodeNotFound, "document not found")
	assert.Equal(t, "[NOT_FOUND] document not found", err.Error())
	assert.Nil(t, err.Unwrap())

	wrapped := NewStorageError(assert.AnError)
	assert.Contains(t, wrapped.Error(), "STORAGE_ERROR")
	assert.Equal(t, assert.AnError, wrapped.Unwrap())
}
