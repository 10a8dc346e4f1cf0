package domain

import "fmt"

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain error codes
const (
	ErrCodeValidation    = "VALIDATION_ERROR"
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeExtraction    = "EXTRACTION_ERROR"
	ErrCodeChunking      = "CHUNKING_ERROR"
	ErrCodeEmbedding     = "EMBEDDING_ERROR"
	ErrCodeStorage       = "STORAGE_ERROR"
	ErrCodeSearch        = "SEARCH_ERROR"
	ErrCodeInternalError = "INTERNAL_ERROR"
)

// Validation errors
var (
	ErrInvalidIndexingStatus = NewDomainError(ErrCodeValidation, "invalid indexing status")
	ErrMissingRequiredField  = NewDomainError(ErrCodeValidation, "missing required field")
	ErrNoTextContent         = NewDomainError(ErrCodeValidation, "no text content found in document")
)

// Not found errors
var (
	ErrDocumentNotFound = NewDomainError(ErrCodeNotFound, "document not found")
)

// Pipeline errors
var (
	ErrNoChunks = NewDomainError(ErrCodeChunking, "document produced no chunks")
)

// NewExtractionError wraps a failure to fetch or read a source file
func NewExtractionError(err error) *DomainError {
	return NewDomainErrorWithCause(ErrCodeExtraction, "text extraction failed", err)
}

// NewEmbeddingError wraps an embedding provider failure
func NewEmbeddingError(err error) *DomainError {
	return NewDomainErrorWithCause(ErrCodeEmbedding, "embedding generation failed", err)
}

// NewStorageError wraps a vector store write or delete failure
func NewStorageError(err error) *DomainError {
	return NewDomainErrorWithCause(ErrCodeStorage, "vector store operation failed", err)
}

// NewSearchError wraps a vector store read failure
func NewSearchError(err error) *DomainError {
	return NewDomainErrorWithCause(ErrCodeSearch, "vector search failed", err)
}
