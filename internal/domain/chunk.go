package domain

import "time"

// ChunkDraft is a chunk of extracted text before embedding.
// Index is the 0-based ordinal defining reconstruction order.
type ChunkDraft struct {
	Index      int
	Content    string
	TokenCount int
}

// DocumentChunk is a persisted chunk with its embedding vector.
// Chunks for a document are contiguous and ordered by ChunkIndex;
// re-indexing replaces all of a document's chunks atomically.
type DocumentChunk struct {
	ID         string
	DocumentID string
	ChunkIndex int
	Content    string
	TokenCount int
	Embedding  []float32
	CreatedAt  time.Time
}

// SimilarityResult is an ephemeral nearest-neighbor match, never persisted.
// Score is cosine similarity in [0,1]; higher means more relevant.
type SimilarityResult struct {
	ChunkID    string
	DocumentID string
	ChunkIndex int
	Content    string
	TokenCount int
	Score      float32
}
