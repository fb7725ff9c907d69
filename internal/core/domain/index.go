package domain

import "time"

// IndexEntry is the persisted form of a Chunk: its text, vector and
// ownership metadata.
type IndexEntry struct {
	// Key is derived from (Source, ChunkIndex). Upserts replace by key.
	Key string

	// Source is the document path relative to the documents root.
	Source string

	// ChunkIndex is the chunk's position within its source.
	ChunkIndex int

	// Text is the chunk content.
	Text string

	// Vector is the embedding produced at index time.
	Vector []float32

	// ContentHash is the hash of the source file the chunk came from.
	ContentHash string
}

// ScoredEntry is a nearest-neighbour match returned by a vector store.
type ScoredEntry struct {
	Entry IndexEntry

	// Score is the cosine similarity to the query vector.
	Score float64
}

// IndexMetadata describes how every vector in a store was produced.
type IndexMetadata struct {
	// EmbeddingModel is the model identifier used for every entry.
	EmbeddingModel string

	// Dimensions is the vector length.
	Dimensions int

	// UpdatedAt is the time of the last write.
	UpdatedAt time.Time
}

// SourceInfo summarises the stored entries of one source document.
type SourceInfo struct {
	Source      string
	ContentHash string
	Chunks      int
}

// IndexReport summarises an indexing run.
type IndexReport struct {
	// Indexed lists sources that were (re)embedded.
	Indexed []string

	// Unchanged lists sources whose content hash matched the store.
	Unchanged []string

	// Skipped lists files that were not indexed (unsupported or unreadable).
	Skipped []string

	// Removed lists sources deleted because the file no longer exists.
	Removed []string

	// Chunks is the number of entries written.
	Chunks int

	// Duration is the wall time of the run.
	Duration time.Duration
}

// IndexStatus describes the current contents of the vector store.
type IndexStatus struct {
	// Metadata is nil when the store is empty.
	Metadata *IndexMetadata

	// Sources maps source path to its stored summary.
	Sources map[string]SourceInfo

	// Backend names the vector store implementation.
	Backend string
}

// TotalChunks returns the number of stored entries across all sources.
func (s *IndexStatus) TotalChunks() int {
	total := 0
	for _, info := range s.Sources {
		total += info.Chunks
	}
	return total
}

// IndexOptions configures an indexing run.
type IndexOptions struct {
	// Rebuild drops the store before indexing, allowing a model change.
	Rebuild bool
}
