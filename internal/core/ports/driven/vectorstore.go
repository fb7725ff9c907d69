package driven

import (
	"context"

	"github.com/custodia-labs/taxadvisor/internal/core/domain"
)

// VectorStore persists index entries and answers nearest-neighbour queries.
// Backing implementations (embedded SQLite, in-memory, Qdrant) are swappable.
type VectorStore interface {
	// Upsert inserts or replaces entries by key.
	Upsert(ctx context.Context, entries []domain.IndexEntry) error

	// Nearest returns up to k entries ordered by descending cosine similarity.
	Nearest(ctx context.Context, vector []float32, k int) ([]domain.ScoredEntry, error)

	// DeleteSource removes every entry belonging to a source path.
	DeleteSource(ctx context.Context, source string) error

	// Sources summarises stored entries per source path.
	Sources(ctx context.Context) (map[string]domain.SourceInfo, error)

	// Metadata returns the index metadata, or domain.ErrNotFound for an empty store.
	Metadata(ctx context.Context) (*domain.IndexMetadata, error)

	// SetMetadata records the embedding model used for the stored entries.
	SetMetadata(ctx context.Context, meta domain.IndexMetadata) error

	// Reset removes all entries and metadata.
	Reset(ctx context.Context) error

	// Name identifies the backend for status output.
	Name() string

	// Close releases resources.
	Close() error
}
