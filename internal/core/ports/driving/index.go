package driving

import (
	"context"

	"github.com/custodia-labs/taxadvisor/internal/core/domain"
)

// IndexService builds and maintains the vector index over the documents directory.
type IndexService interface {
	// Index walks the documents directory and brings the store up to date.
	// Embedding or store failures abort the run with domain.ErrIndexing.
	Index(ctx context.Context, opts domain.IndexOptions) (*domain.IndexReport, error)

	// IndexFile re-indexes a single file, or removes its entries if it no longer exists.
	IndexFile(ctx context.Context, path string) error

	// Reset removes every entry and the index metadata.
	Reset(ctx context.Context) error

	// Status describes the current contents of the store.
	Status(ctx context.Context) (*domain.IndexStatus, error)

	// Watch re-indexes files as they change until ctx is cancelled.
	// Each processed change is reported on the optional channel.
	Watch(ctx context.Context, events chan<- domain.FileChange) error
}
