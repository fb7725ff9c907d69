package driven

import (
	"context"

	"github.com/custodia-labs/taxadvisor/internal/core/domain"
)

// DocumentLoader enumerates and reads files under a documents root.
type DocumentLoader interface {
	// List returns every regular file under root, sorted by path.
	// Files with unsupported extensions are included with an empty Format.
	List(ctx context.Context, root string) ([]domain.FileRef, error)

	// Ref resolves a path relative to root. It returns domain.ErrNotFound
	// when the file does not exist.
	Ref(ctx context.Context, root, path string) (domain.FileRef, error)

	// Read returns the raw bytes of a file.
	Read(ctx context.Context, ref domain.FileRef) (*domain.RawDocument, error)
}

// FileWatcher reports changes under the documents root.
type FileWatcher interface {
	// Watch blocks, sending changes until ctx is cancelled.
	Watch(ctx context.Context, root string, changes chan<- domain.FileChange) error
}
