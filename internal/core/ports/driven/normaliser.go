package driven

import (
	"context"

	"github.com/custodia-labs/taxadvisor/internal/core/domain"
)

// Normaliser transforms a raw file into a Document.
// Each normaliser handles one document format.
type Normaliser interface {
	// Format returns the document format this normaliser handles.
	Format() domain.DocumentFormat

	// Normalise transforms raw bytes into a Document with Content populated.
	Normalise(ctx context.Context, raw *domain.RawDocument) (*domain.Document, error)
}

// NormaliserRegistry selects the normaliser for a document's format.
type NormaliserRegistry interface {
	// Normalise transforms a raw document using the matching normaliser.
	Normalise(ctx context.Context, raw *domain.RawDocument) (*domain.Document, error)

	// Register adds a normaliser to the registry.
	Register(normaliser Normaliser)

	// Formats returns all formats that can be normalised.
	Formats() []domain.DocumentFormat
}

// Chunker splits document content into overlapping chunks.
type Chunker interface {
	// Name returns the chunker name for logging.
	Name() string

	// Chunk splits the document into chunks with deterministic keys.
	Chunk(ctx context.Context, doc *domain.Document) ([]domain.Chunk, error)
}
