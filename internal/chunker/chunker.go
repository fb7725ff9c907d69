// Package chunker splits document content into fixed-size overlapping chunks.
package chunker

import (
	"context"
	"strconv"

	"github.com/google/uuid"

	"github.com/custodia-labs/taxadvisor/internal/core/domain"
	"github.com/custodia-labs/taxadvisor/internal/core/ports/driven"
)

// Ensure Chunker implements the interface.
var _ driven.Chunker = (*Chunker)(nil)

// keyNamespace scopes entry keys. Changing it invalidates every stored key.
var keyNamespace = uuid.MustParse("5b0d8d1e-7f2c-4c39-9a51-7d7e0f3b6a21")

// EntryKey returns the deterministic upsert key for a chunk of a source document.
func EntryKey(source string, index int) string {
	return uuid.NewSHA1(keyNamespace, []byte(source+"#"+strconv.Itoa(index))).String()
}

// Chunker splits document content into fixed-size chunks measured in runes.
// Adjacent chunks share exactly overlap runes.
type Chunker struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(c *Chunker) {
		if size > 0 {
			c.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		if overlap >= 0 {
			c.overlap = overlap
		}
	}
}

// New creates a new chunker with the given options.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		chunkSize: domain.DefaultChunkSize,
		overlap:   domain.DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(c)
	}

	// Ensure overlap doesn't exceed chunk size
	if c.overlap >= c.chunkSize {
		c.overlap = c.chunkSize / 4
	}

	return c
}

// Name returns the chunker name.
func (c *Chunker) Name() string {
	return "chunker"
}

// Size returns the configured chunk size.
func (c *Chunker) Size() int {
	return c.chunkSize
}

// Overlap returns the configured overlap.
func (c *Chunker) Overlap() int {
	return c.overlap
}

// Chunk splits the document content into chunks keyed by (doc.Path, index).
func (c *Chunker) Chunk(ctx context.Context, doc *domain.Document) ([]domain.Chunk, error) {
	if doc.Content == "" {
		return nil, nil
	}

	runes := []rune(doc.Content)
	total := len(runes)
	stride := c.chunkSize - c.overlap

	chunks := make([]domain.Chunk, 0, total/stride+1)

	for start, index := 0, 0; start < total; start, index = start+stride, index+1 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		end := start + c.chunkSize
		if end > total {
			end = total
		}

		chunks = append(chunks, domain.Chunk{
			Key:     EntryKey(doc.Path, index),
			Source:  doc.Path,
			Index:   index,
			Content: string(runes[start:end]),
		})

		// The last chunk reached the end; another would only repeat the overlap.
		if end == total {
			break
		}
	}

	return chunks, nil
}
