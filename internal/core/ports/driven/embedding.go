package driven

import "context"

// EmbeddingService turns text into vectors. Indexing and querying must use
// the same model; the indexer records ModelName in the store metadata and
// the researcher refuses to query a store built with another model.
type EmbeddingService interface {
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch returns one vector per text, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions is the configured vector length.
	Dimensions() int

	ModelName() string

	// Ping checks reachability without embedding anything.
	Ping(ctx context.Context) error

	Close() error
}
