package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/taxadvisor/internal/core/domain"
	"github.com/custodia-labs/taxadvisor/internal/core/ports/driven"
	"github.com/custodia-labs/taxadvisor/internal/logger"
)

// Researcher retrieves the top-K passages for a query.
type Researcher struct {
	embedder      driven.EmbeddingService
	store         driven.VectorStore
	topK          int
	embedTimeout  time.Duration
	searchTimeout time.Duration
}

// NewResearcher creates a researcher.
func NewResearcher(
	embedder driven.EmbeddingService,
	store driven.VectorStore,
	topK int,
	embedTimeout, searchTimeout time.Duration,
) *Researcher {
	if topK <= 0 {
		topK = domain.DefaultTopK
	}
	return &Researcher{
		embedder:      embedder,
		store:         store,
		topK:          topK,
		embedTimeout:  embedTimeout,
		searchTimeout: searchTimeout,
	}
}

// Retrieve returns the top-K passages for query, ordered by similarity.
//
// An empty or unreachable store yields a result with Found false and no error.
// A store that does not answer within the search timeout fails with
// domain.ErrTimeout, and one built with a different embedding model fails
// with domain.ErrEmbeddingModelMismatch.
func (r *Researcher) Retrieve(ctx context.Context, query string) (*domain.RetrievalResult, error) {
	logger.Section("Researcher")
	defer logger.Timed("retrieve")()

	result := &domain.RetrievalResult{Query: query}

	if r.store == nil {
		logger.Warn("no vector store configured")
		return result, nil
	}
	if r.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}

	meta, err := r.metadata(ctx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, stageError(domain.ErrRetrievalUnavailable, "read metadata", err)
		}
		if !errors.Is(err, domain.ErrNotFound) {
			logger.Warn("vector store unavailable: %v", err)
		} else {
			logger.Debug("vector store is empty")
		}
		return result, nil
	}
	if meta.EmbeddingModel != r.embedder.ModelName() {
		return nil, &domain.ModelMismatchError{Indexed: meta.EmbeddingModel, Current: r.embedder.ModelName()}
	}

	vector, err := r.embed(ctx, query)
	if err != nil {
		return nil, err
	}
	if meta.Dimensions > 0 && len(vector) != meta.Dimensions {
		return nil, fmt.Errorf("%w: index has %d dimensions, query embedding has %d",
			domain.ErrEmbeddingModelMismatch, meta.Dimensions, len(vector))
	}

	searchCtx, cancel := withTimeout(ctx, r.searchTimeout)
	defer cancel()

	matches, err := r.store.Nearest(searchCtx, vector, r.topK)
	if errors.Is(err, context.DeadlineExceeded) {
		return nil, stageError(domain.ErrRetrievalUnavailable, "nearest", err)
	}
	if err != nil {
		logger.Warn("%v", stageError(domain.ErrRetrievalUnavailable, "nearest", err))
		return result, nil
	}

	result.Passages = make([]domain.Passage, 0, len(matches))
	for _, m := range matches {
		result.Passages = append(result.Passages, domain.Passage{
			Key:        m.Entry.Key,
			Source:     m.Entry.Source,
			ChunkIndex: m.Entry.ChunkIndex,
			Text:       m.Entry.Text,
			Score:      m.Score,
		})
		logger.Debug("  %.4f %s#%d", m.Score, m.Entry.Source, m.Entry.ChunkIndex)
	}
	result.Found = len(result.Passages) > 0

	return result, nil
}

func (r *Researcher) metadata(ctx context.Context) (*domain.IndexMetadata, error) {
	metaCtx, cancel := withTimeout(ctx, r.searchTimeout)
	defer cancel()
	return r.store.Metadata(metaCtx)
}

func (r *Researcher) embed(ctx context.Context, query string) ([]float32, error) {
	embedCtx, cancel := withTimeout(ctx, r.embedTimeout)
	defer cancel()

	vector, err := r.embedder.Embed(embedCtx, query)
	if err != nil {
		return nil, stageError(domain.ErrEmbeddingUnavailable, "embed query", err)
	}
	return vector, nil
}
