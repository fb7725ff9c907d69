// Package storetest holds behaviour tests shared by every driven.VectorStore.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/taxadvisor/internal/core/domain"
	"github.com/custodia-labs/taxadvisor/internal/core/ports/driven"
)

// Factory returns an empty store. The store is closed by the suite.
type Factory func(t *testing.T) driven.VectorStore

// Entry builds a test entry with a key derived from source and index.
func Entry(source string, index int, hash string, vector ...float32) domain.IndexEntry {
	return domain.IndexEntry{
		Key:         source + "#" + string(rune('a'+index)),
		Source:      source,
		ChunkIndex:  index,
		Text:        source + " chunk",
		Vector:      vector,
		ContentHash: hash,
	}
}

// Run exercises the VectorStore contract against stores from newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("EmptyMetadata", func(t *testing.T) {
		s := open(t, newStore)
		_, err := s.Metadata(context.Background())
		assert.True(t, errors.Is(err, domain.ErrNotFound))
	})

	t.Run("EmptyNearest", func(t *testing.T) {
		s := open(t, newStore)
		got, err := s.Nearest(context.Background(), []float32{1, 0, 0}, 5)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("MetadataRoundTrip", func(t *testing.T) {
		s := open(t, newStore)
		ctx := context.Background()
		at := time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC)

		require.NoError(t, s.SetMetadata(ctx, domain.IndexMetadata{
			EmbeddingModel: "all-minilm", Dimensions: 3, UpdatedAt: at,
		}))
		meta, err := s.Metadata(ctx)
		require.NoError(t, err)
		assert.Equal(t, "all-minilm", meta.EmbeddingModel)
		assert.Equal(t, 3, meta.Dimensions)
		assert.True(t, at.Equal(meta.UpdatedAt))
	})

	t.Run("UpsertAndNearest", func(t *testing.T) {
		s := open(t, newStore)
		ctx := context.Background()
		require.NoError(t, s.Upsert(ctx, []domain.IndexEntry{
			Entry("vat.txt", 0, "h1", 1, 0, 0),
			Entry("vat.txt", 1, "h1", 0, 1, 0),
			Entry("income.txt", 0, "h2", 0.9, 0.1, 0),
		}))

		got, err := s.Nearest(ctx, []float32{1, 0, 0}, 2)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "vat.txt", got[0].Entry.Source)
		assert.Equal(t, 0, got[0].Entry.ChunkIndex)
		assert.Equal(t, "vat.txt chunk", got[0].Entry.Text)
		assert.Equal(t, "income.txt", got[1].Entry.Source)
		assert.Greater(t, got[0].Score, got[1].Score)
	})

	t.Run("UpsertReplacesByKey", func(t *testing.T) {
		s := open(t, newStore)
		ctx := context.Background()
		require.NoError(t, s.Upsert(ctx, []domain.IndexEntry{Entry("a.txt", 0, "h1", 1, 0, 0)}))
		require.NoError(t, s.Upsert(ctx, []domain.IndexEntry{Entry("a.txt", 0, "h2", 0, 1, 0)}))

		sources, err := s.Sources(ctx)
		require.NoError(t, err)
		require.Contains(t, sources, "a.txt")
		assert.Equal(t, 1, sources["a.txt"].Chunks)
		assert.Equal(t, "h2", sources["a.txt"].ContentHash)
	})

	t.Run("DeleteSource", func(t *testing.T) {
		s := open(t, newStore)
		ctx := context.Background()
		require.NoError(t, s.Upsert(ctx, []domain.IndexEntry{
			Entry("a.txt", 0, "h1", 1, 0, 0),
			Entry("a.txt", 1, "h1", 1, 1, 0),
			Entry("b.txt", 0, "h2", 0, 1, 0),
		}))
		require.NoError(t, s.DeleteSource(ctx, "a.txt"))
		require.NoError(t, s.DeleteSource(ctx, "missing.txt"))

		sources, err := s.Sources(ctx)
		require.NoError(t, err)
		assert.NotContains(t, sources, "a.txt")
		assert.Equal(t, 1, sources["b.txt"].Chunks)

		got, err := s.Nearest(ctx, []float32{1, 0, 0}, 5)
		require.NoError(t, err)
		for _, m := range got {
			assert.Equal(t, "b.txt", m.Entry.Source)
		}
	})

	t.Run("Reset", func(t *testing.T) {
		s := open(t, newStore)
		ctx := context.Background()
		require.NoError(t, s.Upsert(ctx, []domain.IndexEntry{Entry("a.txt", 0, "h1", 1, 0, 0)}))
		require.NoError(t, s.SetMetadata(ctx, domain.IndexMetadata{EmbeddingModel: "m", Dimensions: 3}))

		require.NoError(t, s.Reset(ctx))

		sources, err := s.Sources(ctx)
		require.NoError(t, err)
		assert.Empty(t, sources)
		_, err = s.Metadata(ctx)
		assert.True(t, errors.Is(err, domain.ErrNotFound))
	})

	t.Run("Name", func(t *testing.T) {
		s := open(t, newStore)
		assert.NotEmpty(t, s.Name())
	})
}

func open(t *testing.T, newStore Factory) driven.VectorStore {
	t.Helper()
	s := newStore(t)
	t.Cleanup(func() { _ = s.Close() })
	return s
}
