package vecmath

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/taxadvisor/internal/core/domain"
)

func TestCosine(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"length mismatch", []float32{1, 0}, []float32{1, 0, 0}, 0},
		{"zero vector", []float32{0, 0}, []float32{1, 0}, 0},
		{"empty", nil, nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Cosine(tt.a, tt.b), 1e-9)
		})
	}
}

func TestTopK(t *testing.T) {
	entries := []domain.IndexEntry{
		{Source: "b.txt", ChunkIndex: 0, Vector: []float32{0, 1}},
		{Source: "a.txt", ChunkIndex: 1, Vector: []float32{1, 0}},
		{Source: "a.txt", ChunkIndex: 0, Vector: []float32{1, 0}},
		{Source: "c.txt", ChunkIndex: 0, Vector: []float32{1, 1}},
	}

	got := TopK([]float32{1, 0}, entries, 3)
	require.Len(t, got, 3)

	assert.Equal(t, "a.txt", got[0].Entry.Source)
	assert.Equal(t, 0, got[0].Entry.ChunkIndex)
	assert.Equal(t, "a.txt", got[1].Entry.Source)
	assert.Equal(t, 1, got[1].Entry.ChunkIndex)
	assert.Equal(t, "c.txt", got[2].Entry.Source)
	assert.GreaterOrEqual(t, got[1].Score, got[2].Score)
}

func TestTopK_Empty(t *testing.T) {
	assert.Nil(t, TopK([]float32{1}, nil, 5))
	assert.Nil(t, TopK([]float32{1}, []domain.IndexEntry{{Vector: []float32{1}}}, 0))
}

func TestRanker_KeepsBestK(t *testing.T) {
	r := NewRanker([]float32{1, 0}, 2)
	for i, v := range [][]float32{{0, 1}, {1, 1}, {1, 0}, {-1, 0}, {1, 0.1}} {
		r.Add(domain.IndexEntry{Source: "rates.md", ChunkIndex: i, Vector: v})
	}

	got := r.Result()
	require.Len(t, got, 2)
	assert.Equal(t, 2, got[0].Entry.ChunkIndex)
	assert.Equal(t, 4, got[1].Entry.ChunkIndex)
	assert.Greater(t, got[0].Score, got[1].Score)
}

func TestRanker_ZeroOrNegativeK(t *testing.T) {
	for _, k := range []int{0, -3} {
		r := NewRanker([]float32{1}, k)
		r.Add(domain.IndexEntry{Vector: []float32{1}})
		assert.Nil(t, r.Result())
	}
}
