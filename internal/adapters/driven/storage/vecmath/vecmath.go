// Package vecmath provides the similarity scoring shared by the local vector stores.
package vecmath

import (
	"math"
	"slices"

	"github.com/custodia-labs/taxadvisor/internal/core/domain"
)

// Cosine returns the cosine similarity of a and b.
// It returns 0 when the lengths differ or either vector is zero.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// Ranker keeps the k best entries seen so far against a query, so callers
// can stream rows without holding the whole index.
type Ranker struct {
	query []float32
	k     int
	best  []domain.ScoredEntry
}

// NewRanker returns a Ranker for query. A k of zero or less keeps nothing.
func NewRanker(query []float32, k int) *Ranker {
	return &Ranker{query: query, k: max(k, 0)}
}

// Add scores e and keeps it if it ranks among the best k.
func (r *Ranker) Add(e domain.IndexEntry) {
	if r.k == 0 {
		return
	}
	s := domain.ScoredEntry{Entry: e, Score: Cosine(r.query, e.Vector)}
	if len(r.best) == r.k && !better(s, r.best[r.k-1]) {
		return
	}
	i, _ := slices.BinarySearchFunc(r.best, s, func(have, want domain.ScoredEntry) int {
		if better(have, want) {
			return -1
		}
		return 1
	})
	r.best = slices.Insert(r.best, i, s)
	if len(r.best) > r.k {
		r.best = r.best[:r.k]
	}
}

// Result returns the kept entries, highest score first, or nil if none.
func (r *Ranker) Result() []domain.ScoredEntry {
	if len(r.best) == 0 {
		return nil
	}
	return r.best
}

// better orders by score, then source, then chunk index, so equal scores
// always come back in the same order.
func better(a, b domain.ScoredEntry) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if a.Entry.Source != b.Entry.Source {
		return a.Entry.Source < b.Entry.Source
	}
	return a.Entry.ChunkIndex < b.Entry.ChunkIndex
}

// TopK scores every entry against query and returns the k best, highest first.
func TopK(query []float32, entries []domain.IndexEntry, k int) []domain.ScoredEntry {
	r := NewRanker(query, k)
	for _, e := range entries {
		r.Add(e)
	}
	return r.Result()
}
