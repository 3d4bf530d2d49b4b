// Package index maintains an in-memory embedding index: one vector per
// source text, in source order, queried by cosine distance. A fit always
// replaces prior state atomically; the replacement vectors are built in full
// before being swapped in, so readers never observe a partial index.
package index

import (
	"context"
	"math"
	"sort"
	"sync"

	"learnbot/internal/domain"
)

// Index owns the fitted vectors for one text sequence. Each Index should
// have its own Embedder instance: a TF-IDF embedder's vocabulary is rebuilt
// per fit and must not be shared across sequences.
type Index struct {
	mu       sync.RWMutex
	embedder domain.Embedder
	vectors  [][]float64
	fitted   bool
}

// New creates an unfit index over the given embedder. A nil embedder yields
// an index that never fits; callers gate on Fitted.
func New(embedder domain.Embedder) *Index {
	return &Index{embedder: embedder}
}

// Fit encodes texts in order and replaces the fitted vectors. An empty
// sequence clears the index and returns domain.ErrEmptyCorpus. Any encoder
// failure leaves the previous state untouched and is returned wrapped as an
// EncodingError.
func (x *Index) Fit(ctx context.Context, texts []string) error {
	if len(texts) == 0 {
		x.Reset()
		return domain.ErrEmptyCorpus
	}
	if x.embedder == nil {
		return domain.ErrNotFitted
	}
	if err := x.embedder.Prepare(ctx, texts); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &domain.EncodingError{Err: err}
	}
	vectors := make([][]float64, len(texts))
	for i, t := range texts {
		vec, err := x.embedder.Embed(ctx, t)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return &domain.EncodingError{Err: err}
		}
		vectors[i] = normalize(vec)
	}
	x.mu.Lock()
	x.vectors = vectors
	x.fitted = true
	x.mu.Unlock()
	return nil
}

// Reset discards fitted state, returning the index to unfit.
func (x *Index) Reset() {
	x.mu.Lock()
	x.vectors = nil
	x.fitted = false
	x.mu.Unlock()
}

// Fitted reports whether the index can be queried.
func (x *Index) Fitted() bool {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.fitted
}

// Len returns the number of fitted vectors.
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.vectors)
}

// Query encodes text and returns the k nearest fitted vectors as
// (distance, index) pairs, ascending by cosine distance with ties kept in
// source order. Returns domain.ErrNotFitted before a successful fit.
func (x *Index) Query(ctx context.Context, text string, k int) ([]domain.Hit, error) {
	if k <= 0 {
		k = 5
	}
	x.mu.RLock()
	fitted := x.fitted
	vectors := x.vectors
	x.mu.RUnlock()
	if !fitted {
		return nil, domain.ErrNotFitted
	}
	vec, err := x.embedder.Embed(ctx, text)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &domain.EncodingError{Err: err}
	}
	vec = normalize(vec)

	hits := make([]domain.Hit, len(vectors))
	for i := range vectors {
		hits[i] = domain.Hit{Distance: 1 - dot(vectors[i], vec), Index: i}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Distance < hits[j].Distance })
	if k > len(hits) {
		k = len(hits)
	}
	return hits[:k], nil
}

func normalize(v []float64) []float64 {
	norm := 0.0
	for _, f := range v {
		norm += f * f
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		return v
	}
	out := make([]float64, len(v))
	for i, f := range v {
		out[i] = f / norm
	}
	return out
}

func dot(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}
