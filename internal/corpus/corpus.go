// Package corpus holds the passages of the currently ingested document and
// their embedding index. Ingesting a new document replaces the corpus
// wholesale; there is no merging.
package corpus

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"learnbot/internal/domain"
	"learnbot/internal/index"
)

// EmbedderFactory yields the embedder for one ingest. Each ingest gets a
// fresh one so a failed or cancelled fit cannot disturb the state the
// previous corpus's index still depends on.
type EmbedderFactory func() domain.Embedder

// Corpus owns the passage sequence and its fitted index. It starts empty
// and unfit.
type Corpus struct {
	mu          sync.RWMutex
	newEmbedder EmbedderFactory
	passages    []domain.Passage
	idx         *index.Index
	log         *zap.Logger
}

// New creates an empty corpus. A factory returning nil embedders leaves it
// permanently unfit.
func New(factory EmbedderFactory, log *zap.Logger) *Corpus {
	if log == nil {
		log = zap.NewNop()
	}
	if factory == nil {
		factory = func() domain.Embedder { return nil }
	}
	return &Corpus{newEmbedder: factory, idx: index.New(nil), log: log}
}

// Ingest filters lines to non-empty trimmed passages, fits a replacement
// index over them, and swaps both in. The swap happens only after the new
// index is fully built: a failed or cancelled ingest leaves the previous
// corpus intact. Zero usable lines clears the corpus and reports
// domain.ErrEmptyDocument; that one is a condition, not a failure.
func (c *Corpus) Ingest(ctx context.Context, lines []string) (int, error) {
	passages := make([]domain.Passage, 0, len(lines))
	texts := make([]string, 0, len(lines))
	for _, line := range lines {
		t := strings.TrimSpace(line)
		if t == "" {
			continue
		}
		passages = append(passages, domain.Passage{Text: t, Index: len(passages)})
		texts = append(texts, t)
	}

	if len(texts) == 0 {
		c.mu.Lock()
		c.passages = nil
		c.idx.Reset()
		c.mu.Unlock()
		return 0, domain.ErrEmptyDocument
	}

	// the replacement index is built in full, on its own embedder, before
	// anything visible changes
	replacement := index.New(c.newEmbedder())
	if err := replacement.Fit(ctx, texts); err != nil {
		return 0, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.passages = passages
	c.idx = replacement
	c.log.Info("corpus replaced", zap.Int("passages", len(passages)))
	return len(passages), nil
}

// Fitted reports whether the corpus can answer nearest-neighbor queries.
func (c *Corpus) Fitted() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.idx.Fitted()
}

// Len returns the number of passages.
func (c *Corpus) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.passages)
}

// PassageHit is a nearest-neighbor candidate from the passages.
type PassageHit struct {
	Passage  domain.Passage
	Distance float64
}

// Nearest returns up to k passages closest to query by cosine distance,
// ascending.
func (c *Corpus) Nearest(ctx context.Context, query string, k int) ([]PassageHit, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	hits, err := c.idx.Query(ctx, query, k)
	if err != nil {
		return nil, err
	}
	out := make([]PassageHit, 0, len(hits))
	for _, h := range hits {
		out = append(out, PassageHit{Passage: c.passages[h.Index], Distance: h.Distance})
	}
	return out, nil
}
