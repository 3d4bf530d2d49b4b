// Package engine ranks answer candidates for a query. Two signals are
// blended: semantic similarity from the embedding index and lexical keyword
// overlap. Semantic similarity alone over-generalizes on near-miss topics;
// keyword overlap alone is brittle to paraphrase. A candidate is accepted
// only when it clears both thresholds.
package engine

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"

	"learnbot/internal/corpus"
	"learnbot/internal/domain"
	"learnbot/internal/knowledge"
	"learnbot/internal/match"
)

// Options are the retrieval knobs. Zero values fall back to the defaults.
type Options struct {
	TopK              int
	SemanticThreshold float64
	KeywordThreshold  float64
}

// DefaultOptions returns the calibrated defaults.
func DefaultOptions() Options {
	return Options{TopK: 5, SemanticThreshold: 0.6, KeywordThreshold: 0.5}
}

// Engine answers queries against the knowledge store and, secondarily, the
// document corpus.
type Engine struct {
	kb     *knowledge.Store
	corpus *corpus.Corpus
	opts   Options
	log    *zap.Logger
}

// New creates an engine over the given store and corpus.
func New(kb *knowledge.Store, c *corpus.Corpus, log *zap.Logger, opts Options) *Engine {
	def := DefaultOptions()
	if opts.TopK <= 0 {
		opts.TopK = def.TopK
	}
	if opts.SemanticThreshold == 0 {
		opts.SemanticThreshold = def.SemanticThreshold
	}
	if opts.KeywordThreshold == 0 {
		opts.KeywordThreshold = def.KeywordThreshold
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{kb: kb, corpus: c, opts: opts, log: log}
}

// Answer resolves a query. The pipeline is: exact then fuzzy lookup against
// the knowledge store, hybrid dual-threshold scoring over the store's index,
// the same scoring over the document corpus, then Unknown. An encoder
// failure on an embedding path is logged and that path is skipped for this
// query; it never propagates. An empty query resolves to Unknown without
// side effects. The only returned error is context cancellation.
func (e *Engine) Answer(ctx context.Context, query string) (domain.Answer, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return domain.Answer{}, nil
	}

	// exact/fuzzy lookup is the pre-filter, checked before the embedding
	// path; it also carries the whole load when no encoder is configured
	if q, a, score, ok := e.kb.Lookup(query); ok {
		e.log.Debug("lookup hit", zap.String("question", q), zap.Float64("ratio", score))
		return domain.Answer{Source: domain.SourceKnowledge, Text: a, Matched: q, Score: score}, nil
	}

	if e.kb.Fitted() {
		ans, err := e.answerFromKnowledge(ctx, query)
		if err != nil {
			if ctx.Err() != nil {
				return domain.Answer{}, ctx.Err()
			}
			e.log.Warn("knowledge path unavailable", zap.Error(err))
		} else if ans.Source != domain.SourceUnknown {
			return ans, nil
		}
	}

	if e.corpus != nil && e.corpus.Fitted() {
		ans, err := e.answerFromCorpus(ctx, query)
		if err != nil {
			if ctx.Err() != nil {
				return domain.Answer{}, ctx.Err()
			}
			e.log.Warn("document path unavailable", zap.Error(err))
		} else if ans.Source != domain.SourceUnknown {
			return ans, nil
		}
	}

	return domain.Answer{}, nil
}

// candidate pairs a hit's text with its two scores. Rank order is the mean
// of both, descending; ties keep nearest-neighbor order.
type candidate struct {
	text     string // the matched known question or passage
	answer   string
	semantic float64
	keyword  float64
}

func (c candidate) combined() float64 { return (c.semantic + c.keyword) / 2 }

func (e *Engine) answerFromKnowledge(ctx context.Context, query string) (domain.Answer, error) {
	hits, err := e.kb.Nearest(ctx, query, e.opts.TopK)
	if err != nil {
		return domain.Answer{}, err
	}
	cands := make([]candidate, 0, len(hits))
	for _, h := range hits {
		c := candidate{
			text:     h.Question,
			answer:   h.Answer,
			semantic: 1 - h.Distance,
			keyword:  match.Overlap(query, h.Question),
		}
		cands = append(cands, c)
		e.log.Debug("knowledge candidate",
			zap.String("question", h.Question),
			zap.Float64("semantic", c.semantic),
			zap.Float64("keyword", c.keyword))
	}
	if best, ok := e.pick(cands); ok {
		return domain.Answer{
			Source:  domain.SourceKnowledge,
			Text:    best.answer,
			Matched: best.text,
			Score:   best.combined(),
		}, nil
	}
	return domain.Answer{}, nil
}

func (e *Engine) answerFromCorpus(ctx context.Context, query string) (domain.Answer, error) {
	hits, err := e.corpus.Nearest(ctx, query, e.opts.TopK)
	if err != nil {
		return domain.Answer{}, err
	}
	cands := make([]candidate, 0, len(hits))
	for _, h := range hits {
		c := candidate{
			text:     h.Passage.Text,
			answer:   h.Passage.Text,
			semantic: 1 - h.Distance,
			keyword:  match.Overlap(query, h.Passage.Text),
		}
		cands = append(cands, c)
		e.log.Debug("document candidate",
			zap.String("passage", h.Passage.Text),
			zap.Float64("semantic", c.semantic),
			zap.Float64("keyword", c.keyword))
	}
	if best, ok := e.pick(cands); ok {
		return domain.Answer{
			Source:  domain.SourceDocument,
			Text:    best.answer,
			Matched: best.text,
			Score:   best.combined(),
		}, nil
	}
	return domain.Answer{}, nil
}

// pick ranks candidates and applies the dual threshold to the winner.
func (e *Engine) pick(cands []candidate) (candidate, bool) {
	if len(cands) == 0 {
		return candidate{}, false
	}
	sort.SliceStable(cands, func(i, j int) bool {
		return cands[i].combined() > cands[j].combined()
	})
	best := cands[0]
	if best.semantic >= e.opts.SemanticThreshold && best.keyword >= e.opts.KeywordThreshold {
		return best, true
	}
	return candidate{}, false
}
