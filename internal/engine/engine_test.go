package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"learnbot/internal/corpus"
	"learnbot/internal/domain"
	"learnbot/internal/embedding/tfidf"
	"learnbot/internal/knowledge"
)

func kbWith(t *testing.T, rows string, opts ...knowledge.Option) *knowledge.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "knowledge.csv")
	if rows != "" {
		require.NoError(t, os.WriteFile(path, []byte(rows), 0o644))
	}
	s := knowledge.NewStore(path, tfidf.New(), zap.NewNop(), opts...)
	_, err := s.Load(context.Background())
	require.NoError(t, err)
	return s
}

func tfidfCorpus() *corpus.Corpus {
	return corpus.New(func() domain.Embedder { return tfidf.New() }, nil)
}

func TestEmptyQueryIsNoOp(t *testing.T) {
	e := New(kbWith(t, "soal,jawaban\nq,a\n"), tfidfCorpus(), nil, Options{})
	ans, err := e.Answer(context.Background(), "   ")
	require.NoError(t, err)
	assert.Equal(t, domain.SourceUnknown, ans.Source)
}

func TestUnknownOnEmptyStore(t *testing.T) {
	e := New(kbWith(t, ""), tfidfCorpus(), nil, Options{})
	ans, err := e.Answer(context.Background(), "what is the capital of France")
	require.NoError(t, err)
	assert.Equal(t, domain.SourceUnknown, ans.Source)
}

func TestExactHit(t *testing.T) {
	e := New(kbWith(t, "soal,jawaban\nwhat is the capital of france,Paris\n"), tfidfCorpus(), nil, Options{})
	ans, err := e.Answer(context.Background(), "What is the capital of France")
	require.NoError(t, err)
	assert.Equal(t, domain.SourceKnowledge, ans.Source)
	assert.Equal(t, "Paris", ans.Text)
	assert.Equal(t, 1.0, ans.Score)
}

func TestFuzzyHitOnTypo(t *testing.T) {
	e := New(kbWith(t, "soal,jawaban\nhow do plants make food,photosynthesis\n"), tfidfCorpus(), nil, Options{})
	ans, err := e.Answer(context.Background(), "how do plant make food")
	require.NoError(t, err)
	assert.Equal(t, domain.SourceKnowledge, ans.Source)
	assert.Equal(t, "photosynthesis", ans.Text)
}

func TestHybridHit(t *testing.T) {
	// fuzzy cutoff raised so only the embedding path can answer
	kb := kbWith(t,
		"soal,jawaban\nhow do plants make their food,photosynthesis\nwhat is the capital of france,Paris\n",
		knowledge.WithFuzzyCutoff(0.99))
	e := New(kb, tfidfCorpus(), nil, Options{})

	ans, err := e.Answer(context.Background(), "plants make food")
	require.NoError(t, err)
	assert.Equal(t, domain.SourceKnowledge, ans.Source)
	assert.Equal(t, "photosynthesis", ans.Text)
	assert.Equal(t, "how do plants make their food", ans.Matched)
	assert.GreaterOrEqual(t, ans.Score, 0.6)
}

func TestDualThresholdRejectsKeywordMiss(t *testing.T) {
	// semantically adjacent via shared dominant tokens but the query's own
	// words barely overlap the stored question
	kb := kbWith(t,
		"soal,jawaban\nplants food,photosynthesis\n",
		knowledge.WithFuzzyCutoff(0.99))
	e := New(kb, tfidfCorpus(), nil, Options{})

	ans, err := e.Answer(context.Background(), "where did the ancient romans grow plants for their food supply chains")
	require.NoError(t, err)
	assert.Equal(t, domain.SourceUnknown, ans.Source)
}

func TestDocumentFallback(t *testing.T) {
	c := tfidfCorpus()
	_, err := c.Ingest(context.Background(), []string{"Water boils at 100 degrees Celsius"})
	require.NoError(t, err)

	e := New(kbWith(t, ""), c, nil, Options{})
	ans, err := e.Answer(context.Background(), "water boils at what degrees")
	require.NoError(t, err)
	assert.Equal(t, domain.SourceDocument, ans.Source)
	assert.Equal(t, "Water boils at 100 degrees Celsius", ans.Text)
}

func TestKnowledgeBeatsDocument(t *testing.T) {
	c := tfidfCorpus()
	_, err := c.Ingest(context.Background(), []string{"the capital of france is paris, a large city"})
	require.NoError(t, err)

	e := New(kbWith(t, "soal,jawaban\nwhat is the capital of france,Paris\n"), c, nil, Options{})
	ans, err := e.Answer(context.Background(), "what is the capital of france")
	require.NoError(t, err)
	assert.Equal(t, domain.SourceKnowledge, ans.Source)
	assert.Equal(t, "Paris", ans.Text)
}

// flakyEmbedder works during fit, then fails all later calls.
type flakyEmbedder struct {
	inner     *tfidf.Embedder
	remaining int
}

func (f *flakyEmbedder) Name() string { return "flaky" }

func (f *flakyEmbedder) Prepare(ctx context.Context, corpus []string) error {
	return f.inner.Prepare(ctx, corpus)
}

func (f *flakyEmbedder) Dimension() int { return f.inner.Dimension() }

func (f *flakyEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	if f.remaining <= 0 {
		return nil, errors.New("model offline")
	}
	f.remaining--
	return f.inner.Embed(ctx, text)
}

func TestEncodingFailureFallsThrough(t *testing.T) {
	path := filepath.Join(t.TempDir(), "knowledge.csv")
	require.NoError(t, os.WriteFile(path,
		[]byte("soal,jawaban\nhow do plants make their food,photosynthesis\n"), 0o644))
	// one successful embed fits the single question, then queries fail
	kb := knowledge.NewStore(path, &flakyEmbedder{inner: tfidf.New(), remaining: 1}, zap.NewNop(),
		knowledge.WithFuzzyCutoff(0.99))
	_, err := kb.Load(context.Background())
	require.NoError(t, err)
	require.True(t, kb.Fitted())

	c := tfidfCorpus()
	_, err = c.Ingest(context.Background(), []string{"plants make their own food using sunlight"})
	require.NoError(t, err)

	e := New(kb, c, nil, Options{})
	ans, err := e.Answer(context.Background(), "plants make food")
	require.NoError(t, err)
	// the knowledge path was unavailable; the document path still answered
	assert.Equal(t, domain.SourceDocument, ans.Source)
}

func TestNilCorpus(t *testing.T) {
	e := New(kbWith(t, ""), nil, nil, Options{})
	ans, err := e.Answer(context.Background(), "anything at all")
	require.NoError(t, err)
	assert.Equal(t, domain.SourceUnknown, ans.Source)
}

func TestDefaultOptionsApplied(t *testing.T) {
	e := New(kbWith(t, ""), nil, nil, Options{})
	assert.Equal(t, 5, e.opts.TopK)
	assert.Equal(t, 0.6, e.opts.SemanticThreshold)
	assert.Equal(t, 0.5, e.opts.KeywordThreshold)
}
