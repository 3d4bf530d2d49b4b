package corpus

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"learnbot/internal/domain"
	"learnbot/internal/embedding/tfidf"
)

func TestIngestFiltersAndFits(t *testing.T) {
	c := New(func() domain.Embedder { return tfidf.New() }, nil)
	assert.False(t, c.Fitted())

	n, err := c.Ingest(context.Background(), []string{
		"  Water boils at 100 degrees Celsius  ",
		"",
		"   ",
		"Plants make food through photosynthesis",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, c.Len())
	assert.True(t, c.Fitted())

	hits, err := c.Nearest(context.Background(), "water boils at what degrees", 5)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "Water boils at 100 degrees Celsius", hits[0].Passage.Text)
	assert.Equal(t, 0, hits[0].Passage.Index)
	assert.Less(t, hits[0].Distance, hits[1].Distance)
}

func TestIngestEmptyReportsAndUnfits(t *testing.T) {
	c := New(func() domain.Embedder { return tfidf.New() }, nil)
	_, err := c.Ingest(context.Background(), []string{"some passage"})
	require.NoError(t, err)

	n, err := c.Ingest(context.Background(), []string{"", "   "})
	assert.ErrorIs(t, err, domain.ErrEmptyDocument)
	assert.Equal(t, 0, n)
	assert.False(t, c.Fitted())
	assert.Equal(t, 0, c.Len())
}

func TestIngestReplacesWholesale(t *testing.T) {
	c := New(func() domain.Embedder { return tfidf.New() }, nil)
	_, err := c.Ingest(context.Background(), []string{"first document line"})
	require.NoError(t, err)
	_, err = c.Ingest(context.Background(), []string{"second document line", "another line"})
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())

	hits, err := c.Nearest(context.Background(), "second document", 5)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "second document line", hits[0].Passage.Text)
}

// brokenEmbedder fails every call.
type brokenEmbedder struct{}

func (brokenEmbedder) Name() string { return "broken" }

func (brokenEmbedder) Prepare(ctx context.Context, corpus []string) error {
	return errors.New("model offline")
}

func (brokenEmbedder) Dimension() int { return 0 }

func (brokenEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	return nil, errors.New("model offline")
}

func TestIngestFailureKeepsPreviousCorpus(t *testing.T) {
	broken := false
	c := New(func() domain.Embedder {
		if broken {
			return brokenEmbedder{}
		}
		return tfidf.New()
	}, nil)
	_, err := c.Ingest(context.Background(), []string{"the original passage"})
	require.NoError(t, err)

	broken = true
	_, err = c.Ingest(context.Background(), []string{"a replacement passage"})
	var encErr *domain.EncodingError
	require.ErrorAs(t, err, &encErr)

	assert.True(t, c.Fitted())
	assert.Equal(t, 1, c.Len())
	hits, err := c.Nearest(context.Background(), "original passage", 1)
	require.NoError(t, err)
	assert.Equal(t, "the original passage", hits[0].Passage.Text)
}

func TestIngestCancelled(t *testing.T) {
	c := New(func() domain.Embedder { return tfidf.New() }, nil)
	_, err := c.Ingest(context.Background(), []string{"the original passage"})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.Ingest(ctx, []string{"a replacement passage"})
	assert.ErrorIs(t, err, context.Canceled)

	// previous corpus untouched
	assert.True(t, c.Fitted())
	assert.Equal(t, 1, c.Len())
}
