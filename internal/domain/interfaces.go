package domain

import "context"

// QAEntry is a single question/answer pair as persisted in the knowledge
// table. The question is kept as written; normalization happens at lookup.
type QAEntry struct {
	Question string
	Answer   string
}

// Passage is a normalized non-empty line of document text eligible for
// retrieval. Its Index is position-stable within the owning corpus.
type Passage struct {
	Text  string
	Index int
}

// Source identifies where an answer came from.
type Source int

const (
	SourceUnknown Source = iota
	SourceKnowledge
	SourceDocument
)

// String returns a short tag suitable for display.
func (s Source) String() string {
	switch s {
	case SourceKnowledge:
		return "knowledge base"
	case SourceDocument:
		return "document"
	default:
		return "unknown"
	}
}

// Answer is the result of a retrieval attempt. When Source is SourceUnknown
// the remaining fields are empty.
type Answer struct {
	Source  Source
	Text    string
	Matched string  // the known question or passage that produced Text
	Score   float64 // combined score of the winning candidate, 1 for exact hits
}

// Hit is one nearest-neighbor result: cosine distance to the query and the
// position of the matched text in the fitted sequence.
type Hit struct {
	Distance float64
	Index    int
}

// Embedder converts free text into a numeric vector representation.
// Implementations may require a preparation phase over the corpus.
type Embedder interface {
	Name() string
	Prepare(ctx context.Context, corpus []string) error
	Dimension() int
	Embed(ctx context.Context, text string) ([]float64, error)
}

// Extractor turns a document file into its ordered non-empty trimmed lines.
// Extraction failures are recoverable; they never affect previously
// ingested content.
type Extractor interface {
	Extract(ctx context.Context, path string) ([]string, error)
}
