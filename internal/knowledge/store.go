// Package knowledge implements the persistent question/answer store: a
// normalized question → answer map backed by an append-only CSV table, with
// an embedding index fitted over the known questions.
package knowledge

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"learnbot/internal/domain"
	"learnbot/internal/index"
	"learnbot/internal/match"
)

// Store owns the question → answer mapping, the ordered question sequence
// and the embedding index over it. A commit appends to disk first and only
// mutates memory when the append succeeds, so a failed commit leaves the
// store exactly as it was.
type Store struct {
	mu          sync.RWMutex
	path        string
	answers     map[string]string // normalized question -> answer
	questions   []string          // file order, then commit order
	idx         *index.Index
	fuzzyCutoff float64
	lastCommit  time.Time
	log         *zap.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithFuzzyCutoff overrides the fuzzy lookup similarity cutoff.
func WithFuzzyCutoff(cutoff float64) Option {
	return func(s *Store) {
		if cutoff > 0 {
			s.fuzzyCutoff = cutoff
		}
	}
}

// NewStore creates an empty store persisted at path. A nil embedder leaves
// the index permanently unfit; exact and fuzzy lookup still work.
func NewStore(path string, embedder domain.Embedder, log *zap.Logger, opts ...Option) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Store{
		path:        path,
		answers:     make(map[string]string),
		idx:         index.New(embedder),
		fuzzyCutoff: 0.6,
		log:         log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Normalize lowercases and trims a question for use as a lookup key.
func Normalize(question string) string {
	return strings.ToLower(strings.TrimSpace(question))
}

// Load reads the persisted table and fits the index over the loaded
// questions. An absent or unreadable file yields an empty store and no
// error: the system stays usable with zero prior knowledge. An encoder
// failure during the fit is returned alongside the loaded count; the store
// is still populated, the index stays unfit and retrieval degrades to
// exact/fuzzy lookup.
func (s *Store) Load(ctx context.Context) (int, error) {
	rows, err := readTable(s.path)
	if err != nil {
		s.log.Warn("knowledge table unreadable, starting empty",
			zap.String("path", s.path), zap.Error(err))
		rows = nil
	}

	answers := make(map[string]string, len(rows))
	questions := make([]string, 0, len(rows))
	for _, row := range rows {
		q := strings.TrimSpace(row.Question)
		a := strings.TrimSpace(row.Answer)
		if q == "" {
			continue
		}
		// later rows overwrite earlier ones; the sequence keeps file order
		answers[Normalize(q)] = a
		questions = append(questions, q)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.answers = answers
	s.questions = questions
	if err := s.refitLocked(ctx); err != nil {
		return len(questions), err
	}
	return len(questions), nil
}

// Reload clears the store and re-reads the table from disk. Used when the
// file changes under us (external edit).
func (s *Store) Reload(ctx context.Context) (int, error) {
	return s.Load(ctx)
}

// Lookup returns the answer for query by exact normalized match, falling
// back to fuzzy matching over all known questions with the configured
// cutoff. The returned question is the stored one that matched.
func (s *Store) Lookup(query string) (question, answer string, score float64, ok bool) {
	norm := Normalize(query)
	if norm == "" {
		return "", "", 0, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if a, found := s.answers[norm]; found {
		return norm, a, 1, true
	}
	keys := make([]string, 0, len(s.answers))
	for k := range s.answers {
		keys = append(keys, k)
	}
	best, ratio, found := match.BestMatch(norm, keys, s.fuzzyCutoff)
	if !found {
		return "", "", 0, false
	}
	return best, s.answers[best], ratio, true
}

// Answer returns the stored answer for an exact normalized question.
func (s *Store) Answer(question string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.answers[Normalize(question)]
	return a, ok
}

// Size returns the number of distinct normalized questions.
func (s *Store) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.answers)
}

// Fitted reports whether the embedding index is queryable.
func (s *Store) Fitted() bool { return s.idx.Fitted() }

// QAHit is a nearest-neighbor candidate from the known questions.
type QAHit struct {
	Question string
	Answer   string
	Distance float64
}

// Nearest returns up to k known questions closest to query by cosine
// distance, in ascending distance order.
func (s *Store) Nearest(ctx context.Context, query string, k int) ([]QAHit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	hits, err := s.idx.Query(ctx, query, k)
	if err != nil {
		return nil, err
	}
	out := make([]QAHit, 0, len(hits))
	for _, h := range hits {
		q := s.questions[h.Index]
		out = append(out, QAHit{
			Question: q,
			Answer:   s.answers[Normalize(q)],
			Distance: h.Distance,
		})
	}
	return out, nil
}

// Commit persists a new question/answer pair and updates memory. The append
// happens first: if it fails a PersistenceError is returned and in-memory
// state is unchanged. On success the mapping is updated (last write wins),
// the question is appended to the sequence, and the index is refit. A
// refit encoder failure downgrades the index to unfit rather than failing
// the commit; the committed answer stays reachable by exact lookup.
func (s *Store) Commit(ctx context.Context, question, answer string) error {
	q := strings.TrimSpace(question)
	a := strings.TrimSpace(answer)
	if q == "" {
		return &domain.PersistenceError{Op: "append", Err: errEmptyQuestion}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := appendRow(s.path, q, a); err != nil {
		return &domain.PersistenceError{Op: "append", Err: err}
	}
	s.lastCommit = time.Now()
	s.answers[Normalize(q)] = a
	s.questions = append(s.questions, q)
	if err := s.refitLocked(ctx); err != nil {
		s.log.Warn("index refit failed after commit, falling back to fuzzy lookup",
			zap.String("question", q), zap.Error(err))
	}
	return nil
}

// Import appends all entries from another knowledge table to this one and
// refits the index once at the end. Returns how many entries were added;
// a mid-import append failure keeps what was already added.
func (s *Store) Import(ctx context.Context, path string) (int, error) {
	rows, err := readTable(path)
	if err != nil {
		return 0, &domain.PersistenceError{Op: "read", Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	added := 0
	for _, row := range rows {
		q := strings.TrimSpace(row.Question)
		a := strings.TrimSpace(row.Answer)
		if q == "" {
			continue
		}
		if err := appendRow(s.path, q, a); err != nil {
			_ = s.refitLocked(ctx)
			return added, &domain.PersistenceError{Op: "append", Err: err}
		}
		s.answers[Normalize(q)] = a
		s.questions = append(s.questions, q)
		added++
	}
	if added > 0 {
		s.lastCommit = time.Now()
		if err := s.refitLocked(ctx); err != nil {
			s.log.Warn("index refit failed after import", zap.Error(err))
		}
	}
	return added, nil
}

// LastCommit returns the time of the most recent successful local append.
// The file watcher uses it to ignore events caused by our own writes.
func (s *Store) LastCommit() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastCommit
}

// CheckWritable probes that the persisted table can be appended to, without
// writing anything. Called once at startup so permission problems surface
// before the first teach attempt.
func (s *Store) CheckWritable() error {
	if err := probeAppend(s.path); err != nil {
		return &domain.PersistenceError{Op: "open", Err: err}
	}
	return nil
}

// refitLocked refits the index over the current question sequence. Callers
// hold the write lock. Encoder failures reset the index to unfit so the
// sequence and vectors can never disagree in length.
func (s *Store) refitLocked(ctx context.Context) error {
	err := s.idx.Fit(ctx, s.questions)
	if err == nil || err == domain.ErrEmptyCorpus {
		return nil
	}
	s.idx.Reset()
	return err
}
