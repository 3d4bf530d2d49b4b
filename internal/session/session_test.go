package session

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"learnbot/internal/corpus"
	"learnbot/internal/domain"
	"learnbot/internal/embedding/tfidf"
	"learnbot/internal/engine"
	"learnbot/internal/knowledge"
)

func newSession(t *testing.T, storePath string) (*Session, *knowledge.Store) {
	t.Helper()
	store := knowledge.NewStore(storePath, tfidf.New(), zap.NewNop())
	_, err := store.Load(context.Background())
	require.NoError(t, err)
	c := corpus.New(func() domain.Embedder { return tfidf.New() }, nil)
	eng := engine.New(store, c, nil, engine.Options{})
	return New(eng, store, zap.NewNop()), store
}

func TestTeachingFlow(t *testing.T) {
	s, _ := newSession(t, filepath.Join(t.TempDir(), "knowledge.csv"))
	ctx := context.Background()
	assert.Equal(t, Idle, s.State())

	// unknown question arms the session
	reply, err := s.Handle(ctx, "what is the capital of France")
	require.NoError(t, err)
	assert.Equal(t, ReplyTeachPrompt, reply.Kind)
	assert.Equal(t, AwaitingAnswer, s.State())
	assert.Equal(t, "what is the capital of France", s.Pending())

	// the next utterance is the answer
	reply, err = s.Handle(ctx, "Paris")
	require.NoError(t, err)
	assert.Equal(t, ReplyLearned, reply.Kind)
	assert.Equal(t, Idle, s.State())
	assert.Empty(t, s.Pending())

	// an immediate re-query returns the taught answer from the knowledge base
	reply, err = s.Handle(ctx, "what is the capital of France")
	require.NoError(t, err)
	assert.Equal(t, ReplyAnswer, reply.Kind)
	assert.Equal(t, domain.SourceKnowledge, reply.Answer.Source)
	assert.Equal(t, "Paris", reply.Answer.Text)
}

func TestAnswerKeepsIdle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "knowledge.csv")
	s, store := newSession(t, path)
	ctx := context.Background()
	require.NoError(t, store.Commit(ctx, "what is go", "a programming language"))

	reply, err := s.Handle(ctx, "what is go")
	require.NoError(t, err)
	assert.Equal(t, ReplyAnswer, reply.Kind)
	assert.Equal(t, Idle, s.State())
}

func TestEmptyUtteranceDoesNothing(t *testing.T) {
	s, _ := newSession(t, filepath.Join(t.TempDir(), "knowledge.csv"))
	reply, err := s.Handle(context.Background(), "   ")
	require.NoError(t, err)
	assert.Equal(t, ReplyNone, reply.Kind)
	assert.Equal(t, Idle, s.State())
}

func TestAnswerThatLooksLikeAQuestionIsStillAnAnswer(t *testing.T) {
	s, store := newSession(t, filepath.Join(t.TempDir(), "knowledge.csv"))
	ctx := context.Background()

	_, err := s.Handle(ctx, "what is the meaning of life")
	require.NoError(t, err)
	require.Equal(t, AwaitingAnswer, s.State())

	reply, err := s.Handle(ctx, "is it really 42?")
	require.NoError(t, err)
	assert.Equal(t, ReplyLearned, reply.Kind)
	a, ok := store.Answer("what is the meaning of life")
	require.True(t, ok)
	assert.Equal(t, "is it really 42?", a)
}

func TestCommitFailureKeepsPendingQuestion(t *testing.T) {
	// a directory at the table path makes every append fail
	s, _ := newSession(t, t.TempDir())
	ctx := context.Background()

	_, err := s.Handle(ctx, "what is the capital of France")
	require.NoError(t, err)
	require.Equal(t, AwaitingAnswer, s.State())

	_, err = s.Handle(ctx, "Paris")
	var perr *domain.PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, AwaitingAnswer, s.State())
	assert.Equal(t, "what is the capital of France", s.Pending())
}
