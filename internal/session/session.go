// Package session implements the single-turn teaching protocol. When the
// engine cannot answer, the session remembers the question and treats the
// very next utterance as its answer, committing the pair to the knowledge
// store. The next utterance is taken as an answer even when it looks like a
// question itself; that is a known limitation of the protocol, kept on
// purpose.
package session

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"learnbot/internal/domain"
	"learnbot/internal/engine"
	"learnbot/internal/knowledge"
)

// State is the teaching session state.
type State int

const (
	// Idle: utterances are queries answered by the engine.
	Idle State = iota
	// AwaitingAnswer: the next utterance teaches the pending question.
	AwaitingAnswer
)

// ReplyKind tags what the conversation surface should show.
type ReplyKind int

const (
	// ReplyNone: empty utterance, nothing happened.
	ReplyNone ReplyKind = iota
	// ReplyAnswer: a retrieved answer; see Reply.Answer for the source tag.
	ReplyAnswer
	// ReplyTeachPrompt: the engine came up empty and the session now waits
	// to be taught.
	ReplyTeachPrompt
	// ReplyLearned: the pending question was committed.
	ReplyLearned
)

// Reply is the session's reaction to one utterance.
type Reply struct {
	Kind   ReplyKind
	Answer domain.Answer // set for ReplyAnswer
}

// Session drives the conversation. It lives for the process lifetime; there
// is no terminal state.
type Session struct {
	engine  *engine.Engine
	store   *knowledge.Store
	state   State
	pending string
	log     *zap.Logger
}

// New creates an idle session.
func New(eng *engine.Engine, store *knowledge.Store, log *zap.Logger) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	return &Session{engine: eng, store: store, log: log}
}

// State returns the current state.
func (s *Session) State() State { return s.state }

// Pending returns the question awaiting an answer, if any.
func (s *Session) Pending() string { return s.pending }

// Handle processes one utterance.
//
// Idle: the utterance is a query. On success the session stays idle; on
// Unknown it becomes AwaitingAnswer, keeping the query verbatim.
//
// AwaitingAnswer: the utterance is the answer to the pending question and
// is committed. A failed commit keeps the state and the pending question so
// the user does not have to repeat the answer; the persistence error is
// returned for the surface to show.
func (s *Session) Handle(ctx context.Context, utterance string) (Reply, error) {
	trimmed := strings.TrimSpace(utterance)
	if trimmed == "" {
		return Reply{Kind: ReplyNone}, nil
	}

	if s.state == AwaitingAnswer {
		if err := s.store.Commit(ctx, s.pending, trimmed); err != nil {
			s.log.Error("teach commit failed",
				zap.String("question", s.pending), zap.Error(err))
			return Reply{}, err
		}
		s.log.Info("learned new answer", zap.String("question", s.pending))
		s.state = Idle
		s.pending = ""
		return Reply{Kind: ReplyLearned}, nil
	}

	ans, err := s.engine.Answer(ctx, trimmed)
	if err != nil {
		return Reply{}, err
	}
	if ans.Source == domain.SourceUnknown {
		s.state = AwaitingAnswer
		s.pending = trimmed
		return Reply{Kind: ReplyTeachPrompt}, nil
	}
	return Reply{Kind: ReplyAnswer, Answer: ans}, nil
}
