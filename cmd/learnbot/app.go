package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"learnbot/internal/config"
	"learnbot/internal/corpus"
	"learnbot/internal/domain"
	"learnbot/internal/embedding/openai"
	"learnbot/internal/embedding/tfidf"
	"learnbot/internal/engine"
	"learnbot/internal/extract"
	"learnbot/internal/knowledge"
	"learnbot/internal/session"
	"learnbot/internal/summarizer"
)

// app wires the session's components together: knowledge store, document
// corpus, retrieval engine, teaching session, extractor and summarizer.
type app struct {
	cfg     *config.AppConfig
	log     *zap.Logger
	store   *knowledge.Store
	corpus  *corpus.Corpus
	engine  *engine.Engine
	session *session.Session
	extract *extract.Dispatcher
	sum     *summarizer.FrequencySummarizer
}

func newApp(cfg *config.AppConfig, log *zap.Logger) (*app, error) {
	// each index owns its embedder, so the store and the corpus get
	// separate instances
	kbEmb, err := newEmbedder(cfg)
	if err != nil {
		return nil, err
	}
	docEmb, err := newEmbedder(cfg)
	if err != nil {
		return nil, err
	}
	docFactory := func() domain.Embedder { return docEmb }
	if cfg.Encoder.Type == "tfidf" || cfg.Encoder.Type == "" {
		// TF-IDF keeps per-fit vocabulary state, so every ingest needs a
		// fresh one; the remote client is stateless and can be shared
		docFactory = func() domain.Embedder { return tfidf.New() }
	}

	store := knowledge.NewStore(cfg.Knowledge.Path, kbEmb, log,
		knowledge.WithFuzzyCutoff(cfg.Retrieval.FuzzyCutoff))
	c := corpus.New(docFactory, log)
	eng := engine.New(store, c, log, engine.Options{
		TopK:              cfg.Retrieval.TopK,
		SemanticThreshold: cfg.Retrieval.SemanticThreshold,
		KeywordThreshold:  cfg.Retrieval.KeywordThreshold,
	})
	return &app{
		cfg:     cfg,
		log:     log,
		store:   store,
		corpus:  c,
		engine:  eng,
		session: session.New(eng, store, log),
		extract: extract.NewDispatcher(cfg.Extractor.ServiceURL),
		sum:     summarizer.New(),
	}, nil
}

func newEmbedder(cfg *config.AppConfig) (domain.Embedder, error) {
	switch cfg.Encoder.Type {
	case "tfidf", "":
		return tfidf.New(), nil
	case "openai":
		oc := cfg.Encoder.OpenAI
		if oc == nil {
			return nil, fmt.Errorf("openai encoder config missing")
		}
		return openai.NewClient(openai.Config{
			BaseURL:   oc.BaseURL,
			APIKeyEnv: oc.APIKeyEnv,
			Model:     oc.Model,
			Timeout:   time.Duration(oc.TimeoutSecs) * time.Second,
			BatchSize: oc.BatchSize,
		})
	case "none":
		// degraded mode: exact and fuzzy lookup only
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown encoder: %s", cfg.Encoder.Type)
	}
}

// IngestDocument extracts a document's lines and replaces the corpus with
// them, returning the passage count and a short summary.
func (a *app) IngestDocument(ctx context.Context, path string) (int, string, error) {
	lines, err := a.extract.Extract(ctx, path)
	if err != nil {
		a.log.Error("document extraction failed", zap.String("path", path), zap.Error(err))
		return 0, "", err
	}
	count, err := a.corpus.Ingest(ctx, lines)
	if err != nil {
		a.log.Error("document ingest failed", zap.String("path", path), zap.Error(err))
		return 0, "", err
	}
	a.log.Info("document ingested", zap.String("path", path), zap.Int("passages", count))
	return count, a.sum.Summarize(lines, 2), nil
}
