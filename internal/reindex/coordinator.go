// Package reindex owns the rebuild protocol: snapshot the knowledge base,
// build the next generation's indexes off the serving path, then publish the
// complete generation atomically. Readers load the current generation once
// per search and never observe a partially built or mixed state.
package reindex

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/faqline/faqline/internal/chunk"
	"github.com/faqline/faqline/internal/embed"
	"github.com/faqline/faqline/internal/faqerr"
	"github.com/faqline/faqline/internal/index"
	"github.com/faqline/faqline/internal/kb"
)

// CorpusPersister writes the knowledge base to durable storage after a
// publish. kb.Store is the production implementation.
type CorpusPersister interface {
	Save(records []kb.Record) error
	Path() string
}

// Config bundles the build parameters for every generation.
type Config struct {
	Chunking chunk.Config
	Lexical  index.LexicalConfig
	Vector   index.VectorConfig
}

// DefaultConfig returns the standard build parameters.
func DefaultConfig() Config {
	return Config{
		Chunking: chunk.DefaultConfig(),
		Lexical:  index.DefaultLexicalConfig(),
		Vector:   index.DefaultVectorConfig(),
	}
}

// mutation transforms one knowledge-base snapshot into the next. It must be
// pure; the coordinator owns all sequencing.
type mutation func(kb.KnowledgeBase) (kb.KnowledgeBase, error)

// request is one queued rebuild.
type request struct {
	ctx     context.Context
	mutate  mutation
	persist bool
	reply   chan outcome
}

// outcome separates hard failures from the post-publish persistence warning:
// when warn is non-nil the new generation is live but durable storage is
// stale until the next successful rebuild.
type outcome struct {
	err  error
	warn error
}

// Coordinator serializes rebuilds and publishes generations. The published
// generation pointer is the only state shared with readers; a single atomic
// store makes a complete generation visible, so concurrent searches are never
// blocked by a rebuild in progress.
type Coordinator struct {
	embedder embed.Embedder
	corpus   CorpusPersister
	config   Config

	current atomic.Pointer[index.Generation]
	seq     atomic.Uint64

	requests chan request
	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// New creates a coordinator and starts its single rebuild worker. Corrections
// arriving while a rebuild is in flight queue first-in-first-out.
func New(embedder embed.Embedder, corpus CorpusPersister, config Config) *Coordinator {
	c := &Coordinator{
		embedder: embedder,
		corpus:   corpus,
		config:   config,
		requests: make(chan request, 16),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go c.worker()
	return c
}

// Initialize builds generation 0 synchronously from raw corpus rows. The
// service is unavailable until this returns; rows with empty question or
// answer are dropped.
func (c *Coordinator) Initialize(ctx context.Context, rows []kb.Record) error {
	records := kb.Load(rows)
	gen, err := c.build(ctx, records)
	if err != nil {
		return err
	}
	c.current.Store(gen)
	slog.Info("generation_published",
		slog.Uint64("generation", gen.Seq),
		slog.Int("records", len(records)),
		slog.Int("documents", len(gen.Docs)))
	return nil
}

// Current returns the generation serving reads. Callers read it exactly once
// per search and operate on that snapshot for the call's duration.
func (c *Coordinator) Current() (*index.Generation, error) {
	gen := c.current.Load()
	if gen == nil {
		return nil, faqerr.ErrNotInitialized
	}
	return gen, nil
}

// ApplyCorrection queues a moderator-approved correction, waits for its
// rebuild to publish, and returns the persistence warning, if any. Validation
// errors surface as ErrValidation; build failures as ErrReindexFailed with
// the previous generation untouched.
func (c *Coordinator) ApplyCorrection(ctx context.Context, question, newAnswer string, tax kb.Taxonomy) (warn error, err error) {
	return c.enqueue(ctx, func(current kb.KnowledgeBase) (kb.KnowledgeBase, error) {
		return current.ApplyCorrection(question, newAnswer, tax)
	}, true)
}

// Reload queues a full rebuild from externally updated corpus rows. The
// corpus file is already the source of the change, so nothing is persisted.
func (c *Coordinator) Reload(ctx context.Context, rows []kb.Record) error {
	_, err := c.enqueue(ctx, func(kb.KnowledgeBase) (kb.KnowledgeBase, error) {
		return kb.Load(rows), nil
	}, false)
	return err
}

// Stop shuts down the rebuild worker. Queued rebuilds that have not started
// are rejected.
func (c *Coordinator) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })
	<-c.done
}

// enqueue submits a rebuild and waits for its outcome.
func (c *Coordinator) enqueue(ctx context.Context, mutate mutation, persist bool) (warn error, err error) {
	if c.current.Load() == nil {
		return nil, faqerr.ErrNotInitialized
	}

	req := request{
		ctx:     ctx,
		mutate:  mutate,
		persist: persist,
		reply:   make(chan outcome, 1),
	}

	select {
	case c.requests <- req:
	case <-c.stop:
		return nil, fmt.Errorf("%w: coordinator stopped", faqerr.ErrReindexFailed)
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case out := <-req.reply:
		return out.warn, out.err
	case <-c.done:
		return nil, fmt.Errorf("%w: coordinator stopped", faqerr.ErrReindexFailed)
	case <-ctx.Done():
		// The rebuild keeps running; its outcome is logged by the worker.
		return nil, ctx.Err()
	}
}

// worker is the single writer. Channel order gives first-in-first-out
// processing, so two rebuilds can never race to publish.
func (c *Coordinator) worker() {
	defer close(c.done)
	for {
		select {
		case <-c.stop:
			return
		case req := <-c.requests:
			out := c.rebuild(req)
			if out.err != nil {
				slog.Warn("rebuild_failed", slog.String("error", out.err.Error()))
			}
			req.reply <- out
		}
	}
}

// rebuild runs one queued rebuild end to end: pure mutation, off-path index
// build, atomic publish, then durable persistence.
func (c *Coordinator) rebuild(req request) outcome {
	prev := c.current.Load()

	next, err := req.mutate(prev.Records)
	if err != nil {
		// Bad input, not a build failure: surfaced as-is, nothing rebuilt.
		return outcome{err: err}
	}

	gen, err := c.build(req.ctx, next)
	if err != nil {
		return outcome{err: fmt.Errorf("%w: %v", faqerr.ErrReindexFailed, err)}
	}

	c.current.Store(gen)
	slog.Info("generation_published",
		slog.Uint64("generation", gen.Seq),
		slog.Int("records", len(next)),
		slog.Int("documents", len(gen.Docs)))

	if !req.persist {
		return outcome{}
	}
	if err := c.corpus.Save(next); err != nil {
		// The new generation stays live; durable storage lags until the
		// next successful rebuild.
		warn := &faqerr.PersistenceWarning{Path: c.corpus.Path(), Cause: err}
		slog.Warn("corpus_persist_failed",
			slog.Uint64("generation", gen.Seq),
			slog.String("path", c.corpus.Path()),
			slog.String("error", err.Error()))
		return outcome{warn: warn}
	}
	return outcome{}
}

// build constructs a complete generation off the serving path: chunk every
// record, embed the full document set, then build both indexes. Any failure
// leaves the published generation untouched.
func (c *Coordinator) build(ctx context.Context, records kb.KnowledgeBase) (*index.Generation, error) {
	docs := index.NewDocuments(records, func(answer string) []string {
		return chunk.Split(answer, c.config.Chunking)
	})

	var embeddings [][]float32
	if len(docs) > 0 {
		texts := make([]string, len(docs))
		for i, doc := range docs {
			texts[i] = doc.Text
		}
		var err error
		embeddings, err = c.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("embed %d documents: %w", len(docs), err)
		}
	}

	lexical, err := index.BuildLexicalIndex(docs, c.config.Lexical)
	if err != nil {
		return nil, fmt.Errorf("build lexical index: %w", err)
	}

	vector, err := index.BuildVectorIndex(docs, embeddings, c.config.Vector)
	if err != nil {
		_ = lexical.Close()
		return nil, fmt.Errorf("build vector index: %w", err)
	}

	return &index.Generation{
		Seq:     c.seq.Add(1) - 1,
		Records: records,
		Docs:    docs,
		Lexical: lexical,
		Vector:  vector,
	}, nil
}
