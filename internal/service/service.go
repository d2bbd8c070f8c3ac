// Package service is the single entry point for callers: hybrid search over
// the current generation and moderator-approved corrections that trigger a
// rebuild.
package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/faqline/faqline/internal/embed"
	"github.com/faqline/faqline/internal/faqerr"
	"github.com/faqline/faqline/internal/kb"
	"github.com/faqline/faqline/internal/reindex"
	"github.com/faqline/faqline/internal/retrieval"
)

// FallbackDraft is returned as the draft answer when a search yields no
// results.
const FallbackDraft = "We could not find an answer to your question in the " +
	"knowledge base. Please contact our support team so a colleague can help " +
	"you directly."

// ResultMeta describes one ranked result's source record.
type ResultMeta struct {
	Question    string `json:"question"`
	Answer      string `json:"answer"`
	Category    string `json:"category"`
	Subcategory string `json:"subcategory"`
}

// SearchResponse is the outcome of one search call. Draft is the top-ranked
// chunk's text, or FallbackDraft when nothing matched. Alternatives holds the
// texts of the top three ranked chunks, draft included.
type SearchResponse struct {
	Draft        string       `json:"draft"`
	Alternatives []string     `json:"alternatives"`
	Results      []ResultMeta `json:"results"`
}

// RetrievalService wires the coordinator, the embedder, and the ensemble
// fusion into the exposed search and correction operations.
type RetrievalService struct {
	coordinator *reindex.Coordinator
	embedder    embed.Embedder
	weights     retrieval.Weights
	topK        int
}

// New creates the service facade.
func New(coordinator *reindex.Coordinator, embedder embed.Embedder, weights retrieval.Weights, topK int) *RetrievalService {
	if topK <= 0 {
		topK = 3
	}
	return &RetrievalService{
		coordinator: coordinator,
		embedder:    embedder,
		weights:     weights,
		topK:        topK,
	}
}

// Search runs a hybrid query against the current generation. topK <= 0 falls
// back to the configured default. A provider failure on the query embedding
// degrades the search to lexical-only instead of failing the call; rebuild
// embedding failures are not forgiven this way.
func (s *RetrievalService) Search(ctx context.Context, query string, topK int) (*SearchResponse, error) {
	if topK <= 0 {
		topK = s.topK
	}

	gen, err := s.coordinator.Current()
	if err != nil {
		return nil, err
	}

	var queryVec []float32
	if s.weights.Vector > 0 && len(gen.Docs) > 0 {
		queryVec, err = s.embedder.Embed(ctx, query)
		if err != nil {
			if !errors.Is(err, faqerr.ErrProvider) && !errors.Is(err, faqerr.ErrProviderTimeout) {
				return nil, err
			}
			slog.Warn("query_embedding_failed_lexical_only",
				slog.String("error", err.Error()))
			queryVec = nil
		}
	}

	ranked, err := retrieval.Retrieve(ctx, gen, query, queryVec, s.weights, topK)
	if err != nil {
		return nil, err
	}

	resp := &SearchResponse{
		Alternatives: []string{},
		Results:      make([]ResultMeta, 0, len(ranked)),
	}
	if len(ranked) == 0 {
		resp.Draft = FallbackDraft
		return resp, nil
	}

	resp.Draft = ranked[0].Doc.Text
	for _, r := range ranked {
		if len(resp.Alternatives) == 3 {
			break
		}
		resp.Alternatives = append(resp.Alternatives, r.Doc.Text)
	}
	for _, r := range ranked {
		answer := r.Doc.Text
		if r.Doc.RecordOrdinal >= 0 && r.Doc.RecordOrdinal < len(gen.Records) {
			answer = gen.Records[r.Doc.RecordOrdinal].Answer
		}
		resp.Results = append(resp.Results, ResultMeta{
			Question:    r.Doc.Question,
			Answer:      answer,
			Category:    r.Doc.Category,
			Subcategory: r.Doc.Subcategory,
		})
	}
	return resp, nil
}

// ApplyCorrection applies a moderator-approved correction and waits for the
// resulting rebuild to publish. A post-publish persistence failure is logged
// by the coordinator and reported here as a non-nil warning alongside a nil
// error.
func (s *RetrievalService) ApplyCorrection(ctx context.Context, question, newAnswer string, tax kb.Taxonomy) (warn error, err error) {
	return s.coordinator.ApplyCorrection(ctx, question, newAnswer, tax)
}
